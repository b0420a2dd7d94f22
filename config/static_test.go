package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/arcrtr/srv6d/sidfmt"
	"github.com/arcrtr/srv6d/statictab"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadStaticConfigAndApply(t *testing.T) {
	path := writeTemp(t, `
sids:
  - address: fc00::1
    behavior: end
    ifname: eth0
  - address: fc00::2
    behavior: end-dt4
    vrf: red
`)

	cfg, err := LoadStaticConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.SIDs, 2)

	table := statictab.NewTable()
	require.NoError(t, cfg.Apply(table))

	sid1, ok := table.Lookup(netip.MustParseAddr("fc00::1"))
	require.True(t, ok)
	require.Equal(t, sidfmt.End, sid1.Behavior)
	require.Equal(t, "eth0", sid1.IfName)

	sid2, ok := table.Lookup(netip.MustParseAddr("fc00::2"))
	require.True(t, ok)
	require.Equal(t, sidfmt.EndDT4, sid2.Behavior)
	require.Equal(t, "red", sid2.VRFName)
}

func TestStaticConfigApplyRejectsBothIfNameAndVRF(t *testing.T) {
	cfg := &StaticConfig{SIDs: []StaticSIDEntry{
		{Address: netip.MustParseAddr("fc00::1"), Behavior: "end", IfName: "eth0", VRF: "red"},
	}}
	err := cfg.Apply(statictab.NewTable())
	require.Error(t, err)
}

func TestStaticConfigApplyAcceptsAdjV6Attribute(t *testing.T) {
	cfg := &StaticConfig{SIDs: []StaticSIDEntry{
		{
			Address:  netip.MustParseAddr("fc00::3"),
			Behavior: "end-x",
			AdjV6:    netip.MustParseAddr("fe80::1"),
		},
	}}

	table := statictab.NewTable()
	require.NoError(t, cfg.Apply(table))

	sid, ok := table.Lookup(netip.MustParseAddr("fc00::3"))
	require.True(t, ok)
	require.Equal(t, sidfmt.EndX, sid.Behavior)
	require.Equal(t, netip.MustParseAddr("fe80::1"), sid.AdjV6)
}

func TestStaticConfigApplyAllowsNoAttributeYet(t *testing.T) {
	cfg := &StaticConfig{SIDs: []StaticSIDEntry{
		{Address: netip.MustParseAddr("fc00::4"), Behavior: "end"},
	}}

	table := statictab.NewTable()
	require.NoError(t, cfg.Apply(table))

	sid, ok := table.Lookup(netip.MustParseAddr("fc00::4"))
	require.True(t, ok)
	require.Empty(t, sid.IfName)
	require.Empty(t, sid.VRFName)
	require.False(t, sid.AdjV6.IsValid())
}

func TestStaticConfigApplyRejectsUnknownBehavior(t *testing.T) {
	cfg := &StaticConfig{SIDs: []StaticSIDEntry{
		{Address: netip.MustParseAddr("fc00::1"), Behavior: "not-a-behavior", IfName: "eth0"},
	}}
	err := cfg.Apply(statictab.NewTable())
	require.Error(t, err)
}
