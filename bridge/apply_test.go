package bridge

import (
	"net/netip"
	"testing"

	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/core"
	"github.com/stretchr/testify/require"
)

func TestApplyAddLocalSIDCarriesContext(t *testing.T) {
	fc := broker.NewFakeClient()
	eff := core.Effect{
		Kind:    core.EffectAddLocalSID,
		Address: netip.MustParseAddr("fc00::2"),
		OIF:     "red",
		Action:  8,
		Context: core.Context{HasTable: true, TableID: 100, VRFName: "red"},
	}

	require.NoError(t, Apply(fc, eff))
	require.Len(t, fc.Calls, 1)
	require.Equal(t, "ADD_LOCALSID", fc.Calls[0].Kind)
	require.Equal(t, uint16(8), fc.Calls[0].Action)
}

func TestApplyDelLocalSID(t *testing.T) {
	fc := broker.NewFakeClient()
	eff := core.Effect{
		Kind:    core.EffectDelLocalSID,
		Address: netip.MustParseAddr("fc00::1"),
		OIF:     "eth0",
	}

	require.NoError(t, Apply(fc, eff))
	require.Len(t, fc.Calls, 1)
	require.Equal(t, "DEL_LOCALSID", fc.Calls[0].Kind)
}

func TestApplyPropagatesSendFailure(t *testing.T) {
	fc := broker.NewFakeClient()
	addr := netip.MustParseAddr("fc00::1")
	fc.FailAddresses[addr] = true

	eff := core.Effect{Kind: core.EffectAddLocalSID, Address: addr}
	require.Error(t, Apply(fc, eff))
}
