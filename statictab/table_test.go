package statictab

import (
	"net/netip"
	"testing"

	"github.com/arcrtr/srv6d/sidfmt"
	"github.com/stretchr/testify/require"
)

func TestAddIsDuplicateSafe(t *testing.T) {
	tab := NewTable()
	addr := netip.MustParseAddr("fc00::1")

	s1, err := tab.Add(addr, sidfmt.End)
	require.NoError(t, err)
	s2, err := tab.Add(addr, sidfmt.EndT)
	require.NoError(t, err)
	require.Same(t, s1, s2, "duplicate Add must return the existing descriptor unchanged")
	require.Equal(t, sidfmt.End, s2.Behavior)
}

func TestAddRejectsIPv4(t *testing.T) {
	tab := NewTable()
	_, err := tab.Add(netip.MustParseAddr("10.0.0.1"), sidfmt.End)
	require.Error(t, err)
}

func TestAttributeSetRequiresExactlyOneField(t *testing.T) {
	tab := NewTable()
	addr := netip.MustParseAddr("fc00::1")
	_, err := tab.Add(addr, sidfmt.EndT)
	require.NoError(t, err)

	err = tab.AttributeSet(addr, Attribute{})
	require.Error(t, err)

	err = tab.AttributeSet(addr, Attribute{VRFName: "red", IfName: "eth0"})
	require.Error(t, err)

	err = tab.AttributeSet(addr, Attribute{VRFName: "red"})
	require.NoError(t, err)

	sid, ok := tab.Lookup(addr)
	require.True(t, ok)
	require.Equal(t, "red", sid.VRFName)
	require.True(t, sid.HasVRF())
}

func TestAttributeSetOnUndeclaredAddressErrors(t *testing.T) {
	tab := NewTable()
	err := tab.AttributeSet(netip.MustParseAddr("fc00::9"), Attribute{VRFName: "red"})
	require.Error(t, err)
}

func TestDeleteRemovesDescriptor(t *testing.T) {
	tab := NewTable()
	addr := netip.MustParseAddr("fc00::1")
	_, err := tab.Add(addr, sidfmt.End)
	require.NoError(t, err)

	tab.Delete(addr)
	_, ok := tab.Lookup(addr)
	require.False(t, ok)
	require.Len(t, tab.All(), 0)

	tab.Delete(addr) // no-op, must not panic
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	tab := NewTable()
	a1 := netip.MustParseAddr("fc00::1")
	a2 := netip.MustParseAddr("fc00::2")
	a3 := netip.MustParseAddr("fc00::3")

	_, err := tab.Add(a1, sidfmt.End)
	require.NoError(t, err)
	_, err = tab.Add(a2, sidfmt.End)
	require.NoError(t, err)
	_, err = tab.Add(a3, sidfmt.End)
	require.NoError(t, err)

	all := tab.All()
	require.Len(t, all, 3)
	require.Equal(t, a1, all[0].Address)
	require.Equal(t, a2, all[1].Address)
	require.Equal(t, a3, all[2].Address)
}

func TestOnChangeFiresOnAddAndAttributeSet(t *testing.T) {
	tab := NewTable()
	var calls int
	tab.OnChange = func(*SID) { calls++ }

	addr := netip.MustParseAddr("fc00::1")
	_, err := tab.Add(addr, sidfmt.EndT)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	err = tab.AttributeSet(addr, Attribute{VRFName: "red"})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
