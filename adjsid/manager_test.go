package adjsid

import (
	"net/netip"
	"testing"

	"github.com/arcrtr/srv6d/locator"
	"github.com/stretchr/testify/require"
)

func newTestChunk(t *testing.T) *locator.Chunk {
	reg := locator.NewRegistry()
	prefix, err := netip.ParsePrefix("2001:db8::/48")
	require.NoError(t, err)
	_, err = reg.Create("L1", prefix, 32, 16, 16, 0, false)
	require.NoError(t, err)
	c, err := reg.ChunkAlloc("L1", "isis")
	require.NoError(t, err)
	return c
}

func TestAdjIPv6EnabledAllocatesSmallestIndex(t *testing.T) {
	m := NewManager()
	m.AddChunk(newTestChunk(t))

	adj := m.NewAdjacency(CircuitPointToPoint, true)
	require.NoError(t, m.AdjUp(adj.ID))

	sid, err := m.AdjIPv6Enabled(adj.ID, netip.MustParseAddr("fe80::1"))
	require.NoError(t, err)
	require.Equal(t, netip.MustParseAddr("2001:db8:0:0:0001::"), sid.Address)

	require.Len(t, m.AreaEndXSIDs(), 1)
	require.Len(t, m.AdjacencyEndXSIDs(adj.ID), 1)
}

func TestAdjIPv6EnabledSkipsCollisions(t *testing.T) {
	m := NewManager()
	m.AddChunk(newTestChunk(t))

	taken := netip.MustParseAddr("2001:db8:0:0:0001::")
	m.Reserved = func(a netip.Addr) bool { return a == taken }

	adj := m.NewAdjacency(CircuitPointToPoint, true)
	sid, err := m.AdjIPv6Enabled(adj.ID, netip.MustParseAddr("fe80::1"))
	require.NoError(t, err)
	require.NotEqual(t, taken, sid.Address)
	require.Equal(t, netip.MustParseAddr("2001:db8:0:0:0002::"), sid.Address)
}

func TestAdjDownTearsDownEveryEndXSID(t *testing.T) {
	m := NewManager()
	m.AddChunk(newTestChunk(t))

	var withdrawn []*EndXSID
	m.OnWithdrawRequest = func(s *EndXSID) { withdrawn = append(withdrawn, s) }

	adj := m.NewAdjacency(CircuitPointToPoint, true)
	sid, err := m.AdjIPv6Enabled(adj.ID, netip.MustParseAddr("fe80::1"))
	require.NoError(t, err)

	require.NoError(t, m.AdjDown(adj.ID))
	require.Len(t, withdrawn, 1)
	require.Same(t, sid, withdrawn[0])
	require.Len(t, m.AreaEndXSIDs(), 0)
	require.Len(t, m.AdjacencyEndXSIDs(adj.ID), 0)
}

func TestHandleChunkReleaseTearsDownDependents(t *testing.T) {
	m := NewManager()
	chunk := newTestChunk(t)
	m.AddChunk(chunk)

	var withdrawn []*EndXSID
	m.OnWithdrawRequest = func(s *EndXSID) { withdrawn = append(withdrawn, s) }

	adj := m.NewAdjacency(CircuitPointToPoint, true)
	_, err := m.AdjIPv6Enabled(adj.ID, netip.MustParseAddr("fe80::1"))
	require.NoError(t, err)

	m.HandleChunkRelease(chunk)
	require.Len(t, withdrawn, 1)
	require.Len(t, m.AreaEndXSIDs(), 0)
	require.Len(t, m.chunks, 0)
}

func TestEndXBehaviorReflectsUSIDFlag(t *testing.T) {
	reg := locator.NewRegistry()
	prefix := netip.MustParsePrefix("2001:db8::/48")
	_, err := reg.Create("L1", prefix, 32, 16, 16, 0, true)
	require.NoError(t, err)
	chunk, err := reg.ChunkAlloc("L1", "isis")
	require.NoError(t, err)

	m := NewManager()
	m.AddChunk(chunk)
	adj := m.NewAdjacency(CircuitPointToPoint, true)

	sid, err := m.AdjIPv6Enabled(adj.ID, netip.MustParseAddr("fe80::1"))
	require.NoError(t, err)
	require.Equal(t, "uA", sid.Behavior.Display())
}
