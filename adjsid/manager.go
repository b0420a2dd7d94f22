package adjsid

import (
	"fmt"
	"net/netip"

	"github.com/arcrtr/srv6d/locator"
	"github.com/arcrtr/srv6d/sidfmt"
)

// Manager is one area's adjacency-SID bookkeeping: the live adjacencies,
// the End.X SIDs allocated for them, and the chunk(s) they allocate from.
type Manager struct {
	adjacencies map[AdjacencyID]*Adjacency
	byAdjacency map[AdjacencyID][]*EndXSID
	areaEndX    []*EndXSID
	chunks      []*locator.Chunk
	nextID      AdjacencyID

	// Reserved reports whether addr is already taken by some descriptor
	// outside this manager's own End.X set (e.g. a declared static SID
	// sharing the same locator). Auto-allocation treats both sets as one
	// collision domain, per spec. Nil means no such extra reservations.
	Reserved func(addr netip.Addr) bool

	// OnInstallRequest and OnWithdrawRequest drive the Installation
	// Controller; left nil in unit tests that only assert on the
	// manager's bookkeeping.
	OnInstallRequest  func(*EndXSID)
	OnWithdrawRequest func(*EndXSID)
}

// NewManager constructs an empty adjacency-SID manager for one area.
func NewManager() *Manager {
	return &Manager{
		adjacencies: make(map[AdjacencyID]*Adjacency),
		byAdjacency: make(map[AdjacencyID][]*EndXSID),
	}
}

// NewAdjacency registers a new link-state adjacency and returns its
// stable id. No SID is allocated until AdjIPv6Enabled.
func (m *Manager) NewAdjacency(circuit CircuitType, primary bool) *Adjacency {
	m.nextID++
	adj := &Adjacency{ID: m.nextID, Circuit: circuit, Primary: primary}
	m.adjacencies[adj.ID] = adj
	return adj
}

// AddChunk registers a locator chunk the area's protocol clients may
// allocate adjacency SIDs from. The first chunk added is the first one
// tried by AdjIPv6Enabled, per spec's "first chunk in the area's chunk
// list" allocation source.
func (m *Manager) AddChunk(c *locator.Chunk) {
	m.chunks = append(m.chunks, c)
}

// AdjUp handles an adjacency coming up. Per spec this does nothing until
// the adjacency's IPv6 address is known; it exists so callers have a
// single entry point per protocol event even though it is presently a
// no-op beyond existence validation.
func (m *Manager) AdjUp(id AdjacencyID) error {
	if _, ok := m.adjacencies[id]; !ok {
		return fmt.Errorf("adjsid: unknown adjacency %d", id)
	}
	return nil
}

// AdjIPv6Enabled allocates one new End.X SID for adj from the first
// available chunk in the area's chunk list, using auto-index allocation,
// and requests its installation.
func (m *Manager) AdjIPv6Enabled(id AdjacencyID, neighborV6 netip.Addr) (*EndXSID, error) {
	adj, ok := m.adjacencies[id]
	if !ok {
		return nil, fmt.Errorf("adjsid: unknown adjacency %d", id)
	}
	if len(m.chunks) == 0 {
		return nil, fmt.Errorf("adjsid: no locator chunk available to allocate adjacency %d an End.X SID", id)
	}

	adj.NeighborV6 = neighborV6
	adj.ipv6Enabled = true

	chunk := m.chunks[0]
	_, addr, err := AutoAllocateIndex(chunk, m.isUsed)
	if err != nil {
		return nil, err
	}

	behavior := endXBehaviorFor(chunk)
	sid := &EndXSID{
		Address:     addr,
		Behavior:    behavior,
		AdjacencyID: id,
		Chunk:       chunk,
	}

	m.areaEndX = append(m.areaEndX, sid)
	m.byAdjacency[id] = append(m.byAdjacency[id], sid)

	if m.OnInstallRequest != nil {
		m.OnInstallRequest(sid)
	}
	return sid, nil
}

// AdjDown and AdjIPv6Disabled both tear down every End.X SID owned by
// adj: uninstall, remove from both lists, free. They are the same
// operation under two names because, at the adjacency-SID layer, an
// adjacency going fully down and an adjacency losing its IPv6 address
// have identical consequences.
func (m *Manager) AdjDown(id AdjacencyID) error         { return m.teardown(id) }
func (m *Manager) AdjIPv6Disabled(id AdjacencyID) error { return m.teardown(id) }

func (m *Manager) teardown(id AdjacencyID) error {
	adj, ok := m.adjacencies[id]
	if !ok {
		return fmt.Errorf("adjsid: unknown adjacency %d", id)
	}
	adj.ipv6Enabled = false

	for _, sid := range m.byAdjacency[id] {
		if m.OnWithdrawRequest != nil {
			m.OnWithdrawRequest(sid)
		}
		m.removeFromAreaEndX(sid)
	}
	delete(m.byAdjacency, id)
	return nil
}

// HandleChunkRelease tears down every End.X SID sourced from c, then
// forgets c. Wired to locator.Registry.OnChunkRelease so that a locator
// deletion cascades through adjacency teardown before the chunk itself
// disappears.
func (m *Manager) HandleChunkRelease(c *locator.Chunk) {
	for adjID, sids := range m.byAdjacency {
		var kept []*EndXSID
		for _, sid := range sids {
			if sid.Chunk != c {
				kept = append(kept, sid)
				continue
			}
			if m.OnWithdrawRequest != nil {
				m.OnWithdrawRequest(sid)
			}
			m.removeFromAreaEndX(sid)
		}
		m.byAdjacency[adjID] = kept
	}

	for i, chunk := range m.chunks {
		if chunk == c {
			m.chunks = append(m.chunks[:i], m.chunks[i+1:]...)
			break
		}
	}
}

func (m *Manager) removeFromAreaEndX(sid *EndXSID) {
	for i, s := range m.areaEndX {
		if s == sid {
			m.areaEndX = append(m.areaEndX[:i], m.areaEndX[i+1:]...)
			return
		}
	}
}

// Adjacency returns the tracked adjacency for id, if any.
func (m *Manager) Adjacency(id AdjacencyID) (*Adjacency, bool) {
	adj, ok := m.adjacencies[id]
	return adj, ok
}

// AreaEndXSIDs returns every End.X SID currently advertised in the area.
func (m *Manager) AreaEndXSIDs() []*EndXSID {
	out := make([]*EndXSID, len(m.areaEndX))
	copy(out, m.areaEndX)
	return out
}

// AdjacencyEndXSIDs returns the End.X SIDs owned by a single adjacency.
func (m *Manager) AdjacencyEndXSIDs(id AdjacencyID) []*EndXSID {
	sids := m.byAdjacency[id]
	out := make([]*EndXSID, len(sids))
	copy(out, sids)
	return out
}

func (m *Manager) isUsed(addr netip.Addr) bool {
	for _, sid := range m.areaEndX {
		if sid.Address == addr {
			return true
		}
	}
	if m.Reserved != nil {
		return m.Reserved(addr)
	}
	return false
}

// endXBehaviorFor picks End.X (behavior code 2) for an ordinary locator,
// or its compressed-SID flavor UA for a usid locator.
func endXBehaviorFor(c *locator.Chunk) sidfmt.Behavior {
	if c.Locator.USID {
		return sidfmt.UA
	}
	return sidfmt.EndX
}
