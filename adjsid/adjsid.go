// Package adjsid maintains the set of End.X SIDs bound to link-state
// adjacencies: allocation on adjacency IPv6-up, teardown on adjacency
// down or locator-chunk release.
package adjsid

import (
	"errors"
	"net/netip"

	"github.com/arcrtr/srv6d/locator"
	"github.com/arcrtr/srv6d/sidfmt"
)

// AdjacencyID is a stable handle to an Adjacency. SIDs reference the
// adjacency by this id rather than by pointer, so that an End.X SID and
// its owning adjacency can reference each other without a literal
// reference cycle — every lookup goes back through the Manager's maps.
type AdjacencyID uint64

// CircuitType distinguishes a point-to-point link from a broadcast LAN,
// which determines which End.X descriptor variant an adjacency gets.
type CircuitType int

const (
	CircuitPointToPoint CircuitType = iota
	CircuitBroadcast
)

// Adjacency is one IS-IS link-state adjacency tracked for SRv6 purposes.
type Adjacency struct {
	ID          AdjacencyID
	Circuit     CircuitType
	Primary     bool
	NeighborV6  netip.Addr
	ipv6Enabled bool
}

// EndXSID is one dynamically allocated adjacency-scoped End.X SID.
type EndXSID struct {
	Address     netip.Addr
	Behavior    sidfmt.Behavior // EndX, or UA for a usid locator
	AdjacencyID AdjacencyID
	Chunk       *locator.Chunk
}

// ErrAllocationExhausted is returned when no index in the chunk's
// function-field range is free.
var ErrAllocationExhausted = errors.New("adjsid: no free function index in chunk")

// AutoAllocateIndex searches indices 1..2^func_len-2 inclusive (0 and the
// top sentinel 2^func_len-1 are excluded, per the frozen allocation
// range) for the smallest index whose transposed address does not
// satisfy used. It is deterministic given the set used reports as taken.
func AutoAllocateIndex(chunk *locator.Chunk, used func(netip.Addr) bool) (index uint64, addr netip.Addr, err error) {
	structure := chunk.Locator.Structure
	base := chunk.Prefix.Addr()
	top := structure.MaxFunctionIndex()

	for idx := uint64(1); idx < top; idx++ {
		candidate, terr := sidfmt.TransposeStructure(base, idx, structure)
		if terr != nil {
			return 0, netip.Addr{}, terr
		}
		if used(candidate) {
			continue
		}
		return idx, candidate, nil
	}
	return 0, netip.Addr{}, ErrAllocationExhausted
}
