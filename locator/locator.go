// Package locator implements the per-area SRv6 locator catalogue: named
// locator prefixes, their SID-structure field widths, and the chunks
// handed out to protocol clients allocating SIDs from them.
package locator

import (
	"net/netip"

	"github.com/arcrtr/srv6d/sidfmt"
)

// Status is whether a locator is currently advertised as usable.
type Status int

const (
	StatusDown Status = iota
	StatusUp
)

// Locator is a named IPv6 prefix from which SIDs are allocated, plus the
// bit-field structure every SID drawn from it shares and the chunks
// handed out so far.
type Locator struct {
	Name      string
	Prefix    netip.Prefix
	Structure sidfmt.SIDStructure
	USID      bool
	Status    Status
	Chunks    []*Chunk
}

// Chunk is a sub-prefix of a locator assigned to one owner. Owner is a
// protocol-client identifier; an empty Owner marks the chunk free. Per
// spec, the registry hands out the full locator prefix as a single chunk
// to every owner that asks — chunks are a shared, not partitioned,
// sub-space; disjointness across owners is a client contract, not an
// invariant this package enforces.
type Chunk struct {
	Prefix  netip.Prefix
	Owner   string
	Locator *Locator
}
