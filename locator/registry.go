package locator

import (
	"net/netip"

	"github.com/arcrtr/srv6d/errs"
	"github.com/arcrtr/srv6d/sidfmt"
	"github.com/arcrtr/srv6d/state"
	"github.com/gaissmai/bart"
)

// Registry is one area's locator catalogue. It keeps an ordered slice for
// deterministic enumeration (the pretty-printer's contract) alongside a
// compressed trie for the "which locator covers this SID address" lookup
// (Covers).
type Registry struct {
	byName   map[string]*Locator
	ordered  []*Locator
	coverage bart.Table[*Locator]

	// OnChunkRelease, if set, is invoked once per released chunk during
	// Delete and ChunkRelease, before the chunk is detached from its
	// locator. The IS-IS daemon wires this to adjsid.Manager's
	// HandleChunkRelease so that deleting a locator tears down every
	// End.X SID sourced from it.
	OnChunkRelease func(*Chunk)
}

// NewRegistry constructs an empty locator registry for one area.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Locator),
	}
}

// Create defines a locator, idempotent by name: a second call with
// identical parameters returns the existing locator; a second call with
// different parameters is a ConfigError, since an existing locator's
// chunks would otherwise silently change shape under their owners.
func (r *Registry) Create(name string, prefix netip.Prefix, blockLen, nodeLen, functionLen, argumentLen int, usid bool) (*Locator, error) {
	structure, err := sidfmt.NewSIDStructure(blockLen, nodeLen, functionLen, argumentLen)
	if err != nil {
		return nil, err
	}
	if blockLen+nodeLen != prefix.Bits() {
		return nil, errs.Configf("locator %q: block_len+node_len (%d) must equal prefix length (%d)", name, blockLen+nodeLen, prefix.Bits())
	}
	if functionLen < 1 {
		return nil, errs.Configf("locator %q: function_len must be at least 1", name)
	}
	if functionLen > state.MaxFunctionBits {
		return nil, errs.Configf("locator %q: function_len %d exceeds the %d-bit auto-allocation limit", name, functionLen, state.MaxFunctionBits)
	}
	if !prefix.Addr().Is6() {
		return nil, errs.Configf("locator %q: prefix must be IPv6", name)
	}

	if existing, ok := r.byName[name]; ok {
		if existing.Prefix == prefix && existing.Structure == structure && existing.USID == usid {
			return existing, nil
		}
		return nil, errs.Configf("locator %q already exists with different parameters", name)
	}

	loc := &Locator{
		Name:      name,
		Prefix:    prefix.Masked(),
		Structure: structure,
		USID:      usid,
		Status:    StatusUp,
	}
	r.byName[name] = loc
	r.ordered = append(r.ordered, loc)
	r.coverage.Insert(loc.Prefix, loc)
	return loc, nil
}

// Lookup returns the named locator, if any.
func (r *Registry) Lookup(name string) (*Locator, bool) {
	l, ok := r.byName[name]
	return l, ok
}

// Covers returns the locator whose prefix covers addr, via longest-prefix
// match, satisfying the "every SID address is covered by some chunk of
// some locator" invariant check.
func (r *Registry) Covers(addr netip.Addr) (*Locator, bool) {
	return r.coverage.Lookup(addr)
}

// All returns locators in creation order.
func (r *Registry) All() []*Locator {
	out := make([]*Locator, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Delete releases every chunk owned against the locator, invoking
// OnChunkRelease for each before removing the locator itself.
func (r *Registry) Delete(name string) error {
	loc, ok := r.byName[name]
	if !ok {
		return errs.Configf("locator %q does not exist", name)
	}
	for _, c := range loc.Chunks {
		if r.OnChunkRelease != nil {
			r.OnChunkRelease(c)
		}
	}
	loc.Chunks = nil

	delete(r.byName, name)
	r.coverage.Delete(loc.Prefix)
	for i, l := range r.ordered {
		if l == loc {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// ChunkAlloc hands out the locator's chunk to owner. Per spec the whole
// locator prefix is the chunk; a second call for the same owner returns
// the already-outstanding chunk rather than allocating a new one, since
// at most one outstanding chunk per owner is the published invariant.
func (r *Registry) ChunkAlloc(locatorName, owner string) (*Chunk, error) {
	loc, ok := r.byName[locatorName]
	if !ok {
		return nil, errs.Configf("locator %q does not exist", locatorName)
	}
	for _, c := range loc.Chunks {
		if c.Owner == owner {
			return c, nil
		}
	}
	c := &Chunk{
		Prefix:  loc.Prefix,
		Owner:   owner,
		Locator: loc,
	}
	loc.Chunks = append(loc.Chunks, c)
	return c, nil
}

// ChunkRelease releases owner's outstanding chunk against locatorName, if
// any. It is not an error to release a chunk that does not exist.
func (r *Registry) ChunkRelease(locatorName, owner string) error {
	loc, ok := r.byName[locatorName]
	if !ok {
		return errs.Configf("locator %q does not exist", locatorName)
	}
	for i, c := range loc.Chunks {
		if c.Owner == owner {
			if r.OnChunkRelease != nil {
				r.OnChunkRelease(c)
			}
			loc.Chunks = append(loc.Chunks[:i], loc.Chunks[i+1:]...)
			return nil
		}
	}
	return nil
}
