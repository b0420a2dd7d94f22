package statictab

import (
	"net/netip"

	"github.com/arcrtr/srv6d/errs"
	"github.com/arcrtr/srv6d/sidfmt"
	"github.com/gaissmai/bart"
)

// Table is the process-wide catalogue of static SIDs. Only the static
// daemon's process hosts one (the IS-IS daemon keeps none), so "at most
// one Static SID per address" is enforced within a single Table instance.
type Table struct {
	byAddr  bart.Table[*SID]
	ordered []*SID

	// OnChange is invoked after Add and after AttributeSet, once the
	// descriptor's fields are settled, so the Installation Controller can
	// re-derive desired state synchronously within the same dispatch
	// closure. Left nil outside of core wiring (e.g. in locator/statictab
	// unit tests).
	OnChange func(*SID)
}

// NewTable constructs an empty static SID table.
func NewTable() *Table {
	return &Table{}
}

func addrPrefix(a netip.Addr) netip.Prefix {
	return netip.PrefixFrom(a, a.BitLen())
}

// Add creates a descriptor with no attributes set. A duplicate address
// returns the existing descriptor unchanged — Add is not how attributes
// get (re)set, that is AttributeSet's job.
func (t *Table) Add(address netip.Addr, behavior sidfmt.Behavior) (*SID, error) {
	if !address.Is6() {
		return nil, errs.Configf("static SID address %s must be IPv6", address)
	}
	pfx := addrPrefix(address)
	if existing, ok := t.byAddr.Get(pfx); ok {
		return existing, nil
	}

	sid := &SID{
		Address:  address,
		Behavior: behavior,
	}
	t.byAddr.Insert(pfx, sid)
	t.ordered = append(t.ordered, sid)

	t.revalidate(sid)
	return sid, nil
}

// Lookup returns the descriptor for address, if any.
func (t *Table) Lookup(address netip.Addr) (*SID, bool) {
	return t.byAddr.Get(addrPrefix(address))
}

// Delete removes the descriptor for address. It is not an error to
// delete an address with no descriptor.
func (t *Table) Delete(address netip.Addr) {
	pfx := addrPrefix(address)
	sid, ok := t.byAddr.Get(pfx)
	if !ok {
		return
	}
	t.byAddr.Delete(pfx)
	for i, s := range t.ordered {
		if s == sid {
			t.ordered = append(t.ordered[:i], t.ordered[i+1:]...)
			break
		}
	}
}

// All returns every descriptor in insertion order, the order the
// configuration pretty-printer is contracted to preserve.
func (t *Table) All() []*SID {
	out := make([]*SID, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// AttributeSet assigns one attribute on the SID at address and
// re-evaluates its validity. Exactly one field of attr must be set; it is
// a ConfigError to pass an empty Attribute or one with more than one
// field set, since the wire protocol this mirrors sets attributes one at
// a time.
func (t *Table) AttributeSet(address netip.Addr, attr Attribute) error {
	sid, ok := t.Lookup(address)
	if !ok {
		return errs.Configf("static SID %s is not declared", address)
	}

	set := 0
	if attr.VRFName != "" {
		set++
	}
	if attr.IfName != "" {
		set++
	}
	if attr.AdjV6.IsValid() {
		set++
	}
	switch set {
	case 0:
		return errs.Configf("AttributeSet requires exactly one attribute")
	case 1:
	default:
		return errs.Configf("AttributeSet accepts exactly one attribute per call, got %d", set)
	}

	switch {
	case attr.VRFName != "":
		sid.VRFName = attr.VRFName
	case attr.IfName != "":
		sid.IfName = attr.IfName
	case attr.AdjV6.IsValid():
		sid.AdjV6 = attr.AdjV6
	}

	t.revalidate(sid)
	return nil
}

func (t *Table) revalidate(sid *SID) {
	if t.OnChange != nil {
		t.OnChange(sid)
	}
}
