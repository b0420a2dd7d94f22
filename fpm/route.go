package fpm

import (
	"net/netip"

	"github.com/arcrtr/srv6d/sidfmt"
	"golang.org/x/sys/unix"
)

// LocalSIDEncap is the SRv6 local-SID nested encap (ENCAP_TYPE=102):
// the four SID-structure field widths plus whichever context field the
// behavior requires.
type LocalSIDEncap struct {
	Structure sidfmt.SIDStructure
	Behavior  sidfmt.Behavior

	NH4     netip.Addr
	NH6     netip.Addr
	VRFName string
}

// RouteEncap is the SRv6 route nested encap (ENCAP_TYPE=101): a VPN SID
// and the source address used for SRv6 encapsulation.
type RouteEncap struct {
	VPNSID       netip.Addr
	EncapSrcAddr netip.Addr
}

// Nexthop is one next-hop of a route. Exactly one of LocalSID or Route
// may be set, and only when there is exactly one Nexthop in the route —
// SRv6 encaps are single-nexthop only; a multipath message ignores
// LocalSID/Route on every entry (VxLAN-style encaps are out of this
// encoder's scope entirely, so a multipath message here never carries
// an encap).
type Nexthop struct {
	Gateway netip.Addr
	OIF     uint32

	LocalSID *LocalSIDEncap
	Route    *RouteEncap
}

// Route is the route this package turns into an RTM_NEWROUTE or
// RTM_DELROUTE frame.
type Route struct {
	Delete bool

	Dst       netip.Prefix
	Table     uint32
	Protocol  uint8
	RouteType uint8

	Metric  *uint32
	PrefSrc netip.Addr

	Nexthops []Nexthop
}

func (r Route) family() uint8 {
	if r.Dst.Addr().Is4() {
		return unix.AF_INET
	}
	return unix.AF_INET6
}
