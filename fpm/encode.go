package fpm

import (
	"encoding/binary"

	"github.com/arcrtr/srv6d/errs"
	"github.com/arcrtr/srv6d/sidfmt"
	"golang.org/x/sys/unix"
)

const (
	nlmsghdrLen = 16
	rtmsgLen    = 12
)

// EncodeRoute writes r into buf as a single RTM_NEWROUTE or RTM_DELROUTE
// netlink frame and returns the number of bytes written. It never
// allocates and never writes past len(buf): on overflow it returns 0 and
// an *errs.EncodeOverflow naming how many more bytes were needed: the
// caller is expected to drop the frame or retry with a bigger buffer.
func EncodeRoute(buf []byte, r Route) (int, error) {
	c := &cursor{buf: buf}

	af := r.family()
	bytelen := addrFamilyBytes(af)

	// nlmsghdr, patched at the end once the true length is known.
	hdrStart := c.pos
	c.reserve(nlmsghdrLen)

	// rtmsg
	c.putU8(af)
	c.putU8(uint8(r.Dst.Bits()))
	c.putU8(0) // rtm_src_len
	c.putU8(0) // rtm_tos
	if r.Table < 256 {
		c.putU8(uint8(r.Table))
	} else {
		c.putU8(0) // RT_TABLE_UNSPEC
	}
	c.putU8(r.Protocol)
	c.putU8(unix.RT_SCOPE_UNIVERSE)
	c.putU8(r.RouteType)
	c.putU32(0) // rtm_flags

	if r.Table >= 256 {
		c.attrU32(unix.RTA_TABLE, r.Table)
	}

	c.attr(unix.RTA_DST, addrBytes(r.Dst.Addr(), af))

	if r.Metric != nil {
		c.attrU32(unix.RTA_PRIORITY, *r.Metric)
	}

	switch len(r.Nexthops) {
	case 0:
		// no nexthop attributes
	case 1:
		encodeSingleNexthop(c, af, bytelen, r.Nexthops[0])
	default:
		encodeMultipath(c, af, bytelen, r.Nexthops)
	}

	if r.PrefSrc.IsValid() {
		c.attr(unix.RTA_PREFSRC, addrBytes(r.PrefSrc, af))
	}

	if c.overflowed {
		return 0, &errs.EncodeOverflow{Needed: c.needed}
	}

	msgType := uint16(unix.RTM_NEWROUTE)
	if r.Delete {
		msgType = unix.RTM_DELROUTE
	}
	binary.LittleEndian.PutUint32(buf[hdrStart:hdrStart+4], uint32(c.pos-hdrStart))
	binary.LittleEndian.PutUint16(buf[hdrStart+4:hdrStart+6], msgType)
	flags := uint16(unix.NLM_F_CREATE | unix.NLM_F_REQUEST)
	if r.Delete {
		flags = unix.NLM_F_REQUEST
	}
	binary.LittleEndian.PutUint16(buf[hdrStart+6:hdrStart+8], flags)
	// nlmsg_seq, nlmsg_pid left zero: filled in by the transport.

	return c.pos, nil
}

func encodeSingleNexthop(c *cursor, af uint8, bytelen int, nh Nexthop) {
	if nh.Gateway.IsValid() {
		c.attr(unix.RTA_GATEWAY, addrBytes(nh.Gateway, af))
	}
	if nh.OIF != 0 {
		c.attrU32(unix.RTA_OIF, nh.OIF)
	}

	switch {
	case nh.LocalSID != nil:
		c.attrU16(unix.RTA_ENCAP_TYPE, EncapSRv6LocalSID)
		nest := c.nest(unix.RTA_ENCAP)
		encodeLocalSIDEncap(c, *nh.LocalSID)
		c.nestEnd(nest)
	case nh.Route != nil:
		c.attrU16(unix.RTA_ENCAP_TYPE, EncapSRv6Route)
		nest := c.nest(unix.RTA_ENCAP)
		encodeRouteEncap(c, *nh.Route)
		c.nestEnd(nest)
	}
}

// encodeMultipath writes an RTA_MULTIPATH nest of rtnexthop entries.
// SRv6 encaps are single-nexthop only (spec's explicit restriction), so
// a multipath entry's LocalSID/Route fields are ignored here.
func encodeMultipath(c *cursor, af uint8, bytelen int, nhs []Nexthop) {
	nest := c.nest(unix.RTA_MULTIPATH)
	for _, nh := range nhs {
		rtnhStart := c.pos
		c.reserve(8) // struct rtnexthop: len(2) flags(1) hops(1) ifindex(4)
		if nh.Gateway.IsValid() {
			c.attr(unix.RTA_GATEWAY, addrBytes(nh.Gateway, af))
		}
		if !c.overflowed {
			binary.LittleEndian.PutUint16(c.buf[rtnhStart:rtnhStart+2], uint16(c.pos-rtnhStart))
			binary.LittleEndian.PutUint32(c.buf[rtnhStart+4:rtnhStart+8], nh.OIF)
		}
	}
	c.nestEnd(nest)
}

func encodeLocalSIDEncap(c *cursor, e LocalSIDEncap) {
	c.attrU8(localSIDBlockLen, uint8(e.Structure.BlockLenBits))
	c.attrU8(localSIDNodeLen, uint8(e.Structure.NodeLenBits))
	c.attrU8(localSIDFuncLen, uint8(e.Structure.FunctionLenBits))
	c.attrU8(localSIDArgLen, uint8(e.Structure.ArgumentLenBits))

	wire := e.Behavior.ToWire()
	c.attrU32(localSIDAction, uint32(wire))

	switch sidfmt.Behavior(wire) {
	case sidfmt.EndX:
		c.attr(localSIDNH6, addrBytes(e.NH6, unix.AF_INET6))
	case sidfmt.EndDX4:
		c.attr(localSIDNH4, addrBytes(e.NH4, unix.AF_INET))
	case sidfmt.EndT, sidfmt.EndDT4, sidfmt.EndDT6, sidfmt.EndDT46,
		sidfmt.UDT4, sidfmt.UDT6, sidfmt.UDT46:
		c.attrString(localSIDVRFName, e.VRFName)
	}
}

func encodeRouteEncap(c *cursor, e RouteEncap) {
	c.attr(routeEncapSrcAddr, addrBytes(e.EncapSrcAddr, unix.AF_INET6))
	c.attr(routeVPNSID, addrBytes(e.VPNSID, unix.AF_INET6))
}
