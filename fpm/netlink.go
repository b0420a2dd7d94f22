// Package fpm implements the FPM Netlink Encoder: RTM_NEWROUTE/DELROUTE
// frames carrying SRv6 local-SID and SRv6 route encapsulation attributes,
// in the wire format a downstream Forwarding Plane Manager speaks.
//
// The bit layout is grounded line-for-line on FRR's zebra_fpm_netlink.c
// (netlink_route_info_encode and the FPM_SRV6_* attribute enums).
// Netlink numeric constants come from golang.org/x/sys/unix rather than
// being hand-declared, since that package already carries them with
// kernel-ABI guarantees; the TLV writer itself is hand-rolled rather than
// built on vishvananda/netlink's nl subpackage, because this encoder must
// write into a caller-owned buffer and return 0 on overflow without
// allocating, a contract nl.RtAttr.Serialize() does not offer.
package fpm

import (
	"encoding/binary"
	"net/netip"

	"golang.org/x/sys/unix"
)

// ENCAP_TYPE discriminator values (RTA_ENCAP_TYPE payload).
const (
	EncapNone          uint16 = 0
	EncapVXLAN         uint16 = 100
	EncapSRv6Route     uint16 = 101
	EncapSRv6LocalSID  uint16 = 102
)

// SRv6 local-SID nested attribute codes (nested under RTA_ENCAP when
// RTA_ENCAP_TYPE == EncapSRv6LocalSID).
const (
	localSIDAction     uint16 = 1
	localSIDNH4        uint16 = 4
	localSIDNH6        uint16 = 5
	localSIDVRFName    uint16 = 100
	localSIDBlockLen   uint16 = 101
	localSIDNodeLen    uint16 = 102
	localSIDFuncLen    uint16 = 103
	localSIDArgLen     uint16 = 104
)

// SRv6 route-encap nested attribute codes.
const (
	routeVPNSID       uint16 = 100
	routeEncapSrcAddr uint16 = 101
)

const nlaAlignTo = 4

func nlaAlign(n int) int {
	return (n + nlaAlignTo - 1) &^ (nlaAlignTo - 1)
}

// cursor writes into a caller-owned buffer, never growing it. Once an
// attempted write would exceed the buffer it is marked overflowed and
// every subsequent write becomes a no-op, so callers can write a whole
// message unconditionally and check overflowed once at the end.
type cursor struct {
	buf        []byte
	pos        int
	overflowed bool
	needed     int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) reserve(n int) []byte {
	if c.overflowed || n > c.remaining() {
		c.overflowed = true
		c.needed += n
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) putU8(v uint8) {
	if b := c.reserve(1); b != nil {
		b[0] = v
	}
}

func (c *cursor) putU16(v uint16) {
	if b := c.reserve(2); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

func (c *cursor) putU32(v uint32) {
	if b := c.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (c *cursor) putBytes(v []byte) {
	if b := c.reserve(len(v)); b != nil {
		copy(b, v)
	}
}

func (c *cursor) pad(to int) {
	for c.pos < to && !c.overflowed {
		c.putU8(0)
	}
}

// attr writes a complete nlattr (header + payload), zero-padded to the
// next 4-byte boundary.
func (c *cursor) attr(attrType uint16, payload []byte) {
	start := c.pos
	length := 4 + len(payload)
	c.putU16(uint16(length))
	c.putU16(attrType)
	c.putBytes(payload)
	c.pad(nlaAlign(c.pos - start) + start)
}

func (c *cursor) attrU8(attrType uint16, v uint8)   { c.attr(attrType, []byte{v}) }
func (c *cursor) attrU32(attrType uint16, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	c.attr(attrType, b[:])
}
func (c *cursor) attrU16(attrType uint16, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	c.attr(attrType, b[:])
}
func (c *cursor) attrString(attrType uint16, s string) {
	c.attr(attrType, append([]byte(s), 0))
}

// nest reserves a length-prefixed nlattr header and returns its start
// offset; nestEnd patches in the final nested length once every
// sub-attribute has been written.
func (c *cursor) nest(attrType uint16) int {
	start := c.pos
	c.putU16(0) // length patched in nestEnd
	c.putU16(attrType)
	return start
}

func (c *cursor) nestEnd(start int) {
	if c.overflowed {
		return
	}
	binary.LittleEndian.PutUint16(c.buf[start:start+2], uint16(c.pos-start))
}

func addrFamilyBytes(af uint8) int {
	if af == unix.AF_INET {
		return 4
	}
	return 16
}

func addrBytes(a netip.Addr, af uint8) []byte {
	if af == unix.AF_INET {
		b := a.As4()
		return b[:]
	}
	b := a.As16()
	return b[:]
}
