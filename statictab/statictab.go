// Package statictab implements the operator-declared Static SID table:
// one descriptor per 128-bit address, insertion-order preserved for the
// configuration pretty-printer, looked up through a compressed trie.
//
// Grounded on the real static-SID bookkeeping struct and its flag pair
// (VALID / SENT_TO_BROKER), adapted here to idiomatic Go naming.
package statictab

import (
	"net/netip"

	"github.com/arcrtr/srv6d/sidfmt"
)

// SID is one operator-declared static local SID.
type SID struct {
	Address  netip.Addr
	Behavior sidfmt.Behavior

	VRFName string
	IfName  string
	AdjV6   netip.Addr

	Valid        bool
	SentToBroker bool
}

// HasVRF reports whether a VRF name has been set on the SID.
func (s *SID) HasVRF() bool { return s.VRFName != "" }

// HasIfName reports whether an outgoing interface has been set.
func (s *SID) HasIfName() bool { return s.IfName != "" }

// HasAdjacency reports whether an IPv6 adjacency (nexthop) has been set.
func (s *SID) HasAdjacency() bool { return s.AdjV6.IsValid() }

// Attribute is the tagged attribute payload accepted by AttributeSet:
// exactly one of VRFName, IfName, or AdjV6 must be non-zero.
type Attribute struct {
	VRFName string
	IfName  string
	AdjV6   netip.Addr
}
