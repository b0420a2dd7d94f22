// Package sidfmt holds the pure, stateless functions over SRv6 SID
// addresses and endpoint behaviors: bit transposition and the wire,
// display, and CLI renderings of a Behavior.
package sidfmt

// Behavior is the tagged enumeration of SRv6 endpoint behaviors. The
// numeric values below double as the wire codes sent to the forwarding
// broker and the FPM, except for UN and UA which are compressed-SID
// flavors resolved to END and END_X respectively at the broker boundary.
type Behavior uint16

const (
	Unspec      Behavior = 0
	End         Behavior = 1
	EndX        Behavior = 2
	EndT        Behavior = 3
	EndDX2      Behavior = 4
	EndDX6      Behavior = 5
	EndDX4      Behavior = 6
	EndDT6      Behavior = 7
	EndDT4      Behavior = 8
	EndB6       Behavior = 9
	EndB6Encap  Behavior = 10
	EndBM       Behavior = 11
	EndS        Behavior = 12
	EndAS       Behavior = 13
	EndAM       Behavior = 14
	EndBPF      Behavior = 15
	EndDT46     Behavior = 16
	UDT4        Behavior = 100
	UDT6        Behavior = 101
	UDT46       Behavior = 102
	UN          Behavior = 103
	UA          Behavior = 104
)

// DefaultLocatorBlockLenBits and DefaultLocatorNodeFuncLenBits are the
// compressed-SID (uSID) default field widths attached to UN/UA SIDs when
// no explicit locator supplies them (spec.md §4.5 "compressed-SID flavors").
const (
	DefaultLocatorBlockLenBits    = 32
	DefaultLocatorNodeFuncLenBits = 16
)

// IsCompressed reports whether b is one of the next-CSID flavors (UN, UA)
// that carry the NEXT_CSID operation flag instead of a plain wire action.
func (b Behavior) IsCompressed() bool {
	return b == UN || b == UA
}

// RequiresVRF reports whether the behavior's validity rule (spec.md §3)
// mandates a VRF attribute on the owning SID.
func (b Behavior) RequiresVRF() bool {
	switch b {
	case EndT, EndDT4, EndDT6, EndDT46, UDT4, UDT6, UDT46:
		return true
	default:
		return false
	}
}

// RequiresAdjacency reports whether the behavior's validity rule mandates
// an IPv6 adjacency (nexthop) attribute on the owning SID.
func (b Behavior) RequiresAdjacency() bool {
	return b == EndX || b == UA
}

// ToWire maps a Behavior to the numeric action code used on the wire to
// the forwarding broker and inside the FPM local-SID encap nest. UN and UA
// resolve to END and END_X; callers needing the NEXT_CSID flavor flag and
// the default locator field widths must attach them separately via
// IsCompressed/DefaultLocatorBlockLenBits/DefaultLocatorNodeFuncLenBits.
func (b Behavior) ToWire() uint16 {
	switch b {
	case UN:
		return uint16(End)
	case UA:
		return uint16(EndX)
	default:
		return uint16(b)
	}
}

var displayNames = map[Behavior]string{
	Unspec:     "unspecified",
	End:        "End",
	EndX:       "End.X",
	EndT:       "End.T",
	EndDX2:     "End.DX2",
	EndDX6:     "End.DX6",
	EndDX4:     "End.DX4",
	EndDT6:     "End.DT6",
	EndDT4:     "End.DT4",
	EndB6:      "End.B6",
	EndB6Encap: "End.B6.Encaps",
	EndBM:      "End.BM",
	EndS:       "End.S",
	EndAS:      "End.AS",
	EndAM:      "End.AM",
	EndBPF:     "End.BPF",
	EndDT46:    "End.DT46",
	UDT4:       "uDT4",
	UDT6:       "uDT6",
	UDT46:      "uDT46",
	UN:         "uN",
	UA:         "uA",
}

var cliNames = map[Behavior]string{
	Unspec:     "unspec",
	End:        "end",
	EndX:       "end-x",
	EndT:       "end-t",
	EndDX2:     "end-dx2",
	EndDX6:     "end-dx6",
	EndDX4:     "end-dx4",
	EndDT6:     "end-dt6",
	EndDT4:     "end-dt4",
	EndB6:      "end-b6",
	EndB6Encap: "end-b6-encaps",
	EndBM:      "end-bm",
	EndS:       "end-s",
	EndAS:      "end-as",
	EndAM:      "end-am",
	EndBPF:     "end-bpf",
	EndDT46:    "end-dt46",
	UDT4:       "udt4",
	UDT6:       "udt6",
	UDT46:      "udt46",
	UN:         "un",
	UA:         "ua",
}

// Display renders the RFC8986-style canonical string for b ("End.DT4").
func (b Behavior) Display() string {
	if s, ok := displayNames[b]; ok {
		return s
	}
	return "unknown"
}

// CLI renders the lowercase, hyphenated CLI token for b ("end-dt4").
func (b Behavior) CLI() string {
	if s, ok := cliNames[b]; ok {
		return s
	}
	return "unknown"
}

var cliLookup = func() map[string]Behavior {
	m := make(map[string]Behavior, len(cliNames))
	for b, s := range cliNames {
		m[s] = b
	}
	return m
}()

// ParseCLI reverses CLI. Returns Unspec, false for an unrecognized token.
func ParseCLI(s string) (Behavior, bool) {
	b, ok := cliLookup[s]
	return b, ok
}
