package sidfmt

import "fmt"

// SIDStructure describes how a /128 SRv6 SID address decomposes into
// locator-block, locator-node, function, and argument bit fields. Unlike
// the byte-aligned structures common in switching ASICs, fields here may
// start and end on arbitrary bit boundaries; only the total width is
// bounded.
type SIDStructure struct {
	BlockLenBits    int
	NodeLenBits     int
	FunctionLenBits int
	ArgumentLenBits int
}

// NewSIDStructure validates and constructs a SIDStructure. The four
// fields must be non-negative and sum to at most 128 bits.
func NewSIDStructure(blockLen, nodeLen, functionLen, argumentLen int) (SIDStructure, error) {
	s := SIDStructure{
		BlockLenBits:    blockLen,
		NodeLenBits:     nodeLen,
		FunctionLenBits: functionLen,
		ArgumentLenBits: argumentLen,
	}
	if blockLen < 0 || nodeLen < 0 || functionLen < 0 || argumentLen < 0 {
		return SIDStructure{}, fmt.Errorf("sidfmt: negative field length in %+v", s)
	}
	total := blockLen + nodeLen + functionLen + argumentLen
	if total > 128 {
		return SIDStructure{}, fmt.Errorf("sidfmt: structure field widths sum to %d bits, exceeds 128", total)
	}
	return s, nil
}

// FunctionOffsetBits returns the bit offset (from the MSB of the address)
// at which the function field begins.
func (s SIDStructure) FunctionOffsetBits() int {
	return s.BlockLenBits + s.NodeLenBits
}

// ArgumentOffsetBits returns the bit offset at which the argument field
// begins.
func (s SIDStructure) ArgumentOffsetBits() int {
	return s.FunctionOffsetBits() + s.FunctionLenBits
}

// MaxFunctionIndex is the largest value that fits in the function field,
// i.e. 2^FunctionLenBits - 1.
func (s SIDStructure) MaxFunctionIndex() uint64 {
	if s.FunctionLenBits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(s.FunctionLenBits)) - 1
}

func (s SIDStructure) String() string {
	return fmt.Sprintf("block=%d,node=%d,func=%d,arg=%d", s.BlockLenBits, s.NodeLenBits, s.FunctionLenBits, s.ArgumentLenBits)
}
