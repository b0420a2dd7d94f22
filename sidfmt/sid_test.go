package sidfmt

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransposeOverwritesIdempotently(t *testing.T) {
	base := netip.MustParseAddr("fc00:0:1::")

	a, err := Transpose(base, 7, 64, 16)
	require.NoError(t, err)
	b, err := Transpose(a, 42, 64, 16)
	require.NoError(t, err)

	want, err := Transpose(base, 42, 64, 16)
	require.NoError(t, err)
	require.Equal(t, want, b, "second transpose at the same field must fully determine the result regardless of prior content")
}

func TestTransposeRoundTripsThroughExtractBits(t *testing.T) {
	base := netip.MustParseAddr("fc00:0:1::")

	cases := []struct {
		offset, length int
		index           uint64
	}{
		{64, 16, 1},
		{64, 16, 65535},
		{48, 32, 0xdeadbeef},
		{0, 128, 0}, // zero-length tail is fine, but exercise full-width-minus overlap separately
	}

	for _, c := range cases {
		if c.length == 0 {
			continue
		}
		got, err := Transpose(base, c.index, c.offset, c.length)
		require.NoError(t, err)

		back, err := ExtractBits(got, c.offset, c.length)
		require.NoError(t, err)

		mask := uint64((1 << uint(c.length)) - 1)
		if c.length == 64 {
			mask = ^uint64(0)
		}
		require.Equal(t, c.index&mask, back)
	}
}

func TestTransposeRejectsOutOfRange(t *testing.T) {
	base := netip.MustParseAddr("fc00:0:1::")

	_, err := Transpose(base, 1, 120, 16)
	require.Error(t, err)

	_, err = Transpose(base, 1, -1, 16)
	require.Error(t, err)
}

func TestTransposeRejectsIPv4(t *testing.T) {
	v4 := netip.MustParseAddr("10.0.0.1")
	_, err := Transpose(v4, 1, 0, 8)
	require.Error(t, err)
}

func TestSIDStructureValidation(t *testing.T) {
	_, err := NewSIDStructure(32, 16, 16, 0)
	require.NoError(t, err)

	_, err = NewSIDStructure(64, 64, 1, 0)
	require.Error(t, err, "field widths summing past 128 bits must be rejected")

	_, err = NewSIDStructure(-1, 16, 16, 0)
	require.Error(t, err)
}

func TestSIDStructureOffsets(t *testing.T) {
	s, err := NewSIDStructure(32, 16, 16, 8)
	require.NoError(t, err)
	require.Equal(t, 48, s.FunctionOffsetBits())
	require.Equal(t, 64, s.ArgumentOffsetBits())
	require.Equal(t, uint64(0xffff), s.MaxFunctionIndex())
}

func TestTransposeStructure(t *testing.T) {
	base := netip.MustParseAddr("fc00:0:1::")
	s, err := NewSIDStructure(32, 16, 16, 0)
	require.NoError(t, err)

	addr, err := TransposeStructure(base, 100, s)
	require.NoError(t, err)

	idx, err := ExtractBits(addr, s.FunctionOffsetBits(), s.FunctionLenBits)
	require.NoError(t, err)
	require.Equal(t, uint64(100), idx)
}

func TestBehaviorWireMapping(t *testing.T) {
	require.Equal(t, uint16(End), UN.ToWire())
	require.Equal(t, uint16(EndX), UA.ToWire())
	require.Equal(t, uint16(EndDT4), EndDT4.ToWire())
}

func TestBehaviorDisplayAndCLIRoundTrip(t *testing.T) {
	all := []Behavior{End, EndX, EndT, EndDX2, EndDX6, EndDX4, EndDT6, EndDT4,
		EndB6, EndB6Encap, EndBM, EndS, EndAS, EndAM, EndBPF, EndDT46,
		UDT4, UDT6, UDT46, UN, UA}

	for _, b := range all {
		require.NotEqual(t, "unknown", b.Display())
		cli := b.CLI()
		require.NotEqual(t, "unknown", cli)

		parsed, ok := ParseCLI(cli)
		require.True(t, ok)
		require.Equal(t, b, parsed)
	}
}

func TestBehaviorRequiresVRFAndAdjacency(t *testing.T) {
	require.True(t, EndT.RequiresVRF())
	require.True(t, UDT46.RequiresVRF())
	require.False(t, End.RequiresVRF())

	require.True(t, EndX.RequiresAdjacency())
	require.True(t, UA.RequiresAdjacency())
	require.False(t, EndT.RequiresAdjacency())
}
