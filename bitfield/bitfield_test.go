package bitfield_test

import (
	"testing"

	"github.com/arnegrim/tc162/bitfield"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint32
		hi, lo   uint
		expected uint32
	}{
		{"low byte", 0xAABBCCDD, 7, 0, 0xDD},
		{"high byte", 0xAABBCCDD, 31, 24, 0xAA},
		{"single bit", 0x00000008, 3, 3, 1},
		{"full word", 0xFFFFFFFF, 31, 0, 0xFFFFFFFF},
	}
	for _, tc := range tests {
		if got := bitfield.Extract(tc.raw, tc.hi, tc.lo); got != tc.expected {
			t.Errorf("[%s] Extract(%#x, %d, %d) = %#x, want %#x", tc.name, tc.raw, tc.hi, tc.lo, got, tc.expected)
		}
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		v        uint32
		bits     uint
		expected int32
	}{
		{0x7, 4, 7},
		{0x8, 4, -8},
		{0xF, 4, -1},
		{0xFF, 8, -1},
		{0x7F, 8, 127},
	}
	for _, tc := range tests {
		if got := bitfield.SignExtend(tc.v, tc.bits); got != tc.expected {
			t.Errorf("SignExtend(%#x, %d) = %d, want %d", tc.v, tc.bits, got, tc.expected)
		}
	}
}

// Each PackX/X pair must round-trip an arbitrary in-range byte offset: the
// decoder and assembler share these exact functions, so any asymmetry here
// would desync encode and decode.
func TestDisplacementRoundTrip(t *testing.T) {
	offsets8 := []int32{0, 2, -2, 254, -256}
	for _, off := range offsets8 {
		raw := bitfield.PackDisp8(off)
		if got := bitfield.Disp8(raw); got != off {
			t.Errorf("Disp8 round trip: PackDisp8(%d)=%#x, Disp8(...)=%d, want %d", off, raw, got, off)
		}
	}

	offsets4 := []int32{0, 2, -2, 14, -16}
	for _, off := range offsets4 {
		raw := bitfield.PackDisp4(off)
		if got := bitfield.Disp4(raw); got != off {
			t.Errorf("Disp4 round trip: PackDisp4(%d)=%#x, Disp4(...)=%d, want %d", off, raw, got, off)
		}
	}

	offsetsBR := []int32{0, 2, -2, 32766, -32768}
	for _, off := range offsetsBR {
		raw := bitfield.PackDispBR(off)
		if got := bitfield.DispBR(raw); got != off {
			t.Errorf("DispBR round trip: PackDispBR(%d)=%#x, DispBR(...)=%d, want %d", off, raw, got, off)
		}
	}

	offsets24 := []int32{0, 2, -2, 16777214, -16777216}
	for _, off := range offsets24 {
		raw := bitfield.PackDisp24(off)
		if got := bitfield.Disp24(raw); got != off {
			t.Errorf("Disp24 round trip: PackDisp24(%d)=%#x, Disp24(...)=%d, want %d", off, raw, got, off)
		}
	}
}

func TestOff10RoundTrip(t *testing.T) {
	for _, off := range []int32{0, 1, -1, 511, -512} {
		raw := bitfield.PackOff10(off)
		if got := bitfield.Off10(raw); got != off {
			t.Errorf("Off10 round trip: PackOff10(%d)=%#x, Off10(...)=%d, want %d", off, raw, got, off)
		}
	}
}

func TestOff18AndEffectiveAddress(t *testing.T) {
	tests := []uint32{0, 0x1000, 0xF0003000, 0x00002FFC}
	for _, ea := range tests {
		raw, ok := bitfield.PackOff18(ea)
		if !ok {
			t.Errorf("PackOff18(%#x): expected reachable address", ea)
			continue
		}
		off18 := bitfield.Off18(raw)
		got := bitfield.EffectiveAddress(off18)
		if got != ea {
			t.Errorf("Off18 round trip: ea=%#x -> raw=%#x -> off18=%#x -> ea=%#x", ea, raw, off18, got)
		}
	}

	if _, ok := bitfield.PackOff18(0x00008000); ok {
		t.Errorf("PackOff18(0x8000): expected unreachable (middle bits set), got ok")
	}
}

func TestIsWide(t *testing.T) {
	if bitfield.IsWide(0xFFFFFFFE) {
		t.Errorf("IsWide: low bit clear should report a 16-bit instruction")
	}
	if !bitfield.IsWide(0xFFFFFFFF) {
		t.Errorf("IsWide: low bit set should report a 32-bit instruction")
	}
}
