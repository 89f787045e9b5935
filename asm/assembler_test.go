package asm_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/arnegrim/tc162/asm"
	"github.com/arnegrim/tc162/decoder"
	"github.com/arnegrim/tc162/inst"
)

// decodeFirst assembles src at base and decodes just the first instruction
// emitted, the same round-trip the decoder package's own tests use — op1
// bytes are assigned dynamically by isa's allocator, so there's no fixed
// hex to assert against directly.
func decodeFirst(t *testing.T, src string, base uint32) *inst.Instruction {
	t.Helper()
	a := asm.New()
	code, err := a.Assemble(src, base)
	if err != nil {
		t.Fatalf("assembling %q: %v", src, err)
	}
	buf := make([]byte, 4)
	copy(buf, code)
	in, ok := decoder.Decode(binary.LittleEndian.Uint32(buf))
	if !ok {
		t.Fatalf("decoding assembled output of %q failed", src)
	}
	return in
}

func TestArithmeticRoundTrip(t *testing.T) {
	tests := []struct {
		src      string
		op       inst.Op
		rd       uint8
		rs1, rs2 uint8
	}{
		{"add d1, d2, d3", inst.Add, 1, 2, 3},
		{"sub d4, d5, d6", inst.Sub, 4, 5, 6},
		{"and d0, d1, d2", inst.And, 0, 1, 2},
	}
	for _, tc := range tests {
		in := decodeFirst(t, tc.src, 0)
		if in.Op != tc.op || in.Rd != tc.rd || in.Rs1 != tc.rs1 || in.Rs2 != tc.rs2 {
			t.Errorf("[%s] got op=%v rd=%d rs1=%d rs2=%d, want op=%v rd=%d rs1=%d rs2=%d",
				tc.src, in.Op, in.Rd, in.Rs1, in.Rs2, tc.op, tc.rd, tc.rs1, tc.rs2)
		}
	}
}

func TestCompareRoundTrip(t *testing.T) {
	in := decodeFirst(t, "cmp d7, d8", 0)
	if in.Op != inst.Cmp || in.Rs1 != 7 || in.Rs2 != 8 {
		t.Errorf("got op=%v rs1=%d rs2=%d", in.Op, in.Rs1, in.Rs2)
	}
}

func TestLoadStoreAddressingModes(t *testing.T) {
	tests := []struct {
		src string
		op  inst.Op
		rs1 uint8
		imm int32
		wb  bool
		pre bool
	}{
		{"ld.w d1, [a2+4]", inst.LdW, 2, 4, false, false},
		{"ld.w d1, [a2-4]", inst.LdW, 2, -4, false, false},
		{"st.b [a3++1], d4", inst.StB, 3, 1, true, false},
		{"ld.h d5, [++a6+2]", inst.LdH, 6, 2, true, true},
	}
	for _, tc := range tests {
		in := decodeFirst(t, tc.src, 0)
		if in.Op != tc.op || in.Rs1 != tc.rs1 || in.Imm != tc.imm || in.Wb != tc.wb || in.Pre != tc.pre {
			t.Errorf("[%s] got op=%v rs1=%d imm=%d wb=%v pre=%v, want op=%v rs1=%d imm=%d wb=%v pre=%v",
				tc.src, in.Op, in.Rs1, in.Imm, in.Wb, in.Pre, tc.op, tc.rs1, tc.imm, tc.wb, tc.pre)
		}
	}
}

func TestBranchDisplacementIsRelativeToFallthrough(t *testing.T) {
	// "j ." style absolute target at pc=0x100: the encoded displacement must
	// equal target - (pc + width), not target - pc.
	in := decodeFirst(t, "j 0x106", 0x100)
	if in.Op != inst.J {
		t.Fatalf("got op %v", in.Op)
	}
	if got, want := int32(0x100)+int32(in.Width)+in.Imm, int32(0x106); got != want {
		t.Errorf("resolved target = %#x, want %#x (imm=%d width=%d)", got, want, in.Imm, in.Width)
	}
}

func TestSignedConst4AcceptsNegativeLiterals(t *testing.T) {
	in := decodeFirst(t, "jlt d1, #-3, 0x10", 0)
	if in.Op != inst.JltImm {
		t.Fatalf("got op %v", in.Op)
	}
	if got := int8(in.Rs2 << 4) >> 4; got != -3 {
		t.Errorf("packed const4 %#x sign-extends to %d, want -3", in.Rs2, got)
	}
}

func TestUnsignedConst4RejectsNegativeLiterals(t *testing.T) {
	a := asm.New()
	if _, err := a.Assemble("jlt.u d1, #-1, 0x10", 0); err == nil {
		t.Errorf("expected an error assembling a negative literal for an unsigned const4 operand")
	}
}

func TestBRCDisplacementReachesFullFifteenBitRange(t *testing.T) {
	// +(2^14-1) words = +32766 bytes from pc+width=4: target = 32770.
	in := decodeFirst(t, "jge d1, d2, 32770", 0)
	if in.Op != inst.Jge || in.Imm != 32766 {
		t.Errorf("got op=%v imm=%d, want op=%v imm=32766", in.Op, in.Imm, inst.Jge)
	}
}

func TestBRCDisplacementOutOfRangeIsAnError(t *testing.T) {
	a := asm.New()
	// One word step past the 15-bit field's positive end.
	if _, err := a.Assemble("jge d1, d2, 32772", 0); err == nil {
		t.Errorf("expected an error for a branch displacement past the 15-bit field's range")
	} else if !strings.Contains(err.Error(), "jge") {
		t.Errorf("error %q does not name the offending mnemonic", err.Error())
	}
}

func TestOff10OutOfRangeIsAnError(t *testing.T) {
	a := asm.New()
	if _, err := a.Assemble("ld.w d1, [a2+1000]", 0); err == nil {
		t.Errorf("expected an error for an off10 operand past [-512,511]")
	} else if !strings.Contains(err.Error(), "ld.w") {
		t.Errorf("error %q does not name the offending mnemonic", err.Error())
	}
}

func TestDisp24OutOfRangeIsAnError(t *testing.T) {
	a := asm.New()
	if _, err := a.Assemble("j 20000000", 0); err == nil {
		t.Errorf("expected an error for a disp24 target past [-2^23,2^23-1]")
	} else if !strings.Contains(err.Error(), "j") {
		t.Errorf("error %q does not name the offending mnemonic", err.Error())
	}
}

func TestUnknownMnemonicIsAnError(t *testing.T) {
	a := asm.New()
	if _, err := a.Assemble("frobnicate d0, d1", 0); err == nil {
		t.Errorf("expected an error for an unknown mnemonic")
	}
}

func TestInvalidRegisterNumberIsAnError(t *testing.T) {
	a := asm.New()
	if _, err := a.Assemble("add d20, d1, d2", 0); err == nil {
		t.Errorf("expected an error for a register number outside [0,15]")
	}
}

func TestLabelResolution(t *testing.T) {
	src := `
		j target
	target:
		ret
	`
	a := asm.New()
	code, err := a.Assemble(src, 0)
	if err != nil {
		t.Fatalf("assembling: %v", err)
	}
	labels := a.Labels()
	target, ok := labels["target"]
	if !ok {
		t.Fatal("label \"target\" was not recorded")
	}
	buf := make([]byte, 4)
	copy(buf, code)
	in, ok := decoder.Decode(binary.LittleEndian.Uint32(buf))
	if !ok {
		t.Fatal("decode failed")
	}
	if got := uint32(int32(in.Width) + in.Imm); got != target {
		t.Errorf("resolved jump target = %#x, want %#x", got, target)
	}
}
