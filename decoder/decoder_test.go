package decoder_test

import (
	"encoding/binary"
	"testing"

	"github.com/arnegrim/tc162/asm"
	"github.com/arnegrim/tc162/decoder"
	"github.com/arnegrim/tc162/inst"
)

// assembleWord produces the 2 or 4 raw bytes for a single instruction and hands
// back the word decoder.Decode expects: the instruction's own bytes,
// little-endian, zero-padded to 4 bytes if the source only emitted 2.
func assembleWord(t *testing.T, src string) uint32 {
	t.Helper()
	a := asm.New()
	code, err := a.Assemble(src, 0)
	if err != nil {
		t.Fatalf("assembling %q: %v", src, err)
	}
	buf := make([]byte, 4)
	copy(buf, code)
	return binary.LittleEndian.Uint32(buf)
}

func TestDecodeRegisterMove(t *testing.T) {
	in, ok := decoder.Decode(assembleWord(t, "mov d3, d4"))
	if !ok {
		t.Fatal("decode failed")
	}
	if in.Op != inst.Mov || in.Rd != 3 || in.Rs1 != 4 || in.Width != 2 {
		t.Errorf("got %+v", in)
	}
}

func TestDecodeImmediateMove(t *testing.T) {
	in, ok := decoder.Decode(assembleWord(t, "mov d2, #5"))
	if !ok {
		t.Fatal("decode failed")
	}
	if in.Op != inst.MovC || in.Rd != 2 || in.Imm != 5 || in.Width != 2 {
		t.Errorf("got %+v", in)
	}
}

func TestDecodeBaseDisplacementLoad(t *testing.T) {
	in, ok := decoder.Decode(assembleWord(t, "ld.w d1, [a2+4]"))
	if !ok {
		t.Fatal("decode failed")
	}
	if in.Op != inst.LdW || in.Rd != 1 || in.Rs1 != 2 || in.Imm != 4 {
		t.Errorf("got %+v", in)
	}
}

func TestDecodeUnconditionalJump(t *testing.T) {
	in, ok := decoder.Decode(assembleWord(t, "j 0x100"))
	if !ok {
		t.Fatal("decode failed")
	}
	if in.Op != inst.J {
		t.Errorf("got op %v", in.Op)
	}
}

func TestDecodeConditionalBranchRegister(t *testing.T) {
	in, ok := decoder.Decode(assembleWord(t, "jeq d0, d1, 0x10"))
	if !ok {
		t.Fatal("decode failed")
	}
	if in.Op != inst.Jeq || in.Rs1 != 0 || in.Rs2 != 1 {
		t.Errorf("got %+v", in)
	}
}

func TestDecodeReturn(t *testing.T) {
	in, ok := decoder.Decode(assembleWord(t, "ret"))
	if !ok {
		t.Fatal("decode failed")
	}
	if in.Op != inst.Ret || in.Width != 2 {
		t.Errorf("got %+v", in)
	}
}

func TestDecodeRejectsUnknownEncoding(t *testing.T) {
	// op1 0xFE is unassigned in the format table.
	if _, ok := decoder.Decode(0x000000FE); ok {
		t.Errorf("expected decode failure for an unassigned op1")
	}
}
