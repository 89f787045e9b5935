package cpu_test

import (
	"testing"

	"github.com/arnegrim/tc162/cpu"
	"github.com/arnegrim/tc162/inst"
	"github.com/arnegrim/tc162/memory"
)

func newMem() *memory.Memory {
	return memory.NewFlat(0, 4096)
}

func TestAddCommitsFlags(t *testing.T) {
	c := cpu.New(0)
	c.Regs.D[1] = 1
	c.Regs.D[2] = 0xFFFFFFFF // -1
	in := &inst.Instruction{Op: inst.Add, Width: 4, Rd: 3, Rs1: 1, Rs2: 2}
	if tr := cpu.Step(c, newMem(), in); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if c.Regs.D[3] != 0 {
		t.Errorf("D[3] = %#x, want 0", c.Regs.D[3])
	}
	if !c.Regs.PSW.Z {
		t.Errorf("Z flag not set for a 1 + -1 result of 0")
	}
	if !c.Regs.PSW.C {
		t.Errorf("C flag not set: 1 + 0xFFFFFFFF overflows the 32-bit range")
	}
	if c.Regs.PC != 4 {
		t.Errorf("PC = %#x, want 4", c.Regs.PC)
	}
}

func TestConditionalBranchTargetIsRelativeToFallthrough(t *testing.T) {
	c := cpu.New(0)
	c.Regs.D[0] = 1
	c.Regs.D[1] = 1
	// taken: equal compare, target is fallthrough (pc+width) + disp, not pc+disp.
	in := &inst.Instruction{Op: inst.Jeq, Width: 4, Rs1: 0, Rs2: 1, Imm: 8}
	if tr := cpu.Step(c, newMem(), in); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if want := uint32(0 + 4 + 8); c.Regs.PC != want {
		t.Errorf("PC = %#x, want %#x", c.Regs.PC, want)
	}
}

func TestConditionalBranchNotTakenFallsThrough(t *testing.T) {
	c := cpu.New(0x100)
	c.Regs.D[0] = 1
	c.Regs.D[1] = 2
	in := &inst.Instruction{Op: inst.Jeq, Width: 2, Rs1: 0, Rs2: 1, Imm: 8}
	if tr := cpu.Step(c, newMem(), in); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if want := uint32(0x102); c.Regs.PC != want {
		t.Errorf("PC = %#x, want %#x (fallthrough, branch not taken)", c.Regs.PC, want)
	}
}

func TestUnconditionalJumpTargetIsRelativeToFallthrough(t *testing.T) {
	c := cpu.New(0x200)
	in := &inst.Instruction{Op: inst.J, Width: 2, Imm: -0x10}
	if tr := cpu.Step(c, newMem(), in); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if want := uint32(0x200 + 2 - 0x10); c.Regs.PC != want {
		t.Errorf("PC = %#x, want %#x", c.Regs.PC, want)
	}
}

func TestSignedConst4BranchTreatsHighBitAsSign(t *testing.T) {
	// const4 value 0xD (13) sign-extends to -3; JgeImm with D[1] = -3 must
	// take the branch (>= -3), which plain unsigned extension would miss.
	c := cpu.New(0)
	c.Regs.D[1] = 0xFFFFFFFD // -3
	in := &inst.Instruction{Op: inst.JgeImm, Width: 4, Rs1: 1, Rs2: 0xD, Imm: 12}
	if tr := cpu.Step(c, newMem(), in); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if want := uint32(0 + 4 + 12); c.Regs.PC != want {
		t.Errorf("PC = %#x, want %#x (branch should be taken)", c.Regs.PC, want)
	}
}

func TestUnsignedConst4BranchNeverTreatsHighBitAsSign(t *testing.T) {
	// Same 0xD packed constant, but through the unsigned op: it must read as
	// 13, not -3, so D[1] = 5 is not >= 13 and the branch falls through (a
	// signed reading would take it, since 5 >= -3).
	c := cpu.New(0)
	c.Regs.D[1] = 5
	in := &inst.Instruction{Op: inst.JgeUImm, Width: 4, Rs1: 1, Rs2: 0xD, Imm: 12}
	if tr := cpu.Step(c, newMem(), in); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if want := uint32(4); c.Regs.PC != want {
		t.Errorf("PC = %#x, want %#x (branch should not be taken)", c.Regs.PC, want)
	}
}

func TestDivideByZeroYieldsZero(t *testing.T) {
	c := cpu.New(0)
	c.Regs.D[1] = 10
	c.Regs.D[2] = 0
	in := &inst.Instruction{Op: inst.Div, Width: 4, Rd: 3, Rs1: 1, Rs2: 2}
	if tr := cpu.Step(c, newMem(), in); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if c.Regs.D[3] != 0 {
		t.Errorf("D[3] = %#x, want 0 for divide-by-zero", c.Regs.D[3])
	}
}

func TestReturnTrapsWithoutACallStackModel(t *testing.T) {
	c := cpu.New(0)
	in := &inst.Instruction{Op: inst.Ret, Width: 2}
	tr := cpu.Step(c, newMem(), in)
	if tr == nil {
		t.Fatal("expected a trap, ret has no call-stack model to resume from")
	}
	if tr.Kind != "unmodeled-return" {
		t.Errorf("trap kind = %q, want %q", tr.Kind, "unmodeled-return")
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	c := cpu.New(0)
	m := newMem()
	c.Regs.A[1] = 0x10
	c.Regs.D[2] = 0xDEADBEEF
	st := &inst.Instruction{Op: inst.StW, Width: 4, Rd: 2, Rs1: 1, Imm: 0}
	if tr := cpu.Step(c, m, st); tr != nil {
		t.Fatalf("store trap: %v", tr)
	}

	c.Regs.PC = 0
	ld := &inst.Instruction{Op: inst.LdW, Width: 4, Rd: 3, Rs1: 1, Imm: 0}
	if tr := cpu.Step(c, m, ld); tr != nil {
		t.Fatalf("load trap: %v", tr)
	}
	if c.Regs.D[3] != 0xDEADBEEF {
		t.Errorf("D[3] = %#x, want 0xDEADBEEF", c.Regs.D[3])
	}
}
