// Package cpu implements the TC1.6.2 register file and the Step function
// that executes one decoded instruction against a memory.Memory.
package cpu

import "fmt"

// PSW holds the condition flags the executor updates after most arithmetic
// and logical operations. SV and SAV are sticky: once set they stay set until
// an explicit ResetSticky (spec §5, "the overflow-sticky bits persist across
// instructions that don't touch them").
type PSW struct {
	C  bool // carry
	V  bool // overflow
	Z  bool // zero
	N  bool // negative
	SV bool // sticky overflow
	AV bool // advance overflow
	SAV bool // sticky advance overflow
}

// ResetSticky clears the sticky overflow flags; nothing in Step calls this
// automatically, matching real hardware where only an explicit instruction
// (or a reset) clears them.
func (p *PSW) ResetSticky() {
	p.SV = false
	p.SAV = false
}

// setArith updates Z/N from the truncated 32-bit result, sets C and V from
// the caller's own carry/overflow computation (Add and Sub compute these
// differently), and derives AV from whether the result's top two bits
// differ — marking SV/SAV sticky whenever V/AV fire (spec §4.4).
func (p *PSW) setArith(result32 uint32, carry, overflow bool) {
	p.Z = result32 == 0
	p.N = int32(result32) < 0
	p.C = carry
	p.V = overflow
	p.AV = (result32>>31)&1 != (result32>>30)&1
	if overflow {
		p.SV = true
	}
	if p.AV {
		p.SAV = true
	}
}

// Regs is the TC1.6.2 register file: sixteen data registers, sixteen
// address registers, a program counter, and the condition flags.
type Regs struct {
	D  [16]uint32
	A  [16]uint32
	PC uint32
	PSW PSW
}

// CPU bundles the register file; Step is a free function so callers can
// swap memory implementations without the type depending on one.
type CPU struct {
	Regs Regs
}

// New returns a CPU with all registers zeroed and PC at entry.
func New(entry uint32) *CPU {
	c := &CPU{}
	c.Regs.PC = entry
	return c
}

// Trap is the taxonomy of faults Step can report instead of advancing.
type Trap struct {
	Kind string // "invalid-instruction", "unaligned", "bus", "break", "unmodeled-return"
	PC   uint32
	Detail string
}

func (t *Trap) Error() string {
	return fmt.Sprintf("%s at %#08x: %s", t.Kind, t.PC, t.Detail)
}

func trapAt(kind string, pc uint32, detail string) *Trap {
	return &Trap{Kind: kind, PC: pc, Detail: detail}
}
