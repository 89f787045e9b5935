package inst

// Instruction is the canonical decoded form shared by the decoder, assembler,
// executor, analyzer, and disassembler (spec §3, "Decoded record"). Fields
// are copied by value; nothing here holds a reference to the word it came from.
type Instruction struct {
	Op     Op
	Width  uint8 // 2 or 4
	Rd     uint8 // 0..15
	Rs1    uint8
	Rs2    uint8
	Imm    int32 // primary immediate: branch offset, absolute EA, or displacement
	Imm2   int32 // secondary immediate: compare-with-immediate branch constant
	Abs    bool  // Imm is an absolute EA; Rs1 is ignored for addressing
	Wb     bool  // base register is written back
	Pre    bool  // with Wb: pre-increment (true) vs post-increment (false)
}

// AddrMode is a tagged sum describing how a load/store/lea computes its
// effective address, replacing the abs/wb/pre boolean trio for executor
// dispatch (spec Design Notes §9: the booleans "admit invalid combinations
// the implementation silently ignores"). Instruction.Mode derives this from
// the flat record, which remains the wire/record format because that is
// what the decoder, assembler, and spec's testable properties are defined over.
type AddrMode int

const (
	ModeBase AddrMode = iota // EA = Rs1 + Imm
	ModeAbs                  // EA = Imm
	ModePostInc              // EA = Rs1 (old); Rs1 += Imm afterward
	ModePreInc                // Rs1 += Imm first; EA = Rs1 (new)
	ModePbrBitRev             // EA = Rs1 + index; index updated via bit-reverse increment
	ModePbrCircular           // EA = Rs1 + index; index updated mod a circular length
)

// Mode reports the addressing mode this instruction's load/store/lea
// operand resolves through.
func (in *Instruction) Mode() AddrMode {
	switch in.Op {
	case LdBPbr, LdBuPbr, LdHPbr, LdHuPbr, LdWPbr, StBPbr, StHPbr, StWPbr:
		return ModePbrBitRev
	case LdBPcir, LdBuPcir, LdHPcir, LdHuPcir, LdWPcir, StBPcir, StHPcir, StWPcir:
		return ModePbrCircular
	}
	switch {
	case in.Abs:
		return ModeAbs
	case in.Wb && in.Pre:
		return ModePreInc
	case in.Wb && !in.Pre:
		return ModePostInc
	default:
		return ModeBase
	}
}

// PIndexReg returns the implicit P-based index register paired with rs1:
// A[rs1+1 mod 16] (spec §4.4, "the implicit index register"). Computed once
// here instead of scattered across every P-based load/store site (Design Notes §9).
func PIndexReg(rs1 uint8) uint8 {
	return (rs1 + 1) % 16
}
