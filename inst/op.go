// Package inst defines the intermediate instruction record that flows from
// the decoder to the executor, disassembler, and analyzer: a closed Op enum
// (spec §4.1), the flat Instruction record (spec §3), and an AddrMode view
// derived from it for the executor's addressing dispatch (spec Design Notes §9).
package inst

// Op is the closed set of semantic operation tags. Every consumer
// (executor, analyzer, disassembler) is expected to switch exhaustively over
// it — adding a tag here is meant to be a compile-time prompt to update all
// three (spec Design Notes §9).
type Op int

const (
	OpInvalid Op = iota

	// Data moves
	Mov
	MovC // short register-register mov's const4-immediate sibling (same mnemonic, distinct encoding)
	MovI
	MovHA
	Lea

	// Arithmetic
	Add
	AddR // 2-operand accumulate, register source: Rd += D[Rs1] (same mnemonic as Add)
	AddC // 2-operand accumulate, const4 source: Rd += imm (same mnemonic as Add)
	Sub
	Addx
	Addc
	Mul
	MulU
	Div
	DivU

	// Logical / shift
	And
	Or
	Xor
	Andn
	Not
	Shl
	Shr
	Sar
	Ror

	// Min/max
	Min
	Max
	MinU
	MaxU

	// Compare
	Cmp
	CmpU
	CmpI
	CmpUI

	// Loads
	LdB
	LdBu
	LdH
	LdHu
	LdW
	LdBPbr
	LdBuPbr
	LdHPbr
	LdHuPbr
	LdWPbr
	LdBPcir
	LdBuPcir
	LdHPcir
	LdHuPcir
	LdWPcir

	// Stores
	StB
	StH
	StW
	StBPbr
	StHPbr
	StWPbr
	StBPcir
	StHPcir
	StWPcir

	// Data-register-compare branches
	Jeq
	Jne
	Jge
	JgeU
	Jlt
	JltU
	JeqImm
	JneImm
	JgeImm
	JgeUImm
	JltImm
	JltUImm

	// Address-register-compare branches
	JeqA
	JneA
	JzA
	JnzA

	// Flag-based branches
	BeqF
	BneF
	BgeF
	BltF
	BgeUF
	BltUF

	// Control
	J
	Call
	CallA
	CallI
	Ret
	Syscall

	opCount
)

var opNames = [opCount]string{
	OpInvalid: "invalid",
	Mov:       "mov", MovC: "mov", MovI: "mov.i", MovHA: "mov.ha", Lea: "lea",
	Add: "add", AddR: "add", AddC: "add", Sub: "sub", Addx: "addx", Addc: "addc",
	Mul: "mul", MulU: "mul.u", Div: "div", DivU: "div.u",
	And: "and", Or: "or", Xor: "xor", Andn: "andn", Not: "not",
	Shl: "sh", Shr: "shr", Sar: "sha", Ror: "ror",
	Min: "min", Max: "max", MinU: "min.u", MaxU: "max.u",
	Cmp: "cmp", CmpU: "cmp.u", CmpI: "cmp.i", CmpUI: "cmp.ui",
	LdB: "ld.b", LdBu: "ld.bu", LdH: "ld.h", LdHu: "ld.hu", LdW: "ld.w",
	LdBPbr: "ld.b.pbr", LdBuPbr: "ld.bu.pbr", LdHPbr: "ld.h.pbr", LdHuPbr: "ld.hu.pbr", LdWPbr: "ld.w.pbr",
	LdBPcir: "ld.b.pcir", LdBuPcir: "ld.bu.pcir", LdHPcir: "ld.h.pcir", LdHuPcir: "ld.hu.pcir", LdWPcir: "ld.w.pcir",
	StB: "st.b", StH: "st.h", StW: "st.w",
	StBPbr: "st.b.pbr", StHPbr: "st.h.pbr", StWPbr: "st.w.pbr",
	StBPcir: "st.b.pcir", StHPcir: "st.h.pcir", StWPcir: "st.w.pcir",
	Jeq: "jeq", Jne: "jne", Jge: "jge", JgeU: "jge.u", Jlt: "jlt", JltU: "jlt.u",
	JeqImm: "jeq", JneImm: "jne", JgeImm: "jge", JgeUImm: "jge.u", JltImm: "jlt", JltUImm: "jlt.u",
	JeqA: "jeq.a", JneA: "jne.a", JzA: "jz.a", JnzA: "jnz.a",
	BeqF: "jz.t", BneF: "jnz.t", BgeF: "jge.t", BltF: "jlt.t", BgeUF: "jge.tu", BltUF: "jlt.tu",
	J: "j", Call: "call", CallA: "calla", CallI: "calli", Ret: "ret", Syscall: "syscall",
}

// String renders the canonical assembler mnemonic for the op, used by the
// disassembler and by error messages.
func (o Op) String() string {
	if o < 0 || o >= opCount {
		return "unknown"
	}
	return opNames[o]
}

// TargetKind classifies what an Op's branch-like target address means to the
// analyzer (spec Design Notes §9: "drive from an opcode-property table").
type TargetKind int

const (
	TargetNone     TargetKind = iota // no control-flow target (straight-line op)
	TargetPCRel                      // imm is a signed PC-relative byte offset, or an absolute EA when Instruction.Abs is set (CallA)
	TargetIndirect                   // target unknown at analysis time (CallI)
)

// Props is the static classification of one Op's control-flow behavior;
// the analyzer's edge classification is driven from it (spec Design Notes §9).
type Props struct {
	IsTerminator bool // ends a basic block unconditionally (no fallthrough)
	IsConditional bool
	IsCall       bool
	IsReturn     bool
	Target       TargetKind
}

var props = [opCount]Props{
	J:     {IsTerminator: true, Target: TargetPCRel},
	Call:  {IsCall: true, Target: TargetPCRel},
	CallA: {IsCall: true, Target: TargetPCRel},
	CallI: {IsCall: true, Target: TargetIndirect},
	Ret:   {IsReturn: true, IsTerminator: true},
	Syscall: {IsTerminator: true},

	Jeq: {IsConditional: true, Target: TargetPCRel}, Jne: {IsConditional: true, Target: TargetPCRel},
	Jge: {IsConditional: true, Target: TargetPCRel}, JgeU: {IsConditional: true, Target: TargetPCRel},
	Jlt: {IsConditional: true, Target: TargetPCRel}, JltU: {IsConditional: true, Target: TargetPCRel},
	JeqImm: {IsConditional: true, Target: TargetPCRel}, JneImm: {IsConditional: true, Target: TargetPCRel},
	JgeImm: {IsConditional: true, Target: TargetPCRel}, JgeUImm: {IsConditional: true, Target: TargetPCRel},
	JltImm: {IsConditional: true, Target: TargetPCRel}, JltUImm: {IsConditional: true, Target: TargetPCRel},

	JeqA: {IsConditional: true, Target: TargetPCRel}, JneA: {IsConditional: true, Target: TargetPCRel},
	JzA: {IsConditional: true, Target: TargetPCRel}, JnzA: {IsConditional: true, Target: TargetPCRel},

	BeqF: {IsConditional: true, Target: TargetPCRel}, BneF: {IsConditional: true, Target: TargetPCRel},
	BgeF: {IsConditional: true, Target: TargetPCRel}, BltF: {IsConditional: true, Target: TargetPCRel},
	BgeUF: {IsConditional: true, Target: TargetPCRel}, BltUF: {IsConditional: true, Target: TargetPCRel},
}

// Properties returns o's static control-flow classification.
func (o Op) Properties() Props {
	if o < 0 || o >= opCount {
		return Props{}
	}
	return props[o]
}

// IsUnconditionalBranch reports whether o is a "J"-style unconditional jump
// (as opposed to a call or a conditional branch) — the analyzer's terminator
// case that emits a Branch edge and no fallthrough.
func (o Op) IsUnconditionalBranch() bool {
	return o == J
}
