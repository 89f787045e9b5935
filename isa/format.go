// Package isa is the shared format-descriptor table the decoder and the
// assembler are both built from, so that every encoding exists in exactly one
// place and the two halves can never drift apart (spec Design Notes §9:
// "consolidate to one decoder and one encoder defined by a shared table of
// format descriptors so each encoding appears exactly once").
package isa

import "github.com/arnegrim/tc162/inst"

// Format names the instruction-word layout a Desc uses — these correspond to
// the TC1.6.2 format codes in spec.md's glossary (BO/BOL/BRR/BRC/RLC/RR/RC/
// ABS/SB/SBR/SBC/SRC/SRR).
type Format int

const (
	// 16-bit formats
	FormatSB         Format = iota // unconditional relative jump, disp8
	FormatSBR                      // Dn vs D15 conditional branch, disp4
	FormatSBC                      // D15 vs const4 conditional branch, disp4
	FormatSRCRegConst               // Dc, const4 (mov/add)
	FormatSRCCmp                    // cmp Da, D15 (implicit)
	FormatSRR                       // Da, Db register-register
	FormatSRRSimple                  // no operands (ret/syscall)

	// 32-bit formats
	FormatRR          // Dc, Da, Db  (op2 selects among data-processing ops)
	FormatRC          // Dc, Da, const9 (op2 selects among compare-immediate ops)
	FormatRLC         // Dc, const16
	FormatBO          // base+offset / post-inc / pre-inc load-store
	FormatABS         // absolute-EA load-store
	FormatBOP         // P-based (bit-reverse / circular) load-store
	FormatB           // unconditional PC-relative, disp24 (J/Call)
	FormatBAbs        // absolute call
	FormatRRIndirect  // single address register (CallI)
	FormatBRC         // Dn vs Dm/const4 + disp15 (data/imm conditional branch)
	FormatBRA         // two address registers + disp15 (address-reg branch)
	FormatBRF         // disp15 only (flag-based branch)
)

// Width reports the instruction width in bytes for a format.
func (f Format) Width() uint8 {
	switch f {
	case FormatSB, FormatSBR, FormatSBC, FormatSRCRegConst, FormatSRCCmp, FormatSRR, FormatSRRSimple:
		return 2
	default:
		return 4
	}
}

// sharesOp1 reports whether a format packs multiple ops behind one op1 byte,
// discriminated by an op2 sub-field (true), or whether every op in the format
// needs its own distinct op1 byte because the word has no spare bits (false).
//
// BRC/BRA don't share: once disp15 takes its full 15-bit field (spec §4.2)
// there's no room left for an op2 selector alongside the two 4-bit register/
// const fields these formats still need, so every member gets its own op1
// byte instead — matching how TC1.6.2's own BRC/BRR encodings give jeq and
// jne distinct op1 values rather than multiplexing one byte.
func (f Format) sharesOp1() bool {
	switch f {
	case FormatRR, FormatRC:
		return true
	default:
		return false
	}
}

// Desc is one concrete instruction encoding: an Op tag paired with the
// format it is carried in and the op1/op2 byte values that select it.
type Desc struct {
	Op     inst.Op
	Format Format
	Op1    byte
	Op2    uint32 // member index within its group; Lookup selects by it only for shared-op1 formats (RR, RC)
}
