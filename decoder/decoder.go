// Package decoder turns a raw instruction word into an inst.Instruction
// record, driven entirely by the isa package's format table (spec §4).
package decoder

import (
	"github.com/arnegrim/tc162/bitfield"
	"github.com/arnegrim/tc162/inst"
	"github.com/arnegrim/tc162/isa"
)

// Decode reads one instruction starting at a word boundary. raw must hold
// the 4 bytes at the instruction's address, little-endian, regardless of
// whether the instruction turns out to be 16 or 32 bits wide — the low
// byte's LSB (bitfield.IsWide) decides which, and for a 16-bit instruction
// only raw's low 16 bits are consumed; the high 16 bits belong to whatever
// follows and are ignored here.
//
// ok is false when op1 (and, for shared-op1 formats, op2) doesn't match any
// known encoding; callers should raise an InvalidInstruction trap.
func Decode(raw uint32) (*inst.Instruction, bool) {
	op1 := byte(raw & 0xFF)

	var op2 uint32
	if isa.IsWideOp1(op1) {
		op2 = selectorFor(op1, raw)
	}

	desc, ok := isa.Lookup(op1, op2)
	if !ok {
		return nil, false
	}

	in := &inst.Instruction{Op: desc.Op, Width: desc.Format.Width()}
	decodeFields(in, desc.Format, raw)
	return in, true
}

// selectorFor reads the op2 sub-field for a shared-op1 format. It must agree
// with the bit positions decodeFields uses for that same format, since both
// are reading the same word.
func selectorFor(op1 byte, raw uint32) uint32 {
	switch {
	case op1 == 0x0B: // FormatRR
		return bitfield.Extract(raw, 27, 20)
	default: // FormatRC and any other shared-op1 formats
		return bitfield.Extract(raw, 10, 8)
	}
}

func decodeFields(in *inst.Instruction, f isa.Format, raw uint32) {
	switch f {
	case isa.FormatSB:
		in.Imm = bitfield.Disp8(raw)

	case isa.FormatSBR:
		in.Rs1 = uint8(bitfield.Extract(raw, 15, 12))
		in.Rs2 = 15
		in.Imm = bitfield.Disp4(raw)

	case isa.FormatSBC:
		in.Rs1 = 15
		// The const4 goes in Rs2 as well, where cpu.Step and disasm read it.
		in.Rs2 = uint8(bitfield.Extract(raw, 15, 12))
		in.Imm2 = int32(in.Rs2)
		in.Imm = bitfield.Disp4(raw)

	case isa.FormatSRCRegConst:
		in.Rd = uint8(bitfield.Extract(raw, 11, 8))
		in.Imm = int32(bitfield.Extract(raw, 15, 12))

	case isa.FormatSRCCmp:
		in.Rs1 = uint8(bitfield.Extract(raw, 11, 8))
		in.Rs2 = 15

	case isa.FormatSRR:
		in.Rd = uint8(bitfield.Extract(raw, 11, 8))
		in.Rs1 = uint8(bitfield.Extract(raw, 15, 12))

	case isa.FormatSRRSimple:
		// no operands

	case isa.FormatRR:
		in.Rs1 = uint8(bitfield.Extract(raw, 11, 8))
		in.Rs2 = uint8(bitfield.Extract(raw, 15, 12))
		in.Rd = uint8(bitfield.Extract(raw, 31, 28))

	case isa.FormatRC:
		in.Rs1 = uint8(bitfield.Extract(raw, 15, 12))
		in.Rd = uint8(bitfield.Extract(raw, 31, 28))
		c9 := bitfield.Extract(raw, 27, 19)
		if in.Op == inst.CmpUI {
			in.Imm = int32(c9) // zero-extended: unsigned compare
		} else {
			in.Imm = bitfield.SignExtend(c9, 9)
		}

	case isa.FormatRLC:
		in.Rd = uint8(bitfield.Extract(raw, 11, 8))
		in.Imm = int32(bitfield.Extract(raw, 27, 12))

	case isa.FormatBO:
		in.Rd = uint8(bitfield.Extract(raw, 11, 8))
		in.Rs1 = uint8(bitfield.Extract(raw, 15, 12))
		in.Imm = bitfield.Off10(raw)
		in.Wb = bitfield.Extract(raw, 22, 22) != 0
		in.Pre = bitfield.Extract(raw, 23, 23) != 0

	case isa.FormatABS:
		in.Rd = uint8(bitfield.Extract(raw, 11, 8))
		in.Imm = int32(bitfield.EffectiveAddress(bitfield.Off18(raw)))
		in.Abs = true

	case isa.FormatBOP:
		in.Rd = uint8(bitfield.Extract(raw, 11, 8))
		in.Rs1 = uint8(bitfield.Extract(raw, 15, 12))
		in.Imm = bitfield.Off10(raw)

	case isa.FormatB:
		in.Imm = bitfield.Disp24(raw)

	case isa.FormatBAbs:
		in.Imm = int32(bitfield.EffectiveAddress(bitfield.Off18(raw)))
		in.Abs = true

	case isa.FormatRRIndirect:
		in.Rs1 = uint8(bitfield.Extract(raw, 11, 8))

	case isa.FormatBRC:
		in.Rs1 = uint8(bitfield.Extract(raw, 15, 12))
		// Rs2 holds a register index for Jeq/Jne/Jge/JgeU/Jlt/JltU and a raw
		// const4 value for the *Imm variants; cpu.Step knows which from Op.
		in.Rs2 = uint8(bitfield.Extract(raw, 11, 8))
		in.Imm = bitfield.DispBR(raw)
		switch in.Op {
		case inst.JeqImm, inst.JneImm, inst.JgeImm, inst.JgeUImm, inst.JltImm, inst.JltUImm:
			in.Imm2 = int32(in.Rs2)
		}

	case isa.FormatBRA:
		in.Rs1 = uint8(bitfield.Extract(raw, 15, 12))
		in.Rs2 = uint8(bitfield.Extract(raw, 11, 8))
		in.Imm = bitfield.DispBR(raw)

	case isa.FormatBRF:
		in.Imm = bitfield.DispBR(raw)
	}
}
