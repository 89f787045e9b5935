// Package disasm renders a decoded inst.Instruction back into assembler
// text, using the same mnemonic spellings asm's dispatch table accepts
// (inst.Op.String()) so that disassembling an assembled program round-trips
// through the same syntax.
package disasm

import (
	"fmt"

	"github.com/arnegrim/tc162/bitfield"
	"github.com/arnegrim/tc162/inst"
)

// Format renders in as one line of assembler source. pc is the address in
// holds, needed to turn its PC-relative branch displacements into absolute
// targets the way a listing does.
func Format(in *inst.Instruction, pc uint32) string {
	mn := in.Op.String()
	switch in.Op {
	case inst.Mov, inst.AddR:
		return fmt.Sprintf("%s d%d, d%d", mn, in.Rd, in.Rs1)
	case inst.MovC, inst.MovI, inst.AddC:
		return fmt.Sprintf("%s d%d, #%d", mn, in.Rd, in.Imm)
	case inst.MovHA:
		return fmt.Sprintf("%s a%d, #%d", mn, in.Rd, in.Imm)
	case inst.Lea:
		return fmt.Sprintf("%s a%d, %s", mn, in.Rd, memOperand(in))

	case inst.Add, inst.Sub, inst.Addx, inst.Addc, inst.Mul, inst.MulU, inst.Div, inst.DivU,
		inst.And, inst.Or, inst.Xor, inst.Andn,
		inst.Shl, inst.Shr, inst.Sar, inst.Ror,
		inst.Min, inst.Max, inst.MinU, inst.MaxU:
		return fmt.Sprintf("%s d%d, d%d, d%d", mn, in.Rd, in.Rs1, in.Rs2)
	case inst.Not:
		return fmt.Sprintf("%s d%d, d%d", mn, in.Rd, in.Rs1)

	case inst.Cmp, inst.CmpU:
		return fmt.Sprintf("%s d%d, d%d", mn, in.Rs1, in.Rs2)
	case inst.CmpI, inst.CmpUI:
		return fmt.Sprintf("%s d%d, #%d", mn, in.Rs1, in.Imm)

	case inst.LdB, inst.LdBu, inst.LdH, inst.LdHu, inst.LdW,
		inst.LdBPbr, inst.LdBuPbr, inst.LdHPbr, inst.LdHuPbr, inst.LdWPbr,
		inst.LdBPcir, inst.LdBuPcir, inst.LdHPcir, inst.LdHuPcir, inst.LdWPcir:
		return fmt.Sprintf("%s d%d, %s", mn, in.Rd, memOperand(in))
	case inst.StB, inst.StH, inst.StW,
		inst.StBPbr, inst.StHPbr, inst.StWPbr,
		inst.StBPcir, inst.StHPcir, inst.StWPcir:
		return fmt.Sprintf("%s %s, d%d", mn, memOperand(in), in.Rd)

	case inst.Jeq, inst.Jne, inst.Jge, inst.JgeU, inst.Jlt, inst.JltU:
		return fmt.Sprintf("%s d%d, d%d, %s", mn, in.Rs1, in.Rs2, target(in, pc))
	case inst.JeqImm, inst.JneImm, inst.JgeImm, inst.JltImm:
		// Rs2 carries a raw 4-bit const4; the signed variants compare it as
		// two's complement, so it must sign-extend here too or the printed
		// literal won't re-assemble (cpu.Step's signExtendConst4 does the
		// same thing at execution time).
		return fmt.Sprintf("%s d%d, #%d, %s", mn, in.Rs1, bitfield.SignExtend(uint32(in.Rs2), 4), target(in, pc))
	case inst.JgeUImm, inst.JltUImm:
		return fmt.Sprintf("%s d%d, #%d, %s", mn, in.Rs1, in.Rs2, target(in, pc))

	case inst.JeqA, inst.JneA:
		return fmt.Sprintf("%s a%d, a%d, %s", mn, in.Rs1, in.Rs2, target(in, pc))
	case inst.JzA, inst.JnzA:
		return fmt.Sprintf("%s a%d, %s", mn, in.Rs1, target(in, pc))

	case inst.BeqF, inst.BneF, inst.BgeF, inst.BltF, inst.BgeUF, inst.BltUF:
		return fmt.Sprintf("%s %s", mn, target(in, pc))

	case inst.J, inst.Call:
		return fmt.Sprintf("%s %s", mn, target(in, pc))
	case inst.CallA:
		return fmt.Sprintf("%s %#x", mn, uint32(in.Imm))
	case inst.CallI:
		return fmt.Sprintf("%s a%d", mn, in.Rs1)
	case inst.Ret, inst.Syscall:
		return mn

	default:
		return "invalid"
	}
}

// memOperand renders a load/store/lea's address operand per its addressing
// mode (inst.AddrMode), matching the [aN+d], [aN++d], [++aN+d], [0x..],
// [pN] and [pNc+d] shapes tcasm's mem-operand parser accepts.
func memOperand(in *inst.Instruction) string {
	switch in.Mode() {
	case inst.ModeAbs:
		return fmt.Sprintf("[%#x]", uint32(in.Imm))
	case inst.ModePostInc:
		return fmt.Sprintf("[a%d++%d]", in.Rs1, in.Imm)
	case inst.ModePreInc:
		return fmt.Sprintf("[++a%d%+d]", in.Rs1, in.Imm)
	case inst.ModePbrBitRev:
		return fmt.Sprintf("[p%d]", in.Rs1)
	case inst.ModePbrCircular:
		return fmt.Sprintf("[p%dc%+d]", in.Rs1, in.Imm)
	default:
		return fmt.Sprintf("[a%d%+d]", in.Rs1, in.Imm)
	}
}

// target resolves a branch's absolute destination. PC-relative displacements
// are relative to the address of the following instruction (pc + in.Width),
// not pc itself.
func target(in *inst.Instruction, pc uint32) string {
	return fmt.Sprintf("%#x", uint32(int32(pc)+int32(in.Width)+in.Imm))
}
