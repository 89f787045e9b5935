package cpu

import (
	"math/bits"

	"github.com/arnegrim/tc162/bitfield"
	"github.com/arnegrim/tc162/inst"
	"github.com/arnegrim/tc162/memory"
)

// Step executes one decoded instruction, advancing Regs.PC on success. It
// returns a non-nil Trap instead of advancing when the instruction can't be
// carried out (spec §5's closed trap taxonomy): InvalidInstruction never
// reaches here (the caller checks Decode's ok first), Unaligned for a
// misaligned halfword/word access, Bus for an out-of-bounds memory access,
// and Break for an explicit debug/syscall trap.
func Step(c *CPU, m *memory.Memory, in *inst.Instruction) *Trap {
	pc := c.Regs.PC
	next := pc + uint32(in.Width)

	switch in.Op {
	case inst.Mov:
		c.Regs.D[in.Rd] = c.Regs.D[in.Rs1]
	case inst.MovC:
		c.Regs.D[in.Rd] = uint32(in.Imm)
	case inst.MovI:
		c.Regs.D[in.Rd] = uint32(in.Imm) & 0xFFFF
	case inst.MovHA:
		c.Regs.A[in.Rd] = uint32(in.Imm) << 16
	case inst.Lea:
		ea, tr := effectiveAddress(c, in, pc)
		if tr != nil {
			return tr
		}
		c.Regs.A[in.Rd] = ea

	case inst.Add:
		c.commitAdd(in.Rd, c.Regs.D[in.Rs1], c.Regs.D[in.Rs2], 0)
	case inst.AddR:
		c.commitAdd(in.Rd, c.Regs.D[in.Rd], c.Regs.D[in.Rs1], 0)
	case inst.AddC:
		c.commitAdd(in.Rd, c.Regs.D[in.Rd], uint32(in.Imm), 0)
	case inst.Sub:
		c.commitSub(in.Rd, c.Regs.D[in.Rs1], c.Regs.D[in.Rs2])
	case inst.Addx:
		c.commitAdd(in.Rd, c.Regs.D[in.Rs1], c.Regs.D[in.Rs2], 0)
	case inst.Addc:
		carry := uint32(0)
		if c.Regs.PSW.C {
			carry = 1
		}
		c.commitAdd(in.Rd, c.Regs.D[in.Rs1], c.Regs.D[in.Rs2], carry)
	case inst.Mul:
		r := int64(int32(c.Regs.D[in.Rs1])) * int64(int32(c.Regs.D[in.Rs2]))
		c.Regs.D[in.Rd] = uint32(r)
		c.Regs.PSW.Z = c.Regs.D[in.Rd] == 0
		c.Regs.PSW.N = int32(c.Regs.D[in.Rd]) < 0
		c.Regs.PSW.V = r != int64(int32(uint32(r)))
	case inst.MulU:
		r := uint64(c.Regs.D[in.Rs1]) * uint64(c.Regs.D[in.Rs2])
		c.Regs.D[in.Rd] = uint32(r)
		c.Regs.PSW.Z = c.Regs.D[in.Rd] == 0
		c.Regs.PSW.N = int32(c.Regs.D[in.Rd]) < 0
		c.Regs.PSW.V = r > 0xFFFFFFFF
	case inst.Div:
		// Real TC1.6.2 hardware has no single-cycle integer divide and no
		// divide-by-zero trap (DIV is software-iterated); this core defines
		// divide-by-zero as yielding 0 rather than inventing a trap kind
		// spec.md's taxonomy doesn't name.
		if c.Regs.D[in.Rs2] == 0 {
			c.Regs.D[in.Rd] = 0
		} else {
			c.Regs.D[in.Rd] = uint32(int32(c.Regs.D[in.Rs1]) / int32(c.Regs.D[in.Rs2]))
		}
	case inst.DivU:
		if c.Regs.D[in.Rs2] == 0 {
			c.Regs.D[in.Rd] = 0
		} else {
			c.Regs.D[in.Rd] = c.Regs.D[in.Rs1] / c.Regs.D[in.Rs2]
		}

	case inst.And:
		c.setLogic(in.Rd, c.Regs.D[in.Rs1]&c.Regs.D[in.Rs2])
	case inst.Or:
		c.setLogic(in.Rd, c.Regs.D[in.Rs1]|c.Regs.D[in.Rs2])
	case inst.Xor:
		c.setLogic(in.Rd, c.Regs.D[in.Rs1]^c.Regs.D[in.Rs2])
	case inst.Andn:
		c.setLogic(in.Rd, c.Regs.D[in.Rs1]&^c.Regs.D[in.Rs2])
	case inst.Not:
		c.setLogic(in.Rd, ^c.Regs.D[in.Rs1])
	case inst.Shl:
		c.setLogic(in.Rd, shiftLeft(c.Regs.D[in.Rs1], c.Regs.D[in.Rs2]))
	case inst.Shr:
		c.setLogic(in.Rd, shiftRightLogical(c.Regs.D[in.Rs1], c.Regs.D[in.Rs2]))
	case inst.Sar:
		c.setLogic(in.Rd, uint32(shiftRightArith(int32(c.Regs.D[in.Rs1]), c.Regs.D[in.Rs2])))
	case inst.Ror:
		c.setLogic(in.Rd, bits.RotateLeft32(c.Regs.D[in.Rs1], -int(c.Regs.D[in.Rs2]&31)))

	case inst.Min:
		c.Regs.D[in.Rd] = uint32(minI32(int32(c.Regs.D[in.Rs1]), int32(c.Regs.D[in.Rs2])))
	case inst.Max:
		c.Regs.D[in.Rd] = uint32(maxI32(int32(c.Regs.D[in.Rs1]), int32(c.Regs.D[in.Rs2])))
	case inst.MinU:
		c.Regs.D[in.Rd] = minU32(c.Regs.D[in.Rs1], c.Regs.D[in.Rs2])
	case inst.MaxU:
		c.Regs.D[in.Rd] = maxU32(c.Regs.D[in.Rs1], c.Regs.D[in.Rs2])

	case inst.Cmp:
		compareSigned(c, int32(c.Regs.D[in.Rs1]), int32(readCmp2(c, in)))
	case inst.CmpU:
		compareUnsigned(c, c.Regs.D[in.Rs1], readCmp2(c, in))
	case inst.CmpI:
		compareSigned(c, int32(c.Regs.D[in.Rs1]), in.Imm)
	case inst.CmpUI:
		compareUnsigned(c, c.Regs.D[in.Rs1], uint32(in.Imm))

	case inst.LdB:
		return load(c, m, in, pc, 1, true)
	case inst.LdBu:
		return load(c, m, in, pc, 1, false)
	case inst.LdH:
		return load(c, m, in, pc, 2, true)
	case inst.LdHu:
		return load(c, m, in, pc, 2, false)
	case inst.LdW:
		return load(c, m, in, pc, 4, true)
	case inst.LdBPbr, inst.LdBPcir:
		return loadP(c, m, in, pc, 1, true)
	case inst.LdBuPbr, inst.LdBuPcir:
		return loadP(c, m, in, pc, 1, false)
	case inst.LdHPbr, inst.LdHPcir:
		return loadP(c, m, in, pc, 2, true)
	case inst.LdHuPbr, inst.LdHuPcir:
		return loadP(c, m, in, pc, 2, false)
	case inst.LdWPbr, inst.LdWPcir:
		return loadP(c, m, in, pc, 4, true)

	case inst.StB:
		return store(c, m, in, pc, 1)
	case inst.StH:
		return store(c, m, in, pc, 2)
	case inst.StW:
		return store(c, m, in, pc, 4)
	case inst.StBPbr, inst.StBPcir:
		return storeP(c, m, in, pc, 1)
	case inst.StHPbr, inst.StHPcir:
		return storeP(c, m, in, pc, 2)
	case inst.StWPbr, inst.StWPcir:
		return storeP(c, m, in, pc, 4)

	case inst.Jeq:
		next = branchIf(c.Regs.D[in.Rs1] == readCmp2(c, in), in.Imm, next)
	case inst.Jne:
		next = branchIf(c.Regs.D[in.Rs1] != readCmp2(c, in), in.Imm, next)
	case inst.Jge:
		next = branchIf(int32(c.Regs.D[in.Rs1]) >= int32(readCmp2(c, in)), in.Imm, next)
	case inst.JgeU:
		next = branchIf(c.Regs.D[in.Rs1] >= readCmp2(c, in), in.Imm, next)
	case inst.Jlt:
		next = branchIf(int32(c.Regs.D[in.Rs1]) < int32(readCmp2(c, in)), in.Imm, next)
	case inst.JltU:
		next = branchIf(c.Regs.D[in.Rs1] < readCmp2(c, in), in.Imm, next)
	case inst.JeqImm:
		next = branchIf(int32(c.Regs.D[in.Rs1]) == signExtendConst4(in.Rs2), in.Imm, next)
	case inst.JneImm:
		next = branchIf(int32(c.Regs.D[in.Rs1]) != signExtendConst4(in.Rs2), in.Imm, next)
	case inst.JgeImm:
		next = branchIf(int32(c.Regs.D[in.Rs1]) >= signExtendConst4(in.Rs2), in.Imm, next)
	case inst.JgeUImm:
		next = branchIf(c.Regs.D[in.Rs1] >= uint32(in.Rs2), in.Imm, next)
	case inst.JltImm:
		next = branchIf(int32(c.Regs.D[in.Rs1]) < signExtendConst4(in.Rs2), in.Imm, next)
	case inst.JltUImm:
		next = branchIf(c.Regs.D[in.Rs1] < uint32(in.Rs2), in.Imm, next)

	case inst.JeqA:
		next = branchIf(c.Regs.A[in.Rs1] == c.Regs.A[in.Rs2], in.Imm, next)
	case inst.JneA:
		next = branchIf(c.Regs.A[in.Rs1] != c.Regs.A[in.Rs2], in.Imm, next)
	case inst.JzA:
		next = branchIf(c.Regs.A[in.Rs1] == 0, in.Imm, next)
	case inst.JnzA:
		next = branchIf(c.Regs.A[in.Rs1] != 0, in.Imm, next)

	case inst.BeqF:
		next = branchIf(c.Regs.PSW.Z, in.Imm, next)
	case inst.BneF:
		next = branchIf(!c.Regs.PSW.Z, in.Imm, next)
	case inst.BgeF:
		next = branchIf(c.Regs.PSW.N == c.Regs.PSW.V, in.Imm, next)
	case inst.BltF:
		next = branchIf(c.Regs.PSW.N != c.Regs.PSW.V, in.Imm, next)
	case inst.BgeUF:
		next = branchIf(c.Regs.PSW.C, in.Imm, next)
	case inst.BltUF:
		next = branchIf(!c.Regs.PSW.C && !c.Regs.PSW.Z, in.Imm, next)

	case inst.J:
		next = uint32(int32(next) + in.Imm)

	// Call/CallA/CallI/Ret are execution-continues stubs (no CSA/call-stack
	// model, per the non-goals): a call just transfers control like a jump,
	// without saving a return address anywhere. Ret has no address to
	// return to under that model, so rather than silently resuming at some
	// made-up PC it refuses to step, trapping instead.
	case inst.Call:
		next = uint32(int32(next) + in.Imm)
	case inst.CallA:
		next = uint32(in.Imm)
	case inst.CallI:
		next = c.Regs.A[in.Rs1]
	case inst.Ret:
		return trapAt("unmodeled-return", pc, "ret: no call-stack model; return target unknown")

	case inst.Syscall:
		return trapAt("break", pc, "syscall")

	default:
		return trapAt("invalid-instruction", pc, in.Op.String())
	}

	c.Regs.PC = next
	return nil
}

// commitAdd computes a+b+carryIn, writes it to D[rd], and sets the flags per
// the add formulas (spec §4.4): C is the unsigned carry out of bit 31, V is
// the signed overflow test on the truncated result.
func (c *CPU) commitAdd(rd uint8, a, b, carryIn uint32) {
	sum := uint64(a) + uint64(b) + uint64(carryIn)
	v32 := uint32(sum)
	v := ((int32(a) ^ int32(v32)) & (int32(b) ^ int32(v32))) < 0
	c.Regs.D[rd] = v32
	c.Regs.PSW.setArith(v32, sum > 0xFFFFFFFF, v)
}

// commitSub computes a-b, writes it to D[rd], and sets the flags per the
// subtract formulas (spec §4.4): C is "no borrow" (unsigned a >= b).
func (c *CPU) commitSub(rd uint8, a, b uint32) {
	v32 := a - b
	v := ((int32(a) ^ int32(b)) & (int32(a) ^ int32(v32))) < 0
	c.Regs.D[rd] = v32
	c.Regs.PSW.setArith(v32, a >= b, v)
}

func (c *CPU) setLogic(rd uint8, v uint32) {
	c.Regs.D[rd] = v
	c.Regs.PSW.Z = v == 0
	c.Regs.PSW.N = int32(v) < 0
	c.Regs.PSW.C = false
	c.Regs.PSW.V = false
}

// readCmp2 reads a compare/branch instruction's second data operand,
// honoring the implicit-D15 edge case the decoder records explicitly for
// the SRC/SBR short forms (Rs2 forced to 15) rather than leaving it at a
// zero value that could be confused with a real register 0.
func readCmp2(c *CPU, in *inst.Instruction) uint32 {
	return c.Regs.D[in.Rs2]
}

// signExtendConst4 interprets a branch's packed 4-bit immediate (carried in
// Rs2 for the *Imm branch variants) as signed, per the published ISA
// semantics for the signed compare-immediate branches (Jeq/Jne/Jge/Jlt Imm);
// the unsigned variants (JgeU/JltU Imm) read Rs2 as a plain uint32 instead.
func signExtendConst4(v uint8) int32 {
	return bitfield.SignExtend(uint32(v), 4)
}

func compareSigned(c *CPU, a, b int32) {
	c.Regs.PSW.Z = a == b
	c.Regs.PSW.N = a-b < 0
	c.Regs.PSW.C = uint32(a) < uint32(b)
	c.Regs.PSW.V = false
}

// compareUnsigned sets C the same way the arithmetic ops do (no borrow, i.e.
// a >= b), so a cmp.u followed by jge.tu/jlt.tu reads C with the same polarity
// commitSub gives it after a subtract.
func compareUnsigned(c *CPU, a, b uint32) {
	c.Regs.PSW.Z = a == b
	c.Regs.PSW.N = false
	c.Regs.PSW.C = a >= b
	c.Regs.PSW.V = false
}

// branchIf computes the post-instruction PC for a conditional branch: taken
// targets are relative to fallthroughPC (pc_at_fetch + instruction width),
// never to pc itself, since a branch's own width contributes to the target
// address before the displacement is added.
func branchIf(cond bool, disp int32, fallthroughPC uint32) uint32 {
	if cond {
		return uint32(int32(fallthroughPC) + disp)
	}
	return fallthroughPC
}

func shiftLeft(v, n uint32) uint32 {
	if n >= 32 {
		return 0
	}
	return v << n
}

func shiftRightLogical(v, n uint32) uint32 {
	if n >= 32 {
		return 0
	}
	return v >> n
}

func shiftRightArith(v int32, n uint32) int32 {
	if n >= 32 {
		if v < 0 {
			return -1
		}
		return 0
	}
	return v >> n
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// effectiveAddress computes a load/store/lea's address and performs any
// base-register writeback, for the non-P-based addressing modes.
func effectiveAddress(c *CPU, in *inst.Instruction, pc uint32) (uint32, *Trap) {
	switch in.Mode() {
	case inst.ModeAbs:
		return uint32(in.Imm), nil
	case inst.ModePostInc:
		ea := c.Regs.A[in.Rs1]
		c.Regs.A[in.Rs1] = uint32(int32(ea) + in.Imm)
		return ea, nil
	case inst.ModePreInc:
		ea := uint32(int32(c.Regs.A[in.Rs1]) + in.Imm)
		c.Regs.A[in.Rs1] = ea
		return ea, nil
	default:
		return uint32(int32(c.Regs.A[in.Rs1]) + in.Imm), nil
	}
}

// pIndexAddress resolves a P-based (bit-reverse or circular) load/store
// address and updates the implicit index register held in A[rs1+1] (spec
// §4.4): the low 16 bits are the running index, the high 16 the circular
// buffer length (0 disables wraparound).
func pIndexAddress(c *CPU, in *inst.Instruction) uint32 {
	base := c.Regs.A[in.Rs1]
	pairReg := inst.PIndexReg(in.Rs1)
	packed := c.Regs.A[pairReg]
	index := uint16(packed)
	length := uint16(packed >> 16)

	ea := base + uint32(index)

	var newIndex uint16
	switch in.Mode() {
	case inst.ModePbrCircular:
		step := uint32(int32(index)) + uint32(in.Imm)
		if length != 0 {
			step %= uint32(length)
		}
		newIndex = uint16(step)
	default: // ModePbrBitRev
		rev := bits.Reverse16(index)
		rev += bits.Reverse16(uint16(in.Imm))
		newIndex = bits.Reverse16(rev)
	}
	c.Regs.A[pairReg] = uint32(length)<<16 | uint32(newIndex)
	return ea
}

func load(c *CPU, m *memory.Memory, in *inst.Instruction, pc uint32, size int, signed bool) *Trap {
	ea, tr := effectiveAddress(c, in, pc)
	if tr != nil {
		return tr
	}
	return loadInto(c, m, in, pc, ea, size, signed)
}

func loadP(c *CPU, m *memory.Memory, in *inst.Instruction, pc uint32, size int, signed bool) *Trap {
	ea := pIndexAddress(c, in)
	return loadInto(c, m, in, pc, ea, size, signed)
}

func loadInto(c *CPU, m *memory.Memory, in *inst.Instruction, pc uint32, ea uint32, size int, signed bool) *Trap {
	if size > 1 && ea%uint32(size) != 0 {
		return trapAt("unaligned", pc, in.Op.String())
	}
	switch size {
	case 1:
		b, err := m.ReadByte(ea)
		if err != nil {
			return trapAt("bus", pc, err.Error())
		}
		if signed {
			c.Regs.D[in.Rd] = uint32(int32(int8(b)))
		} else {
			c.Regs.D[in.Rd] = uint32(b)
		}
	case 2:
		h, err := m.ReadU16(ea)
		if err != nil {
			return trapAt("bus", pc, err.Error())
		}
		if signed {
			c.Regs.D[in.Rd] = uint32(int32(int16(h)))
		} else {
			c.Regs.D[in.Rd] = uint32(h)
		}
	case 4:
		w, err := m.ReadU32(ea)
		if err != nil {
			return trapAt("bus", pc, err.Error())
		}
		c.Regs.D[in.Rd] = w
	}
	return nil
}

func store(c *CPU, m *memory.Memory, in *inst.Instruction, pc uint32, size int) *Trap {
	ea, tr := effectiveAddress(c, in, pc)
	if tr != nil {
		return tr
	}
	return storeFrom(c, m, in, pc, ea, size)
}

func storeP(c *CPU, m *memory.Memory, in *inst.Instruction, pc uint32, size int) *Trap {
	ea := pIndexAddress(c, in)
	return storeFrom(c, m, in, pc, ea, size)
}

func storeFrom(c *CPU, m *memory.Memory, in *inst.Instruction, pc uint32, ea uint32, size int) *Trap {
	if size > 1 && ea%uint32(size) != 0 {
		return trapAt("unaligned", pc, in.Op.String())
	}
	v := c.Regs.D[in.Rd]
	var err error
	switch size {
	case 1:
		err = m.WriteByte(ea, byte(v))
	case 2:
		err = m.WriteU16(ea, uint16(v))
	case 4:
		err = m.WriteU32(ea, v)
	}
	if err != nil {
		return trapAt("bus", pc, err.Error())
	}
	return nil
}
