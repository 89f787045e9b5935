package asm

import (
	"fmt"

	"github.com/arnegrim/tc162/inst"
	"github.com/arnegrim/tc162/isa"
)

// mustDesc returns the idx-th entry of isa.ByOp[op], in table order (idx 0
// is op's sole or first encoding). It panics on
// an unknown Op because that can only happen from a programming error in
// this package's dispatch table, never from user input.
func mustDesc(op inst.Op, idx int) isa.Desc {
	ds := isa.ByOp[op]
	if idx >= len(ds) {
		panic(fmt.Sprintf("asm: no encoding #%d for %s", idx, op))
	}
	return ds[idx]
}

// descByFormat picks the encoding of op carried in the given format.
func descByFormat(op inst.Op, f isa.Format) isa.Desc {
	for _, d := range isa.ByOp[op] {
		if d.Format == f {
			return d
		}
	}
	panic(fmt.Sprintf("asm: no %v encoding for %s", f, op))
}

func encodeMov(ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 2, "mov"); err != nil {
		return 0, 4, err
	}
	rd, err := reg(ops[0], RegData, "dst")
	if err != nil {
		return 0, 4, err
	}
	switch ops[1].Kind {
	case OperandReg:
		rs1, err := reg(ops[1], RegData, "src")
		if err != nil {
			return 0, 4, err
		}
		d := descByFormat(inst.Mov, isa.FormatSRR)
		return packSRR(d.Op1, rd, rs1), 2, nil
	case OperandImm:
		if fitsUnsigned(ops[1].Imm, 4) {
			d := descByFormat(inst.MovC, isa.FormatSRCRegConst)
			return packSRCRegConst(d.Op1, rd, uint8(ops[1].Imm)), 2, nil
		}
		d := mustDesc(inst.MovI, 0)
		return packRLC(d.Op1, rd, ops[1].Imm), 4, nil
	default:
		return 0, 4, fmt.Errorf("mov: unsupported source operand %q", ops[1].Raw)
	}
}

func encodeLea(ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 2, "lea"); err != nil {
		return 0, 4, err
	}
	rd, err := reg(ops[0], RegAddr, "dst")
	if err != nil {
		return 0, 4, err
	}
	m, err := mem(ops[1], "source")
	if err != nil {
		return 0, 4, err
	}
	if m.Abs {
		d := descByFormat(inst.Lea, isa.FormatABS)
		word, ok := packABS(d.Op1, rd, uint32(m.Disp))
		if !ok {
			return 0, 4, fmt.Errorf("lea: absolute target %#x not reachable", m.Disp)
		}
		return word, 4, nil
	}
	if err := checkOffset("lea", m.Disp, 10); err != nil {
		return 0, 4, err
	}
	d := descByFormat(inst.Lea, isa.FormatBO)
	return packBO(d.Op1, rd, m.BaseReg, m.Disp, false, false), 4, nil
}

// encodeAdd handles "add"'s three shapes: the RR (reg,reg,reg) 32-bit form,
// and its two 2-operand accumulate shorthands (Rd += Rs1, Rd += const4) —
// each shorthand gets its own Op tag (AddR, AddC) since both leave an
// unused-and-therefore-ambiguous-with-zero field in the decoded record that
// only the Op tag, not the record's contents, can disambiguate at execution
// time.
func encodeAdd(ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 3, "add"); err != nil {
		if len(ops) == 2 {
			rd, err := reg(ops[0], RegData, "dst")
			if err != nil {
				return 0, 4, err
			}
			if ops[1].Kind == OperandImm && fitsUnsigned(ops[1].Imm, 4) {
				d := descByFormat(inst.AddC, isa.FormatSRCRegConst)
				return packSRCRegConst(d.Op1, rd, uint8(ops[1].Imm)), 2, nil
			}
			if ops[1].Kind == OperandReg {
				d := descByFormat(inst.AddR, isa.FormatSRR)
				rs1, err := reg(ops[1], RegData, "src")
				if err != nil {
					return 0, 4, err
				}
				return packSRR(d.Op1, rd, rs1), 2, nil
			}
		}
		return 0, 4, err
	}
	return encodeRR3(inst.Add, ops)
}

func encodeRR3(op inst.Op, ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 3, op.String()); err != nil {
		return 0, 4, err
	}
	rd, err := reg(ops[0], RegData, "dst")
	if err != nil {
		return 0, 4, err
	}
	rs1, err := reg(ops[1], RegData, "src1")
	if err != nil {
		return 0, 4, err
	}
	rs2, err := reg(ops[2], RegData, "src2")
	if err != nil {
		return 0, 4, err
	}
	d := descByFormat(op, isa.FormatRR)
	return packRR(d.Op1, d.Op2, rd, rs1, rs2), 4, nil
}

func encodeRR2(op inst.Op, ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 2, op.String()); err != nil {
		return 0, 4, err
	}
	rd, err := reg(ops[0], RegData, "dst")
	if err != nil {
		return 0, 4, err
	}
	rs1, err := reg(ops[1], RegData, "src")
	if err != nil {
		return 0, 4, err
	}
	d := descByFormat(op, isa.FormatRR)
	return packRR(d.Op1, d.Op2, rd, rs1, 0), 4, nil
}

func encodeCmp(regOp, immOp inst.Op, ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 2, regOp.String()); err != nil {
		return 0, 4, err
	}
	rs1, err := reg(ops[0], RegData, "src1")
	if err != nil {
		return 0, 4, err
	}
	switch ops[1].Kind {
	case OperandReg:
		rs2, err := reg(ops[1], RegData, "src2")
		if err != nil {
			return 0, 4, err
		}
		if rs2 == 15 {
			if d, err := wantFormat(regOp, isa.FormatSRCCmp); err == nil {
				return packSRCCmp(d.Op1, rs1), 2, nil
			}
		}
		d := descByFormat(regOp, isa.FormatRR)
		return packRR(d.Op1, d.Op2, 0, rs1, rs2), 4, nil
	case OperandImm:
		d := mustDesc(immOp, 0)
		return packRC(d.Op1, d.Op2, 0, rs1, ops[1].Imm), 4, nil
	default:
		return 0, 4, fmt.Errorf("%s: unsupported operand %q", regOp, ops[1].Raw)
	}
}

func encodeLoad(base, pbr, pcir inst.Op, ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 2, base.String()); err != nil {
		return 0, 4, err
	}
	rd, err := reg(ops[0], RegData, "dst")
	if err != nil {
		return 0, 4, err
	}
	m, err := mem(ops[1], "address")
	if err != nil {
		return 0, 4, err
	}
	return encodeLoadStoreMem(base, pbr, pcir, rd, m)
}

func encodeStore(base, pbr, pcir inst.Op, ops []Operand) (uint32, uint8, error) {
	if err := wantOperands(ops, 2, base.String()); err != nil {
		return 0, 4, err
	}
	m, err := mem(ops[0], "address")
	if err != nil {
		return 0, 4, err
	}
	rs2, err := reg(ops[1], RegData, "src")
	if err != nil {
		return 0, 4, err
	}
	return encodeLoadStoreMem(base, pbr, pcir, rs2, m)
}

func encodeLoadStoreMem(base, pbr, pcir inst.Op, reg8 uint8, m MemShape) (uint32, uint8, error) {
	switch {
	case m.Abs:
		d := descByFormat(base, isa.FormatABS)
		word, ok := packABS(d.Op1, reg8, uint32(m.Disp))
		if !ok {
			return 0, 4, fmt.Errorf("%s: absolute target %#x not reachable", base, m.Disp)
		}
		return word, 4, nil
	case m.Pbr:
		d := mustDesc(pbr, 0)
		return packBOP(d.Op1, reg8, m.BaseReg, 0), 4, nil
	case m.Pcir:
		if err := checkOffset(pcir.String(), m.Disp, 10); err != nil {
			return 0, 4, err
		}
		d := mustDesc(pcir, 0)
		return packBOP(d.Op1, reg8, m.BaseReg, m.Disp), 4, nil
	default:
		if err := checkOffset(base.String(), m.Disp, 10); err != nil {
			return 0, 4, err
		}
		d := descByFormat(base, isa.FormatBO)
		return packBO(d.Op1, reg8, m.BaseReg, m.Disp, m.PostInc || m.PreInc, m.PreInc), 4, nil
	}
}

func encodeDataBranch(regOp, immOp inst.Op, ops []Operand, pc uint32) (uint32, uint8, error) {
	if err := wantOperands(ops, 3, regOp.String()); err != nil {
		return 0, 4, err
	}
	rs1, err := reg(ops[0], RegData, "src1")
	if err != nil {
		return 0, 4, err
	}
	switch ops[1].Kind {
	case OperandReg:
		rs2, err := reg(ops[1], RegData, "src2")
		if err != nil {
			return 0, 4, err
		}
		if rs2 == 15 {
			d, err := wantFormat(regOp, isa.FormatSBR)
			if err == nil {
				disp, err := branchTarget(ops[2], pc, 2)
				if err == nil && fits(disp>>1, 4) {
					return packSBR(d.Op1, rs1, disp), 2, nil
				}
			}
		}
		d := descByFormat(regOp, isa.FormatBRC)
		disp, err := branchTarget(ops[2], pc, 4)
		if err != nil {
			return 0, 4, err
		}
		if err := checkDisp(regOp.String(), disp, 15); err != nil {
			return 0, 4, err
		}
		return packBRC(d.Op1, rs1, rs2, disp), 4, nil
	case OperandImm:
		// const4 is unsigned (range [0,15]) for the *U variants and signed
		// (range [-8,7]) for everything else, matching the published ISA's
		// distinct treatment of the two families rather than one shared
		// extension rule.
		unsigned := immOp == inst.JgeUImm || immOp == inst.JltUImm
		var field uint8
		if unsigned {
			if !fitsUnsigned(ops[1].Imm, 4) {
				return 0, 4, fmt.Errorf("%s: const4 operand %d out of range [0,15]", immOp, ops[1].Imm)
			}
			field = uint8(ops[1].Imm)
		} else {
			if !fits(ops[1].Imm, 4) {
				return 0, 4, fmt.Errorf("%s: const4 operand %d out of range [-8,7]", immOp, ops[1].Imm)
			}
			field = uint8(ops[1].Imm) & 0xF
		}
		if rs1 == 15 {
			d, err := wantFormat(immOp, isa.FormatSBC)
			if err == nil {
				disp, err := branchTarget(ops[2], pc, 2)
				if err == nil && fits(disp>>1, 4) {
					return packSBC(d.Op1, field, disp), 2, nil
				}
			}
		}
		d := descByFormat(immOp, isa.FormatBRC)
		disp, err := branchTarget(ops[2], pc, 4)
		if err != nil {
			return 0, 4, err
		}
		if err := checkDisp(immOp.String(), disp, 15); err != nil {
			return 0, 4, err
		}
		return packBRC(d.Op1, rs1, field, disp), 4, nil
	default:
		return 0, 4, fmt.Errorf("%s: unsupported operand %q", regOp, ops[1].Raw)
	}
}

func wantFormat(op inst.Op, f isa.Format) (isa.Desc, error) {
	for _, d := range isa.ByOp[op] {
		if d.Format == f {
			return d, nil
		}
	}
	return isa.Desc{}, fmt.Errorf("no %v encoding for %s", f, op)
}

func encodeAddrBranch(op inst.Op, ops []Operand, pc uint32, twoRegs bool) (uint32, uint8, error) {
	want := 2 // a-reg, target (JzA/JnzA compare against an implicit zero)
	if twoRegs {
		want = 3 // a-reg, a-reg, target (JeqA/JneA)
	}
	if err := wantOperands(ops, want, op.String()); err != nil {
		return 0, 4, err
	}
	a1, err := reg(ops[0], RegAddr, "src1")
	if err != nil {
		return 0, 4, err
	}
	var a2 uint8
	if twoRegs {
		a2, err = reg(ops[1], RegAddr, "src2")
		if err != nil {
			return 0, 4, err
		}
	}
	target := ops[len(ops)-1]
	disp, err := branchTarget(target, pc, 4)
	if err != nil {
		return 0, 4, err
	}
	if err := checkDisp(op.String(), disp, 15); err != nil {
		return 0, 4, err
	}
	d := mustDesc(op, 0)
	return packBRA(d.Op1, a1, a2, disp), 4, nil
}

func encodeFlagBranch(op inst.Op, ops []Operand, pc uint32) (uint32, uint8, error) {
	if err := wantOperands(ops, 1, op.String()); err != nil {
		return 0, 4, err
	}
	disp, err := branchTarget(ops[0], pc, 4)
	if err != nil {
		return 0, 4, err
	}
	if err := checkDisp(op.String(), disp, 15); err != nil {
		return 0, 4, err
	}
	d := mustDesc(op, 0)
	return packBRF(d.Op1, d.Op2, disp), 4, nil
}
