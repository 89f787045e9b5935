// Package asm is the two-pass TC1.6.2 line assembler: it turns source text
// into a byte stream using the same isa format table the decoder reads
// back with, so decode(assemble(line)) always round-trips.
package asm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/arnegrim/tc162/inst"
	"github.com/arnegrim/tc162/isa"
)

// Assembler holds label state across the fixed-point label-resolution pass,
// mirroring the teacher's worklist-until-stable approach to forward labels.
type Assembler struct {
	labels map[string]uint32
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{labels: make(map[string]uint32)}
}

// Labels returns the resolved label table after Assemble.
func (a *Assembler) Labels() map[string]uint32 {
	return a.labels
}

// Assemble assembles src into a byte stream starting at base.
func (a *Assembler) Assemble(src string, base uint32) ([]byte, error) {
	nodes, err := parseLines(src)
	if err != nil {
		return nil, err
	}

	if err := a.resolveSizesAndLabels(nodes, base); err != nil {
		return nil, err
	}

	var out []byte
	pc := base
	for _, n := range nodes {
		switch n.Type {
		case NodeLabel:
			continue
		case NodeDirective:
			bytes, err := a.encodeDirective(n)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			out = append(out, bytes...)
			pc += uint32(len(bytes))
		case NodeInstruction:
			word, size, err := a.encodeInstruction(n, pc)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			out = append(out, wordBytes(word, size)...)
			pc += uint32(size)
		}
	}
	return out, nil
}

func wordBytes(word uint32, size uint8) []byte {
	if size == 2 {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(word))
		return b
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, word)
	return b
}

// resolveSizesAndLabels computes each node's size and every label's address,
// iterating to a fixed point since a label's displacement can change an
// instruction's chosen width, which in turn moves every later label.
func (a *Assembler) resolveSizesAndLabels(nodes []*Node, base uint32) error {
	for _, n := range nodes {
		if n.Type == NodeInstruction {
			n.Size = 4 // conservative default, narrowed below once labels settle
		}
	}
	for iter := 0; iter < len(nodes)+2; iter++ {
		pc := base
		changed := false
		for _, n := range nodes {
			switch n.Type {
			case NodeLabel:
				if a.labels[n.Label] != pc {
					a.labels[n.Label] = pc
					changed = true
				}
			case NodeDirective:
				bytes, err := a.encodeDirective(n)
				if err != nil {
					return fmt.Errorf("line %d: %w", n.Line, err)
				}
				pc += uint32(len(bytes))
			case NodeInstruction:
				_, size, err := a.encodeInstruction(n, pc)
				if err == nil {
					if n.Size != uint32(size) {
						n.Size = uint32(size)
						changed = true
					}
				}
				pc += uint32(n.Size)
			}
		}
		if !changed {
			return nil
		}
	}
	return fmt.Errorf("label addresses did not converge (possible circular forward reference)")
}

func (a *Assembler) encodeDirective(n *Node) ([]byte, error) {
	switch n.Directive {
	case ".word":
		var out []byte
		for _, arg := range n.DirArgs {
			v, ok := parseImm(strings.TrimSpace(arg))
			if !ok {
				return nil, fmt.Errorf(".word: bad operand %q", arg)
			}
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(v))
			out = append(out, b...)
		}
		return out, nil
	case ".byte":
		var out []byte
		for _, arg := range n.DirArgs {
			v, ok := parseImm(strings.TrimSpace(arg))
			if !ok {
				return nil, fmt.Errorf(".byte: bad operand %q", arg)
			}
			out = append(out, byte(v))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown directive %q", n.Directive)
	}
}

// resolveOperand fills in a forward-referenced label's address once known.
func (a *Assembler) resolveOperand(op Operand, pc uint32) (Operand, error) {
	if op.Kind != OperandLabel {
		return op, nil
	}
	target, ok := a.labels[op.Label]
	if !ok {
		return op, fmt.Errorf("undefined label %q", op.Label)
	}
	return Operand{Kind: OperandImm, Imm: int32(target), Raw: op.Raw}, nil
}

func reg(op Operand, class RegClass, what string) (uint8, error) {
	if op.Kind != OperandReg || op.Class != class {
		return 0, fmt.Errorf("expected a%s register operand, got %q", classWord(class), what)
	}
	return op.Reg, nil
}

func classWord(c RegClass) string {
	if c == RegAddr {
		return "n address"
	}
	return " data"
}

func imm(op Operand, what string) (int32, error) {
	if op.Kind != OperandImm {
		return 0, fmt.Errorf("expected an immediate operand, got %q", what)
	}
	return op.Imm, nil
}

func mem(op Operand, what string) (MemShape, error) {
	if op.Kind != OperandMem {
		return MemShape{}, fmt.Errorf("expected a memory operand, got %q", what)
	}
	return op.Mem, nil
}

// branchTarget resolves a branch/call operand to a signed PC-relative byte
// offset from pc (spec §4.3: target − pc − width, computed here against the
// start of the instruction since width is already known to the caller).
func branchTarget(op Operand, pc uint32, width int32) (int32, error) {
	if op.Kind != OperandImm {
		return 0, fmt.Errorf("expected a branch target, got %q", op.Raw)
	}
	return op.Imm - int32(pc) - width, nil
}

// encodeInstruction resolves forward labels, then dispatches by mnemonic.
// It returns the encoded word (in the low Size*8 bits) and the chosen width.
func (a *Assembler) encodeInstruction(n *Node, pc uint32) (uint32, uint8, error) {
	ops := make([]Operand, len(n.Operands))
	for i, o := range n.Operands {
		r, err := a.resolveOperand(o, pc)
		if err != nil {
			return 0, 4, err
		}
		ops[i] = r
	}
	return dispatch(n.Mnemonic, ops, pc)
}

func wantOperands(op []Operand, n int, mnemonic string) error {
	if len(op) != n {
		return fmt.Errorf("%s: expected %d operands, got %d", mnemonic, n, len(op))
	}
	return nil
}

// dispatch is the mnemonic → encoding table. Mnemonics follow inst.Op's
// canonical spelling (see inst.opNames) so the disassembler's output
// reassembles unchanged.
func dispatch(mnemonic string, ops []Operand, pc uint32) (uint32, uint8, error) {
	switch mnemonic {
	case "mov":
		return encodeMov(ops)
	case "mov.i", "movu":
		if err := wantOperands(ops, 2, mnemonic); err != nil {
			return 0, 4, err
		}
		rd, err := reg(ops[0], RegData, "dst")
		if err != nil {
			return 0, 4, err
		}
		c, err := imm(ops[1], "const16")
		if err != nil {
			return 0, 4, err
		}
		desc := mustDesc(inst.MovI, 0)
		return packRLC(desc.Op1, rd, c), 4, nil
	case "mov.ha":
		if err := wantOperands(ops, 2, mnemonic); err != nil {
			return 0, 4, err
		}
		rd, err := reg(ops[0], RegAddr, "dst")
		if err != nil {
			return 0, 4, err
		}
		c, err := imm(ops[1], "const16")
		if err != nil {
			return 0, 4, err
		}
		desc := mustDesc(inst.MovHA, 0)
		return packRLC(desc.Op1, rd, c), 4, nil
	case "lea":
		return encodeLea(ops)

	case "add":
		return encodeAdd(ops)
	case "sub":
		return encodeRR3(inst.Sub, ops)
	case "addx":
		return encodeRR3(inst.Addx, ops)
	case "addc":
		return encodeRR3(inst.Addc, ops)
	case "mul":
		return encodeRR3(inst.Mul, ops)
	case "mul.u":
		return encodeRR3(inst.MulU, ops)
	case "div":
		return encodeRR3(inst.Div, ops)
	case "div.u":
		return encodeRR3(inst.DivU, ops)
	case "and":
		return encodeRR3(inst.And, ops)
	case "or":
		return encodeRR3(inst.Or, ops)
	case "xor":
		return encodeRR3(inst.Xor, ops)
	case "andn":
		return encodeRR3(inst.Andn, ops)
	case "not":
		return encodeRR2(inst.Not, ops)
	case "sh":
		return encodeRR3(inst.Shl, ops)
	case "shr":
		return encodeRR3(inst.Shr, ops)
	case "sha":
		return encodeRR3(inst.Sar, ops)
	case "ror":
		return encodeRR3(inst.Ror, ops)
	case "min":
		return encodeRR3(inst.Min, ops)
	case "max":
		return encodeRR3(inst.Max, ops)
	case "min.u":
		return encodeRR3(inst.MinU, ops)
	case "max.u":
		return encodeRR3(inst.MaxU, ops)

	case "cmp", "cmp.i":
		return encodeCmp(inst.Cmp, inst.CmpI, ops)
	case "cmp.u", "cmp.ui":
		return encodeCmp(inst.CmpU, inst.CmpUI, ops)

	case "ld.b", "ld.b.pbr", "ld.b.pcir":
		return encodeLoad(inst.LdB, inst.LdBPbr, inst.LdBPcir, ops)
	case "ld.bu", "ld.bu.pbr", "ld.bu.pcir":
		return encodeLoad(inst.LdBu, inst.LdBuPbr, inst.LdBuPcir, ops)
	case "ld.h", "ld.h.pbr", "ld.h.pcir":
		return encodeLoad(inst.LdH, inst.LdHPbr, inst.LdHPcir, ops)
	case "ld.hu", "ld.hu.pbr", "ld.hu.pcir":
		return encodeLoad(inst.LdHu, inst.LdHuPbr, inst.LdHuPcir, ops)
	case "ld.w", "ld.w.pbr", "ld.w.pcir":
		return encodeLoad(inst.LdW, inst.LdWPbr, inst.LdWPcir, ops)
	case "st.b", "st.b.pbr", "st.b.pcir":
		return encodeStore(inst.StB, inst.StBPbr, inst.StBPcir, ops)
	case "st.h", "st.h.pbr", "st.h.pcir":
		return encodeStore(inst.StH, inst.StHPbr, inst.StHPcir, ops)
	case "st.w", "st.w.pbr", "st.w.pcir":
		return encodeStore(inst.StW, inst.StWPbr, inst.StWPcir, ops)

	case "jeq":
		return encodeDataBranch(inst.Jeq, inst.JeqImm, ops, pc)
	case "jne":
		return encodeDataBranch(inst.Jne, inst.JneImm, ops, pc)
	case "jge":
		return encodeDataBranch(inst.Jge, inst.JgeImm, ops, pc)
	case "jge.u":
		return encodeDataBranch(inst.JgeU, inst.JgeUImm, ops, pc)
	case "jlt":
		return encodeDataBranch(inst.Jlt, inst.JltImm, ops, pc)
	case "jlt.u":
		return encodeDataBranch(inst.JltU, inst.JltUImm, ops, pc)

	case "jeq.a":
		return encodeAddrBranch(inst.JeqA, ops, pc, true)
	case "jne.a":
		return encodeAddrBranch(inst.JneA, ops, pc, true)
	case "jz.a":
		return encodeAddrBranch(inst.JzA, ops, pc, false)
	case "jnz.a":
		return encodeAddrBranch(inst.JnzA, ops, pc, false)

	case "jz.t":
		return encodeFlagBranch(inst.BeqF, ops, pc)
	case "jnz.t":
		return encodeFlagBranch(inst.BneF, ops, pc)
	case "jge.t":
		return encodeFlagBranch(inst.BgeF, ops, pc)
	case "jlt.t":
		return encodeFlagBranch(inst.BltF, ops, pc)
	case "jge.tu":
		return encodeFlagBranch(inst.BgeUF, ops, pc)
	case "jlt.tu":
		return encodeFlagBranch(inst.BltUF, ops, pc)

	case "j":
		if err := wantOperands(ops, 1, mnemonic); err != nil {
			return 0, 4, err
		}
		if dShort, err := branchTarget(ops[0], pc, 2); err == nil && fits(dShort>>1, 8) {
			desc := descByFormat(inst.J, isa.FormatSB)
			return packSB(desc.Op1, dShort), 2, nil
		}
		d, err := branchTarget(ops[0], pc, 4)
		if err != nil {
			return 0, 4, err
		}
		if err := checkDisp(mnemonic, d, 24); err != nil {
			return 0, 4, err
		}
		desc := descByFormat(inst.J, isa.FormatB)
		return packB(desc.Op1, d), 4, nil

	case "call":
		if err := wantOperands(ops, 1, mnemonic); err != nil {
			return 0, 4, err
		}
		d, err := branchTarget(ops[0], pc, 4)
		if err != nil {
			return 0, 4, err
		}
		if err := checkDisp(mnemonic, d, 24); err != nil {
			return 0, 4, err
		}
		desc := mustDesc(inst.Call, 0)
		return packB(desc.Op1, d), 4, nil

	case "calla":
		if err := wantOperands(ops, 1, mnemonic); err != nil {
			return 0, 4, err
		}
		ea, err := imm(ops[0], "absolute target")
		if err != nil {
			return 0, 4, err
		}
		desc := mustDesc(inst.CallA, 0)
		word, ok := packBAbs(desc.Op1, uint32(ea))
		if !ok {
			return 0, 4, fmt.Errorf("calla: target %#x not reachable (middle 14 bits must be zero)", ea)
		}
		return word, 4, nil

	case "calli":
		if err := wantOperands(ops, 1, mnemonic); err != nil {
			return 0, 4, err
		}
		rs1, err := reg(ops[0], RegAddr, "target")
		if err != nil {
			return 0, 4, err
		}
		desc := mustDesc(inst.CallI, 0)
		return packRRIndirect(desc.Op1, rs1), 4, nil

	case "ret":
		desc := mustDesc(inst.Ret, 0)
		return packSRRSimple(desc.Op1), 2, nil
	case "syscall":
		desc := mustDesc(inst.Syscall, 0)
		return packSRRSimple(desc.Op1), 2, nil
	}
	return 0, 4, fmt.Errorf("unknown mnemonic %q", mnemonic)
}

func fits(v int32, bits uint) bool {
	lo := -(int32(1) << (bits - 1))
	hi := int32(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}

// fitsUnsigned reports whether v fits in an unsigned field of the given
// width — used for the const4 fields the decoder zero-extends rather than
// sign-extends (SRC-format mov/add, and the unsigned jge.u/jlt.u const4).
func fitsUnsigned(v int32, bits uint) bool {
	return v >= 0 && v < int32(1)<<bits
}

// checkOffset validates a base+offset field before packBO/packBOP pack it,
// naming the mnemonic in the error (spec §4.3: range violations are fatal
// errors naming the offending mnemonic, not silent truncation).
func checkOffset(mnemonic string, off int32, bits uint) error {
	if fits(off, bits) {
		return nil
	}
	lo := -(int32(1) << (bits - 1))
	hi := int32(1)<<(bits-1) - 1
	return fmt.Errorf("%s: offset %d out of range [%d,%d]", mnemonic, off, lo, hi)
}

// checkDisp validates a PC-relative byte offset before it's packed into a
// disp24/disp15 field: bits is the field's width, so the word-shifted value
// (byteOffset>>1) is what actually has to fit.
func checkDisp(mnemonic string, byteOffset int32, bits uint) error {
	if fits(byteOffset>>1, bits) {
		return nil
	}
	lo := -(int32(1) << (bits - 1)) << 1
	hi := (int32(1)<<(bits-1) - 1) << 1
	return fmt.Errorf("%s: branch displacement %d out of range [%d,%d]", mnemonic, byteOffset, lo, hi)
}
