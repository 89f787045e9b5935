package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLines turns source text into Nodes: labels, directives, and
// instructions. Forward-referenced labels in operands are kept as raw text
// and re-parsed once the label table has settled (see Assembler.Assemble).
func parseLines(src string) ([]*Node, error) {
	var nodes []*Node
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	for i, line := range lines {
		if idx := strings.Index(line, ";"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, ":") {
			parts := strings.SplitN(line, ":", 2)
			label := strings.TrimSpace(parts[0])
			if label != "" && !strings.ContainsAny(label, " \t") {
				nodes = append(nodes, &Node{Type: NodeLabel, Label: strings.ToLower(label), Line: i + 1})
				line = strings.TrimSpace(parts[1])
			}
		}
		if line == "" {
			continue
		}

		mnemonic, rest := splitFirst(line)
		lower := strings.ToLower(mnemonic)

		if strings.HasPrefix(lower, ".") {
			args := splitOperands(rest)
			nodes = append(nodes, &Node{Type: NodeDirective, Directive: lower, DirArgs: args, Line: i + 1})
			continue
		}

		var operands []Operand
		for _, s := range splitOperands(rest) {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			op, err := parseOperand(s)
			if err != nil {
				// Keep as an unresolved label reference; resolved on the
				// fixed-point label pass once all label addresses are known.
				op = Operand{Kind: OperandLabel, Label: strings.ToLower(s), Raw: s}
			}
			operands = append(operands, op)
		}
		nodes = append(nodes, &Node{Type: NodeInstruction, Mnemonic: lower, Operands: operands, Line: i + 1})
	}
	return nodes, nil
}

func splitFirst(s string) (string, string) {
	idx := strings.IndexAny(s, " \t")
	if idx == -1 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}

// splitOperands splits on commas outside of brackets.
func splitOperands(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	tail := strings.TrimSpace(s[last:])
	if tail != "" {
		out = append(out, tail)
	}
	return out
}

// parseOperand parses one operand: a register, an immediate, a bracketed
// memory operand, or (on failure) leaves it for the caller to treat as a
// label reference.
func parseOperand(s string) (Operand, error) {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return parseMem(s[1 : len(s)-1])
	}
	if class, reg, ok := parseReg(s); ok {
		return Operand{Kind: OperandReg, Class: class, Reg: reg, Raw: s}, nil
	}
	if v, ok := parseImm(s); ok {
		return Operand{Kind: OperandImm, Imm: v, Raw: s}, nil
	}
	return Operand{}, fmt.Errorf("not a register or immediate: %q", s)
}

func parseReg(s string) (RegClass, uint8, bool) {
	if len(s) < 2 {
		return 0, 0, false
	}
	var class RegClass
	switch s[0] {
	case 'd', 'D':
		class = RegData
	case 'a', 'A':
		class = RegAddr
	default:
		return 0, 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n > 15 {
		return 0, 0, false
	}
	return class, uint8(n), true
}

func parseImm(s string) (int32, bool) {
	s = strings.TrimPrefix(s, "#")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var v uint64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		return -int32(v), true
	}
	return int32(v), true
}

// parseMem parses the inside of a bracketed memory operand:
//
//	a1            base, no displacement
//	a1+4          base + displacement
//	a1++4         post-increment by 4
//	++a1+4        pre-increment by 4
//	0x1000        absolute
//	p1            P-based, bit-reverse
//	p1c+4         P-based, circular, displacement 4
func parseMem(inner string) (Operand, error) {
	inner = strings.TrimSpace(inner)

	pre := strings.HasPrefix(inner, "++")
	if pre {
		inner = inner[2:]
	}

	if len(inner) > 0 && (inner[0] == 'p' || inner[0] == 'P') {
		pbody, disp, hasDisp := inner, int32(0), false
		if idx := strings.IndexAny(inner, "+-"); idx > 0 {
			v, ok := parseImm(strings.TrimPrefix(inner[idx:], "+"))
			if !ok {
				return Operand{}, fmt.Errorf("bad displacement in %q", inner)
			}
			pbody, disp, hasDisp = inner[:idx], v, true
		}
		circular := hasDisp || strings.ContainsAny(pbody, "cC")
		digits := strings.TrimRight(strings.TrimLeft(pbody, "pP"), "cC")
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 || n > 15 {
			return Operand{}, fmt.Errorf("bad P-based operand %q", inner)
		}
		return Operand{Kind: OperandMem, Mem: MemShape{Pbr: !circular, Pcir: circular, BaseReg: uint8(n), Disp: disp}, Raw: "[" + inner + "]"}, nil
	}

	if v, ok := parseImm(inner); ok {
		return Operand{Kind: OperandMem, Mem: MemShape{Abs: true, Disp: v}, Raw: "[" + inner + "]"}, nil
	}

	postInc := strings.Contains(inner, "++")
	body := strings.Replace(inner, "++", "+", 1)

	regPart, dispPart := body, ""
	if idx := strings.IndexAny(body, "+-"); idx > 0 {
		regPart, dispPart = body[:idx], body[idx:]
	}
	_, reg, ok := parseReg(regPart)
	if !ok {
		return Operand{}, fmt.Errorf("bad memory operand %q", inner)
	}
	var disp int32
	if dispPart != "" {
		v, ok := parseImm(strings.TrimPrefix(dispPart, "+"))
		if !ok {
			return Operand{}, fmt.Errorf("bad displacement in %q", inner)
		}
		disp = v
	}
	return Operand{Kind: OperandMem, Mem: MemShape{BaseReg: reg, Disp: disp, PostInc: postInc, PreInc: pre}, Raw: "[" + inner + "]"}, nil
}
