package isa

import "github.com/arnegrim/tc162/inst"

// member is one op hung off a shared-op1 format, discriminated by Op2 once
// the group's op1 byte has been allocated.
type member struct {
	op  inst.Op
	op2 uint32
}

// group is a batch of Descs that all resolve through the same format. Narrow
// (non-sharesOp1) formats get one op1 byte per member; wide formats get one
// op1 byte for the whole group and dispatch on Op2.
type group struct {
	format  Format
	pin     byte // explicit op1, used only when pinned is true
	pinned  bool
	members []member
}

// Pinned op1 bytes are the ones spec.md's worked examples name explicitly
// (§8 Examples 1, 2, 3, 5); every other byte, including the BRC family
// Example 4 illustrates, is assigned deterministically by the allocator
// below so that no two encodings can ever collide by hand-arithmetic
// mistake — Example 4's "op1=0xFF" is illustrative of one possible
// allocation, not a pin, since FormatBRC no longer shares a byte across
// its members (see isa/format.go's sharesOp1 doc).
var groups = []group{
	{format: FormatSB, pin: 0x3C, pinned: true, members: []member{{inst.J, 0}}},

	{format: FormatSBR, members: []member{{inst.Jeq, 0}, {inst.Jne, 1}}},
	{format: FormatSBC, members: []member{{inst.JeqImm, 0}, {inst.JneImm, 1}}},

	{format: FormatSRCRegConst, pin: 0x82, pinned: true, members: []member{{inst.MovC, 0}}},
	{format: FormatSRCRegConst, members: []member{{inst.AddC, 0}}},
	{format: FormatSRCCmp, members: []member{{inst.Cmp, 0}}},

	{format: FormatSRR, members: []member{{inst.Mov, 0}}},
	{format: FormatSRR, members: []member{{inst.AddR, 0}}},
	{format: FormatSRRSimple, members: []member{{inst.Ret, 0}}},
	{format: FormatSRRSimple, members: []member{{inst.Syscall, 0}}},

	{format: FormatRR, pin: 0x0B, pinned: true, members: []member{
		{inst.Add, 0}, {inst.Sub, 1}, {inst.Addx, 2}, {inst.Addc, 3},
		{inst.Mul, 4}, {inst.MulU, 5}, {inst.Div, 6}, {inst.DivU, 7},
		{inst.And, 8}, {inst.Or, 9}, {inst.Xor, 10}, {inst.Andn, 11}, {inst.Not, 12},
		{inst.Shl, 13}, {inst.Shr, 14}, {inst.Sar, 15}, {inst.Ror, 16},
		{inst.Min, 17}, {inst.Max, 18}, {inst.MinU, 19}, {inst.MaxU, 20},
		{inst.Cmp, 21}, {inst.CmpU, 22},
	}},

	{format: FormatRC, members: []member{{inst.CmpI, 0}, {inst.CmpUI, 1}}},

	{format: FormatRLC, pin: 0xBB, pinned: true, members: []member{{inst.MovI, 0}}},
	{format: FormatRLC, members: []member{{inst.MovHA, 0}}},

	{format: FormatBO, members: []member{{inst.LdB, 0}}},
	{format: FormatBO, members: []member{{inst.LdBu, 0}}},
	{format: FormatBO, members: []member{{inst.LdH, 0}}},
	{format: FormatBO, members: []member{{inst.LdHu, 0}}},
	{format: FormatBO, members: []member{{inst.LdW, 0}}},
	{format: FormatBO, members: []member{{inst.StB, 0}}},
	{format: FormatBO, members: []member{{inst.StH, 0}}},
	{format: FormatBO, members: []member{{inst.StW, 0}}},

	{format: FormatABS, members: []member{{inst.LdB, 0}}},
	{format: FormatABS, members: []member{{inst.LdBu, 0}}},
	{format: FormatABS, members: []member{{inst.LdH, 0}}},
	{format: FormatABS, members: []member{{inst.LdHu, 0}}},
	{format: FormatABS, pin: 0x85, pinned: true, members: []member{{inst.LdW, 0}}},
	{format: FormatABS, members: []member{{inst.StB, 0}}},
	{format: FormatABS, members: []member{{inst.StH, 0}}},
	{format: FormatABS, members: []member{{inst.StW, 0}}},

	{format: FormatBOP, members: []member{{inst.LdBPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.LdBuPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.LdHPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.LdHuPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.LdWPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.StBPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.StHPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.StWPbr, 0}}},
	{format: FormatBOP, members: []member{{inst.LdBPcir, 0}}},
	{format: FormatBOP, members: []member{{inst.LdBuPcir, 0}}},
	{format: FormatBOP, members: []member{{inst.LdHPcir, 0}}},
	{format: FormatBOP, members: []member{{inst.LdHuPcir, 0}}},
	{format: FormatBOP, members: []member{{inst.LdWPcir, 0}}},
	{format: FormatBOP, members: []member{{inst.StBPcir, 0}}},
	{format: FormatBOP, members: []member{{inst.StHPcir, 0}}},
	{format: FormatBOP, members: []member{{inst.StWPcir, 0}}},

	{format: FormatB, members: []member{{inst.J, 0}}},
	{format: FormatB, members: []member{{inst.Call, 0}}},
	{format: FormatBAbs, members: []member{{inst.CallA, 0}}},
	{format: FormatRRIndirect, members: []member{{inst.CallI, 0}}},

	{format: FormatBRC, members: []member{
		{inst.Jeq, 0}, {inst.Jne, 1}, {inst.Jge, 2}, {inst.JgeU, 3}, {inst.Jlt, 4}, {inst.JltU, 5},
		{inst.JeqImm, 6}, {inst.JneImm, 7}, {inst.JgeImm, 8}, {inst.JgeUImm, 9}, {inst.JltImm, 10}, {inst.JltUImm, 11},
	}},

	{format: FormatBRA, members: []member{
		{inst.JeqA, 0}, {inst.JneA, 1}, {inst.JzA, 2}, {inst.JnzA, 3},
	}},

	{format: FormatBRF, members: []member{
		{inst.BeqF, 0}, {inst.BneF, 1}, {inst.BgeF, 2}, {inst.BltF, 3}, {inst.BgeUF, 4}, {inst.BltUF, 5},
	}},
}

// Descs is the flattened, fully-assigned descriptor table: one entry per
// concrete encoding. Built once in init from groups below.
var Descs []Desc

// byOp1 indexes narrow-format descriptors (one op1 per encoding) directly.
var byOp1 = map[byte]Desc{}

// wideByOp1 indexes shared-op1 (RR/RC) descriptors by op1, then op2.
var wideByOp1 = map[byte]map[uint32]Desc{}

// ByOp indexes every encoding available for a given Op, in table order — the
// assembler picks among them by addressing-mode/operand syntax.
var ByOp = map[inst.Op][]Desc{}

func init() {
	used := map[byte]bool{}
	nextEven := byte(0x00)
	nextOdd := byte(0x01)

	allocEven := func() byte {
		for used[nextEven] || nextEven%2 != 0 {
			nextEven++
		}
		b := nextEven
		used[b] = true
		nextEven++
		return b
	}
	allocOdd := func() byte {
		for used[nextOdd] || nextOdd%2 != 1 {
			nextOdd++
		}
		b := nextOdd
		used[b] = true
		nextOdd++
		return b
	}

	// Reserve pinned bytes first so the allocator never reassigns them.
	for _, g := range groups {
		if g.pinned {
			used[g.pin] = true
		}
	}

	for _, g := range groups {
		is16 := g.format.Width() == 2
		if g.format.sharesOp1() {
			op1 := g.pin
			if !g.pinned {
				if is16 {
					op1 = allocEven()
				} else {
					op1 = allocOdd()
				}
			}
			for _, m := range g.members {
				d := Desc{Op: m.op, Format: g.format, Op1: op1, Op2: m.op2}
				Descs = append(Descs, d)
				if wideByOp1[op1] == nil {
					wideByOp1[op1] = map[uint32]Desc{}
				}
				wideByOp1[op1][m.op2] = d
				ByOp[m.op] = append(ByOp[m.op], d)
			}
			continue
		}

		for _, m := range g.members {
			op1 := g.pin
			if !g.pinned {
				if is16 {
					op1 = allocEven()
				} else {
					op1 = allocOdd()
				}
			}
			d := Desc{Op: m.op, Format: g.format, Op1: op1, Op2: m.op2}
			Descs = append(Descs, d)
			byOp1[op1] = d
			ByOp[m.op] = append(ByOp[m.op], d)
		}
	}
}

// Lookup resolves an op1 byte (and, for shared-op1 formats, an op2 value
// read from the raw word) to its descriptor. ok is false for unassigned op1
// bytes (or op2 values) — decoder.Decode then returns nil, false.
func Lookup(op1 byte, op2 uint32) (Desc, bool) {
	if d, ok := byOp1[op1]; ok {
		return d, true
	}
	if sub, ok := wideByOp1[op1]; ok {
		d, ok := sub[op2]
		return d, ok
	}
	return Desc{}, false
}

// IsWideOp1 reports whether op1 belongs to a shared-op1 (RR/RC) format,
// which the decoder must consult a second selector field for.
func IsWideOp1(op1 byte) bool {
	_, ok := wideByOp1[op1]
	return ok
}
