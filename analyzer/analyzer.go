// Package analyzer walks code reachable from a set of entry points and
// recovers a control-flow graph, driven entirely by inst.Op.Properties()
// (spec §4.5, Design Notes §9: "drive from an opcode-property table so the
// analyzer and disassembler agree on classification without duplicating
// match arms").
package analyzer

import (
	"github.com/arnegrim/tc162/decoder"
	"github.com/arnegrim/tc162/inst"
	"github.com/arnegrim/tc162/memory"
)

// EdgeKind classifies one control-flow edge, spelled to match spec §6's
// JSON "kind" enum.
type EdgeKind int

const (
	EdgeFallthrough EdgeKind = iota
	EdgeBranch
	EdgeCondBranch
	EdgeCall
)

// String renders the JSON spelling ("ft"|"br"|"cbr"|"call") spec §6 names.
func (k EdgeKind) String() string {
	switch k {
	case EdgeFallthrough:
		return "ft"
	case EdgeBranch:
		return "br"
	case EdgeCondBranch:
		return "cbr"
	case EdgeCall:
		return "call"
	default:
		return "?"
	}
}

// Edge is one instruction-to-instruction control-flow transfer.
type Edge struct {
	From uint32
	To   uint32
	Kind EdgeKind
}

// Result is everything the BFS pass discovers.
type Result struct {
	Visited         map[uint32]bool
	Widths          map[uint32]uint8
	Edges           []Edge
	Returns         map[uint32]bool
	BudgetExhausted bool
}

// Run performs the BFS reachability pass (spec §4.5): seed the worklist with
// the mapped seeds, pop in FIFO order, decode, classify by opcode tag, and
// enqueue whatever the classification says is reachable, until the worklist
// drains or budget instructions have been decoded.
func Run(m *memory.Memory, seeds []uint32, budget int) *Result {
	res := &Result{
		Visited: map[uint32]bool{},
		Widths:  map[uint32]uint8{},
		Returns: map[uint32]bool{},
	}

	var queue []uint32
	for _, s := range seeds {
		if m.Image.IsMapped(s) {
			queue = append(queue, s)
		}
	}

	decoded := 0
	for len(queue) > 0 {
		pc := queue[0]
		queue = queue[1:]

		if res.Visited[pc] {
			continue
		}
		if budget > 0 && decoded >= budget {
			res.BudgetExhausted = true
			continue
		}

		raw, err := m.ReadU32(pc)
		if err != nil {
			continue
		}
		in, ok := decoder.Decode(raw)
		if !ok {
			continue
		}

		res.Visited[pc] = true
		res.Widths[pc] = in.Width
		decoded++

		ft := pc + uint32(in.Width)
		props := in.Op.Properties()

		switch {
		case in.Op.IsUnconditionalBranch():
			to, ok := branchTarget(in, ft)
			if ok {
				res.Edges = append(res.Edges, Edge{From: pc, To: to, Kind: EdgeBranch})
				if m.Image.IsMapped(to) {
					queue = append(queue, to)
				}
			}

		case props.IsConditional:
			to, ok := branchTarget(in, ft)
			if ok {
				res.Edges = append(res.Edges, Edge{From: pc, To: to, Kind: EdgeCondBranch})
				if m.Image.IsMapped(to) {
					queue = append(queue, to)
				}
			}
			res.Edges = append(res.Edges, Edge{From: pc, To: ft, Kind: EdgeFallthrough})
			if m.Image.IsMapped(ft) {
				queue = append(queue, ft)
			}

		case props.IsCall:
			if props.Target != inst.TargetIndirect {
				to, ok := branchTarget(in, ft)
				if ok {
					res.Edges = append(res.Edges, Edge{From: pc, To: to, Kind: EdgeCall})
					if m.Image.IsMapped(to) {
						queue = append(queue, to)
					}
				}
			}
			res.Edges = append(res.Edges, Edge{From: pc, To: ft, Kind: EdgeFallthrough})
			if m.Image.IsMapped(ft) {
				queue = append(queue, ft)
			}

		case props.IsReturn:
			res.Returns[pc] = true

		default:
			res.Edges = append(res.Edges, Edge{From: pc, To: ft, Kind: EdgeFallthrough})
			if m.Image.IsMapped(ft) {
				queue = append(queue, ft)
			}
		}
	}

	return res
}

// branchTarget computes a branch/call instruction's target address: CallA's
// target is an absolute EA (in.Abs, per its ABS-family encoding), everything
// else with a known target is PC-relative to fallthroughPC (pc_at_fetch plus
// the instruction's own width), matching the displacement convention the
// assembler encodes and the executor applies. CallI has no statically known
// target and is handled by its caller before this is reached.
func branchTarget(in *inst.Instruction, fallthroughPC uint32) (uint32, bool) {
	if in.Op == inst.CallI {
		return 0, false
	}
	if in.Abs {
		return uint32(in.Imm), true
	}
	return uint32(int32(fallthroughPC) + in.Imm), true
}
