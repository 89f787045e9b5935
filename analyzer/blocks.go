package analyzer

import "sort"

// Block is a maximal straight-line instruction run entered only at Start.
type Block struct {
	Start uint32
	End   uint32 // one past the last byte of the block's last instruction
	Insns []uint32
}

// Function is the set of blocks reachable from one seed in the block-level
// graph (spec §4.5: "functions are the reachable block sets from each seed").
type Function struct {
	Entry  uint32
	Blocks []uint32
}

// Recover turns a BFS Result into basic blocks, a block-level edge list, and
// functions rooted at seeds (spec §4.5's reporting layer). Only visited
// addresses among seeds are used as function roots; unreachable seeds
// contribute nothing.
func Recover(res *Result, seeds []uint32) ([]Block, []Edge, []Function) {
	starts := map[uint32]bool{}
	for _, s := range seeds {
		if res.Visited[s] {
			starts[s] = true
		}
	}
	for _, e := range res.Edges {
		if res.Visited[e.To] {
			starts[e.To] = true
		}
	}

	sortedStarts := make([]uint32, 0, len(starts))
	for s := range starts {
		sortedStarts = append(sortedStarts, s)
	}
	sort.Slice(sortedStarts, func(i, j int) bool { return sortedStarts[i] < sortedStarts[j] })

	blocks := make([]Block, 0, len(sortedStarts))
	blockOf := map[uint32]uint32{} // any instruction address -> its block's Start

	for _, s := range sortedStarts {
		b := Block{Start: s}
		cur := s
		for {
			b.Insns = append(b.Insns, cur)
			blockOf[cur] = s
			width := uint32(res.Widths[cur])
			terminal := res.Returns[cur] || isUnconditionalBranchAt(res, cur)
			next := cur + width
			if terminal || !res.Visited[next] || starts[next] {
				b.End = cur + width
				break
			}
			cur = next
		}
		blocks = append(blocks, b)
	}

	blockEdges := rewriteEdges(res.Edges, blockOf)
	functions := recoverFunctions(sortedStarts, seeds, res, blockEdges)
	return blocks, blockEdges, functions
}

// isUnconditionalBranchAt reports whether the visited instruction at addr is
// one of the BFS pass's own Branch-classified edges (its one outgoing edge,
// if any, has Kind EdgeBranch) — recomputed here from the edge list rather
// than re-decoding so block recovery stays a pure function of Result.
func isUnconditionalBranchAt(res *Result, addr uint32) bool {
	for _, e := range res.Edges {
		if e.From == addr {
			return e.Kind == EdgeBranch
		}
	}
	return false
}

// rewriteEdges maps each instruction-level edge onto the block starts
// containing its endpoints, dropping self-loops (the intra-block fallthrough
// edges that chain a block's own instructions together carry no additional
// control-flow information at the block level).
func rewriteEdges(edges []Edge, blockOf map[uint32]uint32) []Edge {
	seen := map[Edge]bool{}
	var out []Edge
	for _, e := range edges {
		from, ok1 := blockOf[e.From]
		to, ok2 := blockOf[e.To]
		if !ok1 || !ok2 || from == to {
			continue
		}
		be := Edge{From: from, To: to, Kind: e.Kind}
		if !seen[be] {
			seen[be] = true
			out = append(out, be)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func recoverFunctions(allStarts, seeds []uint32, res *Result, blockEdges []Edge) []Function {
	succ := map[uint32][]uint32{}
	for _, e := range blockEdges {
		succ[e.From] = append(succ[e.From], e.To)
	}

	var funcs []Function
	for _, s := range seeds {
		if !res.Visited[s] {
			continue
		}
		reached := map[uint32]bool{s: true}
		queue := []uint32{s}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range succ[cur] {
				if !reached[next] {
					reached[next] = true
					queue = append(queue, next)
				}
			}
		}
		blocks := make([]uint32, 0, len(reached))
		for b := range reached {
			blocks = append(blocks, b)
		}
		sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
		funcs = append(funcs, Function{Entry: s, Blocks: blocks})
	}
	return funcs
}
