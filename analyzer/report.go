package analyzer

import "github.com/arnegrim/tc162/labels"

// Report is the analyzer's JSON output shape (spec §6): entries, blocks,
// edges, functions, and the sorted label list.
type Report struct {
	Entries   []uint32       `json:"entries"`
	Blocks    []ReportBlock  `json:"blocks"`
	Edges     []ReportEdge   `json:"edges"`
	Functions []ReportFunc   `json:"functions"`
	Labels    []labels.Label `json:"labels"`
}

type ReportBlock struct {
	Start uint32   `json:"start"`
	End   uint32   `json:"end"`
	Insns []uint32 `json:"insns"`
}

type ReportEdge struct {
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
	Kind string `json:"kind"`
}

type ReportFunc struct {
	Entry  uint32   `json:"entry"`
	Blocks []uint32 `json:"blocks"`
}

// BuildReport assembles a Report from one BFS Run plus the block/function
// recovery over it. ls may be nil.
func BuildReport(seeds []uint32, res *Result, blocks []Block, blockEdges []Edge, funcs []Function, ls []labels.Label) Report {
	r := Report{Entries: seeds}
	for _, b := range blocks {
		r.Blocks = append(r.Blocks, ReportBlock{Start: b.Start, End: b.End, Insns: b.Insns})
	}
	for _, e := range blockEdges {
		r.Edges = append(r.Edges, ReportEdge{From: e.From, To: e.To, Kind: e.Kind.String()})
	}
	for _, f := range funcs {
		r.Functions = append(r.Functions, ReportFunc{Entry: f.Entry, Blocks: f.Blocks})
	}
	r.Labels = ls
	return r
}
