package analyzer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arnegrim/tc162/analyzer"
	"github.com/arnegrim/tc162/asm"
	"github.com/arnegrim/tc162/memory"
)

// assembleInto assembles src at base and writes the result into a fresh flat
// Memory big enough to hold it.
func assembleInto(src string, base uint32) (*memory.Memory, *asm.Assembler) {
	a := asm.New()
	code, err := a.Assemble(src, base)
	Expect(err).NotTo(HaveOccurred())

	m := memory.NewFlat(base, len(code)+64)
	for i, b := range code {
		Expect(m.WriteByte(base+uint32(i), b)).To(Succeed())
	}
	return m, a
}

var _ = Describe("Reachability analysis", func() {
	It("recovers the diamond formed by a conditional branch", func() {
		src := `
			jge d1, #3, l1
			mov d0, #1
			j l2
		l1:
			mov d0, #2
		l2:
			ret
		`
		m, a := assembleInto(src, 0)
		labels := a.Labels()
		l1, l2 := labels["l1"], labels["l2"]

		res := analyzer.Run(m, []uint32{0}, 0)

		Expect(res.Visited[0]).To(BeTrue())
		Expect(res.Visited[l1]).To(BeTrue())
		Expect(res.Visited[l2]).To(BeTrue())
		Expect(res.Returns[l2]).To(BeTrue())

		hasEdge := func(from, to uint32, kind analyzer.EdgeKind) bool {
			for _, e := range res.Edges {
				if e.From == from && e.To == to && e.Kind == kind {
					return true
				}
			}
			return false
		}
		Expect(hasEdge(0, l1, analyzer.EdgeCondBranch)).To(BeTrue())

		blocks, blockEdges, funcs := analyzer.Recover(res, []uint32{0})
		Expect(blocks).NotTo(BeEmpty())
		Expect(funcs).To(HaveLen(1))
		Expect(funcs[0].Entry).To(Equal(uint32(0)))

		blockStarts := map[uint32]bool{}
		for _, b := range blocks {
			blockStarts[b.Start] = true
		}
		for _, e := range blockEdges {
			Expect(blockStarts[e.From]).To(BeTrue())
			Expect(blockStarts[e.To]).To(BeTrue())
		}
	})

	It("never visits an unmapped branch target", func() {
		src := `j 0x10000`
		m, _ := assembleInto(src, 0)

		res := analyzer.Run(m, []uint32{0}, 0)

		Expect(res.Visited[0]).To(BeTrue())
		Expect(res.Visited[0x10000]).To(BeFalse())
	})

	It("stops decoding once the budget is exhausted", func() {
		src := `
			mov d0, #1
			mov d0, #1
			mov d0, #1
		`
		m, _ := assembleInto(src, 0)

		res := analyzer.Run(m, []uint32{0}, 2)

		Expect(res.BudgetExhausted).To(BeTrue())
		Expect(res.Visited).To(HaveLen(2))
	})
})
