package disasm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arnegrim/tc162/disasm"
	"github.com/arnegrim/tc162/inst"
)

var _ = Describe("Format", func() {
	It("renders a register-register move", func() {
		in := &inst.Instruction{Op: inst.Mov, Width: 2, Rd: 3, Rs1: 4}
		Expect(disasm.Format(in, 0)).To(Equal("mov d3, d4"))
	})

	It("renders an immediate add accumulate", func() {
		in := &inst.Instruction{Op: inst.AddC, Width: 2, Rd: 1, Imm: 5}
		Expect(disasm.Format(in, 0)).To(Equal("add d1, #5"))
	})

	It("renders a base+displacement load", func() {
		in := &inst.Instruction{Op: inst.LdW, Width: 4, Rd: 2, Rs1: 5, Imm: -4}
		Expect(disasm.Format(in, 0)).To(Equal("ld.w d2, [a5-4]"))
	})

	It("renders a post-increment store", func() {
		in := &inst.Instruction{Op: inst.StB, Width: 4, Rd: 1, Rs1: 6, Imm: 4, Wb: true, Pre: false}
		Expect(disasm.Format(in, 0)).To(Equal("st.b [a6++4], d1"))
	})

	It("resolves a branch displacement relative to the following instruction", func() {
		in := &inst.Instruction{Op: inst.J, Width: 2, Imm: 4}
		Expect(disasm.Format(in, 0x100)).To(Equal("j 0x106"))
	})

	It("renders bare mnemonics with no operands", func() {
		in := &inst.Instruction{Op: inst.Ret, Width: 2}
		Expect(disasm.Format(in, 0)).To(Equal("ret"))
	})

	It("sign-extends a negative const4 for a signed immediate branch", func() {
		// Rs2=13 is the packed two's-complement form of -3.
		in := &inst.Instruction{Op: inst.JgeImm, Width: 4, Rs1: 1, Rs2: 13, Imm: 8}
		Expect(disasm.Format(in, 0)).To(Equal("jge d1, #-3, 0xc"))
	})

	It("leaves the unsigned const4 branch's literal unsigned", func() {
		in := &inst.Instruction{Op: inst.JgeUImm, Width: 4, Rs1: 1, Rs2: 13, Imm: 8}
		Expect(disasm.Format(in, 0)).To(Equal("jge.u d1, #13, 0xc"))
	})
})
