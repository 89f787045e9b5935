package loader_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arnegrim/tc162/loader"
	"github.com/arnegrim/tc162/memory"
)

var _ = Describe("Load", func() {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	It("maps the whole file at Base when Skip and Max are unset", func() {
		m, err := loader.Load(data, loader.Options{Base: 0x1000})
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Image.IsMapped(0x1000)).To(BeTrue())
		Expect(m.Image.IsMapped(0x1000 + uint32(len(data)) - 1)).To(BeTrue())
		Expect(m.Image.IsMapped(0x1000 + uint32(len(data)))).To(BeFalse())

		b, err := m.ReadByte(0x1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(byte(0x01)))
	})

	It("drops Skip leading bytes before mapping", func() {
		m, err := loader.Load(data, loader.Options{Base: 0, Skip: 2})
		Expect(err).NotTo(HaveOccurred())

		b, err := m.ReadByte(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(byte(0x03)))
		Expect(m.Image.IsMapped(uint32(len(data) - 2))).To(BeFalse())
	})

	It("clamps to Max bytes after Skip", func() {
		m, err := loader.Load(data, loader.Options{Base: 0, Skip: 1, Max: 2})
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Image.IsMapped(0)).To(BeTrue())
		Expect(m.Image.IsMapped(1)).To(BeTrue())
		Expect(m.Image.IsMapped(2)).To(BeFalse())
	})

	It("rejects a Skip beyond the file size", func() {
		_, err := loader.Load(data, loader.Options{Skip: len(data) + 1})
		Expect(err).To(HaveOccurred())
	})

	It("marks the segment read-execute, not writable", func() {
		m, err := loader.Load(data, loader.Options{Base: 0})
		Expect(err).NotTo(HaveOccurred())

		seg := m.Image.SegmentAt(0)
		Expect(seg).NotTo(BeNil())
		Expect(seg.Perms & memory.PermWrite).To(BeZero())
		Expect(seg.Perms & memory.PermRead).NotTo(BeZero())
		Expect(seg.Perms & memory.PermExec).NotTo(BeZero())
	})
})
