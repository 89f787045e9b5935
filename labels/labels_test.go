package labels_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arnegrim/tc162/labels"
)

var _ = Describe("Load", func() {
	It("accepts the array form", func() {
		ls, err := labels.Load([]byte(`[{"addr":16,"name":"main"},{"addr":0,"name":"reset"}]`))
		Expect(err).NotTo(HaveOccurred())
		Expect(ls).To(Equal([]labels.Label{
			{Addr: 0, Name: "reset"},
			{Addr: 16, Name: "main"},
		}))
	})

	It("accepts the map form, parsing hex and decimal keys", func() {
		ls, err := labels.Load([]byte(`{"0x10": "main", "0": "reset"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(ls).To(Equal([]labels.Label{
			{Addr: 0, Name: "reset"},
			{Addr: 16, Name: "main"},
		}))
	})

	It("returns nil for empty input", func() {
		ls, err := labels.Load(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ls).To(BeNil())
	})

	It("rejects an unparsable map key", func() {
		_, err := labels.Load([]byte(`{"not-a-number": "x"}`))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Save", func() {
	It("always writes the sorted array form", func() {
		out, err := labels.Save([]labels.Label{
			{Addr: 16, Name: "main"},
			{Addr: 0, Name: "reset"},
		})
		Expect(err).NotTo(HaveOccurred())

		round, err := labels.Load(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(round).To(Equal([]labels.Label{
			{Addr: 0, Name: "reset"},
			{Addr: 16, Name: "main"},
		}))
	})
})
