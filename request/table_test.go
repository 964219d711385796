package request

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sashba/sas"
	"github.com/sarchlab/sashba/smp"
)

var _ = Describe("Table", func() {
	var (
		table *Table
	)

	BeforeEach(func() {
		table = NewTable(2)
	})

	It("should add and get requests", func() {
		req := NewIO(1)

		h, err := table.Add(req)

		Expect(err).NotTo(HaveOccurred())
		Expect(h.IsValid()).To(BeTrue())
		Expect(req.Handle).To(Equal(h))
		Expect(table.Len()).To(Equal(1))

		got, ok := table.Get(h)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(req))
	})

	It("should report exhaustion", func() {
		_, err := table.Add(NewIO(1))
		Expect(err).NotTo(HaveOccurred())
		_, err = table.Add(NewIO(1))
		Expect(err).NotTo(HaveOccurred())

		_, err = table.Add(NewIO(1))

		Expect(err).To(MatchError(sas.FailureInsufficientResources))
	})

	It("should not resolve a stale handle after the slot is reused", func() {
		h1, _ := table.Add(NewIO(1))
		_, ok := table.Remove(h1)
		Expect(ok).To(BeTrue())

		h2, _ := table.Add(NewIO(2))

		Expect(h2.Index).To(Equal(h1.Index))
		Expect(h2.Gen).NotTo(Equal(h1.Gen))

		_, ok = table.Get(h1)
		Expect(ok).To(BeFalse())
		_, ok = table.Remove(h1)
		Expect(ok).To(BeFalse())
		Expect(table.Len()).To(Equal(1))
	})

	It("should never resolve the zero handle", func() {
		_, _ = table.Add(NewIO(1))

		_, ok := table.Get(NoHandle)

		Expect(ok).To(BeFalse())
	})

	It("should list requests of one device", func() {
		r1 := NewIO(1)
		r2 := NewTask(2, TaskAbortTask)
		_, _ = table.Add(r1)
		_, _ = table.Add(r2)

		Expect(table.ForDevice(1)).To(ConsistOf(r1))
		Expect(table.ForDevice(2)).To(ConsistOf(r2))
		Expect(table.ForDevice(3)).To(BeEmpty())
	})
})

var _ = Describe("Request", func() {
	It("should create an SMP phy control request", func() {
		req := NewSMPPhyControl(3, 7, 4)

		Expect(req.Kind).To(Equal(KindSMP))
		Expect(req.Device).To(Equal(sas.DeviceID(3)))
		Expect(req.ResetTarget).To(Equal(sas.DeviceID(7)))
		Expect(req.Phy).To(Equal(uint8(4)))
		Expect(req.PhyOperation).To(Equal(smp.PhyOpHardReset))
		Expect(req.HighPriority).To(BeTrue())
		Expect(req.Tagged()).To(BeFalse())
	})

	It("should name task functions", func() {
		Expect(NewTask(1, TaskTargetReset).String()).To(ContainSubstring("target-reset"))
	})
})
