package inner

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FSM", func() {
	var f *FSM

	BeforeEach(func() {
		f = &FSM{}
	})

	It("should start waiting", func() {
		Expect(f.State()).To(Equal(StateWaiting))
		Expect(f.State().Busy()).To(BeFalse())
	})

	It("should run a full command", func() {
		steps := []struct {
			e  Event
			to State
		}{
			{EventCommand, StateCheckGenerate},
			{EventRunProgBuf, StatePreExec},
			{EventHalted, StateAbstract},
			{EventFallThrough, StatePostExec},
			{EventHalted, StateWaiting},
		}

		for _, s := range steps {
			t := f.Fire(s.e)
			Expect(t.To).To(Equal(s.to))
			Expect(f.State()).To(Equal(s.to))
		}
	})

	It("should reject illegal events", func() {
		Expect(f.Accepts(EventHalted)).To(BeFalse())
		Expect(func() { f.Fire(EventHalted) }).To(Panic())
	})

	DescribeTable("exceptions",
		func(path []Event) {
			for _, e := range path {
				f.Fire(e)
			}

			t := f.Fire(EventException)

			Expect(t.From.WaitsForHart()).To(BeTrue())
			Expect(t.To).To(Equal(StateWaiting))
		},
		Entry("in PreExec", []Event{EventCommand, EventRunProgBuf}),
		Entry("in Abstract", []Event{EventCommand, EventRunAbstract}),
		Entry("in PostExec",
			[]Event{EventCommand, EventRunAbstract, EventFallThrough}),
	)

	It("should deactivate from any state", func() {
		f.Fire(EventCommand)
		f.Fire(EventRunAbstract)

		Expect(f.Accepts(EventDeactivate)).To(BeTrue())

		t := f.Fire(EventDeactivate)

		Expect(t.From).To(Equal(StateAbstract))
		Expect(f.State()).To(Equal(StateWaiting))
	})

	It("should not accept commands while busy", func() {
		f.Fire(EventCommand)

		Expect(f.Accepts(EventCommand)).To(BeFalse())
	})
})
