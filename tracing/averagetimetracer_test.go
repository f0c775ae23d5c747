package tracing

import (
	"github.com/sarchlab/dmsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("AverageTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *AverageTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		t = NewAverageTimeTracer(timeTeller, KindFilter("cmd"))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should report zero without tasks", func() {
		Expect(t.AverageTime()).To(Equal(sim.VTimeInSec(0)))
		Expect(t.TotalCount()).To(Equal(uint64(0)))
	})

	It("should average task time", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		t.StartTask(Task{ID: "1", Kind: "cmd"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		t.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		t.StartTask(Task{ID: "2", Kind: "cmd"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(6))
		t.EndTask(Task{ID: "2"})

		Expect(t.AverageTime()).To(Equal(sim.VTimeInSec(2)))
		Expect(t.MaxTime()).To(Equal(sim.VTimeInSec(3)))
		Expect(t.TotalCount()).To(Equal(uint64(2)))
	})

	It("should skip tasks of other kinds", func() {
		t.StartTask(Task{ID: "1", Kind: "req_in"})
		t.EndTask(Task{ID: "1"})

		Expect(t.TotalCount()).To(Equal(uint64(0)))
	})
})
