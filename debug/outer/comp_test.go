package outer

import (
	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl   *gomock.Controller
		engine     *MockEngine
		topPort    *MockPort
		bottomPort *MockPort
		downstream *MockPort
		host       *MockPort
		comp       *Comp
		m          *ctrlMiddleware
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		topPort = NewMockPort(mockCtrl)
		bottomPort = NewMockPort(mockCtrl)
		downstream = NewMockPort(mockCtrl)
		host = NewMockPort(mockCtrl)

		comp = MakeBuilder().WithEngine(engine).Build("Outer")
		comp.topPort = topPort
		comp.bottomPort = bottomPort
		comp.SetDownstream(downstream)

		m = comp.Middlewares()[0].(*ctrlMiddleware)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	req := func(op dmi.Op, addr, data uint32) *dmi.Req {
		return dmi.ReqBuilder{}.
			WithSrc(host).
			WithDst(topPort).
			WithOp(op).
			WithAddr(addr).
			WithData(data).
			Build()
	}

	It("should do nothing without requests", func() {
		bottomPort.EXPECT().PeekIncoming().Return(nil)
		topPort.EXPECT().PeekIncoming().Return(nil)

		Expect(m.Tick()).To(BeFalse())
	})

	It("should serve dmcontrol writes locally", func() {
		write := req(dmi.OpWrite, dmi.AddrDMControl,
			dmi.DMControl{DMActive: true, HartSel: 1}.Encode())

		bottomPort.EXPECT().PeekIncoming().Return(nil)
		topPort.EXPECT().PeekIncoming().Return(write)
		topPort.EXPECT().CanSend().Return(true)
		topPort.EXPECT().RetrieveIncoming().Return(write)
		topPort.EXPECT().Send(gomock.Any()).
			Do(func(msg sim.Msg) {
				rsp := msg.(*dmi.Rsp)
				Expect(rsp.RespondTo).To(Equal(write.ID))
				Expect(rsp.Dst).To(BeIdenticalTo(host))
				Expect(rsp.Kind).To(Equal(dmi.RspSuccess))
				Expect(dmi.DecodeDMControl(rsp.Data).HartSel).
					To(Equal(uint32(1)))
			}).
			Return(nil)

		Expect(m.Tick()).To(BeTrue())
		Expect(comp.Handoff().Len()).To(Equal(1))
	})

	It("should not touch the handoff on dmcontrol reads", func() {
		read := req(dmi.OpRead, dmi.AddrDMControl, 0)

		bottomPort.EXPECT().PeekIncoming().Return(nil)
		topPort.EXPECT().PeekIncoming().Return(read)
		topPort.EXPECT().CanSend().Return(true)
		topPort.EXPECT().RetrieveIncoming().Return(read)
		topPort.EXPECT().Send(gomock.Any()).Return(nil)

		Expect(m.Tick()).To(BeTrue())
		Expect(comp.Handoff().Len()).To(Equal(0))
	})

	It("should stall while a control event is crossing", func() {
		comp.Handoff().Push(crossing.ControlEvent{Active: true})

		bottomPort.EXPECT().PeekIncoming().Return(nil)

		Expect(m.Tick()).To(BeFalse())
	})

	It("should forward other requests", func() {
		read := req(dmi.OpRead, dmi.AddrDMStatus, 0)

		bottomPort.EXPECT().PeekIncoming().Return(nil)
		topPort.EXPECT().PeekIncoming().Return(read)
		bottomPort.EXPECT().CanSend().Return(true)
		bottomPort.EXPECT().Send(gomock.Any()).
			Do(func(msg sim.Msg) {
				fwd := msg.(*dmi.Req)
				Expect(fwd.Src).To(BeIdenticalTo(bottomPort))
				Expect(fwd.Dst).To(BeIdenticalTo(downstream))
				Expect(fwd.Addr).To(Equal(dmi.AddrDMStatus))
				Expect(fwd.Op).To(Equal(dmi.OpRead))
			}).
			Return(nil)
		topPort.EXPECT().RetrieveIncoming().Return(read)

		Expect(m.Tick()).To(BeTrue())
		Expect(comp.Busy()).To(BeTrue())
	})

	It("should keep one forwarded request at a time", func() {
		comp.inflightOriginal = req(dmi.OpRead, dmi.AddrDMStatus, 0)

		bottomPort.EXPECT().PeekIncoming().Return(nil)

		Expect(m.Tick()).To(BeFalse())
	})

	It("should return the response of a forwarded request", func() {
		original := req(dmi.OpRead, dmi.AddrDMStatus, 0)
		forwarded := dmi.ReqBuilder{}.
			WithSrc(bottomPort).
			WithDst(downstream).
			Build()
		comp.inflightOriginal = original
		comp.inflightForwarded = forwarded

		rsp := dmi.RspBuilder{}.
			WithSrc(downstream).
			WithDst(bottomPort).
			WithRspTo(forwarded.ID).
			WithData(0x382).
			WithKind(dmi.RspFailure).
			Build()

		bottomPort.EXPECT().PeekIncoming().Return(rsp)
		topPort.EXPECT().CanSend().Return(true)
		bottomPort.EXPECT().RetrieveIncoming().Return(rsp)
		topPort.EXPECT().Send(gomock.Any()).
			Do(func(msg sim.Msg) {
				r := msg.(*dmi.Rsp)
				Expect(r.RespondTo).To(Equal(original.ID))
				Expect(r.Data).To(Equal(uint32(0x382)))
				Expect(r.Kind).To(Equal(dmi.RspFailure))
			}).
			Return(nil)
		topPort.EXPECT().PeekIncoming().Return(nil)

		Expect(m.Tick()).To(BeTrue())
		Expect(comp.Busy()).To(BeFalse())
	})

	It("should panic on a response to an unknown request", func() {
		rsp := dmi.RspBuilder{}.WithRspTo("nobody").Build()
		bottomPort.EXPECT().PeekIncoming().Return(rsp)

		Expect(func() { m.Tick() }).To(Panic())
	})
})
