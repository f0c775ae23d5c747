package host

import (
	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// regFile answers control-bus requests from a map of registers.
type regFile struct {
	*sim.TickingComponent

	port   sim.Port
	regs   map[uint32]uint32
	served []dmi.Op
}

func newRegFile(engine sim.Engine) *regFile {
	r := &regFile{regs: make(map[uint32]uint32)}
	r.TickingComponent = sim.NewTickingComponent("Regs", engine, 1*sim.GHz, r)
	r.port = sim.NewPort(r, 1, 1, "Regs.Port")
	r.AddPort("Port", r.port)

	return r
}

func (r *regFile) Tick() bool {
	msg := r.port.PeekIncoming()
	if msg == nil || !r.port.CanSend() {
		return false
	}

	req := msg.(*dmi.Req)
	kind := dmi.RspSuccess

	switch {
	case req.Addr > 0x40:
		kind = dmi.RspFailure
	case req.Op == dmi.OpWrite:
		r.regs[req.Addr] = req.Data
	}

	rsp := dmi.RspBuilder{}.
		WithSrc(r.port).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithData(r.regs[req.Addr]).
		WithKind(kind).
		Build()
	Expect(r.port.Send(rsp)).To(BeNil())

	r.port.RetrieveIncoming()
	r.served = append(r.served, req.Op)

	return true
}

var _ = Describe("Agent", func() {
	var (
		engine *sim.SerialEngine
		regs   *regFile
		agent  *Agent
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		regs = newRegFile(engine)
		agent = NewAgent("Host", engine, 1*sim.GHz)
		agent.SetDst(regs.port)

		conn := sim.NewDirectConnection("Conn", engine, 1*sim.GHz)
		conn.PlugIn(agent.Port())
		conn.PlugIn(regs.port)
	})

	It("should be idle with nothing queued", func() {
		Expect(agent.Idle()).To(BeTrue())
		Expect(engine.Run()).To(Succeed())
		Expect(agent.Completed()).To(BeEmpty())
	})

	It("should run the requests in order", func() {
		w := agent.Write(0x04, 0xabcd)
		r := agent.Read(0x04)
		p := agent.Probe(0x04)

		Expect(agent.Idle()).To(BeFalse())
		Expect(engine.Run()).To(Succeed())

		Expect(agent.Idle()).To(BeTrue())
		Expect(agent.Completed()).To(Equal([]*Transaction{w, r, p}))
		Expect(regs.served).To(Equal([]dmi.Op{dmi.OpWrite, dmi.OpRead, dmi.OpNone}))
		Expect(r.Rsp.Data).To(Equal(uint32(0xabcd)))
		Expect(r.Rsp.Kind).To(Equal(dmi.RspSuccess))
		Expect(r.RecvTime).To(BeNumerically(">", r.SendTime))
		Expect(w.RecvTime).To(BeNumerically("<=", r.SendTime))
	})

	It("should keep failed responses", func() {
		t := agent.Read(0x7f)
		Expect(engine.Run()).To(Succeed())

		Expect(t.Done()).To(BeTrue())
		Expect(t.Rsp.Kind).To(Equal(dmi.RspFailure))
	})

	It("should call back when a transaction finishes", func() {
		var seen []uint32

		t := agent.Read(0x08)
		t.OnDone = func(t *Transaction) {
			seen = append(seen, t.Req.Addr)
			agent.Write(0x08, 1)
		}

		Expect(engine.Run()).To(Succeed())

		Expect(seen).To(Equal([]uint32{0x08}))
		Expect(agent.Completed()).To(HaveLen(2))
		Expect(regs.regs[0x08]).To(Equal(uint32(1)))
	})
})
