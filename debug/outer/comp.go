package outer

import (
	"log"
	"reflect"

	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// Comp is the persistent-domain part of the debug module. It serves dmcontrol
// itself and forwards every other control-bus request, one at a time, to the
// resettable domain.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort    sim.Port
	bottomPort sim.Port
	downstream sim.Port

	control *Control
	handoff *crossing.Handoff[crossing.ControlEvent]

	inflightOriginal  *dmi.Req
	inflightForwarded *dmi.Req
}

// Tick runs the middlewares of the component.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// TopPort returns the port that faces the external debugger.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// BottomPort returns the port that faces the resettable domain.
func (c *Comp) BottomPort() sim.Port {
	return c.bottomPort
}

// SetDownstream sets the port that receives the forwarded requests.
func (c *Comp) SetDownstream(p sim.Port) {
	c.downstream = p
}

// Handoff returns the queue that carries control events to the resettable
// domain.
func (c *Comp) Handoff() *crossing.Handoff[crossing.ControlEvent] {
	return c.handoff
}

// Control returns the control word.
func (c *Comp) Control() *Control {
	return c.control
}

// HaltRequested is the debug interrupt line of a hart.
func (c *Comp) HaltRequested(hart int) bool {
	return c.control.HaltRequested(hart)
}

// NDMReset tells if the rest of the system is held in reset.
func (c *Comp) NDMReset() bool {
	return c.control.NDMReset()
}

// Busy tells if a forwarded request is waiting for its response.
func (c *Comp) Busy() bool {
	return c.inflightOriginal != nil
}

type ctrlMiddleware struct {
	*Comp
}

func (m *ctrlMiddleware) Tick() bool {
	madeProgress := false

	madeProgress = m.returnRsp() || madeProgress
	madeProgress = m.takeReq() || madeProgress

	return madeProgress
}

func (m *ctrlMiddleware) returnRsp() bool {
	msg := m.bottomPort.PeekIncoming()
	if msg == nil {
		return false
	}

	rsp, ok := msg.(*dmi.Rsp)
	if !ok {
		log.Panicf("cannot handle %s", reflect.TypeOf(msg))
	}

	if m.inflightForwarded == nil || rsp.RespondTo != m.inflightForwarded.ID {
		log.Panicf("%s received a response to unknown request %s",
			m.Name(), rsp.RespondTo)
	}

	if !m.topPort.CanSend() {
		return false
	}

	m.bottomPort.RetrieveIncoming()
	m.respond(m.inflightOriginal, rsp.Data, rsp.Kind)
	tracing.TraceReqFinalize(m.inflightForwarded, m)
	tracing.TraceReqComplete(m.inflightOriginal, m)

	m.inflightOriginal = nil
	m.inflightForwarded = nil

	return true
}

func (m *ctrlMiddleware) takeReq() bool {
	if m.inflightOriginal != nil || m.handoff.Len() > 0 {
		return false
	}

	msg := m.topPort.PeekIncoming()
	if msg == nil {
		return false
	}

	req, ok := msg.(*dmi.Req)
	if !ok {
		log.Panicf("cannot handle %s", reflect.TypeOf(msg))
	}

	if req.Addr == dmi.AddrDMControl {
		return m.serveControl(req)
	}

	return m.forward(req)
}

func (m *ctrlMiddleware) serveControl(req *dmi.Req) bool {
	if !m.topPort.CanSend() {
		return false
	}

	m.topPort.RetrieveIncoming()
	tracing.TraceReqReceive(req, m)

	if req.Op == dmi.OpWrite {
		evt, emit := m.control.Write(req.Data)
		if emit {
			m.handoff.Push(evt)
		}
	}

	m.respond(req, m.control.Read(), dmi.RspSuccess)
	tracing.TraceReqComplete(req, m)

	return true
}

func (m *ctrlMiddleware) forward(req *dmi.Req) bool {
	if !m.bottomPort.CanSend() {
		return false
	}

	if m.downstream == nil {
		log.Panicf("%s has no downstream port", m.Name())
	}

	fwd := dmi.ReqBuilder{}.
		WithSrc(m.bottomPort).
		WithDst(m.downstream).
		WithAddr(req.Addr).
		WithData(req.Data).
		WithOp(req.Op).
		Build()

	err := m.bottomPort.Send(fwd)
	if err != nil {
		return false
	}

	m.topPort.RetrieveIncoming()
	tracing.TraceReqReceive(req, m)
	tracing.TraceReqInitiate(fwd, m, tracing.MsgIDAtReceiver(req, m))

	m.inflightOriginal = req
	m.inflightForwarded = fwd

	return true
}

func (m *ctrlMiddleware) respond(req *dmi.Req, data uint32, kind dmi.RspKind) {
	rsp := dmi.RspBuilder{}.
		WithSrc(m.topPort).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithData(data).
		WithKind(kind).
		Build()

	err := m.topPort.Send(rsp)
	if err != nil {
		log.Panicf("%s cannot send response", m.Name())
	}
}
