package inner

import (
	"encoding/binary"
	"log"
	"reflect"

	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// Comp is the resettable-domain part of the debug module. The control port
// receives the system-bus transactions made by the adapter. The hart port
// receives the transactions of the harts.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	ctrlPort sim.Port
	hartPort sim.Port
	handoff  *crossing.Handoff[crossing.ControlEvent]

	core *Core
}

// Tick runs the middlewares of the component.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// CtrlPort returns the port that serves the adapter.
func (c *Comp) CtrlPort() sim.Port {
	return c.ctrlPort
}

// HartPort returns the port that serves the harts.
func (c *Comp) HartPort() sim.Port {
	return c.hartPort
}

// Core returns the registers and the state machine.
func (c *Comp) Core() *Core {
	return c.core
}

// ConsumeHandoff makes the component the receiving end of the control event
// queue.
func (c *Comp) ConsumeHandoff(h *crossing.Handoff[crossing.ControlEvent]) {
	c.handoff = h
	h.SetConsumer(c)
}

// Reset resets the domain without touching the persistent control word.
func (c *Comp) Reset() {
	c.core.Reset()
}

// SetUnavailable marks a hart as unavailable or available.
func (c *Comp) SetUnavailable(hart int, unavailable bool) {
	c.core.SetUnavailable(hart, unavailable)
}

// Snapshot is a summary of the component for monitoring.
type Snapshot struct {
	Active   bool   `json:"active"`
	State    string `json:"state"`
	Selected uint32 `json:"selected"`
	CmdErr   string `json:"cmderr"`
	Busy     bool   `json:"busy"`
}

// Snapshot summarizes the state of the component.
func (c *Comp) Snapshot() Snapshot {
	return Snapshot{
		Active:   c.core.Active(),
		State:    c.core.State().String(),
		Selected: c.core.Selected(),
		CmdErr:   c.core.CmdErr().String(),
		Busy:     c.core.Busy(),
	}
}

type handoffMiddleware struct {
	*Comp
}

func (m *handoffMiddleware) Tick() bool {
	if m.handoff == nil || m.handoff.Len() == 0 {
		return false
	}

	m.handoff.Tick()

	evt, ok := m.handoff.Pop()
	if ok {
		m.core.Apply(evt)
	}

	return true
}

type ctrlMiddleware struct {
	*Comp
}

func (m *ctrlMiddleware) Tick() bool {
	msg := m.ctrlPort.PeekIncoming()
	if msg == nil {
		return false
	}

	if !m.ctrlPort.CanSend() {
		return false
	}

	var rsp sim.Msg

	switch req := msg.(type) {
	case *mem.ReadReq:
		rsp = m.read(req)
	case *mem.WriteReq:
		rsp = m.write(req)
	default:
		log.Panicf("cannot handle %s", reflect.TypeOf(msg))
	}

	err := m.ctrlPort.Send(rsp)
	if err != nil {
		log.Panicf("%s cannot send response", m.Name())
	}

	m.ctrlPort.RetrieveIncoming()
	tracing.TraceReqReceive(msg, m)
	tracing.TraceReqComplete(msg, m)

	return true
}

func (m *ctrlMiddleware) read(req *mem.ReadReq) sim.Msg {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, m.core.ReadReg(uint32(req.Address>>2)))

	return mem.DataReadyRspBuilder{}.
		WithSrc(m.ctrlPort).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithData(data[:min(req.AccessByteSize, 4)]).
		Build()
}

// write applies a register write. A write that enables no byte is a probe
// and touches nothing.
func (m *ctrlMiddleware) write(req *mem.WriteReq) sim.Msg {
	buf := make([]byte, 4)
	dirty := false

	for i := range req.Data {
		if req.IsByteDirty(i) {
			buf[i] = req.Data[i]
			dirty = true
		}
	}

	if dirty {
		m.core.WriteReg(uint32(req.Address>>2), binary.LittleEndian.Uint32(buf))
	}

	return mem.WriteDoneRspBuilder{}.
		WithSrc(m.ctrlPort).
		WithDst(req.Src).
		WithRspTo(req.ID).
		Build()
}

type hartMiddleware struct {
	*Comp
}

func (m *hartMiddleware) Tick() bool {
	msg := m.hartPort.PeekIncoming()
	if msg == nil {
		return false
	}

	if !m.hartPort.CanSend() {
		return false
	}

	var rsp sim.Msg

	switch req := msg.(type) {
	case *mem.ReadReq:
		rsp = m.load(req)
	case *mem.WriteReq:
		rsp = m.store(req)
	default:
		log.Panicf("cannot handle %s", reflect.TypeOf(msg))
	}

	err := m.hartPort.Send(rsp)
	if err != nil {
		log.Panicf("%s cannot send response", m.Name())
	}

	m.hartPort.RetrieveIncoming()

	return true
}

func (m *hartMiddleware) load(req *mem.ReadReq) sim.Msg {
	b := mem.DataReadyRspBuilder{}.
		WithSrc(m.hartPort).
		WithDst(req.Src).
		WithRspTo(req.ID)

	data, ok := m.core.HartLoad(req.Address, req.AccessByteSize)
	if !ok {
		return b.Denied().Build()
	}

	return b.WithData(data).Build()
}

func (m *hartMiddleware) store(req *mem.WriteReq) sim.Msg {
	b := mem.WriteDoneRspBuilder{}.
		WithSrc(m.hartPort).
		WithDst(req.Src).
		WithRspTo(req.ID)

	if !m.core.HartStore(req.Address, req) {
		return b.Denied().Build()
	}

	return b.Build()
}

type fsmMiddleware struct {
	*Comp
}

func (m *fsmMiddleware) Tick() bool {
	return m.core.Step()
}
