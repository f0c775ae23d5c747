// Package adapter turns control-bus requests into system-bus transactions.
package adapter

import (
	"encoding/binary"
	"log"
	"reflect"

	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// Comp issues one system-bus transaction for each control-bus request. Only
// one transaction can be outstanding at a time.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort    sim.Port
	bottomPort sim.Port
	mapper     mem.AddressToPortMapper

	inflightReq    *dmi.Req
	inflightAccess mem.AccessReq
}

// Tick runs the middlewares of the component.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// TopPort returns the port that receives control-bus requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// BottomPort returns the port that issues system-bus transactions.
func (c *Comp) BottomPort() sim.Port {
	return c.bottomPort
}

// SetAddressToPortMapper sets how the adapter finds the bus target of an
// address.
func (c *Comp) SetAddressToPortMapper(m mem.AddressToPortMapper) {
	c.mapper = m
}

// Busy tells if a bus transaction is outstanding.
func (c *Comp) Busy() bool {
	return c.inflightReq != nil
}

type adaptMiddleware struct {
	*Comp
}

func (m *adaptMiddleware) Tick() bool {
	madeProgress := false

	madeProgress = m.finish() || madeProgress
	madeProgress = m.issue() || madeProgress

	return madeProgress
}

func (m *adaptMiddleware) issue() bool {
	if m.inflightReq != nil {
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

	access := m.translate(req)

	err := m.bottomPort.Send(access)
	if err != nil {
		return false
	}

	m.topPort.RetrieveIncoming()
	tracing.TraceReqReceive(req, m)
	tracing.TraceReqInitiate(access, m, tracing.MsgIDAtReceiver(req, m))

	m.inflightReq = req
	m.inflightAccess = access

	return true
}

// translate maps the word address of a request to the byte address of the
// bus. A request without an operation becomes a store that writes no byte.
func (m *adaptMiddleware) translate(req *dmi.Req) mem.AccessReq {
	addr := uint64(req.Addr) << 2
	dst := m.mapper.Find(addr)

	switch req.Op {
	case dmi.OpRead:
		return mem.ReadReqBuilder{}.
			WithSrc(m.bottomPort).
			WithDst(dst).
			WithAddress(addr).
			WithByteSize(4).
			Build()
	case dmi.OpWrite:
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, req.Data)

		return mem.WriteReqBuilder{}.
			WithSrc(m.bottomPort).
			WithDst(dst).
			WithAddress(addr).
			WithData(data).
			Build()
	default:
		return mem.WriteReqBuilder{}.
			WithSrc(m.bottomPort).
			WithDst(dst).
			WithAddress(addr).
			WithData(make([]byte, 4)).
			WithDirtyMask(make([]bool, 4)).
			Build()
	}
}

func (m *adaptMiddleware) finish() bool {
	msg := m.bottomPort.PeekIncoming()
	if msg == nil {
		return false
	}

	if !m.topPort.CanSend() {
		return false
	}

	rsp := m.toDMIRsp(msg)

	err := m.topPort.Send(rsp)
	if err != nil {
		log.Panicf("%s cannot send response", m.Name())
	}

	m.bottomPort.RetrieveIncoming()
	tracing.TraceReqFinalize(m.inflightAccess, m)
	tracing.TraceReqComplete(m.inflightReq, m)

	m.inflightReq = nil
	m.inflightAccess = nil

	return true
}

func (m *adaptMiddleware) toDMIRsp(msg sim.Msg) *dmi.Rsp {
	busRsp, ok := msg.(mem.AccessRsp)
	if !ok {
		log.Panicf("cannot handle %s", reflect.TypeOf(msg))
	}

	if m.inflightAccess == nil ||
		busRsp.GetRspTo() != m.inflightAccess.Meta().ID {
		log.Panicf("%s received a response to unknown request %s",
			m.Name(), busRsp.GetRspTo())
	}

	kind := dmi.RspSuccess
	if busRsp.IsDenied() {
		kind = dmi.RspFailure
	}

	var data uint32
	if dr, ok := msg.(*mem.DataReadyRsp); ok && !dr.Denied {
		data = binary.LittleEndian.Uint32(dr.Data)
	}

	return dmi.RspBuilder{}.
		WithSrc(m.topPort).
		WithDst(m.inflightReq.Src).
		WithRspTo(m.inflightReq.ID).
		WithData(data).
		WithKind(kind).
		Build()
}
