// Package idealmemcontroller provides a memory that answers every request
// after a fixed latency. Harts use it as their main memory.
package idealmemcontroller

import (
	"log"
	"reflect"

	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

type respondEvent struct {
	*sim.EventBase
	req mem.AccessReq
}

func newRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req mem.AccessReq,
) *respondEvent {
	return &respondEvent{sim.NewEventBase(time, handler), req}
}

// A Comp is an ideal memory controller. It responds to every request after
// Latency cycles and has no limit on concurrency. Requests to addresses
// outside [Base, Base+capacity) are denied.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort sim.Port
	Storage *mem.Storage
	Latency int
	Base    uint64

	width int
}

// Handle defines how the Comp handles events.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		return c.respond(e)
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// Tick runs the middlewares.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// TopPort returns the port that receives requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

func (c *Comp) inRange(req mem.AccessReq) bool {
	addr := req.GetAddress()

	return addr >= c.Base &&
		addr+req.GetByteSize() <= c.Base+c.Storage.Capacity()
}

func (c *Comp) respond(e *respondEvent) error {
	rsp := c.buildRsp(e.req)

	err := c.topPort.Send(rsp)
	if err != nil {
		retry := newRespondEvent(c.Freq.NextTick(e.Time()), c, e.req)
		c.Engine.Schedule(retry)

		return nil
	}

	if write, ok := e.req.(*mem.WriteReq); ok && c.inRange(write) {
		err := c.Storage.ApplyWrite(write.Address-c.Base, write)
		if err != nil {
			log.Panic(err)
		}
	}

	tracing.TraceReqComplete(e.req, c)
	c.TickLater()

	return nil
}

func (c *Comp) buildRsp(req mem.AccessReq) sim.Msg {
	switch req := req.(type) {
	case *mem.ReadReq:
		b := mem.DataReadyRspBuilder{}.
			WithSrc(c.topPort).
			WithDst(req.Src).
			WithRspTo(req.ID)

		if !c.inRange(req) {
			return b.Denied().Build()
		}

		data, err := c.Storage.Read(req.Address-c.Base, req.AccessByteSize)
		if err != nil {
			log.Panic(err)
		}

		return b.WithData(data).Build()
	case *mem.WriteReq:
		b := mem.WriteDoneRspBuilder{}.
			WithSrc(c.topPort).
			WithDst(req.Src).
			WithRspTo(req.ID)

		if !c.inRange(req) {
			return b.Denied().Build()
		}

		return b.Build()
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(req))
	}

	return nil
}

type memMiddleware struct {
	*Comp
}

func (m *memMiddleware) Tick() bool {
	madeProgress := false

	for i := 0; i < m.width; i++ {
		msg := m.topPort.RetrieveIncoming()
		if msg == nil {
			break
		}

		req, ok := msg.(mem.AccessReq)
		if !ok {
			log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
		}

		tracing.TraceReqReceive(req, m.Comp)

		when := m.Freq.NCyclesLater(m.Latency, m.CurrentTime())
		m.Engine.Schedule(newRespondEvent(when, m.Comp, req))

		madeProgress = true
	}

	return madeProgress
}
