// Package host provides a scripted debugger that drives the control bus of a
// debug module.
package host

import (
	"log"
	"reflect"

	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// Transaction is a request that the agent issues and the response it gets.
type Transaction struct {
	Req *dmi.Req
	Rsp *dmi.Rsp

	SendTime sim.VTimeInSec
	RecvTime sim.VTimeInSec

	OnDone func(t *Transaction)
}

// Done tells if the response has arrived.
func (t *Transaction) Done() bool {
	return t.Rsp != nil
}

// Agent sends control-bus requests one at a time, in the order they are
// queued, and keeps every completed transaction.
type Agent struct {
	*sim.TickingComponent

	port sim.Port
	dst  sim.Port

	pending   []*Transaction
	inflight  *Transaction
	completed []*Transaction
}

// NewAgent creates an agent.
func NewAgent(name string, engine sim.Engine, freq sim.Freq) *Agent {
	a := &Agent{}
	a.TickingComponent = sim.NewTickingComponent(name, engine, freq, a)
	a.port = sim.NewPort(a, 1, 1, name+".Port")
	a.AddPort("Port", a.port)

	return a
}

// Port returns the port that the agent sends requests from.
func (a *Agent) Port() sim.Port {
	return a.port
}

// SetDst sets the port that receives the requests.
func (a *Agent) SetDst(p sim.Port) {
	a.dst = p
}

// Read queues a register read.
func (a *Agent) Read(addr uint32) *Transaction {
	return a.enqueue(dmi.OpRead, addr, 0)
}

// Write queues a register write.
func (a *Agent) Write(addr, data uint32) *Transaction {
	return a.enqueue(dmi.OpWrite, addr, data)
}

// Probe queues a request that neither reads nor writes.
func (a *Agent) Probe(addr uint32) *Transaction {
	return a.enqueue(dmi.OpNone, addr, 0)
}

func (a *Agent) enqueue(op dmi.Op, addr, data uint32) *Transaction {
	t := &Transaction{
		Req: dmi.ReqBuilder{}.
			WithSrc(a.port).
			WithDst(a.dst).
			WithOp(op).
			WithAddr(addr).
			WithData(data).
			Build(),
	}

	a.pending = append(a.pending, t)
	a.TickLater()

	return t
}

// Idle tells if every queued request has been answered.
func (a *Agent) Idle() bool {
	return a.inflight == nil && len(a.pending) == 0
}

// Completed returns the transactions that have finished, in order.
func (a *Agent) Completed() []*Transaction {
	return a.completed
}

// Tick collects the response of the outstanding request or sends the next.
func (a *Agent) Tick() bool {
	if a.inflight != nil {
		return a.collect()
	}

	return a.send()
}

func (a *Agent) send() bool {
	if len(a.pending) == 0 {
		return false
	}

	t := a.pending[0]

	err := a.port.Send(t.Req)
	if err != nil {
		return false
	}

	t.SendTime = a.CurrentTime()
	tracing.TraceReqInitiate(t.Req, a, "")

	a.pending = a.pending[1:]
	a.inflight = t

	return true
}

func (a *Agent) collect() bool {
	msg := a.port.RetrieveIncoming()
	if msg == nil {
		return false
	}

	rsp, ok := msg.(*dmi.Rsp)
	if !ok {
		log.Panicf("cannot handle %s", reflect.TypeOf(msg))
	}

	t := a.inflight
	if rsp.RespondTo != t.Req.ID {
		log.Panicf("%s received a response to unknown request %s",
			a.Name(), rsp.RespondTo)
	}

	t.Rsp = rsp
	t.RecvTime = a.CurrentTime()
	tracing.TraceReqFinalize(t.Req, a)

	a.inflight = nil
	a.completed = append(a.completed, t)

	if t.OnDone != nil {
		t.OnDone(t)
	}

	return true
}
