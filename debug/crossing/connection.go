package crossing

import (
	"log"

	"github.com/sarchlab/dmsim/sim"
)

type inflightMsg struct {
	msg        sim.Msg
	stagesLeft int
}

type lane struct {
	src      sim.Port
	inflight []inflightMsg
}

// Connection links exactly two ports that live in different clock domains.
// Each direction holds at most depth messages. A message is taken from the
// sender, kept for the configured number of synchronizer cycles, and then
// offered to the receiver until the receiver accepts it, so no message is
// lost and the order is kept.
type Connection struct {
	*sim.TickingComponent

	depth      int
	syncStages int
	lanes      []*lane
}

// NewConnection creates a crossing connection that ticks at freq.
func NewConnection(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	depth, syncStages int,
) *Connection {
	if depth <= 0 {
		log.Panicf("crossing %s: depth must be positive, got %d", name, depth)
	}

	c := &Connection{
		depth:      depth,
		syncStages: syncStages,
	}
	c.TickingComponent = sim.NewSecondaryTickingComponent(name, engine, freq, c)

	return c
}

// PlugIn attaches one of the two ends.
func (c *Connection) PlugIn(port sim.Port) {
	if len(c.lanes) == 2 {
		log.Panicf("crossing %s already has two ends", c.Name())
	}

	c.lanes = append(c.lanes, &lane{src: port})
	port.SetConnection(c)
}

// NotifyAvailable is called when a receiving end frees up.
func (c *Connection) NotifyAvailable(_ sim.Port) {
	c.TickNow()
}

// NotifySend is called when a sending end has a new message.
func (c *Connection) NotifySend() {
	c.TickNow()
}

// Tick moves messages through both directions.
func (c *Connection) Tick() bool {
	madeProgress := false

	for _, l := range c.lanes {
		madeProgress = c.deliver(l) || madeProgress
		madeProgress = c.advance(l) || madeProgress
		madeProgress = c.take(l) || madeProgress
	}

	return madeProgress
}

func (c *Connection) deliver(l *lane) bool {
	if len(l.inflight) == 0 || l.inflight[0].stagesLeft > 0 {
		return false
	}

	msg := l.inflight[0].msg
	if msg.Meta().Dst.Deliver(msg) != nil {
		return false
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Now:    c.CurrentTime(),
			Pos:    sim.HookPosConnDeliver,
			Item:   msg,
		})
	}

	l.inflight = l.inflight[1:]

	return true
}

func (c *Connection) advance(l *lane) bool {
	madeProgress := false

	for i := range l.inflight {
		if l.inflight[i].stagesLeft > 0 {
			l.inflight[i].stagesLeft--
			madeProgress = true
		}
	}

	return madeProgress
}

func (c *Connection) take(l *lane) bool {
	if len(l.inflight) >= c.depth {
		return false
	}

	msg := l.src.PeekOutgoing()
	if msg == nil {
		return false
	}

	if !c.connects(msg.Meta().Dst) {
		log.Panicf("crossing %s does not reach %s",
			c.Name(), msg.Meta().Dst.Name())
	}

	l.src.RetrieveOutgoing()
	l.inflight = append(l.inflight, inflightMsg{
		msg:        msg,
		stagesLeft: c.syncStages,
	})

	return true
}

func (c *Connection) connects(port sim.Port) bool {
	for _, l := range c.lanes {
		if l.src == port {
			return true
		}
	}

	return false
}
