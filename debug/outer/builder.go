package outer

import (
	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/sim"
)

// Builder can build outer components.
type Builder struct {
	engine       sim.Engine
	freq         sim.Freq
	bufSize      int
	handoffDepth int
	syncStages   int
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         100 * sim.MHz,
		bufSize:      1,
		handoffDepth: 1,
		syncStages:   2,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the persistent domain.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithBufSize sets the buffer size of the ports.
func (b Builder) WithBufSize(n int) Builder {
	b.bufSize = n
	return b
}

// WithHandoffDepth sets how many control events can be in flight.
func (b Builder) WithHandoffDepth(n int) Builder {
	b.handoffDepth = n
	return b
}

// WithSyncStages sets how many consumer cycles a control event takes to
// cross into the resettable domain.
func (b Builder) WithSyncStages(n int) Builder {
	b.syncStages = n
	return b
}

// Build creates an outer component.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		control: NewControl(),
		handoff: crossing.NewHandoff[crossing.ControlEvent](
			name+".Handoff", b.handoffDepth, b.syncStages),
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.AddMiddleware(&ctrlMiddleware{Comp: c})

	c.topPort = sim.NewPort(c, b.bufSize, b.bufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	c.bottomPort = sim.NewPort(c, b.bufSize, b.bufSize, name+".BottomPort")
	c.AddPort("Bottom", c.bottomPort)

	return c
}
