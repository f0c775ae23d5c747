package adapter

import (
	"github.com/sarchlab/dmsim/sim"
)

// Builder can build adapters.
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	bufSize int
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:    100 * sim.MHz,
		bufSize: 1,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency, which should match the resettable domain.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithBufSize sets the buffer size of the ports.
func (b Builder) WithBufSize(n int) Builder {
	b.bufSize = n
	return b
}

// Build creates an adapter.
func (b Builder) Build(name string) *Comp {
	c := &Comp{}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.AddMiddleware(&adaptMiddleware{Comp: c})

	c.topPort = sim.NewPort(c, b.bufSize, b.bufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	c.bottomPort = sim.NewPort(c, b.bufSize, b.bufSize, name+".BottomPort")
	c.AddPort("Bottom", c.bottomPort)

	return c
}
