package hart

import (
	"github.com/sarchlab/dmsim/sim"
)

// Builder can build harts.
type Builder struct {
	engine       sim.Engine
	freq         sim.Freq
	id           uint32
	pollInterval int
	bufSize      int
	lines        DebugLines
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		pollInterval: 4,
		bufSize:      1,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the hart.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithID sets the hart index.
func (b Builder) WithID(id uint32) Builder {
	b.id = id
	return b
}

// WithPollInterval sets how many idle cycles pass between two checks of the
// debug interrupt or the flag byte.
func (b Builder) WithPollInterval(n int) Builder {
	b.pollInterval = n
	return b
}

// WithBufSize sets the buffer size of the port.
func (b Builder) WithBufSize(n int) Builder {
	b.bufSize = n
	return b
}

// WithDebugLines connects the hart to the persistent domain.
func (b Builder) WithDebugLines(l DebugLines) Builder {
	b.lines = l
	return b
}

// Build creates a hart.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		id:           b.id,
		pollInterval: b.pollInterval,
		lines:        b.lines,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.port = sim.NewPort(c, b.bufSize, b.bufSize, name+".Port")
	c.AddPort("Port", c.port)

	return c
}
