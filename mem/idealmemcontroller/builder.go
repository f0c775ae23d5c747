package idealmemcontroller

import (
	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/sim"
)

// Builder can build ideal memory controllers.
type Builder struct {
	width      int
	latency    int
	freq       sim.Freq
	capacity   uint64
	base       uint64
	engine     sim.Engine
	topBufSize int
	storage    *mem.Storage
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{
		latency:    100,
		freq:       1 * sim.GHz,
		capacity:   4 * mem.KB,
		width:      1,
		topBufSize: 16,
	}
}

// WithWidth sets how many requests can be taken in a cycle.
func (b Builder) WithWidth(width int) Builder {
	b.width = width
	return b
}

// WithLatency sets the latency of the memory controller, in cycles.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithFreq sets the frequency of the memory controller.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNewStorage sets the capacity of a new storage.
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithBase sets the first address that the memory serves.
func (b Builder) WithBase(base uint64) Builder {
	b.base = base
	return b
}

// WithEngine sets the engine of the memory controller.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithTopBufSize sets the size of the top buffer.
func (b Builder) WithTopBufSize(topBufSize int) Builder {
	b.topBufSize = topBufSize
	return b
}

// WithStorage sets the storage of the memory controller.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// Build builds a new Comp.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		Latency: b.latency,
		Base:    b.base,
		width:   b.width,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.AddMiddleware(&memMiddleware{Comp: c})

	if b.storage == nil {
		c.Storage = mem.NewStorage(b.capacity)
	} else {
		c.Storage = b.storage
	}

	c.topPort = sim.NewPort(c, b.topBufSize, b.topBufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	return c
}
