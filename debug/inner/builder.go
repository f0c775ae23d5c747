package inner

import (
	"log"

	"github.com/sarchlab/dmsim/sim"
)

// Builder can build inner components.
type Builder struct {
	engine          sim.Engine
	freq            sim.Freq
	numHarts        int
	numDataWords    int
	numProgBufWords int
	ctrlBufSize     int
	hartBufSize     int
	rom             []byte
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:            100 * sim.MHz,
		numHarts:        1,
		numDataWords:    2,
		numProgBufWords: 8,
		ctrlBufSize:     1,
		hartBufSize:     4,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the resettable domain.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNumHarts sets how many harts exist.
func (b Builder) WithNumHarts(n int) Builder {
	b.numHarts = n
	return b
}

// WithNumDataWords sets the number of abstract data words.
func (b Builder) WithNumDataWords(n int) Builder {
	b.numDataWords = n
	return b
}

// WithNumProgBufWords sets the number of program buffer words.
func (b Builder) WithNumProgBufWords(n int) Builder {
	b.numProgBufWords = n
	return b
}

// WithCtrlBufSize sets the buffer size of the control port.
func (b Builder) WithCtrlBufSize(n int) Builder {
	b.ctrlBufSize = n
	return b
}

// WithHartBufSize sets the buffer size of the hart port.
func (b Builder) WithHartBufSize(n int) Builder {
	b.hartBufSize = n
	return b
}

// WithROM sets the image of the boot sequence that the harts run while they
// are halted.
func (b Builder) WithROM(rom []byte) Builder {
	b.rom = rom
	return b
}

// Build creates an inner component.
func (b Builder) Build(name string) *Comp {
	if b.numHarts < 1 || b.numHarts > MaxHarts {
		log.Panicf("%s: %d harts is out of range", name, b.numHarts)
	}

	if uint64(len(b.rom)) > AddrROM {
		log.Panicf("%s: the rom is larger than 0x%x bytes", name, AddrROM)
	}

	c := &Comp{}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.core = NewCore(c, b.numHarts, b.numDataWords, b.numProgBufWords, b.rom)

	c.AddMiddleware(&handoffMiddleware{Comp: c})
	c.AddMiddleware(&ctrlMiddleware{Comp: c})
	c.AddMiddleware(&hartMiddleware{Comp: c})
	c.AddMiddleware(&fsmMiddleware{Comp: c})

	c.ctrlPort = sim.NewPort(c, b.ctrlBufSize, b.ctrlBufSize, name+".CtrlPort")
	c.AddPort("Ctrl", c.ctrlPort)

	c.hartPort = sim.NewPort(c, b.hartBufSize, b.hartBufSize, name+".HartPort")
	c.AddPort("Hart", c.hartPort)

	return c
}
