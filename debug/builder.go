package debug

import (
	"log"

	"github.com/sarchlab/dmsim/debug/adapter"
	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/debug/inner"
	"github.com/sarchlab/dmsim/debug/outer"
	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/sim"
)

// Module is a debug module. The external debugger talks to TopPort. The
// harts talk to HartPort and watch the debug lines of the module.
type Module struct {
	Outer    *outer.Comp
	Crossing *crossing.Connection
	Adapter  *adapter.Comp
	Inner    *inner.Comp
	Bus      *sim.DirectConnection

	config Config
}

// Config returns the configuration that the module was built with.
func (m *Module) Config() Config {
	return m.config
}

// TopPort returns the control-bus port of the module.
func (m *Module) TopPort() sim.Port {
	return m.Outer.TopPort()
}

// HartPort returns the system-bus port that serves the harts.
func (m *Module) HartPort() sim.Port {
	return m.Inner.HartPort()
}

// HaltRequested is the debug interrupt line of a hart.
func (m *Module) HaltRequested(hart int) bool {
	return m.Outer.HaltRequested(hart)
}

// NDMReset tells if the rest of the system is held in reset.
func (m *Module) NDMReset() bool {
	return m.Outer.NDMReset()
}

// ResetInner resets the resettable domain. The control word survives.
func (m *Module) ResetInner() {
	m.Inner.Reset()
}

// Components returns every component of the module.
func (m *Module) Components() []sim.Component {
	return []sim.Component{m.Outer, m.Adapter, m.Inner}
}

// Builder can build debug modules.
type Builder struct {
	engine      sim.Engine
	config      Config
	outerFreq   sim.Freq
	innerFreq   sim.Freq
	hartBufSize int
	rom         []byte
}

// MakeBuilder returns a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config:      DefaultConfig(),
		outerFreq:   50 * sim.MHz,
		innerFreq:   100 * sim.MHz,
		hartBufSize: 4,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithConfig sets the configuration contract.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// WithOuterFreq sets the frequency of the persistent domain.
func (b Builder) WithOuterFreq(freq sim.Freq) Builder {
	b.outerFreq = freq
	return b
}

// WithInnerFreq sets the frequency of the resettable domain.
func (b Builder) WithInnerFreq(freq sim.Freq) Builder {
	b.innerFreq = freq
	return b
}

// WithHartBufSize sets the buffer size of the hart port.
func (b Builder) WithHartBufSize(n int) Builder {
	b.hartBufSize = n
	return b
}

// WithROM sets the boot sequence that the halted harts run.
func (b Builder) WithROM(rom []byte) Builder {
	b.rom = rom
	return b
}

// Build creates a debug module. It panics if the configuration is invalid.
func (b Builder) Build(name string) *Module {
	err := b.config.Validate()
	if err != nil {
		log.Panicf("debug module %s: %v", name, err)
	}

	m := &Module{config: b.config}

	m.Outer = outer.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.outerFreq).
		WithHandoffDepth(b.config.HandoffDepth).
		WithSyncStages(b.config.SyncStages).
		Build(name + ".Outer")

	m.Adapter = adapter.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.innerFreq).
		Build(name + ".Adapter")

	m.Inner = inner.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.innerFreq).
		WithNumHarts(b.config.NumHarts).
		WithNumDataWords(b.config.NumDataWords).
		WithNumProgBufWords(b.config.NumProgBufWords).
		WithHartBufSize(b.hartBufSize).
		WithROM(b.rom).
		Build(name + ".Inner")

	m.Crossing = crossing.NewConnection(name+".Crossing",
		b.engine, b.innerFreq, b.config.HandoffDepth, b.config.SyncStages)
	m.Crossing.PlugIn(m.Outer.BottomPort())
	m.Crossing.PlugIn(m.Adapter.TopPort())
	m.Outer.SetDownstream(m.Adapter.TopPort())

	m.Bus = sim.NewDirectConnection(name+".Bus", b.engine, b.innerFreq)
	m.Bus.PlugIn(m.Adapter.BottomPort())
	m.Bus.PlugIn(m.Inner.CtrlPort())
	m.Adapter.SetAddressToPortMapper(
		&mem.SinglePortMapper{Port: m.Inner.CtrlPort()})

	m.Inner.ConsumeHandoff(m.Outer.Handoff())

	return m
}
