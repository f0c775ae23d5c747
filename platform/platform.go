// Package platform builds a complete system around a debug module: a
// scripted debugger, the debug module, the harts, and a main memory.
package platform

import (
	"fmt"

	"github.com/sarchlab/dmsim/debug"
	"github.com/sarchlab/dmsim/debug/hart"
	"github.com/sarchlab/dmsim/debug/host"
	"github.com/sarchlab/dmsim/mem"
	"github.com/sarchlab/dmsim/mem/idealmemcontroller"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/simulation"
)

// RAMBase is where the main memory starts in the address space of the harts.
const RAMBase uint64 = 0x8000_0000

// DMSize is the size of the window that the debug module serves.
const DMSize uint64 = 0x1000

// Platform is a built system.
type Platform struct {
	Simulation *simulation.Simulation
	Host       *host.Agent
	DM         *debug.Module
	Harts      []*hart.Comp
	RAM        *idealmemcontroller.Comp
}

// Engine returns the engine that runs the platform.
func (p *Platform) Engine() sim.Engine {
	return p.Simulation.GetEngine()
}

// Builder can build platforms.
type Builder struct {
	sim          *simulation.Simulation
	config       debug.Config
	hostFreq     sim.Freq
	hartFreq     sim.Freq
	pollInterval int
	ramSize      uint64
	ramLatency   int
	rom          []byte
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		config:       debug.DefaultConfig(),
		hostFreq:     50 * sim.MHz,
		hartFreq:     1 * sim.GHz,
		pollInterval: 4,
		ramSize:      64 * mem.KB,
		ramLatency:   20,
	}
}

// WithSimulation sets the simulation that the platform registers with.
func (b Builder) WithSimulation(s *simulation.Simulation) Builder {
	b.sim = s
	return b
}

// WithConfig sets the configuration of the debug module.
func (b Builder) WithConfig(c debug.Config) Builder {
	b.config = c
	return b
}

// WithHartFreq sets the frequency of the harts.
func (b Builder) WithHartFreq(freq sim.Freq) Builder {
	b.hartFreq = freq
	return b
}

// WithPollInterval sets how often the harts check their debug lines.
func (b Builder) WithPollInterval(n int) Builder {
	b.pollInterval = n
	return b
}

// WithRAMSize sets the size of the main memory.
func (b Builder) WithRAMSize(size uint64) Builder {
	b.ramSize = size
	return b
}

// WithROM sets the boot sequence served by the debug module.
func (b Builder) WithROM(rom []byte) Builder {
	b.rom = rom
	return b
}

// Build creates a platform.
func (b Builder) Build(name string) *Platform {
	if b.sim == nil {
		b.sim = simulation.MakeBuilder().Build()
	}

	engine := b.sim.GetEngine()
	p := &Platform{Simulation: b.sim}

	p.DM = debug.MakeBuilder().
		WithEngine(engine).
		WithConfig(b.config).
		WithROM(b.rom).
		Build(name + ".DM")

	p.Host = host.NewAgent(name+".Host", engine, b.hostFreq)
	p.Host.SetDst(p.DM.TopPort())

	hostConn := sim.NewDirectConnection(name+".HostConn", engine, b.hostFreq)
	hostConn.PlugIn(p.Host.Port())
	hostConn.PlugIn(p.DM.TopPort())

	p.RAM = idealmemcontroller.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.hartFreq).
		WithLatency(b.ramLatency).
		WithNewStorage(b.ramSize).
		WithBase(RAMBase).
		Build(name + ".RAM")

	bus := sim.NewDirectConnection(name+".SystemBus", engine, b.hartFreq)
	bus.PlugIn(p.DM.HartPort())
	bus.PlugIn(p.RAM.TopPort())

	mapper := &mem.RangeAddressPortMapper{}
	mapper.AddRange(0, DMSize, p.DM.HartPort())
	mapper.AddRange(RAMBase, RAMBase+b.ramSize, p.RAM.TopPort())

	for i := 0; i < b.config.NumHarts; i++ {
		h := hart.MakeBuilder().
			WithEngine(engine).
			WithFreq(b.hartFreq).
			WithID(uint32(i)).
			WithPollInterval(b.pollInterval).
			WithDebugLines(p.DM).
			Build(fmt.Sprintf("%s.Hart[%d]", name, i))
		h.SetAddressToPortMapper(mapper)
		bus.PlugIn(h.Port())
		p.Harts = append(p.Harts, h)
	}

	b.register(p)

	return p
}

func (b Builder) register(p *Platform) {
	b.sim.RegisterComponent(p.Host)

	for _, c := range p.DM.Components() {
		b.sim.RegisterComponent(c)
	}

	for _, h := range p.Harts {
		b.sim.RegisterComponent(h)
	}

	b.sim.RegisterComponent(p.RAM)
}

// Start lets the harts run.
func (p *Platform) Start() {
	for _, h := range p.Harts {
		h.TickLater()
	}
}
