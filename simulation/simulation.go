// Package simulation holds the services that a simulation run shares: the
// engine, the trace database, the monitor, and the registry of components.
package simulation

import (
	"log"

	"github.com/sarchlab/dmsim/datarecording"
	"github.com/sarchlab/dmsim/monitoring"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id     string
	engine sim.Engine

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	tracer       *tracing.DBTracer
	monitor      *monitoring.Monitor

	components    []sim.Component
	compNameIndex map[string]int
	ports         []sim.Port
	portNameIndex map[string]int
}

// ID returns the unique ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder, or nil if tracing is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetTracer returns the tracer, or nil if tracing is off.
func (s *Simulation) GetTracer() *tracing.DBTracer {
	return s.tracer
}

// RegisterComponent registers a component with the simulation. The
// component is traced and monitored if the simulation does so.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		log.Panicf("component %s already registered", compName)
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	for _, p := range c.Ports() {
		s.registerPort(p)
	}

	if s.tracer != nil {
		tracing.CollectTrace(c, s.tracer)
	}

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

func (s *Simulation) registerPort(p sim.Port) {
	portName := p.Name()
	if _, found := s.portNameIndex[portName]; found {
		log.Panicf("port %s already registered", portName)
	}

	s.ports = append(s.ports, p)
	s.portNameIndex[portName] = len(s.ports) - 1
}

// Components returns every registered component in registration order.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// GetPortByName returns the port with the given name, or nil.
func (s *Simulation) GetPortByName(name string) sim.Port {
	i, found := s.portNameIndex[name]
	if !found {
		return nil
	}

	return s.ports[i]
}

// AddProperty records a property of the run, such as a configuration value.
func (s *Simulation) AddProperty(property, value string) {
	if s.execRecorder != nil {
		s.execRecorder.AddProperty(property, value)
	}
}

// Terminate flushes the trace database and closes it.
func (s *Simulation) Terminate() {
	if s.dataRecorder == nil {
		return
	}

	s.tracer.Terminate()
	s.execRecorder.End()

	err := s.dataRecorder.Close()
	if err != nil {
		log.Printf("closing %s: %v", s.id, err)
	}
}

// StartMonitor starts serving the monitor and returns its port. It returns 0
// if monitoring is off.
func (s *Simulation) StartMonitor() int {
	if s.monitor == nil {
		return 0
	}

	return s.monitor.StartServer()
}
