package platform

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/sarchlab/dmsim/debug/inner"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// LogOptions selects what the platform logs.
type LogOptions struct {
	Events bool
	Msgs   bool
	FSM    bool
}

// AttachLoggers makes the platform write into the logger.
func (p *Platform) AttachLoggers(logger *log.Logger, o LogOptions) {
	if o.Events {
		p.Engine().AcceptHook(sim.NewEventLogger(logger))
	}

	if o.Msgs {
		h := sim.NewPortMsgLogger(logger)
		for _, c := range p.Simulation.Components() {
			for _, port := range c.Ports() {
				port.AcceptHook(h)
			}
		}
	}

	if o.FSM {
		p.DM.Inner.AcceptHook(inner.NewStateLogger(logger))
	}
}

// Stats summarizes the control-bus traffic and the abstract commands of a
// platform.
type Stats struct {
	reqLatency *tracing.AverageTimeTracer
	cmdLatency *tracing.AverageTimeTracer
	cmdBusy    *tracing.BusyTimeTracer
	cmdSteps   *tracing.StepCountTracer
}

// CollectStats starts collecting statistics.
func (p *Platform) CollectStats() *Stats {
	engine := p.Engine()

	s := &Stats{
		reqLatency: tracing.NewAverageTimeTracer(
			engine, tracing.KindFilter("req_out")),
		cmdLatency: tracing.NewAverageTimeTracer(
			engine, tracing.KindFilter("cmd")),
		cmdBusy:  tracing.NewBusyTimeTracer(engine, tracing.KindFilter("cmd")),
		cmdSteps: tracing.NewStepCountTracer(tracing.KindFilter("cmd")),
	}

	tracing.CollectTrace(p.Host, s.reqLatency)
	tracing.CollectTrace(p.DM.Inner, s.cmdLatency)
	tracing.CollectTrace(p.DM.Inner, s.cmdBusy)
	tracing.CollectTrace(p.DM.Inner, s.cmdSteps)

	return s
}

// Requests returns the number of completed control-bus requests.
func (s *Stats) Requests() uint64 {
	return s.reqLatency.TotalCount()
}

// Commands returns the number of completed abstract commands.
func (s *Stats) Commands() uint64 {
	return s.cmdLatency.TotalCount()
}

// Report writes the statistics.
func (s *Stats) Report(w io.Writer) {
	fmt.Fprintf(w, "requests: %d, average latency %.3f ns, max %.3f ns\n",
		s.reqLatency.TotalCount(),
		float64(s.reqLatency.AverageTime())*1e9,
		float64(s.reqLatency.MaxTime())*1e9)
	fmt.Fprintf(w, "commands: %d, average latency %.3f ns, busy %.3f ns\n",
		s.cmdLatency.TotalCount(),
		float64(s.cmdLatency.AverageTime())*1e9,
		float64(s.cmdBusy.BusyTime())*1e9)

	names := s.cmdSteps.GetStepNames()
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %d steps in %d commands\n",
			name,
			s.cmdSteps.GetStepCount(name),
			s.cmdSteps.GetTaskCount(name))
	}
}
