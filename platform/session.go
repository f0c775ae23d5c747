package platform

import (
	"fmt"

	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/debug/host"
	"github.com/sarchlab/dmsim/monitoring"
	"github.com/sarchlab/dmsim/sim"
)

// Result is the outcome of a step. Rsp is the last response that the step
// received, if any.
type Result struct {
	Step Step
	Rsp  *dmi.Rsp
	Time sim.VTimeInSec
	Err  error
}

func (r Result) String() string {
	s := fmt.Sprintf("[%.9f] %s", float64(r.Time), r.Step)

	if r.Rsp != nil {
		s += fmt.Sprintf(" -> %s 0x%08x", r.Rsp.Kind, r.Rsp.Data)
	}

	if r.Err != nil {
		s += fmt.Sprintf(" (%v)", r.Err)
	}

	return s
}

// A Session executes steps on a platform, one after another.
type Session struct {
	p *Platform

	slice    sim.VTimeInSec
	timeout  sim.VTimeInSec
	maxPolls int
}

// NewSession creates a session and lets the harts of the platform run.
func NewSession(p *Platform) *Session {
	p.Start()

	return &Session{
		p:        p,
		slice:    100 * hostPeriod(p),
		timeout:  100000 * hostPeriod(p),
		maxPolls: 64,
	}
}

func hostPeriod(p *Platform) sim.VTimeInSec {
	return p.Host.Freq.Period()
}

// Run executes the steps of a script in order. It stops at the first step
// that fails.
func (s *Session) Run(script Script) ([]Result, error) {
	var bar *monitoring.ProgressBar

	monitor := s.p.Simulation.GetMonitor()
	if monitor != nil {
		bar = monitor.CreateProgressBar(script.Name, uint64(len(script.Steps)))
		defer monitor.CompleteProgressBar(bar)
	}

	results := make([]Result, 0, len(script.Steps))

	for i, step := range script.Steps {
		r := s.Do(step)
		results = append(results, r)

		if bar != nil {
			bar.IncrementFinished(1)
		}

		if r.Err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i, step, r.Err)
		}
	}

	return results, nil
}

// Do executes one step.
func (s *Session) Do(step Step) Result {
	r := Result{Step: step}

	switch step.Op {
	case OpRead:
		r.Rsp, r.Err = s.transact(s.p.Host.Read(uint32(step.Addr)))
		if r.Err == nil {
			r.Err = checkExpect(step, r.Rsp)
		}
	case OpWrite:
		r.Rsp, r.Err = s.transact(s.p.Host.Write(uint32(step.Addr), step.Data))
	case OpProbe:
		r.Rsp, r.Err = s.transact(s.p.Host.Probe(uint32(step.Addr)))
	case OpHalt:
		r.Rsp, r.Err = s.halt(step.Hart)
	case OpResume:
		r.Rsp, r.Err = s.resume(step.Hart)
	case OpWait:
		r.Err = s.runFor(sim.VTimeInSec(step.Cycles) * hostPeriod(s.p))
	case OpReset:
		r.Rsp, r.Err = s.reset()
	default:
		r.Err = fmt.Errorf("unknown op %q", step.Op)
	}

	r.Time = s.p.Engine().CurrentTime()

	return r
}

func checkExpect(step Step, rsp *dmi.Rsp) error {
	if step.Expect == nil {
		return nil
	}

	mask := ^uint32(0)
	if step.Mask != nil {
		mask = *step.Mask
	}

	if rsp.Kind != dmi.RspSuccess {
		return fmt.Errorf("read failed with %s", rsp.Kind)
	}

	if rsp.Data&mask != *step.Expect&mask {
		return fmt.Errorf("expected 0x%08x, got 0x%08x (mask 0x%08x)",
			*step.Expect&mask, rsp.Data&mask, mask)
	}

	return nil
}

func (s *Session) transact(t *host.Transaction) (*dmi.Rsp, error) {
	deadline := s.p.Engine().CurrentTime() + s.timeout

	for !t.Done() {
		if s.p.Engine().CurrentTime() >= deadline {
			return nil, fmt.Errorf("no response to %s", t.Req)
		}

		err := s.runFor(s.slice)
		if err != nil {
			return nil, err
		}
	}

	return t.Rsp, nil
}

func (s *Session) runFor(d sim.VTimeInSec) error {
	engine := s.p.Engine()
	return engine.RunUntil(engine.CurrentTime() + d)
}

func (s *Session) halt(hart uint32) (*dmi.Rsp, error) {
	ctrl := dmi.DMControl{DMActive: true, HaltReq: true, HartSel: hart}

	return s.controlAndPoll(ctrl, func(st dmi.DMStatus) bool {
		return st.AllHalted
	})
}

func (s *Session) resume(hart uint32) (*dmi.Rsp, error) {
	ctrl := dmi.DMControl{DMActive: true, ResumeReq: true, HartSel: hart}

	return s.controlAndPoll(ctrl, func(st dmi.DMStatus) bool {
		return st.AllResumeAck
	})
}

func (s *Session) controlAndPoll(
	ctrl dmi.DMControl,
	done func(dmi.DMStatus) bool,
) (*dmi.Rsp, error) {
	rsp, err := s.transact(s.p.Host.Write(dmi.AddrDMControl, ctrl.Encode()))
	if err != nil {
		return nil, err
	}

	if rsp.Kind != dmi.RspSuccess {
		return rsp, fmt.Errorf("dmcontrol write failed with %s", rsp.Kind)
	}

	for i := 0; i < s.maxPolls; i++ {
		rsp, err = s.transact(s.p.Host.Read(dmi.AddrDMStatus))
		if err != nil {
			return nil, err
		}

		st := dmi.DecodeDMStatus(rsp.Data)
		if st.AnyNonExistent {
			return rsp, fmt.Errorf("hart %d does not exist", ctrl.HartSel)
		}

		if done(st) {
			return rsp, nil
		}
	}

	return rsp, fmt.Errorf("hart %d did not respond after %d polls",
		ctrl.HartSel, s.maxPolls)
}

func (s *Session) reset() (*dmi.Rsp, error) {
	_, err := s.transact(s.p.Host.Write(dmi.AddrDMControl, 0))
	if err != nil {
		return nil, err
	}

	ctrl := dmi.DMControl{DMActive: true}

	return s.transact(s.p.Host.Write(dmi.AddrDMControl, ctrl.Encode()))
}
