// Package inner models the resettable clock domain of the debug module: the
// register file, the abstract command state machine, and the memory that the
// harts execute from while they are halted.
package inner

import (
	"log"

	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// Domain is where a core reports its hooks and tasks.
type Domain interface {
	tracing.NamedHookable
	sim.TimeTeller
}

// Hook positions of the inner domain.
var (
	// HookPosStateChange carries a Transition.
	HookPosStateChange = &sim.HookPos{Name: "DM State Change"}
	// HookPosCmdErr carries the dmi.CmdErr that was raised.
	HookPosCmdErr = &sim.HookPos{Name: "DM Command Error"}
	// HookPosGo carries the GoTarget of a go pulse.
	HookPosGo = &sim.HookPos{Name: "DM Go"}
)

// Core holds the registers and the state machine of the resettable domain.
// It does not know about ports; the component feeds it with control-bus
// accesses, hart accesses, and control events.
type Core struct {
	domain Domain

	nHarts int
	rom    []byte

	active    bool
	selected  uint32
	target    uint32
	halted    []bool
	unavail   []bool
	resumeAck bool

	data    *Scratch
	progBuf *Scratch

	command     uint32
	cmdErr      dmi.CmdErr
	autoData    uint32
	autoProgBuf uint32

	fsm       FSM
	goReq     bool
	resumeReq bool
	whereTo   uint32
	abstract  [2]uint32

	taskID string
}

// NewCore creates a core. The core starts inactive.
func NewCore(
	domain Domain,
	nHarts, nDataWords, nProgBufWords int,
	rom []byte,
) *Core {
	c := &Core{
		domain:  domain,
		nHarts:  nHarts,
		rom:     rom,
		halted:  make([]bool, nHarts),
		unavail: make([]bool, nHarts),
		data:    NewScratch(nDataWords),
		progBuf: NewScratch(nProgBufWords),
	}

	c.data.SetObserver(func(word int, write bool) bool {
		return c.observe(c.autoData, word, write)
	})
	c.progBuf.SetObserver(func(word int, write bool) bool {
		return c.observe(c.autoProgBuf, word, write)
	})

	return c
}

// Active tells if the core has been activated by the control word.
func (c *Core) Active() bool {
	return c.active
}

// State returns the state of the state machine.
func (c *Core) State() State {
	return c.fsm.State()
}

// Busy tells if a command is in flight.
func (c *Core) Busy() bool {
	return c.fsm.State().Busy()
}

// CmdErr returns the error of the last command.
func (c *Core) CmdErr() dmi.CmdErr {
	return c.cmdErr
}

// Selected returns the selected hart.
func (c *Core) Selected() uint32 {
	return c.selected
}

// Target returns the hart that the last command or resume request was
// issued to. A new selection does not move a command that is in flight.
func (c *Core) Target() uint32 {
	return c.target
}

// Halted tells if the core has seen the hart halt.
func (c *Core) Halted(hart int) bool {
	if hart < 0 || hart >= c.nHarts {
		return false
	}

	return c.halted[hart]
}

// SetUnavailable marks a hart as unavailable or available.
func (c *Core) SetUnavailable(hart int, unavailable bool) {
	if hart < 0 || hart >= c.nHarts {
		return
	}

	c.unavail[hart] = unavailable
}

// Apply handles a control event that crossed from the persistent domain.
func (c *Core) Apply(evt crossing.ControlEvent) {
	if !evt.Active {
		c.deactivate()
		return
	}

	c.active = true
	c.selected = evt.HartSel

	if evt.ResumeReq {
		c.requestResume()
	}
}

func (c *Core) deactivate() {
	if c.fsm.State().Busy() {
		c.fire(EventDeactivate)
	}

	c.active = false
	c.selected = 0

	for i := range c.halted {
		c.halted[i] = false
	}

	c.resetRegisters()
}

// Reset returns every register of the domain to its reset value. The
// selection and the active state come from the persistent domain and are
// kept.
func (c *Core) Reset() {
	if c.fsm.State().Busy() {
		c.fire(EventDeactivate)
	}

	for i := range c.halted {
		c.halted[i] = false
	}

	c.resetRegisters()
}

func (c *Core) resetRegisters() {
	c.resumeAck = false
	c.data.Reset()
	c.progBuf.Reset()
	c.command = 0
	c.cmdErr = dmi.CmdErrNone
	c.autoData = 0
	c.autoProgBuf = 0
	c.goReq = false
	c.resumeReq = false
	c.whereTo = 0
	c.abstract = [2]uint32{}
	c.target = 0
}

func (c *Core) requestResume() {
	c.resumeAck = false

	if c.fsm.State().Busy() {
		log.Printf("%s: resume request ignored while busy", c.domain.Name())
		return
	}

	if !c.Halted(int(c.selected)) {
		return
	}

	c.target = c.selected
	c.resumeReq = true
	c.pulse(GoResume)
}

// observe is called on every control-bus access to a scratch word. An
// access while busy is an error and a write is dropped. Otherwise an
// access to a word with its auto-repeat bit set re-arms the command.
func (c *Core) observe(mask uint32, word int, _ bool) bool {
	if c.fsm.State().Busy() {
		c.raise(dmi.CmdErrBusy)
		return false
	}

	if mask&(1<<uint(word)) != 0 {
		c.startCommand()
	}

	return true
}

func (c *Core) startCommand() {
	if c.cmdErr != dmi.CmdErrNone {
		return
	}

	c.target = c.selected

	cmd := dmi.DecodeCommand(c.command)
	c.taskID = sim.GetIDGenerator().Generate()
	tracing.StartTask(c.taskID, "", c.domain, "cmd", cmd.String(), cmd)

	c.fire(EventCommand)
}

// Step runs the part of the state machine that does not wait for anyone. It
// returns true if the state changed.
func (c *Core) Step() bool {
	if c.fsm.State() != StateCheckGenerate {
		return false
	}

	cmd := dmi.DecodeCommand(c.command)

	err := c.validate(cmd)
	if err != dmi.CmdErrNone {
		c.raise(err)
		c.fire(EventReject)

		return true
	}

	if cmd.PreExec {
		c.fire(EventRunProgBuf)
		c.pulse(GoProgBuf)
	} else {
		c.fire(EventRunAbstract)
		c.pulse(GoAbstract)
	}

	return true
}

func (c *Core) validate(cmd dmi.Command) dmi.CmdErr {
	switch {
	case cmd.CmdType != dmi.CmdAccessRegister:
		return dmi.CmdErrNotSupported
	case cmd.Size > dmi.Size32:
		return dmi.CmdErrNotSupported
	case cmd.RegNo < dmi.RegNoGPR0 || cmd.RegNo > dmi.RegNoGPRMax:
		return dmi.CmdErrNotSupported
	case (cmd.PreExec || cmd.PostExec) && c.progBuf.Words() == 0:
		return dmi.CmdErrNotSupported
	case !c.Halted(int(c.target)):
		return dmi.CmdErrHaltResume
	}

	return dmi.CmdErrNone
}

// pulse sets the go or resume flag of the target hart and points WHERETO
// at the matching entry.
func (c *Core) pulse(t GoTarget) {
	c.whereTo = WhereTo(t)

	if t != GoResume {
		c.abstract = AbstractProgram(dmi.DecodeCommand(c.command))
		c.goReq = true
	}

	c.invoke(HookPosGo, t)
}

func (c *Core) raise(e dmi.CmdErr) {
	if c.cmdErr != dmi.CmdErrNone && e.Priority() <= c.cmdErr.Priority() {
		return
	}

	c.cmdErr = e
	c.invoke(HookPosCmdErr, e)
}

func (c *Core) fire(e Event) {
	t := c.fsm.Fire(e)
	c.invoke(HookPosStateChange, t)

	if c.taskID == "" {
		return
	}

	if t.To == StateWaiting {
		tracing.EndTask(c.taskID, c.domain)
		c.taskID = ""

		return
	}

	tracing.AddTaskStep(c.taskID, c.domain, t.To.String())
}

func (c *Core) invoke(pos *sim.HookPos, item interface{}) {
	if c.domain.NumHooks() == 0 {
		return
	}

	c.domain.InvokeHook(sim.HookCtx{
		Domain: c.domain,
		Now:    c.domain.CurrentTime(),
		Pos:    pos,
		Item:   item,
	})
}
