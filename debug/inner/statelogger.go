package inner

import (
	"log"

	"github.com/sarchlab/dmsim/debug/dmi"
	"github.com/sarchlab/dmsim/sim"
)

// StateLogger prints the transitions, errors, and go pulses of an inner
// component.
type StateLogger struct {
	sim.LogHookBase
}

// NewStateLogger creates a StateLogger that writes into the logger.
func NewStateLogger(logger *log.Logger) *StateLogger {
	h := new(StateLogger)
	h.Logger = logger

	return h
}

// Func writes one line per event.
func (h *StateLogger) Func(ctx sim.HookCtx) {
	name := ""
	if named, ok := ctx.Domain.(sim.Named); ok {
		name = named.Name()
	}

	switch ctx.Pos {
	case HookPosStateChange:
		t := ctx.Item.(Transition)
		h.Printf("%.10f, %s, %s -> %s on %s",
			ctx.Now, name, t.From, t.To, t.Event)
	case HookPosCmdErr:
		h.Printf("%.10f, %s, cmderr %s", ctx.Now, name, ctx.Item.(dmi.CmdErr))
	case HookPosGo:
		h.Printf("%.10f, %s, go %s", ctx.Now, name, ctx.Item.(GoTarget))
	}
}
