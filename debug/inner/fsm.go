package inner

import (
	"fmt"
	"log"
)

// State is a state of the abstract command state machine.
type State int

// The states of the abstract command state machine.
const (
	StateWaiting State = iota
	StateCheckGenerate
	StatePreExec
	StateAbstract
	StatePostExec
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StateCheckGenerate:
		return "CheckGenerate"
	case StatePreExec:
		return "PreExec"
	case StateAbstract:
		return "Abstract"
	case StatePostExec:
		return "PostExec"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Busy tells if a command is being processed in the state.
func (s State) Busy() bool {
	return s != StateWaiting
}

// WaitsForHart tells if the state is waiting for the hart that runs the command to report
// back.
func (s State) WaitsForHart() bool {
	return s == StatePreExec || s == StateAbstract || s == StatePostExec
}

// Event drives the state machine.
type Event int

// The events of the state machine.
const (
	// EventCommand registers a command, written or re-armed.
	EventCommand Event = iota
	// EventReject means the registered command cannot run.
	EventReject
	// EventRunProgBuf starts with the program buffer.
	EventRunProgBuf
	// EventRunAbstract starts with the synthesized instructions.
	EventRunAbstract
	// EventHalted is a halt notification from the hart that runs the command.
	EventHalted
	// EventFallThrough is the go acknowledgement of a command whose
	// synthesized instructions run on into the program buffer. It takes the
	// place of a second go pulse for the program buffer after the halt.
	EventFallThrough
	// EventException is an exception notification from the hart that runs the command.
	EventException
	// EventDeactivate forces the machine back to waiting.
	EventDeactivate
)

func (e Event) String() string {
	switch e {
	case EventCommand:
		return "Command"
	case EventReject:
		return "Reject"
	case EventRunProgBuf:
		return "RunProgBuf"
	case EventRunAbstract:
		return "RunAbstract"
	case EventHalted:
		return "Halted"
	case EventFallThrough:
		return "FallThrough"
	case EventException:
		return "Exception"
	case EventDeactivate:
		return "Deactivate"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

var transitions = map[State]map[Event]State{
	StateWaiting: {
		EventCommand: StateCheckGenerate,
	},
	StateCheckGenerate: {
		EventReject:      StateWaiting,
		EventRunProgBuf:  StatePreExec,
		EventRunAbstract: StateAbstract,
	},
	StatePreExec: {
		EventHalted:    StateAbstract,
		EventException: StateWaiting,
	},
	StateAbstract: {
		EventHalted:      StateWaiting,
		EventFallThrough: StatePostExec,
		EventException:   StateWaiting,
	},
	StatePostExec: {
		EventHalted:    StateWaiting,
		EventException: StateWaiting,
	},
}

// Transition is a change of state.
type Transition struct {
	From  State
	To    State
	Event Event
}

// FSM is the abstract command state machine. It only knows which moves are
// legal; the component decides when to fire events.
type FSM struct {
	state State
}

// State returns the current state.
func (f *FSM) State() State {
	return f.state
}

// Accepts tells if the event causes a transition in the current state.
func (f *FSM) Accepts(e Event) bool {
	if e == EventDeactivate {
		return true
	}

	_, ok := transitions[f.state][e]

	return ok
}

// Fire moves the machine. Firing an event that the current state does not
// accept is a programming error.
func (f *FSM) Fire(e Event) Transition {
	t := Transition{From: f.state, Event: e}

	if e == EventDeactivate {
		f.state = StateWaiting
		t.To = f.state

		return t
	}

	next, ok := transitions[f.state][e]
	if !ok {
		log.Panicf("state %s does not accept event %s", f.state, e)
	}

	f.state = next
	t.To = next

	return t
}
