package sim

import (
	"log"
	"reflect"
)

// LogHookBase provides the common logic for all hooks that write into a
// logger.
type LogHookBase struct {
	*log.Logger
}

// EventLogger is a hook that prints the event information.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which will write into the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	comp, ok := evt.Handler().(Named)
	if ok {
		h.Printf("%.10f, %s -> %s",
			evt.Time(), reflect.TypeOf(evt), comp.Name())
	} else {
		h.Printf("%.10f, %s", evt.Time(), reflect.TypeOf(evt))
	}
}

// PortMsgLogger is a hook for logging messages as they go across a Port
type PortMsgLogger struct {
	LogHookBase
}

// NewPortMsgLogger returns a new PortMsgLogger which will write into the
// logger
func NewPortMsgLogger(logger *log.Logger) *PortMsgLogger {
	h := new(PortMsgLogger)
	h.Logger = logger

	return h
}

// Func writes the message information into the logger
func (h *PortMsgLogger) Func(ctx HookCtx) {
	msg, ok := ctx.Item.(Msg)
	if !ok {
		return
	}

	port, ok := ctx.Domain.(Port)
	if !ok {
		return
	}

	h.Printf("%.10f,%s,%s,%s,%s,%s,%s",
		ctx.Now, port.Name(),
		ctx.Pos.Name,
		msg.Meta().Src.Name(),
		msg.Meta().Dst.Name(),
		reflect.TypeOf(msg), msg.Meta().ID)
}
