// Package crossing provides the only paths between the persistent and the
// resettable clock domains of the debug module: a handoff queue for control
// events and a store-and-forward connection for protocol messages.
package crossing

import (
	"log"
	"sync"

	"github.com/sarchlab/dmsim/sim"
)

// HookPosHandoffPush marks when an item enters the handoff queue.
var HookPosHandoffPush = &sim.HookPos{Name: "Handoff Push"}

// HookPosHandoffPop marks when the consumer takes an item out.
var HookPosHandoffPop = &sim.HookPos{Name: "Handoff Pop"}

// A Waker can be asked to tick again.
type Waker interface {
	TickLater()
}

type handoffSlot[T any] struct {
	item       T
	stagesLeft int
}

// Handoff carries items from a producer domain to a consumer domain. An item
// becomes visible to the consumer after it has been shifted through the
// synchronizer stages by the consumer's own ticks. At most depth items can be
// in flight, and every pushed item is popped exactly once.
type Handoff[T any] struct {
	sim.HookableBase

	lock       sync.Mutex
	name       string
	depth      int
	syncStages int
	slots      []handoffSlot[T]
	consumer   Waker
}

// NewHandoff creates a handoff queue.
func NewHandoff[T any](name string, depth, syncStages int) *Handoff[T] {
	if depth <= 0 {
		log.Panicf("handoff %s: depth must be positive, got %d", name, depth)
	}

	if syncStages < 0 {
		log.Panicf("handoff %s: negative synchronizer stages", name)
	}

	return &Handoff[T]{
		name:       name,
		depth:      depth,
		syncStages: syncStages,
	}
}

// Name returns the name of the queue.
func (h *Handoff[T]) Name() string {
	return h.name
}

// SetConsumer registers the component that pops from the queue. It is woken
// up whenever an item is pushed.
func (h *Handoff[T]) SetConsumer(c Waker) {
	h.consumer = c
}

// CanPush tells if the producer can push another item.
func (h *Handoff[T]) CanPush() bool {
	h.lock.Lock()
	defer h.lock.Unlock()

	return len(h.slots) < h.depth
}

// Len returns the number of items in flight.
func (h *Handoff[T]) Len() int {
	h.lock.Lock()
	defer h.lock.Unlock()

	return len(h.slots)
}

// Push hands an item over. It panics if the queue is full, so producers must
// check CanPush first.
func (h *Handoff[T]) Push(item T) {
	h.lock.Lock()

	if len(h.slots) >= h.depth {
		h.lock.Unlock()
		log.Panicf("handoff %s overflow", h.name)
	}

	h.slots = append(h.slots, handoffSlot[T]{
		item:       item,
		stagesLeft: h.syncStages,
	})
	h.lock.Unlock()

	h.invoke(HookPosHandoffPush, item)

	if h.consumer != nil {
		h.consumer.TickLater()
	}
}

// Tick shifts the items through the synchronizer. It is called by the
// consumer once per consumer cycle and reports if anything moved.
func (h *Handoff[T]) Tick() bool {
	h.lock.Lock()
	defer h.lock.Unlock()

	madeProgress := false

	for i := range h.slots {
		if h.slots[i].stagesLeft > 0 {
			h.slots[i].stagesLeft--
			madeProgress = true
		}
	}

	return madeProgress
}

// Pop takes the oldest item out if it has passed every stage.
func (h *Handoff[T]) Pop() (T, bool) {
	h.lock.Lock()

	var zero T

	if len(h.slots) == 0 || h.slots[0].stagesLeft > 0 {
		h.lock.Unlock()
		return zero, false
	}

	item := h.slots[0].item
	h.slots = h.slots[1:]
	h.lock.Unlock()

	h.invoke(HookPosHandoffPop, item)

	return item, true
}

func (h *Handoff[T]) invoke(pos *sim.HookPos, item T) {
	if h.NumHooks() == 0 {
		return
	}

	h.InvokeHook(sim.HookCtx{
		Domain: h,
		Pos:    pos,
		Item:   item,
	})
}
