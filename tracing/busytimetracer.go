package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/dmsim/sim"
)

type interval struct {
	start, end sim.VTimeInSec
}

// BusyTimeTracer measures how long a domain is processing a kind of task.
// Overlapping tasks count once.
type BusyTimeTracer struct {
	lock          sync.Mutex
	timeTeller    sim.TimeTeller
	filter        TaskFilter
	inflightTasks map[string]sim.VTimeInSec
	finished      []interval
}

// NewBusyTimeTracer creates a new BusyTimeTracer. A nil filter accepts all
// the tasks.
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]sim.VTimeInSec),
	}
}

// StartTask records the task start time
func (t *BusyTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.inflightTasks[task.ID] = now
	t.lock.Unlock()
}

// StepTask does nothing
func (t *BusyTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *BusyTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	delete(t.inflightTasks, task.ID)
	t.finished = append(t.finished, interval{
		start: start,
		end:   t.timeTeller.CurrentTime(),
	})
}

// TerminateAllTasks ends all the inflight tasks at the current time.
func (t *BusyTimeTracer) TerminateAllTasks() {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.timeTeller.CurrentTime()
	for id, start := range t.inflightTasks {
		t.finished = append(t.finished, interval{start: start, end: now})
		delete(t.inflightTasks, id)
	}
}

// BusyTime returns the union of the finished task intervals.
func (t *BusyTimeTracer) BusyTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	intervals := append([]interval(nil), t.finished...)
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	busy := sim.VTimeInSec(0)

	var curr *interval

	for i := range intervals {
		iv := intervals[i]

		if curr != nil && iv.start <= curr.end {
			if iv.end > curr.end {
				curr.end = iv.end
			}

			continue
		}

		if curr != nil {
			busy += curr.end - curr.start
		}

		curr = &iv
	}

	if curr != nil {
		busy += curr.end - curr.start
	}

	return busy
}
