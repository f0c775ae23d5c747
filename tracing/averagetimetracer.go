package tracing

import (
	"sync"

	"github.com/sarchlab/dmsim/sim"
)

// AverageTimeTracer collects the average latency of a certain type of task.
type AverageTimeTracer struct {
	timeTeller    sim.TimeTeller
	filter        TaskFilter
	lock          sync.Mutex
	totalTime     sim.VTimeInSec
	maxTime       sim.VTimeInSec
	inflightTasks map[string]sim.VTimeInSec
	taskCount     uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]sim.VTimeInSec),
	}
}

// AverageTime returns the average time spent on each finished task.
func (t *AverageTimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / sim.VTimeInSec(t.taskCount)
}

// MaxTime returns the longest task time observed.
func (t *AverageTimeTracer) MaxTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxTime
}

// TotalCount returns the total number of finished tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records the task start time
func (t *AverageTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.inflightTasks[task.ID] = now
	t.lock.Unlock()
}

// StepTask does nothing
func (t *AverageTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *AverageTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	taskTime := t.timeTeller.CurrentTime() - start
	if taskTime > t.maxTime {
		t.maxTime = taskTime
	}

	t.totalTime += taskTime
	t.taskCount++
	delete(t.inflightTasks, task.ID)
}
