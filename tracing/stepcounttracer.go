package tracing

import (
	"sync"
)

// StepCountTracer counts how many times each step is reached by the tasks
// that pass the filter.
type StepCountTracer struct {
	filter            TaskFilter
	lock              sync.Mutex
	inflightTasks     map[string][]string
	stepNames         []string
	stepCount         map[string]uint64
	taskWithStepCount map[string]uint64
}

// NewStepCountTracer creates a new StepCountTracer
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	return &StepCountTracer{
		filter:            filter,
		inflightTasks:     make(map[string][]string),
		stepCount:         make(map[string]uint64),
		taskWithStepCount: make(map[string]uint64),
	}
}

// GetStepNames returns all the step names collected, in the order they are
// first seen.
func (t *StepCountTracer) GetStepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stepNames...)
}

// GetStepCount returns the number of times a step is reached.
func (t *StepCountTracer) GetStepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepCount[stepName]
}

// GetTaskCount returns the number of tasks that reached a step at least once.
func (t *StepCountTracer) GetTaskCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskWithStepCount[stepName]
}

// StartTask starts counting the steps of a task.
func (t *StepCountTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = nil
	t.lock.Unlock()
}

// StepTask counts the step if the task is being traced.
func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	seen, ok := t.inflightTasks[task.ID]
	if !ok || len(task.Steps) == 0 {
		return
	}

	what := task.Steps[0].What

	if _, known := t.stepCount[what]; !known {
		t.stepNames = append(t.stepNames, what)
	}

	t.stepCount[what]++

	for _, s := range seen {
		if s == what {
			return
		}
	}

	t.taskWithStepCount[what]++
	t.inflightTasks[task.ID] = append(seen, what)
}

// EndTask stops tracing the task.
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.inflightTasks, task.ID)
	t.lock.Unlock()
}
