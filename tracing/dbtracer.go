package tracing

import (
	"sync"

	"github.com/sarchlab/dmsim/datarecording"
	"github.com/sarchlab/dmsim/sim"
	"github.com/tebeka/atexit"
)

// TraceTable is the table that the DBTracer writes finished tasks into.
const TraceTable = "trace"

// TraceStepTable is the table that the DBTracer writes task steps into.
const TraceStepTable = "trace_steps"

// TaskEntry is a row of the trace table.
type TaskEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
}

// StepEntry is a row of the trace step table.
type StepEntry struct {
	TaskID string
	What   string
	Time   float64
}

// DBTracer is a tracer that stores tasks into a database.
type DBTracer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	startTime, endTime sim.VTimeInSec

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TraceTable, TaskEntry{})
	dataRecorder.CreateTable(TraceStepTable, StepEntry{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() { t.Terminate() })

	return t
}

// SetTimeRange limits the tasks recorded to the ones that overlap the range.
// A zero end time means no upper limit.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

// StepTask records a step of a traced task.
func (t *DBTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.tracingTasks[task.ID]; !ok {
		return
	}

	now := t.timeTeller.CurrentTime()
	for _, step := range task.Steps {
		t.backend.InsertData(TraceStepTable, StepEntry{
			TaskID: task.ID,
			What:   step.What,
			Time:   float64(now),
		})
	}
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	original.EndTime = t.timeTeller.CurrentTime()
	if t.startTime > 0 && original.EndTime < t.startTime {
		return
	}

	t.write(original)
}

// Terminate writes the unfinished tasks, ending them at the current time, and
// flushes the backend.
func (t *DBTracer) Terminate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.timeTeller.CurrentTime()
	for id, task := range t.tracingTasks {
		task.EndTime = now
		t.write(task)
		delete(t.tracingTasks, id)
	}

	t.backend.Flush()
}

func (t *DBTracer) write(task Task) {
	t.backend.InsertData(TraceTable, TaskEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
	})
}
