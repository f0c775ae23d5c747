package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the name of the table that holds execution information.
const ExecInfoTable = "exec_info"

// ExecInfo is a property of the program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records when and how the program is executed.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the execution info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{recorder: recorder}
	recorder.CreateTable(ExecInfoTable, ExecInfo{})

	return e
}

// Start logs the start time, the command line, and the working directory.
func (e *ExecRecorder) Start() {
	e.add("Start Time", now())
	e.add("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err == nil {
		e.add("Working Directory", cwd)
	}
}

// AddProperty logs an extra property, such as a configuration value.
func (e *ExecRecorder) AddProperty(property, value string) {
	e.add(property, value)
}

// End writes the buffered properties together with the end time.
func (e *ExecRecorder) End() {
	e.add("End Time", now())

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}

func (e *ExecRecorder) add(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
