package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the program was run into the exec_info
// table.
type ExecRecorder struct {
	tablename string
	recorder  DataRecorder
	entries   []ExecInfo
}

// NewExecRecorder creates an ExecRecorder and its table.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		tablename: "exec_info",
		recorder:  recorder,
	}

	recorder.CreateTable(e.tablename, ExecInfo{})

	return e
}

// Start records the start time, the command line and the working directory.
func (e *ExecRecorder) Start() {
	e.Record("Start Time", now())
	e.Record("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err == nil {
		e.Record("Working Directory", cwd)
	}
}

// Record adds a property to be written at End.
func (e *ExecRecorder) Record(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the collected properties along with the end time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(e.tablename, entry)
	}

	e.recorder.InsertData(e.tablename, ExecInfo{"End Time", now()})

	e.entries = nil

	e.recorder.Flush()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
