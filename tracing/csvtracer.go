package tracing

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/xid"
	"github.com/sarchlab/memsim/hooking"
	"github.com/tebeka/atexit"
)

const csvHeader = "ID, Index, Kind, Where, Page, Frame, Address\n"

// CSVTracer is a hook that stores the traced events into a CSV file.
type CSVTracer struct {
	path string
	file *os.File
	out  *bufio.Writer

	events     []Event
	bufferSize int
}

// NewCSVTracer creates a CSVTracer that writes to path.csv. Init must be
// called before use. An empty path picks a unique name.
func NewCSVTracer(path string) *CSVTracer {
	return &CSVTracer{
		path:       path,
		bufferSize: 1000,
	}
}

// NewCSVTracerWithWriter creates a CSVTracer that writes into w. The header is
// written immediately.
func NewCSVTracerWithWriter(w io.Writer) *CSVTracer {
	t := &CSVTracer{
		out:        bufio.NewWriter(w),
		bufferSize: 1000,
	}

	fmt.Fprint(t.out, csvHeader)

	return t
}

// Init creates the tracing CSV file. It fails if the file already exists.
func (t *CSVTracer) Init() error {
	if t.path == "" {
		t.path = "memsim_trace_" + xid.New().String()
	}

	filename := t.Path()

	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	t.file = file
	t.out = bufio.NewWriter(file)

	fmt.Fprint(t.out, csvHeader)

	atexit.Register(func() {
		if err := t.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close trace: %v\n", err)
		}
	})

	return nil
}

// Path returns the name of the CSV file.
func (t *CSVTracer) Path() string {
	return t.path + ".csv"
}

// Func records the event carried by the hook context.
func (t *CSVTracer) Func(ctx hooking.HookCtx) {
	evt, ok := EventFromHookCtx(ctx)
	if !ok {
		return
	}

	t.events = append(t.events, evt)
	if len(t.events) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered events out.
func (t *CSVTracer) Flush() {
	if t.out == nil {
		return
	}

	for _, evt := range t.events {
		fmt.Fprintf(t.out, "%s, %d, %s, %s, %d, %d, %d\n",
			evt.ID,
			evt.Index,
			evt.Kind,
			evt.Where,
			evt.Page,
			evt.Frame,
			evt.Address,
		)
	}

	t.events = nil

	if err := t.out.Flush(); err != nil {
		panic(err)
	}
}

// Close flushes and closes the file. It is safe to call more than once.
func (t *CSVTracer) Close() error {
	t.Flush()

	if t.file == nil {
		return nil
	}

	err := t.file.Close()
	t.file = nil
	t.out = nil

	return err
}
