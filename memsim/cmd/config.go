package cmd

import (
	"os"
	"strconv"

	"github.com/sarchlab/memsim/memory"
	"github.com/sarchlab/memsim/replacement"
	"github.com/sarchlab/memsim/vm"
	"github.com/spf13/cobra"
)

const (
	numPages        = 256
	maxPageSize     = 1 << 16
	defaultFrames   = memory.MaxFrames
	defaultPRA      = replacement.FIFO
	defaultTLBSize  = 16
	defaultPageSize = 256
)

type config struct {
	refFile string
	frames  int
	pra     replacement.Kind

	backingStore string
	tlbEntries   int
	pageSize     int

	debug    bool
	dumpPage bool
	check    bool

	trace      bool
	traceFile  string
	record     bool
	recordFile string

	monitor     bool
	monitorPort int
	openBrowser bool
}

func defaultConfig() *config {
	return &config{
		frames: defaultFrames,
		pra:    defaultPRA,
	}
}

func (c *config) bindFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.IntVarP(&c.pageSize, "page-size", "p", defaultPageSize,
		"Page and frame size in bytes, a power of two.")

	f := cmd.Flags()
	f.StringVar(&c.backingStore, "backing-store", "BACKING_STORE.bin",
		"Image that pages are read from on faults.")
	f.IntVarP(&c.tlbEntries, "tlb-entries", "t", defaultTLBSize,
		"Number of TLB entries. 0 disables the TLB.")
	f.BoolVarP(&c.debug, "debug", "d", false,
		"Log page faults and evictions to stderr.")
	f.BoolVar(&c.dumpPage, "dump-page", false,
		"Append the content of the frame to every line.")
	f.BoolVar(&c.check, "check", false,
		"Verify the TLB and the page table after every translation.")
	f.BoolVar(&c.trace, "trace", false,
		"Write every translation event into a CSV file.")
	f.StringVar(&c.traceFile, "trace-file", "",
		"Path of the CSV trace without extension. Default is unique.")
	f.BoolVar(&c.record, "record", false,
		"Record the results into a SQLite database.")
	f.StringVar(&c.recordFile, "record-file", "",
		"Path of the database without extension. Default is unique.")
	f.BoolVar(&c.monitor, "monitor", false,
		"Serve a web page to watch and pause the run.")
	f.IntVar(&c.monitorPort, "monitor-port", 0,
		"Port of the monitor. Default is a random port.")
	f.BoolVar(&c.openBrowser, "open-browser", false,
		"Open the monitor in a browser. Implies --monitor.")
}

func (c *config) parseArgs(args []string) error {
	c.refFile = args[0]

	if len(args) > 1 {
		frames, err := strconv.Atoi(args[1])
		if err != nil {
			return configError("frames", args[1], "must be an integer")
		}

		c.frames = frames
	}

	if len(args) > 2 {
		kind, err := replacement.ParseKind(args[2])
		if err != nil {
			return err
		}

		c.pra = kind
	}

	return nil
}

func (c *config) validate() error {
	if c.frames < 1 || c.frames > memory.MaxFrames {
		return configError("frames", strconv.Itoa(c.frames),
			"must be in [1, 256]")
	}

	if err := validatePageSize(c.pageSize); err != nil {
		return err
	}

	if c.tlbEntries < 0 {
		return configError("tlb-entries", strconv.Itoa(c.tlbEntries),
			"must not be negative")
	}

	if c.trace && c.traceFile != "" {
		if err := mustNotExist("trace-file", c.traceFile+".csv"); err != nil {
			return err
		}
	}

	if c.record && c.recordFile != "" {
		if err := mustNotExist("record-file", c.recordFile+".sqlite3"); err != nil {
			return err
		}
	}

	if c.openBrowser {
		c.monitor = true
	}

	return nil
}

func mustNotExist(field, filename string) error {
	if _, err := os.Stat(filename); err == nil {
		return configError(field, filename, "file already exists")
	}

	return nil
}

// describe reports the settings that shape the results.
func (c *config) describe(record func(property, value string)) {
	record("Reference File", c.refFile)
	record("Frames", strconv.Itoa(c.frames))
	record("PRA", string(c.pra))
	record("TLB Entries", strconv.Itoa(c.tlbEntries))
	record("Page Size", strconv.Itoa(c.pageSize))
	record("Backing Store", c.backingStore)
}

func validatePageSize(pageSize int) error {
	if pageSize < 1 || pageSize > maxPageSize || pageSize&(pageSize-1) != 0 {
		return configError("page-size", strconv.Itoa(pageSize),
			"must be a power of two no larger than 65536")
	}

	return nil
}

func configError(field, value, reason string) error {
	return &vm.ConfigError{Field: field, Value: value, Reason: reason}
}
