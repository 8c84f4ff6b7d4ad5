package translation

import (
	"log/slog"

	"github.com/sarchlab/memsim/memory"
	"github.com/sarchlab/memsim/replacement"
	"github.com/sarchlab/memsim/vm"
	"github.com/sarchlab/memsim/vm/tlb"
)

// A Builder can build translation engines.
type Builder struct {
	log2PageSize  uint32
	numPages      uint32
	numFrames     int
	numTLBEntries int
	backingStore  memory.BackingStore
	victimFinder  replacement.VictimFinder
	logger        *slog.Logger
}

// MakeBuilder returns a Builder with 256-byte pages, 256 pages, 256 frames and
// a 16-entry TLB.
func MakeBuilder() Builder {
	return Builder{
		log2PageSize:  8,
		numPages:      256,
		numFrames:     256,
		numTLBEntries: 16,
	}
}

// WithLog2PageSize sets the page size as a power of 2.
func (b Builder) WithLog2PageSize(n uint32) Builder {
	b.log2PageSize = n
	return b
}

// WithPageSize sets the page size. It panics if n is not a power of 2.
func (b Builder) WithPageSize(n uint64) Builder {
	b.log2PageSize = vm.Log2(n)
	return b
}

// WithNumPages sets the number of pages in the address space.
func (b Builder) WithNumPages(n uint32) Builder {
	b.numPages = n
	return b
}

// WithNumFrames sets the number of physical frames.
func (b Builder) WithNumFrames(n int) Builder {
	b.numFrames = n
	return b
}

// WithNumTLBEntries sets the capacity of the TLB.
func (b Builder) WithNumTLBEntries(n int) Builder {
	b.numTLBEntries = n
	return b
}

// WithBackingStore sets where pages are read from on faults.
func (b Builder) WithBackingStore(s memory.BackingStore) Builder {
	b.backingStore = s
	return b
}

// WithVictimFinder sets the page replacement policy.
func (b Builder) WithVictimFinder(f replacement.VictimFinder) Builder {
	b.victimFinder = f
	return b
}

// WithLogger sets the logger that receives page fault and eviction events.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build creates a new Engine.
func (b Builder) Build(name string) *Engine {
	if b.backingStore == nil {
		panic("backing store is not set")
	}

	if b.victimFinder == nil {
		panic("victim finder is not set")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	decoder := vm.NewAddressDecoder(b.log2PageSize, b.numPages)

	return &Engine{
		name:    name,
		decoder: decoder,
		tlb: tlb.MakeBuilder().
			WithNumEntries(b.numTLBEntries).
			Build(name + ".TLB"),
		pageTable:    vm.NewPageTable(b.numPages),
		storage:      memory.NewStorage(b.numFrames, int(decoder.PageSize())),
		backingStore: b.backingStore,
		victimFinder: b.victimFinder,
		logger:       logger.With("component", name),
	}
}
