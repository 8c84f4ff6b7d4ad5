// Package simulation drives an address stream through a translation engine
// and reports the results.
package simulation

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sarchlab/memsim/translation"
)

// A Finisher is notified once a run has translated every address.
type Finisher interface {
	Finish(stats translation.Stats)
}

// Options controls what a Simulation prints and checks.
type Options struct {
	// DumpPage appends the content of the frame to every result line.
	DumpPage bool

	// CheckCoherence verifies the engine state after every translation.
	CheckCoherence bool

	Logger *slog.Logger
}

// A Simulation translates a sequence of logical addresses, one at a time.
type Simulation struct {
	mu     sync.Mutex
	engine *translation.Engine
	addrs  []uint32
	out    *bufio.Writer
	opts   Options

	pauseLock sync.Mutex
	resumed   *sync.Cond
	paused    bool

	done      int
	finishers []Finisher
}

// New creates a Simulation that writes its report to out.
func New(
	engine *translation.Engine,
	addrs []uint32,
	out io.Writer,
	opts Options,
) *Simulation {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Simulation{
		engine: engine,
		addrs:  addrs,
		out:    bufio.NewWriter(out),
		opts:   opts,
	}
	s.resumed = sync.NewCond(&s.pauseLock)

	return s
}

// Name returns the name of the engine being driven.
func (s *Simulation) Name() string {
	return s.engine.Name()
}

// Engine returns the engine being driven.
func (s *Simulation) Engine() *translation.Engine {
	return s.engine
}

// RegisterFinisher adds an object to notify when the run completes.
func (s *Simulation) RegisterFinisher(f Finisher) {
	s.finishers = append(s.finishers, f)
}

// Run translates every address in order, printing one line per address and
// the summary. It stops at the first error, after flushing what has been
// printed so far.
func (s *Simulation) Run() (translation.Stats, error) {
	s.opts.Logger.Info("simulation started",
		"engine", s.engine.Name(), "addresses", len(s.addrs))

	for i, addr := range s.addrs {
		s.waitIfPaused()

		err := s.step(i, addr)
		if err != nil {
			s.flush()
			return s.Stats(), err
		}
	}

	stats := s.Stats()

	err := WriteSummary(s.out, stats)
	if err != nil {
		return stats, err
	}

	if err := s.out.Flush(); err != nil {
		return stats, err
	}

	for _, f := range s.finishers {
		f.Finish(stats)
	}

	s.opts.Logger.Info("simulation completed",
		"translated", stats.Translated,
		"page_faults", stats.PageFaults,
		"tlb_hits", stats.TLBHits)

	return stats, nil
}

func (s *Simulation) step(index int, addr uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.engine.Translate(addr, index)
	if err != nil {
		return err
	}

	if s.opts.CheckCoherence {
		if err := s.engine.CheckCoherence(); err != nil {
			return fmt.Errorf("after reference %d: %w", index, err)
		}
	}

	var page []byte
	if s.opts.DumpPage {
		page = s.engine.Storage().ReadFrame(res.Frame)
	}

	s.done = index + 1

	return WriteResult(s.out, res, page)
}

func (s *Simulation) flush() {
	if err := s.out.Flush(); err != nil {
		s.opts.Logger.Error("failed to flush output", "error", err)
	}
}

// Pause stops the run before the next address is translated.
func (s *Simulation) Pause() {
	s.pauseLock.Lock()
	defer s.pauseLock.Unlock()

	s.paused = true
}

// Continue resumes a paused run.
func (s *Simulation) Continue() {
	s.pauseLock.Lock()
	defer s.pauseLock.Unlock()

	s.paused = false
	s.resumed.Broadcast()
}

// IsPaused tells if the run is currently held by Pause.
func (s *Simulation) IsPaused() bool {
	s.pauseLock.Lock()
	defer s.pauseLock.Unlock()

	return s.paused
}

func (s *Simulation) waitIfPaused() {
	s.pauseLock.Lock()
	defer s.pauseLock.Unlock()

	for s.paused {
		s.resumed.Wait()
	}
}

// WithLock runs f while no translation is in progress.
func (s *Simulation) WithLock(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f()
}

// Stats returns the counters of the engine.
func (s *Simulation) Stats() translation.Stats {
	var stats translation.Stats

	s.WithLock(func() {
		stats = s.engine.Stats()
	})

	return stats
}

// Progress returns how many addresses have been translated and how many there
// are in total.
func (s *Simulation) Progress() (done, total int) {
	s.WithLock(func() {
		done = s.done
	})

	return done, len(s.addrs)
}
