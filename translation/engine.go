// Package translation runs the per-address translation pipeline: decode, TLB,
// page table, page fault handling and eviction.
package translation

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/memsim/hooking"
	"github.com/sarchlab/memsim/memory"
	"github.com/sarchlab/memsim/replacement"
	"github.com/sarchlab/memsim/vm"
	"github.com/sarchlab/memsim/vm/tlb"
)

// HookPosTranslated is triggered once per successful translation. The item is
// the Result.
var HookPosTranslated = &hooking.HookPos{Name: "Translated"}

// HookPosPageFault is triggered after a faulted page is installed. The item is
// a PageEvent.
var HookPosPageFault = &hooking.HookPos{Name: "PageFault"}

// HookPosEvict is triggered after a page has been evicted. The item is a
// PageEvent carrying the frame the page gave up.
var HookPosEvict = &hooking.HookPos{Name: "Evict"}

// PageEvent describes a page moving in or out of a frame while translating the
// reference at Index.
type PageEvent struct {
	Index int
	Page  vm.PageNumber
	Frame vm.FrameIndex
}

// Result is the outcome of translating one logical address.
type Result struct {
	Index           int
	Address         uint32
	Page            vm.PageNumber
	Offset          uint32
	Frame           vm.FrameIndex
	PhysicalAddress uint32
	Value           byte
	TLBHit          bool
	PageFault       bool
	Evicted         *vm.PageNumber
}

// SignedValue returns the byte read, sign-extended.
func (r Result) SignedValue() int32 {
	return int32(int8(r.Value))
}

// Engine owns the translation state of one address stream. It is not safe for
// concurrent use.
type Engine struct {
	hooking.HookableBase

	name         string
	decoder      vm.AddressDecoder
	tlb          *tlb.Comp
	pageTable    vm.PageTable
	storage      *memory.Storage
	backingStore memory.BackingStore
	victimFinder replacement.VictimFinder
	logger       *slog.Logger

	stats Stats
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// Decoder returns the address decoder.
func (e *Engine) Decoder() vm.AddressDecoder {
	return e.decoder
}

// TLB returns the translation cache.
func (e *Engine) TLB() *tlb.Comp {
	return e.tlb
}

// PageTable returns the page table.
func (e *Engine) PageTable() vm.PageTable {
	return e.pageTable
}

// Storage returns the physical memory.
func (e *Engine) Storage() *memory.Storage {
	return e.storage
}

// VictimFinder returns the replacement policy.
func (e *Engine) VictimFinder() replacement.VictimFinder {
	return e.victimFinder
}

// Stats returns the counters collected so far.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Translate translates the logical address found at position index of the
// reference sequence. On error the pages, frames, mappings and counters are
// left as they were.
func (e *Engine) Translate(addr uint32, index int) (Result, error) {
	page, offset, err := e.decoder.Decode(addr)
	if err != nil {
		return Result{}, fmt.Errorf("reference %d: %w", index, err)
	}

	res := Result{
		Index:   index,
		Address: addr,
		Page:    page,
		Offset:  offset,
	}

	frame, hit := e.tlb.Lookup(page)
	if hit {
		res.TLBHit = true
		e.stats.TLBHits++
	} else {
		frame, err = e.resolveMiss(page, index, &res)
		if err != nil {
			return Result{}, fmt.Errorf(
				"reference %d (address %d): %w", index, addr, err)
		}

		e.stats.TLBMisses++
		e.tlb.Insert(page, frame)
	}

	e.victimFinder.Visit(page, index)

	res.Frame = frame
	res.PhysicalAddress = uint32(frame)*e.decoder.PageSize() + offset
	res.Value = e.storage.ByteAt(frame, offset)

	e.stats.Translated++

	e.invoke(HookPosTranslated, res, nil)

	return res, nil
}

func (e *Engine) resolveMiss(
	page vm.PageNumber,
	index int,
	res *Result,
) (vm.FrameIndex, error) {
	frame, found := e.pageTable.Find(page)
	if found {
		return frame, nil
	}

	return e.handlePageFault(page, index, res)
}

// handlePageFault brings the page in. Nothing is evicted until the page has
// been fetched.
func (e *Engine) handlePageFault(
	page vm.PageNumber,
	index int,
	res *Result,
) (vm.FrameIndex, error) {
	data, err := e.backingStore.FetchPage(page)
	if err != nil {
		return vm.NoFrame, err
	}

	frame, free := e.storage.AllocateFrame()
	if !free {
		victim := e.victimFinder.FindVictim(index)
		frame = e.evict(victim, index)
		res.Evicted = &victim
	}

	e.storage.Write(frame, page, data)
	e.pageTable.Insert(page, frame)
	e.victimFinder.Admit(page, index)

	res.PageFault = true
	e.stats.PageFaults++

	e.logger.Debug("page fault",
		"index", index, "page", page, "frame", frame)
	e.invoke(HookPosPageFault, PageEvent{Index: index, Page: page, Frame: frame}, nil)

	return frame, nil
}

// evict removes every trace of the victim before its frame is handed over.
func (e *Engine) evict(victim vm.PageNumber, index int) vm.FrameIndex {
	frame, found := e.pageTable.Find(victim)
	if !found {
		panic(fmt.Sprintf("victim page %d is not resident", victim))
	}

	e.tlb.Invalidate(victim)
	e.pageTable.Remove(victim)
	e.victimFinder.Remove(victim)

	e.stats.Evictions++

	e.logger.Debug("evict", "page", victim, "frame", frame)
	e.invoke(HookPosEvict, PageEvent{Index: index, Page: victim, Frame: frame}, nil)

	return frame
}

// CheckCoherence verifies that the TLB, the page table and the physical memory
// agree with each other.
func (e *Engine) CheckCoherence() error {
	for _, entry := range e.tlb.Entries() {
		frame, valid := e.pageTable.Find(entry.Page)
		if !valid {
			return fmt.Errorf("TLB caches page %d which is not resident",
				entry.Page)
		}

		if frame != entry.Frame {
			return fmt.Errorf("TLB maps page %d to frame %d, page table to %d",
				entry.Page, entry.Frame, frame)
		}
	}

	numValid := e.pageTable.NumValid()
	if numValid > e.storage.NumFrames() {
		return fmt.Errorf("%d resident pages exceed %d frames",
			numValid, e.storage.NumFrames())
	}

	if numValid != e.storage.NumUsedFrames() {
		return fmt.Errorf("%d resident pages but %d frames in use",
			numValid, e.storage.NumUsedFrames())
	}

	for _, page := range e.pageTable.ValidPages() {
		frame, _ := e.pageTable.Find(page)

		held, occupied := e.storage.PageAt(frame)
		if !occupied || held != page {
			return fmt.Errorf("page %d maps to frame %d which holds page %d",
				page, frame, held)
		}
	}

	return nil
}

func (e *Engine) invoke(pos *hooking.HookPos, item, detail interface{}) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
