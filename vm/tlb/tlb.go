// Package tlb provides a translation lookaside buffer model.
package tlb

import (
	"github.com/sarchlab/memsim/hooking"
	"github.com/sarchlab/memsim/vm"
	"github.com/sarchlab/memsim/vm/tlb/internal"
)

// HookPosTLBHit marks a lookup that found the page.
var HookPosTLBHit = &hooking.HookPos{Name: "TLBHit"}

// HookPosTLBMiss marks a lookup that did not find the page.
var HookPosTLBMiss = &hooking.HookPos{Name: "TLBMiss"}

// HookPosTLBEvict marks the removal of the oldest entry to make room.
var HookPosTLBEvict = &hooking.HookPos{Name: "TLBEvict"}

// HookPosTLBInvalidate marks the removal of an entry whose page was evicted
// from physical memory.
var HookPosTLBInvalidate = &hooking.HookPos{Name: "TLBInvalidate"}

// Comp is a cache(TLB) that maintains some page information. Entries age out
// in insertion order, independent of the page replacement policy.
type Comp struct {
	hooking.HookableBase

	name       string
	numEntries int

	Set internal.Set

	hits   uint64
	misses uint64
}

// Name returns the name of the TLB.
func (c *Comp) Name() string {
	return c.name
}

// NumEntries returns the capacity of the TLB.
func (c *Comp) NumEntries() int {
	return c.numEntries
}

// Reset sets all the entries in the TLB to be invalid and clears counters.
func (c *Comp) Reset() {
	c.Set = internal.NewSet()
	c.hits = 0
	c.misses = 0
}

// Lookup probes the TLB. Every call counts as either a hit or a miss.
func (c *Comp) Lookup(page vm.PageNumber) (vm.FrameIndex, bool) {
	frame, found := c.Set.Lookup(page)
	if !found {
		c.misses++
		c.invoke(HookPosTLBMiss, page, vm.NoFrame)

		return vm.NoFrame, false
	}

	c.hits++
	c.invoke(HookPosTLBHit, page, frame)

	return frame, true
}

// Insert caches a translation, evicting the oldest entry when full.
func (c *Comp) Insert(page vm.PageNumber, frame vm.FrameIndex) {
	if c.numEntries == 0 {
		return
	}

	if _, found := c.Set.Lookup(page); !found && c.Set.Len() >= c.numEntries {
		evicted, ok := c.Set.Evict()
		if ok {
			c.invoke(HookPosTLBEvict, evicted.Page, evicted.Frame)
		}
	}

	c.Set.Insert(page, frame)
}

// Invalidate drops the entry of a page, if present. It reports whether an
// entry was removed.
func (c *Comp) Invalidate(page vm.PageNumber) bool {
	frame, found := c.Set.Lookup(page)
	if !found {
		return false
	}

	c.Set.Remove(page)
	c.invoke(HookPosTLBInvalidate, page, frame)

	return true
}

// Entries returns the cached translations, oldest first.
func (c *Comp) Entries() []internal.Entry {
	return c.Set.Entries()
}

// Hits returns the number of lookups that found their page.
func (c *Comp) Hits() uint64 {
	return c.hits
}

// Misses returns the number of lookups that did not find their page.
func (c *Comp) Misses() uint64 {
	return c.misses
}

func (c *Comp) invoke(pos *hooking.HookPos, page vm.PageNumber, frame vm.FrameIndex) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   page,
		Detail: frame,
	})
}
