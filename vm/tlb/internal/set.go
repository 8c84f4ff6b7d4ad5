// Package internal provides the definition required for defining TLB.
package internal

import (
	"container/list"

	"github.com/sarchlab/memsim/vm"
)

// An Entry is one cached translation.
type Entry struct {
	Page  vm.PageNumber
	Frame vm.FrameIndex
}

// A Set holds a certain number of entries, ordered by insertion time.
type Set interface {
	Lookup(page vm.PageNumber) (frame vm.FrameIndex, found bool)
	Insert(page vm.PageNumber, frame vm.FrameIndex)
	Remove(page vm.PageNumber) bool
	Evict() (entry Entry, ok bool)
	Len() int
	Entries() []Entry
}

// NewSet creates a new TLB set.
func NewSet() Set {
	return &setImpl{
		order: list.New(),
		index: make(map[vm.PageNumber]*list.Element),
	}
}

// setImpl keeps entries in a list for the age order and in a map for fast
// lookups.
type setImpl struct {
	order *list.List
	index map[vm.PageNumber]*list.Element
}

func (s *setImpl) Lookup(page vm.PageNumber) (vm.FrameIndex, bool) {
	elem, found := s.index[page]
	if !found {
		return vm.NoFrame, false
	}

	return elem.Value.(Entry).Frame, true
}

// Insert appends the entry as the youngest one. Re-inserting an existing page
// updates its frame but keeps its age.
func (s *setImpl) Insert(page vm.PageNumber, frame vm.FrameIndex) {
	if elem, found := s.index[page]; found {
		elem.Value = Entry{Page: page, Frame: frame}
		return
	}

	s.index[page] = s.order.PushBack(Entry{Page: page, Frame: frame})
}

func (s *setImpl) Remove(page vm.PageNumber) bool {
	elem, found := s.index[page]
	if !found {
		return false
	}

	s.order.Remove(elem)
	delete(s.index, page)

	return true
}

// Evict removes the oldest entry.
func (s *setImpl) Evict() (Entry, bool) {
	front := s.order.Front()
	if front == nil {
		return Entry{}, false
	}

	entry := s.order.Remove(front).(Entry)
	delete(s.index, entry.Page)

	return entry, true
}

func (s *setImpl) Len() int {
	return s.order.Len()
}

// Entries returns the entries from the oldest to the youngest.
func (s *setImpl) Entries() []Entry {
	entries := make([]Entry, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		entries = append(entries, e.Value.(Entry))
	}

	return entries
}
