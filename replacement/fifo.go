package replacement

import (
	"container/list"

	"github.com/sarchlab/memsim/vm"
)

// FIFOVictimFinder evicts the page that was loaded the earliest, no matter how
// it has been used since.
type FIFOVictimFinder struct {
	queue *list.List
	index map[vm.PageNumber]*list.Element
}

// NewFIFOVictimFinder returns a newly constructed FIFO evictor.
func NewFIFOVictimFinder() *FIFOVictimFinder {
	return &FIFOVictimFinder{
		queue: list.New(),
		index: make(map[vm.PageNumber]*list.Element),
	}
}

// Name returns "FIFO".
func (f *FIFOVictimFinder) Name() string {
	return string(FIFO)
}

// FindVictim returns the head of the load queue.
func (f *FIFOVictimFinder) FindVictim(_ int) vm.PageNumber {
	mustHaveCandidates(f.queue.Len())

	return f.queue.Front().Value.(vm.PageNumber)
}

// Admit appends the page to the tail of the load queue.
func (f *FIFOVictimFinder) Admit(page vm.PageNumber, _ int) {
	if _, found := f.index[page]; found {
		panic("page admitted twice")
	}

	f.index[page] = f.queue.PushBack(page)
}

// Visit does nothing; accesses do not change the load order.
func (f *FIFOVictimFinder) Visit(vm.PageNumber, int) {}

// Remove drops the page from the load queue.
func (f *FIFOVictimFinder) Remove(page vm.PageNumber) {
	elem, found := f.index[page]
	if !found {
		return
	}

	f.queue.Remove(elem)
	delete(f.index, page)
}

// Queue returns the resident pages from the earliest loaded to the latest.
func (f *FIFOVictimFinder) Queue() []vm.PageNumber {
	pages := make([]vm.PageNumber, 0, f.queue.Len())
	for e := f.queue.Front(); e != nil; e = e.Next() {
		pages = append(pages, e.Value.(vm.PageNumber))
	}

	return pages
}
