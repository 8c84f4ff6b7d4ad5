package vm

import (
	"fmt"
	"sort"
)

// A PTE is an entry in the page table, maintaining the information about how
// to translate a virtual page to a physical frame.
type PTE struct {
	Valid bool
	Frame FrameIndex
}

// A PageTable is the only authority on whether a page is resident.
type PageTable interface {
	// Find returns the frame holding the page. The bool return value indicates
	// if the page is resident.
	Find(page PageNumber) (FrameIndex, bool)

	// Insert marks the page valid and maps it to frame.
	Insert(page PageNumber, frame FrameIndex)

	// Remove marks the page invalid.
	Remove(page PageNumber)

	// NumValid returns the number of resident pages.
	NumValid() int

	// ValidPages returns the resident pages in ascending order.
	ValidPages() []PageNumber
}

// NewPageTable creates a PageTable covering numPages pages, all invalid.
func NewPageTable(numPages uint32) PageTable {
	return &pageTableImpl{
		entries:     make([]PTE, numPages),
		frameOwners: make(map[FrameIndex]PageNumber),
	}
}

// pageTableImpl is the default implementation of a Page Table
type pageTableImpl struct {
	entries     []PTE
	frameOwners map[FrameIndex]PageNumber
}

func (pt *pageTableImpl) Find(page PageNumber) (FrameIndex, bool) {
	pt.pageMustBeInRange(page)

	entry := pt.entries[page]
	if !entry.Valid {
		return NoFrame, false
	}

	return entry.Frame, true
}

func (pt *pageTableImpl) Insert(page PageNumber, frame FrameIndex) {
	pt.pageMustBeInRange(page)
	pt.pageMustNotBeValid(page)

	if owner, taken := pt.frameOwners[frame]; taken {
		panic(fmt.Sprintf("frame %d already mapped by page %d", frame, owner))
	}

	pt.entries[page] = PTE{Valid: true, Frame: frame}
	pt.frameOwners[frame] = page
}

func (pt *pageTableImpl) Remove(page PageNumber) {
	pt.pageMustBeInRange(page)
	pt.pageMustBeValid(page)

	delete(pt.frameOwners, pt.entries[page].Frame)
	pt.entries[page] = PTE{Frame: NoFrame}
}

func (pt *pageTableImpl) NumValid() int {
	return len(pt.frameOwners)
}

func (pt *pageTableImpl) ValidPages() []PageNumber {
	pages := make([]PageNumber, 0, len(pt.frameOwners))
	for _, page := range pt.frameOwners {
		pages = append(pages, page)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

	return pages
}

func (pt *pageTableImpl) pageMustBeInRange(page PageNumber) {
	if int(page) >= len(pt.entries) {
		panic(fmt.Sprintf("page %d out of range", page))
	}
}

func (pt *pageTableImpl) pageMustBeValid(page PageNumber) {
	if !pt.entries[page].Valid {
		panic("page does not exist")
	}
}

func (pt *pageTableImpl) pageMustNotBeValid(page PageNumber) {
	if pt.entries[page].Valid {
		panic("page exist")
	}
}
