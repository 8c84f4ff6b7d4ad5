package replacement

import (
	"container/list"

	"github.com/sarchlab/memsim/vm"
)

type lruEntry struct {
	page      vm.PageNumber
	lastVisit int
}

// LRUVictimFinder evicts the least recently used page.
//
// The visit list is kept in recency order, the least recently used page at
// the front. A touched page moves to the back, so pages that were touched
// earlier always stay ahead of the ones touched later.
type LRUVictimFinder struct {
	visitList *list.List
	index     map[vm.PageNumber]*list.Element
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	return &LRUVictimFinder{
		visitList: list.New(),
		index:     make(map[vm.PageNumber]*list.Element),
	}
}

// Name returns "LRU".
func (l *LRUVictimFinder) Name() string {
	return string(LRU)
}

// FindVictim returns the least recently used resident page.
func (l *LRUVictimFinder) FindVictim(_ int) vm.PageNumber {
	mustHaveCandidates(l.visitList.Len())

	return l.visitList.Front().Value.(*lruEntry).page
}

// Admit makes the page the most recently used one.
func (l *LRUVictimFinder) Admit(page vm.PageNumber, index int) {
	if _, found := l.index[page]; found {
		panic("page admitted twice")
	}

	l.index[page] = l.visitList.PushBack(&lruEntry{page: page, lastVisit: index})
}

// Visit moves the page to the most recently used end.
func (l *LRUVictimFinder) Visit(page vm.PageNumber, index int) {
	elem, found := l.index[page]
	if !found {
		return
	}

	elem.Value.(*lruEntry).lastVisit = index
	l.visitList.MoveToBack(elem)
}

// Remove drops the page from the visit list.
func (l *LRUVictimFinder) Remove(page vm.PageNumber) {
	elem, found := l.index[page]
	if !found {
		return
	}

	l.visitList.Remove(elem)
	delete(l.index, page)
}

// LastVisit returns the index of the last reference that touched page.
func (l *LRUVictimFinder) LastVisit(page vm.PageNumber) (int, bool) {
	elem, found := l.index[page]
	if !found {
		return 0, false
	}

	return elem.Value.(*lruEntry).lastVisit, true
}

// Order returns the resident pages from the least to the most recently used.
func (l *LRUVictimFinder) Order() []vm.PageNumber {
	pages := make([]vm.PageNumber, 0, l.visitList.Len())
	for e := l.visitList.Front(); e != nil; e = e.Next() {
		pages = append(pages, e.Value.(*lruEntry).page)
	}

	return pages
}
