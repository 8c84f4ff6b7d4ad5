// Package replacement decides which resident page leaves physical memory when
// a page fault needs a frame and none is free.
package replacement

import (
	"github.com/sarchlab/memsim/vm"
)

// A VictimFinder decides which page should be evicted.
//
// The finder is told about every page that becomes resident (Admit), every
// successful translation (Visit) and every eviction (Remove). FindVictim is
// only called while at least one page is resident.
type VictimFinder interface {
	// FindVictim returns the page to evict when translating the reference at
	// index.
	FindVictim(index int) vm.PageNumber

	// Admit records that page became resident while translating the
	// reference at index.
	Admit(page vm.PageNumber, index int)

	// Visit records that the reference at index touched page.
	Visit(page vm.PageNumber, index int)

	// Remove records that page is no longer resident.
	Remove(page vm.PageNumber)

	// Name returns the algorithm name.
	Name() string
}

// Kind selects a replacement algorithm.
type Kind string

// The supported replacement algorithms.
const (
	FIFO Kind = "FIFO"
	LRU  Kind = "LRU"
	OPT  Kind = "OPT"
)

// Kinds lists the supported algorithms.
var Kinds = []Kind{FIFO, LRU, OPT}

// ParseKind maps an algorithm name to its Kind. Names are case sensitive.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}

	return "", &vm.ConfigError{
		Field:  "PRA",
		Value:  name,
		Reason: "must be one of FIFO, LRU, OPT",
	}
}

// New creates the VictimFinder of the given kind. Only OPT uses refs.
func New(kind Kind, refs vm.ReferenceString) VictimFinder {
	switch kind {
	case FIFO:
		return NewFIFOVictimFinder()
	case LRU:
		return NewLRUVictimFinder()
	case OPT:
		return NewOPTVictimFinder(refs)
	default:
		panic("unknown replacement algorithm " + string(kind))
	}
}

func mustHaveCandidates(n int) {
	if n == 0 {
		panic("no resident page to evict")
	}
}
