package replacement

import (
	"sort"

	"github.com/sarchlab/memsim/vm"
)

// OPTVictimFinder evicts the resident page whose next use lies the farthest in
// the future. It needs the whole reference string up front.
type OPTVictimFinder struct {
	refs     vm.ReferenceString
	resident map[vm.PageNumber]struct{}
}

// NewOPTVictimFinder creates an OPT evictor that looks ahead in refs.
func NewOPTVictimFinder(refs vm.ReferenceString) *OPTVictimFinder {
	return &OPTVictimFinder{
		refs:     refs,
		resident: make(map[vm.PageNumber]struct{}),
	}
}

// Name returns "OPT".
func (o *OPTVictimFinder) Name() string {
	return string(OPT)
}

// FindVictim scans the references after index.
func (o *OPTVictimFinder) FindVictim(index int) vm.PageNumber {
	mustHaveCandidates(len(o.resident))

	return FarthestInFuture(o.Resident(), o.refs.After(index))
}

// Admit adds the page to the resident set.
func (o *OPTVictimFinder) Admit(page vm.PageNumber, _ int) {
	if _, found := o.resident[page]; found {
		panic("page admitted twice")
	}

	o.resident[page] = struct{}{}
}

// Visit does nothing; OPT only looks forward.
func (o *OPTVictimFinder) Visit(vm.PageNumber, int) {}

// Remove drops the page from the resident set.
func (o *OPTVictimFinder) Remove(page vm.PageNumber) {
	delete(o.resident, page)
}

// Resident returns the resident pages in ascending order.
func (o *OPTVictimFinder) Resident() []vm.PageNumber {
	pages := make([]vm.PageNumber, 0, len(o.resident))
	for p := range o.resident {
		pages = append(pages, p)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

	return pages
}

// FarthestInFuture picks, among the candidates, the page whose first
// occurrence in future is the latest. Pages that never occur again win over
// any page that does; among those the lowest page number is chosen.
func FarthestInFuture(
	candidates []vm.PageNumber,
	future vm.ReferenceString,
) vm.PageNumber {
	mustHaveCandidates(len(candidates))

	nextUse := make(map[vm.PageNumber]int, len(candidates))
	for _, p := range candidates {
		nextUse[p] = -1
	}

	pending := len(nextUse)
	victim := candidates[0]

	for i, p := range future {
		pos, isCandidate := nextUse[p]
		if !isCandidate || pos >= 0 {
			continue
		}

		nextUse[p] = i
		victim = p

		pending--
		if pending == 0 {
			// Every candidate is used again; the last one found is the
			// farthest.
			return victim
		}
	}

	found := false
	for _, p := range candidates {
		if nextUse[p] >= 0 {
			continue
		}

		if !found || p < victim {
			victim = p
			found = true
		}
	}

	return victim
}
