package tlb

import "fmt"

// A Builder can build TLBs
type Builder struct {
	numEntries int
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numEntries: 16,
	}
}

// WithNumEntries sets the number of entries in the TLB. Use 0 to disable the
// TLB; every lookup will then miss.
func (b Builder) WithNumEntries(n int) Builder {
	b.numEntries = n
	return b
}

// Build creates a new TLB
func (b Builder) Build(name string) *Comp {
	if b.numEntries < 0 {
		panic(fmt.Sprintf("invalid number of TLB entries %d", b.numEntries))
	}

	tlb := &Comp{
		name:       name,
		numEntries: b.numEntries,
	}

	tlb.Reset()

	return tlb
}
