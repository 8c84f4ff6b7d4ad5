package vm

import "fmt"

// A ReferenceString is the sequence of page numbers touched by a run, in
// order. It is read-only once built.
type ReferenceString []PageNumber

// DecodeReferences converts logical addresses to their page numbers.
func DecodeReferences(
	d AddressDecoder,
	addrs []uint32,
) (ReferenceString, error) {
	refs := make(ReferenceString, len(addrs))

	for i, addr := range addrs {
		page, _, err := d.Decode(addr)
		if err != nil {
			return nil, fmt.Errorf("reference %d: %w", i, err)
		}

		refs[i] = page
	}

	return refs, nil
}

// After returns the references strictly after index.
func (r ReferenceString) After(index int) ReferenceString {
	if index+1 >= len(r) {
		return nil
	}

	if index < -1 {
		index = -1
	}

	return r[index+1:]
}
