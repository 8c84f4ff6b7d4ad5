// Package vm provides the models for address translations
package vm

import "fmt"

// PageNumber identifies a virtual page.
type PageNumber uint32

// FrameIndex identifies a physical frame.
type FrameIndex int

// NoFrame is returned when no frame is associated with a page.
const NoFrame FrameIndex = -1

// An AddressDecoder splits logical addresses into a page number and an offset.
type AddressDecoder struct {
	log2PageSize uint32
	numPages     uint32
}

// NewAddressDecoder creates an AddressDecoder for pages of 2^log2PageSize
// bytes and an address space of numPages pages.
func NewAddressDecoder(log2PageSize uint32, numPages uint32) AddressDecoder {
	if log2PageSize >= 32 {
		panic(fmt.Sprintf("log2 page size %d too large", log2PageSize))
	}

	if numPages == 0 {
		panic("address space must have at least one page")
	}

	return AddressDecoder{
		log2PageSize: log2PageSize,
		numPages:     numPages,
	}
}

// PageSize returns the number of bytes in a page.
func (d AddressDecoder) PageSize() uint32 {
	return 1 << d.log2PageSize
}

// NumPages returns the number of pages in the address space.
func (d AddressDecoder) NumPages() uint32 {
	return d.numPages
}

// Decode returns the page number and the in-page offset of addr.
func (d AddressDecoder) Decode(addr uint32) (PageNumber, uint32, error) {
	page := PageNumber(addr >> d.log2PageSize)
	offset := addr & (d.PageSize() - 1)

	if uint32(page) >= d.numPages {
		return page, offset, &InvalidAddressError{
			Address:    addr,
			PageNumber: page,
			NumPages:   d.numPages,
		}
	}

	return page, offset, nil
}

// Compose is the inverse of Decode.
func (d AddressDecoder) Compose(page PageNumber, offset uint32) uint32 {
	return uint32(page)<<d.log2PageSize | offset&(d.PageSize()-1)
}

// Log2 returns log2(n) for a power of two n. It panics otherwise.
func Log2(n uint64) uint32 {
	if n == 0 || (n&(n-1)) != 0 {
		panic("page size must be a power of 2")
	}

	log2 := uint32(0)
	for n > 1 {
		n >>= 1
		log2++
	}

	return log2
}
