// Package memory models the physical frames and the backing store that pages
// are staged from.
package memory

import (
	"fmt"

	"github.com/sarchlab/memsim/vm"
)

// MaxFrames is the largest number of frames a Storage can hold.
const MaxFrames = 256

type frame struct {
	data     []byte
	page     vm.PageNumber
	occupied bool
}

// A Storage keeps the data of the physical memory.
//
// The storage manages the memory in frames of one page each. Frames are handed
// out in index order while never used, and are overwritten when reused. They
// are never released.
type Storage struct {
	pageSize  int
	frames    []frame
	nextFrame int
}

// NewStorage creates a storage object with numFrames frames of pageSize bytes.
func NewStorage(numFrames int, pageSize int) *Storage {
	if numFrames < 1 || numFrames > MaxFrames {
		panic(fmt.Sprintf("number of frames %d out of range [1, %d]",
			numFrames, MaxFrames))
	}

	if pageSize <= 0 {
		panic("page size must be positive")
	}

	s := &Storage{
		pageSize: pageSize,
		frames:   make([]frame, numFrames),
	}

	for i := range s.frames {
		s.frames[i].data = make([]byte, pageSize)
	}

	return s
}

// NumFrames returns the capacity of the storage in frames.
func (s *Storage) NumFrames() int {
	return len(s.frames)
}

// NumUsedFrames returns how many frames have ever been handed out.
func (s *Storage) NumUsedFrames() int {
	return s.nextFrame
}

// PageSize returns the number of bytes in a frame.
func (s *Storage) PageSize() int {
	return s.pageSize
}

// AllocateFrame returns the next frame that has never been used. The bool
// return value is false once all the frames are in use.
func (s *Storage) AllocateFrame() (vm.FrameIndex, bool) {
	if s.nextFrame >= len(s.frames) {
		return vm.NoFrame, false
	}

	f := vm.FrameIndex(s.nextFrame)
	s.nextFrame++

	return f, true
}

// Write overwrites the content of a frame and tags it with the page it now
// holds.
func (s *Storage) Write(f vm.FrameIndex, page vm.PageNumber, data []byte) {
	s.frameMustBeInRange(f)

	if len(data) != s.pageSize {
		panic(fmt.Sprintf("writing %d bytes into a frame of %d bytes",
			len(data), s.pageSize))
	}

	fr := &s.frames[f]
	copy(fr.data, data)
	fr.page = page
	fr.occupied = true
}

// ByteAt returns one byte of a frame.
func (s *Storage) ByteAt(f vm.FrameIndex, offset uint32) byte {
	s.frameMustBeInRange(f)

	if int(offset) >= s.pageSize {
		panic(fmt.Sprintf("offset %d out of range", offset))
	}

	return s.frames[f].data[offset]
}

// ReadFrame returns a copy of the content of a frame.
func (s *Storage) ReadFrame(f vm.FrameIndex) []byte {
	s.frameMustBeInRange(f)

	res := make([]byte, s.pageSize)
	copy(res, s.frames[f].data)

	return res
}

// PageAt returns the page held by a frame. The bool return value is false if
// the frame has never been written.
func (s *Storage) PageAt(f vm.FrameIndex) (vm.PageNumber, bool) {
	s.frameMustBeInRange(f)

	fr := s.frames[f]

	return fr.page, fr.occupied
}

func (s *Storage) frameMustBeInRange(f vm.FrameIndex) {
	if f < 0 || int(f) >= len(s.frames) {
		panic(fmt.Sprintf("frame %d out of range", f))
	}
}
