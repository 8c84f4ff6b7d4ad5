package memory

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memsim/vm"
)

var _ = Describe("Storage", func() {
	var storage *Storage

	BeforeEach(func() {
		storage = NewStorage(2, 4)
	})

	It("should hand out frames in order until full", func() {
		f0, ok0 := storage.AllocateFrame()
		f1, ok1 := storage.AllocateFrame()
		_, ok2 := storage.AllocateFrame()

		Expect(ok0).To(BeTrue())
		Expect(ok1).To(BeTrue())
		Expect(ok2).To(BeFalse())
		Expect(f0).To(Equal(vm.FrameIndex(0)))
		Expect(f1).To(Equal(vm.FrameIndex(1)))
		Expect(storage.NumUsedFrames()).To(Equal(2))
	})

	It("should read back written bytes", func() {
		storage.Write(1, 7, []byte{1, 2, 3, 4})

		Expect(storage.ByteAt(1, 2)).To(Equal(byte(3)))
		Expect(storage.ReadFrame(1)).To(Equal([]byte{1, 2, 3, 4}))

		page, occupied := storage.PageAt(1)
		Expect(occupied).To(BeTrue())
		Expect(page).To(Equal(vm.PageNumber(7)))
	})

	It("should overwrite a frame on reuse", func() {
		storage.Write(0, 7, []byte{1, 2, 3, 4})
		storage.Write(0, 9, []byte{5, 6, 7, 8})

		page, _ := storage.PageAt(0)
		Expect(page).To(Equal(vm.PageNumber(9)))
		Expect(storage.ByteAt(0, 0)).To(Equal(byte(5)))
	})

	It("should not alias the returned frame copy", func() {
		storage.Write(0, 7, []byte{1, 2, 3, 4})

		data := storage.ReadFrame(0)
		data[0] = 100

		Expect(storage.ByteAt(0, 0)).To(Equal(byte(1)))
	})

	It("should report empty frames", func() {
		_, occupied := storage.PageAt(0)

		Expect(occupied).To(BeFalse())
	})

	It("should panic on out of range access", func() {
		Expect(func() { storage.ByteAt(2, 0) }).To(Panic())
		Expect(func() { storage.ByteAt(0, 4) }).To(Panic())
		Expect(func() { storage.Write(0, 1, []byte{1}) }).To(Panic())
	})

	It("should reject bad frame counts", func() {
		Expect(func() { NewStorage(0, 256) }).To(Panic())
		Expect(func() { NewStorage(257, 256) }).To(Panic())
		Expect(func() { NewStorage(256, 256) }).NotTo(Panic())
	})
})
