package translation

import (
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/memsim/memory"
	"github.com/sarchlab/memsim/vm"
)

func pageOf(fill byte) []byte {
	data := make([]byte, 256)
	for i := range data {
		data[i] = fill + byte(i)
	}

	return data
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl     *gomock.Controller
		backingStore *MockBackingStore
		victimFinder *MockVictimFinder
		engine       *Engine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backingStore = NewMockBackingStore(mockCtrl)
		victimFinder = NewMockVictimFinder(mockCtrl)

		engine = MakeBuilder().
			WithNumFrames(1).
			WithNumTLBEntries(4).
			WithBackingStore(backingStore).
			WithVictimFinder(victimFinder).
			Build("Engine")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should fault a page into a free frame", func() {
		gomock.InOrder(
			backingStore.EXPECT().FetchPage(vm.PageNumber(1)).Return(pageOf(0x80), nil),
			victimFinder.EXPECT().Admit(vm.PageNumber(1), 0),
			victimFinder.EXPECT().Visit(vm.PageNumber(1), 0),
		)

		res, err := engine.Translate(266, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.PageFault).To(BeTrue())
		Expect(res.TLBHit).To(BeFalse())
		Expect(res.Page).To(Equal(vm.PageNumber(1)))
		Expect(res.Offset).To(Equal(uint32(10)))
		Expect(res.Frame).To(Equal(vm.FrameIndex(0)))
		Expect(res.PhysicalAddress).To(Equal(uint32(10)))
		Expect(res.Value).To(Equal(byte(0x8a)))
		Expect(res.SignedValue()).To(Equal(int32(-118)))
		Expect(res.Evicted).To(BeNil())
	})

	It("should hit the TLB on the second access", func() {
		backingStore.EXPECT().FetchPage(vm.PageNumber(1)).Return(pageOf(0), nil)
		victimFinder.EXPECT().Admit(vm.PageNumber(1), 0)
		victimFinder.EXPECT().Visit(vm.PageNumber(1), 0)
		victimFinder.EXPECT().Visit(vm.PageNumber(1), 1)

		_, err := engine.Translate(266, 0)
		Expect(err).NotTo(HaveOccurred())

		res, err := engine.Translate(300, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.TLBHit).To(BeTrue())
		Expect(res.PageFault).To(BeFalse())
		Expect(res.Value).To(Equal(byte(44)))
		Expect(engine.Stats()).To(Equal(Stats{
			Translated: 2,
			PageFaults: 1,
			TLBHits:    1,
			TLBMisses:  1,
		}))
	})

	It("should evict completely before installing the new page", func() {
		backingStore.EXPECT().FetchPage(vm.PageNumber(0)).Return(pageOf(0), nil)
		victimFinder.EXPECT().Admit(vm.PageNumber(0), 0)
		victimFinder.EXPECT().Visit(vm.PageNumber(0), 0)

		_, err := engine.Translate(10, 0)
		Expect(err).NotTo(HaveOccurred())

		gomock.InOrder(
			backingStore.EXPECT().FetchPage(vm.PageNumber(1)).Return(pageOf(1), nil),
			victimFinder.EXPECT().FindVictim(1).Return(vm.PageNumber(0)),
			victimFinder.EXPECT().Remove(vm.PageNumber(0)).Do(func(vm.PageNumber) {
				_, inTLB := engine.TLB().Set.Lookup(0)
				_, inTable := engine.PageTable().Find(0)
				Expect(inTLB).To(BeFalse())
				Expect(inTable).To(BeFalse())
			}),
			victimFinder.EXPECT().Admit(vm.PageNumber(1), 1),
			victimFinder.EXPECT().Visit(vm.PageNumber(1), 1),
		)

		res, err := engine.Translate(266, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frame).To(Equal(vm.FrameIndex(0)))
		Expect(*res.Evicted).To(Equal(vm.PageNumber(0)))
		Expect(engine.Stats().Evictions).To(Equal(uint64(1)))
		Expect(engine.CheckCoherence()).To(Succeed())
	})

	It("should leave the state untouched when the backing store fails", func() {
		backingStore.EXPECT().FetchPage(vm.PageNumber(0)).Return(pageOf(0), nil)
		victimFinder.EXPECT().Admit(vm.PageNumber(0), 0)
		victimFinder.EXPECT().Visit(vm.PageNumber(0), 0)

		_, err := engine.Translate(10, 0)
		Expect(err).NotTo(HaveOccurred())

		backingStore.EXPECT().FetchPage(vm.PageNumber(1)).
			Return(nil, &memory.BackingStoreError{Page: 1, Offset: 256, Err: io.ErrUnexpectedEOF})

		_, err = engine.Translate(266, 1)

		Expect(errors.Is(err, memory.ErrBackingStoreUnavailable)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("address 266"))

		frame, found := engine.PageTable().Find(0)
		Expect(found).To(BeTrue())
		Expect(frame).To(Equal(vm.FrameIndex(0)))
		Expect(engine.Stats()).To(Equal(Stats{
			Translated: 1,
			TLBMisses:  1,
			PageFaults: 1,
		}))
		Expect(engine.CheckCoherence()).To(Succeed())
	})

	It("should reject invalid addresses without touching anything", func() {
		_, err := engine.Translate(70000, 3)

		Expect(errors.Is(err, vm.ErrInvalidAddress)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("reference 3"))
		Expect(engine.TLB().Misses()).To(BeZero())
	})

	It("should panic when built without a backing store", func() {
		Expect(func() {
			MakeBuilder().WithVictimFinder(victimFinder).Build("E")
		}).To(Panic())
	})
})
