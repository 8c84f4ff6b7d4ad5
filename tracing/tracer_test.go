package tracing

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/memsim/hooking"
	"github.com/sarchlab/memsim/memory"
	"github.com/sarchlab/memsim/replacement"
	"github.com/sarchlab/memsim/translation"
	"github.com/sarchlab/memsim/vm"
)

func buildEngine(numFrames int, addrs []uint32) *translation.Engine {
	buf := &bytes.Buffer{}
	Expect(memory.GenerateBackingStore(buf, 256, 256)).To(Succeed())

	decoder := vm.NewAddressDecoder(8, 256)
	refs, err := vm.DecodeReferences(decoder, addrs)
	Expect(err).NotTo(HaveOccurred())

	return translation.MakeBuilder().
		WithNumFrames(numFrames).
		WithBackingStore(memory.NewBytesBackingStore(buf.Bytes(), 256)).
		WithVictimFinder(replacement.New(replacement.FIFO, refs)).
		Build("Engine")
}

func translateAll(e *translation.Engine, addrs []uint32) {
	for i, addr := range addrs {
		_, err := e.Translate(addr, i)
		Expect(err).NotTo(HaveOccurred())
	}
}

var _ = Describe("EventFromHookCtx", func() {
	It("should convert a translation result", func() {
		evt, ok := EventFromHookCtx(hooking.HookCtx{
			Pos: translation.HookPosTranslated,
			Item: translation.Result{
				Index: 3, Address: 300, Page: 1, Frame: 2,
			},
		})

		Expect(ok).To(BeTrue())
		Expect(evt.ID).NotTo(BeEmpty())
		Expect(evt.Kind).To(Equal("Translated"))
		Expect(evt.Index).To(Equal(3))
		Expect(evt.Page).To(Equal(vm.PageNumber(1)))
		Expect(evt.Frame).To(Equal(vm.FrameIndex(2)))
		Expect(evt.Address).To(Equal(uint32(300)))
	})

	It("should convert a page event", func() {
		evt, ok := EventFromHookCtx(hooking.HookCtx{
			Pos:  translation.HookPosEvict,
			Item: translation.PageEvent{Index: 5, Page: 9, Frame: 0},
		})

		Expect(ok).To(BeTrue())
		Expect(evt.Kind).To(Equal("Evict"))
		Expect(evt.Index).To(Equal(5))
		Expect(evt.Page).To(Equal(vm.PageNumber(9)))
		Expect(evt.Frame).To(Equal(vm.FrameIndex(0)))
	})

	It("should convert a TLB event without an index", func() {
		evt, ok := EventFromHookCtx(hooking.HookCtx{
			Pos:    &hooking.HookPos{Name: "TLBHit"},
			Item:   vm.PageNumber(4),
			Detail: vm.FrameIndex(7),
		})

		Expect(ok).To(BeTrue())
		Expect(evt.Index).To(Equal(-1))
		Expect(evt.Page).To(Equal(vm.PageNumber(4)))
		Expect(evt.Frame).To(Equal(vm.FrameIndex(7)))
	})

	It("should reject unknown items", func() {
		_, ok := EventFromHookCtx(hooking.HookCtx{Item: "something"})

		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("CSVTracer", func() {
	It("should write one row per event", func() {
		buf := &bytes.Buffer{}
		tracer := NewCSVTracerWithWriter(buf)
		addrs := []uint32{10, 266, 10}
		e := buildEngine(1, addrs)
		CollectTrace(e, tracer)

		translateAll(e, addrs)
		Expect(tracer.Close()).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines[0]).To(Equal("ID, Index, Kind, Where, Page, Frame, Address"))
		// 3 translations, 3 page faults and 2 evictions.
		Expect(lines).To(HaveLen(9))
		Expect(lines[1]).To(HaveSuffix(", 0, PageFault, Engine, 0, 0, 0"))
		Expect(lines[2]).To(HaveSuffix(", 0, Translated, Engine, 0, 0, 10"))
		Expect(lines[3]).To(HaveSuffix(", 1, Evict, Engine, 0, 0, 0"))
	})

	It("should create the file on init and refuse to overwrite", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		tracer := NewCSVTracer(path)
		Expect(tracer.Init()).To(Succeed())

		tracer.Func(hooking.HookCtx{
			Pos:  translation.HookPosTranslated,
			Item: translation.Result{Index: 0, Address: 1},
		})
		Expect(tracer.Close()).To(Succeed())
		Expect(tracer.Close()).To(Succeed())

		content, err := os.ReadFile(path + ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(string(content), "\n")).To(Equal(2))

		Expect(NewCSVTracer(path).Init()).NotTo(Succeed())
	})
})

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		tracer   *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)

		recorder.EXPECT().CreateTable("translation", TranslationEntry{})
		recorder.EXPECT().CreateTable("summary", SummaryEntry{})

		tracer = NewDBTracer(recorder)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record translated addresses only", func() {
		evicted := vm.PageNumber(2)
		recorder.EXPECT().InsertData("translation", TranslationEntry{
			Session:   tracer.Session(),
			Index:     4,
			Address:   300,
			Page:      1,
			Offset:    44,
			Frame:     0,
			Value:     -118,
			PageFault: true,
			Evicted:   2,
		})

		tracer.Func(hooking.HookCtx{
			Pos: translation.HookPosTranslated,
			Item: translation.Result{
				Index: 4, Address: 300, Page: 1, Offset: 44,
				Frame: 0, Value: 0x8a, PageFault: true, Evicted: &evicted,
			},
		})
		tracer.Func(hooking.HookCtx{
			Pos:  translation.HookPosPageFault,
			Item: translation.PageEvent{Index: 4, Page: 1},
		})
	})

	It("should mark results without eviction", func() {
		recorder.EXPECT().InsertData("translation", gomock.Any()).
			Do(func(_ string, entry any) {
				Expect(entry.(TranslationEntry).Evicted).To(Equal(int64(-1)))
				Expect(entry.(TranslationEntry).TLBHit).To(BeTrue())
			})

		tracer.Func(hooking.HookCtx{
			Pos:  translation.HookPosTranslated,
			Item: translation.Result{TLBHit: true},
		})
	})

	It("should write the summary on finish", func() {
		stats := translation.Stats{
			Translated: 4, PageFaults: 1, TLBHits: 3, TLBMisses: 1,
		}

		gomock.InOrder(
			recorder.EXPECT().InsertData("summary", SummaryEntry{
				Session:       tracer.Session(),
				Translated:    4,
				PageFaults:    1,
				TLBHits:       3,
				TLBMisses:     1,
				PageFaultRate: 0.25,
				TLBHitRate:    0.75,
			}),
			recorder.EXPECT().Flush(),
		)

		tracer.Finish(stats)
	})
})
