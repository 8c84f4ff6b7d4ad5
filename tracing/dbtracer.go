package tracing

import (
	"github.com/rs/xid"
	"github.com/sarchlab/memsim/datarecording"
	"github.com/sarchlab/memsim/hooking"
	"github.com/sarchlab/memsim/translation"
)

// TranslationEntry is the row recorded for each translated address. Evicted
// is -1 if no page was evicted.
type TranslationEntry struct {
	Session   string
	Index     int
	Address   uint32
	Page      uint32
	Offset    uint32
	Frame     int
	Value     int32
	TLBHit    bool
	PageFault bool
	Evicted   int64
}

// SummaryEntry is the row recorded when a run finishes.
type SummaryEntry struct {
	Session       string
	Translated    uint64
	PageFaults    uint64
	TLBHits       uint64
	TLBMisses     uint64
	Evictions     uint64
	PageFaultRate float64
	TLBHitRate    float64
}

// Stats returns the counters the summary was recorded from.
func (e SummaryEntry) Stats() translation.Stats {
	return translation.Stats{
		Translated: e.Translated,
		PageFaults: e.PageFaults,
		TLBHits:    e.TLBHits,
		TLBMisses:  e.TLBMisses,
		Evictions:  e.Evictions,
	}
}

// DBTracer is a hook that stores translation results into a DataRecorder.
type DBTracer struct {
	backend datarecording.DataRecorder
	session string
}

// NewDBTracer creates a new DBTracer and the tables it writes to.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	dataRecorder.CreateTable("translation", TranslationEntry{})
	dataRecorder.CreateTable("summary", SummaryEntry{})

	return &DBTracer{
		backend: dataRecorder,
		session: xid.New().String(),
	}
}

// Session returns the ID that tags every row of this tracer.
func (t *DBTracer) Session() string {
	return t.session
}

// Func records translated addresses. Other hook positions are ignored.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != translation.HookPosTranslated {
		return
	}

	res, ok := ctx.Item.(translation.Result)
	if !ok {
		return
	}

	entry := TranslationEntry{
		Session:   t.session,
		Index:     res.Index,
		Address:   res.Address,
		Page:      uint32(res.Page),
		Offset:    res.Offset,
		Frame:     int(res.Frame),
		Value:     res.SignedValue(),
		TLBHit:    res.TLBHit,
		PageFault: res.PageFault,
		Evicted:   -1,
	}

	if res.Evicted != nil {
		entry.Evicted = int64(*res.Evicted)
	}

	t.backend.InsertData("translation", entry)
}

// Finish records the summary of the run and flushes the backend.
func (t *DBTracer) Finish(stats translation.Stats) {
	t.backend.InsertData("summary", SummaryEntry{
		Session:       t.session,
		Translated:    stats.Translated,
		PageFaults:    stats.PageFaults,
		TLBHits:       stats.TLBHits,
		TLBMisses:     stats.TLBMisses,
		Evictions:     stats.Evictions,
		PageFaultRate: stats.PageFaultRate(),
		TLBHitRate:    stats.TLBHitRate(),
	})

	t.backend.Flush()
}
