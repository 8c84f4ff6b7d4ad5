package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/memsim/hooking"
	"github.com/sarchlab/memsim/translation"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID        string
	Name      string
	StartTime time.Time
	Total     uint64
	Finished  uint64

	monitor *Monitor
}

// ProgressBarSnapshot is the state of a ProgressBar at one point in time.
type ProgressBarSnapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// Snapshot copies the state of the bar.
func (b *ProgressBar) Snapshot() ProgressBarSnapshot {
	b.Lock()
	defer b.Unlock()

	return ProgressBarSnapshot{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// Func advances the bar by one every time an address is translated.
func (b *ProgressBar) Func(ctx hooking.HookCtx) {
	if ctx.Pos != translation.HookPosTranslated {
		return
	}

	b.IncrementFinished(1)
}

// Finish removes the bar from the monitor once the run is over.
func (b *ProgressBar) Finish(_ translation.Stats) {
	if b.monitor != nil {
		b.monitor.CompleteProgressBar(b)
	}
}
