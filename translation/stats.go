package translation

// Stats counts what happened during a run.
type Stats struct {
	Translated uint64
	PageFaults uint64
	TLBHits    uint64
	TLBMisses  uint64
	Evictions  uint64
}

// PageFaultRate returns the fraction of translations that faulted.
func (s Stats) PageFaultRate() float64 {
	return ratio(s.PageFaults, s.Translated)
}

// TLBHitRate returns the fraction of translations served by the TLB.
func (s Stats) TLBHitRate() float64 {
	return ratio(s.TLBHits, s.Translated)
}

func ratio(n, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return float64(n) / float64(total)
}
