package runner

// Stats accumulates per-run processing outcomes. It is owned by the single
// runner control flow and passed explicitly, never held as process-global
// state, so the processor stays independently testable.
type Stats struct {
	Successful int
	Failed     int
	TotalTime  float64
}

// RecordSuccess counts a successful item and its processing time in seconds.
func (s *Stats) RecordSuccess(duration float64) {
	s.Successful++
	s.TotalTime += duration
}

// RecordFailure counts a failed item.
func (s *Stats) RecordFailure() {
	s.Failed++
}

// Average returns the mean processing time of successful items.
func (s *Stats) Average() float64 {
	if s.Successful == 0 {
		return 0
	}
	return s.TotalTime / float64(s.Successful)
}
