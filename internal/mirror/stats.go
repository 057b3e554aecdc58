package mirror

import (
	"fmt"
	"sync/atomic"
)

// StatsMonitor is the one-second aggregation,
// grounded on the capture/render pipeline's atomic counters (lock-free,
// no mutex, matching the triple buffer's own concurrency model rather
// than a mutex-guarded snapshot struct).
type StatsMonitor struct {
	presented atomic.Uint64
	captured  atomic.Uint64
	unique    atomic.Uint64
	duplicate atomic.Uint64

	skipMin atomic.Uint64
	skipMax atomic.Uint64
	skipSum atomic.Uint64
	skipN   atomic.Uint64
}

// NewStatsMonitor returns a zeroed monitor.
func NewStatsMonitor() *StatsMonitor {
	return &StatsMonitor{}
}

// RecordCapture increments the per-interval captured-frame counter. Called
// from the capture thread.
func (s *StatsMonitor) RecordCapture() {
	s.captured.Add(1)
}

// RecordPresented records one render-loop presentation and, if the
// rendered frame was unique, folds its skip-delta into the running
// min/max/sum/count used to report Skip:min-max(avg).
func (s *StatsMonitor) RecordPresented(unique bool, delta uint64) {
	s.presented.Add(1)
	if !unique {
		s.duplicate.Add(1)
		return
	}
	s.unique.Add(1)
	s.skipSum.Add(delta)
	s.skipN.Add(1)

	for {
		cur := s.skipMin.Load()
		if cur != 0 && cur <= delta {
			break
		}
		if s.skipMin.CompareAndSwap(cur, delta) {
			break
		}
	}
	for {
		cur := s.skipMax.Load()
		if cur >= delta {
			break
		}
		if s.skipMax.CompareAndSwap(cur, delta) {
			break
		}
	}
}

// Snapshot is a point-in-time, reset-cleared copy of one second's stats.
type Snapshot struct {
	Presented uint64
	Captured  uint64
	Unique    uint64
	Duplicate uint64
	Drop      uint64
	SkipMin   uint64
	SkipMax   uint64
	SkipAvg   float64
}

// TakeAndReset atomically reads the current interval's counters, resets
// them for the next interval, and returns the snapshot. Called once per
// second from the stats-monitor tick.
func (s *StatsMonitor) TakeAndReset() Snapshot {
	presented := s.presented.Swap(0)
	captured := s.captured.Swap(0)
	unique := s.unique.Swap(0)
	duplicate := s.duplicate.Swap(0)
	skipMin := s.skipMin.Swap(0)
	skipMax := s.skipMax.Swap(0)
	skipSum := s.skipSum.Swap(0)
	skipN := s.skipN.Swap(0)

	drop := int64(captured) - int64(presented)
	if drop < 0 {
		drop = 0
	}

	avg := 0.0
	if skipN > 0 {
		avg = float64(skipSum) / float64(skipN)
	}

	return Snapshot{
		Presented: presented,
		Captured:  captured,
		Unique:    unique,
		Duplicate: duplicate,
		Drop:      uint64(drop),
		SkipMin:   skipMin,
		SkipMax:   skipMax,
		SkipAvg:   avg,
	}
}

// String renders the snapshot in the fixed stdout format:
// "Out:N Cap:N Uniq:N Dup:N Drop:N Skip:min-max(avg)".
func (s Snapshot) String() string {
	return fmt.Sprintf("Out:%d Cap:%d Uniq:%d Dup:%d Drop:%d Skip:%d-%d(%.1f)",
		s.Presented, s.Captured, s.Unique, s.Duplicate, s.Drop, s.SkipMin, s.SkipMax, s.SkipAvg)
}
