//go:build windows

package mirror

import "golang.org/x/sys/windows"

// qpcSpinner implements Spinner using QueryPerformanceCounter, since
// time.Sleep's timer resolution (commonly ~15ms on Windows unless the
// process raises its timer period) is far coarser than the microsecond
// delays pacing calls for.
type qpcSpinner struct {
	freq int64
}

// newQPCSpinner queries the performance counter frequency once; it is
// constant for the life of the process.
func newQPCSpinner() *qpcSpinner {
	var freq int64
	windows.QueryPerformanceFrequency(&freq)
	if freq == 0 {
		freq = 1
	}
	return &qpcSpinner{freq: freq}
}

func (s *qpcSpinner) queryCounter() int64 {
	var c int64
	windows.QueryPerformanceCounter(&c)
	return c
}

// SpinMicroseconds busy-waits until at least us microseconds have elapsed
// on the performance counter: a tight spin rather than a sleep, since
// frame-identity pacing delays need sub-millisecond accuracy.
func (s *qpcSpinner) SpinMicroseconds(us int) {
	if us <= 0 {
		return
	}
	target := s.queryCounter() + int64(us)*s.freq/1_000_000
	for s.queryCounter() < target {
	}
}
