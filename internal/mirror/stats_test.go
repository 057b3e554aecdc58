package mirror

import "testing"

// I4: unique + duplicate = presented each stats interval.
func TestStatsUniquePlusDuplicateEqualsPresented(t *testing.T) {
	s := NewStatsMonitor()
	s.RecordPresented(true, 2)
	s.RecordPresented(false, 0)
	s.RecordPresented(true, 2)
	s.RecordPresented(false, 0)

	snap := s.TakeAndReset()
	if snap.Unique+snap.Duplicate != snap.Presented {
		t.Fatalf("I4 violated: unique(%d)+duplicate(%d) != presented(%d)", snap.Unique, snap.Duplicate, snap.Presented)
	}
}

// I5: drop >= 0 always, even when presented exceeds captured.
func TestStatsDropNeverNegative(t *testing.T) {
	s := NewStatsMonitor()
	s.RecordCapture()
	for i := 0; i < 5; i++ {
		s.RecordPresented(false, 0)
	}
	snap := s.TakeAndReset()
	if snap.Drop != 0 {
		// captured(1) - presented(5) is negative; must clamp to 0.
		t.Fatalf("I5 violated: expected drop clamped to 0, got %d", snap.Drop)
	}
}

// Scenario 1: 60->60 SDR passthrough -> Skip:1-1(1.0).
func TestStatsScenario60to60(t *testing.T) {
	s := NewStatsMonitor()
	for i := 0; i < 60; i++ {
		s.RecordCapture()
		s.RecordPresented(true, 1)
	}
	snap := s.TakeAndReset()
	if snap.Presented != 60 || snap.Captured != 60 || snap.Unique != 60 || snap.Duplicate != 0 || snap.Drop != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.SkipMin != 1 || snap.SkipMax != 1 {
		t.Fatalf("expected Skip:1-1, got min=%d max=%d", snap.SkipMin, snap.SkipMax)
	}
	if got, want := snap.String(), "Out:60 Cap:60 Uniq:60 Dup:0 Drop:0 Skip:1-1(1.0)"; got != want {
		t.Fatalf("format mismatch:\n got  %q\n want %q", got, want)
	}
}

// Scenario 2: 120->60 with smart select -> Out:60 Cap:120 Uniq:60 Dup:0
// Drop:60 Skip:2-2(2.0).
func TestStatsScenario120to60SmartSelect(t *testing.T) {
	s := NewStatsMonitor()
	for i := 0; i < 120; i++ {
		s.RecordCapture()
	}
	for i := 0; i < 60; i++ {
		s.RecordPresented(true, 2)
	}
	snap := s.TakeAndReset()
	if got, want := snap.String(), "Out:60 Cap:120 Uniq:60 Dup:0 Drop:60 Skip:2-2(2.0)"; got != want {
		t.Fatalf("format mismatch:\n got  %q\n want %q", got, want)
	}
}

// Scenario 5: idle desktop -> Out:60 Uniq:0 Dup:60 Drop:0.
func TestStatsScenarioIdle(t *testing.T) {
	s := NewStatsMonitor()
	for i := 0; i < 60; i++ {
		s.RecordPresented(false, 0)
	}
	snap := s.TakeAndReset()
	if snap.Presented != 60 || snap.Unique != 0 || snap.Duplicate != 60 || snap.Drop != 0 {
		t.Fatalf("unexpected idle snapshot: %+v", snap)
	}
}

func TestStatsResetsBetweenIntervals(t *testing.T) {
	s := NewStatsMonitor()
	s.RecordCapture()
	s.RecordPresented(true, 3)
	_ = s.TakeAndReset()

	snap := s.TakeAndReset()
	if snap.Presented != 0 || snap.Captured != 0 || snap.SkipMin != 0 || snap.SkipMax != 0 {
		t.Fatalf("expected zeroed snapshot after consecutive reset, got %+v", snap)
	}
}
