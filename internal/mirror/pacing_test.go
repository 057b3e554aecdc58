package mirror

import "testing"

// R4: when source_hz = k*target_hz and smart-select = true, steady-state
// skip-delta min = max = k. Simulate 120->60 (k=2): the capture id ticks by
// 1 every loop iteration (120Hz producer), and the 60Hz consumer renders
// on every second tick, so two frames arrive per render; smart-select
// should gate the render loop until a full 2-frame advance has happened.
func TestPacingSmartSelectSteadyStateSkipDeltaIsExactlyK(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.UseSmartSelect = true
	pc := NewPacingController(cfg)

	const k = 2
	const targetFrameSkip = k

	captureID := uint64(0)
	renderedIDs := []uint64{}

	// Simulate enough iterations for several render cycles.
	for iter := 0; iter < 40; iter++ {
		captureID++ // one new captured frame per loop tick in this simulation
		if pc.ShouldSpin(captureID, targetFrameSkip) {
			continue // spin-delay: do not render this tick
		}
		if captureID >= pc.LastRenderedID()+uint64(targetFrameSkip) || pc.LastRenderedID() == 0 {
			pc.RecordRendered(captureID)
			renderedIDs = append(renderedIDs, captureID)
		}
	}

	if len(renderedIDs) < 2 {
		t.Fatalf("expected multiple renders, got %v", renderedIDs)
	}
	for i := 1; i < len(renderedIDs); i++ {
		unique, delta := SkipDelta(renderedIDs[i], renderedIDs[i-1])
		if !unique {
			t.Fatalf("expected unique frame at step %d", i)
		}
		if delta != k {
			t.Fatalf("expected steady-state skip-delta == %d, got %d at step %d (ids=%v)", k, delta, i, renderedIDs)
		}
	}
}

func TestPacingFixedDelayWhenSmartSelectDisabled(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.UseSmartSelect = false
	cfg.UseFrameDelay = true
	pc := NewPacingController(cfg)

	if !pc.ShouldSpin(1, 2) {
		t.Fatalf("expected fixed frame delay to spin unconditionally when enabled")
	}
}

func TestPacingNoDelayWhenBothDisabled(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.UseSmartSelect = false
	cfg.UseFrameDelay = false
	pc := NewPacingController(cfg)

	if pc.ShouldSpin(1, 2) {
		t.Fatalf("expected no spin delay when both smart-select and frame-delay are disabled")
	}
}

func TestPacingSkipNotAppliedWhenTargetSkipIsOne(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.UseSmartSelect = true
	cfg.UseFrameDelay = false
	pc := NewPacingController(cfg)

	// targetFrameSkip == 1 means source and target run at the same rate;
	// smart-select must not introduce a delay (scenario 1, 60->60).
	if pc.ShouldSpin(5, 1) {
		t.Fatalf("expected no spin delay at targetFrameSkip == 1")
	}
}

func TestSkipDeltaClassifiesDuplicates(t *testing.T) {
	if unique, delta := SkipDelta(10, 10); unique || delta != 0 {
		t.Fatalf("expected duplicate classification for equal ids, got unique=%v delta=%v", unique, delta)
	}
	if unique, delta := SkipDelta(12, 10); !unique || delta != 2 {
		t.Fatalf("expected unique with delta 2, got unique=%v delta=%v", unique, delta)
	}
}
