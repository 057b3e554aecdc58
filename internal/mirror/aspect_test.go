package mirror

import "testing"

func TestFitViewportFullWindowWhenNotPreserving(t *testing.T) {
	v := FitViewport(1920, 1080, 1280, 1024, false)
	if v != (Viewport{0, 0, 1280, 1024}) {
		t.Fatalf("expected full window, got %+v", v)
	}
}

func TestFitViewportSameAspectFillsWindow(t *testing.T) {
	v := FitViewport(1920, 1080, 1280, 720, true)
	if v.X != 0 || v.Y != 0 || v.Width != 1280 || v.Height != 720 {
		t.Fatalf("expected same-aspect window to be filled exactly, got %+v", v)
	}
}

// B2: source/target aspect mismatch with preserve-aspect=true yields black
// bars on exactly one axis (pillarbox or letterbox), never both.
func TestFitViewportWiderSourceLetterboxes(t *testing.T) {
	// Source 21:9 into a 16:9 window: source is wider, expect letterboxing
	// (bars on Y axis), full width used.
	v := FitViewport(2560, 1080, 1920, 1080, true)
	if v.Width != 1920 {
		t.Fatalf("expected full width used, got %+v", v)
	}
	if v.Height >= 1080 {
		t.Fatalf("expected height reduced for letterboxing, got %+v", v)
	}
	if v.X != 0 {
		t.Fatalf("expected no pillarboxing on the X axis, got %+v", v)
	}
	if v.Y <= 0 {
		t.Fatalf("expected centered letterbox bars (Y>0), got %+v", v)
	}
}

func TestFitViewportTallerSourcePillarboxes(t *testing.T) {
	// Source 4:3 into a 16:9 window: source is relatively taller, expect
	// pillarboxing (bars on X axis), full height used.
	v := FitViewport(1024, 768, 1920, 1080, true)
	if v.Height != 1080 {
		t.Fatalf("expected full height used, got %+v", v)
	}
	if v.Width >= 1920 {
		t.Fatalf("expected width reduced for pillarboxing, got %+v", v)
	}
	if v.Y != 0 {
		t.Fatalf("expected no letterboxing on the Y axis, got %+v", v)
	}
	if v.X <= 0 {
		t.Fatalf("expected centered pillarbox bars (X>0), got %+v", v)
	}
}
