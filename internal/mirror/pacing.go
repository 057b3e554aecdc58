package mirror

// Spinner performs a busy-wait of at least the given number of
// microseconds using a monotonic high-resolution counter. The Windows
// implementation (spinner_windows.go) uses QueryPerformanceCounter /
// QueryPerformanceFrequency via golang.org/x/sys/windows, since
// time.Sleep's timer resolution is coarser than the microsecond delays
// calls for.
type Spinner interface {
	SpinMicroseconds(us int)
}

// PacingController implements per-iteration policy: decide
// whether the render loop should proceed immediately or apply a
// frame-identity-aware spin delay. It holds no GPU state; the waitable
// and present calls it gates live in the render engine.
type PacingController struct {
	cfg Configuration

	lastObservedCaptureID uint64
	lastRenderedID         uint64
}

// NewPacingController constructs a controller for the given configuration.
func NewPacingController(cfg Configuration) *PacingController {
	return &PacingController{cfg: cfg}
}

// ShouldSpin implements steps 2-3 as a pure decision given the
// current capture frame ID and target-frame-skip. It also advances
// lastObservedCaptureID exactly as step 2 describes, so callers must
// invoke it once per render iteration, in order.
//
// R4: when sourceHz = k*targetHz and smart-select is enabled, it asks for
// a spin delay only while the desktop is active and the capture id has not
// yet reached lastRenderedID+targetFrameSkip, so the render loop leans
// toward the k-th frame after the last one rendered. It requests one delay
// of the configured length per call; it does not wait until that frame
// has actually been captured.
func (p *PacingController) ShouldSpin(currentCaptureID uint64, targetFrameSkip int) bool {
	if p.cfg.UseSmartSelect && targetFrameSkip > 1 {
		desktopActive := currentCaptureID > p.lastObservedCaptureID
		targetNotYetCaptured := currentCaptureID < p.lastRenderedID+uint64(targetFrameSkip)
		spin := desktopActive && targetNotYetCaptured
		p.lastObservedCaptureID = currentCaptureID
		return spin
	}
	return p.cfg.UseFrameDelay
}

// RecordRendered updates bookkeeping after a frame with the given id has
// been rendered. Must be called once per render iteration, after ShouldSpin.
func (p *PacingController) RecordRendered(renderedID uint64) {
	p.lastRenderedID = renderedID
}

// LastRenderedID returns the frame ID most recently recorded as rendered.
func (p *PacingController) LastRenderedID() uint64 {
	return p.lastRenderedID
}

// SkipDelta implements step 6's unique/duplicate
// classification: if the acquired frame ID differs from the previously
// rendered ID, it is unique and the delta is newID-oldID; otherwise it is
// a duplicate (delta is not counted).
func SkipDelta(newID, oldID uint64) (unique bool, delta uint64) {
	if newID != oldID {
		return true, newID - oldID
	}
	return false, 0
}
