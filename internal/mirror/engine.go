package mirror

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanternops/vsyncmirror/internal/logging"
)

var engineLog = logging.L("engine")

// Engine is the single owned value calls for: it wires the
// triple buffer, pacing controller, stats monitor, cursor state, capture
// engine, and render engine together and owns their shared lifecycle.
// Run starts the capture goroutine and runs the render/window loop on the
// calling goroutine; it also starts a third goroutine that prints the
// stats line once per second.
type Engine struct {
	cfg Configuration

	buffer  *TripleBuffer
	cursor  *CursorState
	stats   *StatsMonitor
	pacing  *PacingController
	capture *CaptureEngine
	render  *RenderEngine

	running atomic.Bool
	wg      sync.WaitGroup

	stopOnce sync.Once
	done     chan struct{}
}

// NewEngine constructs an Engine ready to Run. It does not touch any GPU
// or OS resource; those are created on their owning thread in Run.
func NewEngine(cfg Configuration) *Engine {
	e := &Engine{
		cfg:    cfg,
		buffer: NewTripleBuffer(),
		cursor: NewCursorState(),
		stats:  NewStatsMonitor(),
		pacing: NewPacingController(cfg),
		done:   make(chan struct{}),
	}
	e.running.Store(true)
	e.capture = NewCaptureEngine(cfg.SourceIndex, e.buffer, e.cursor, e.stats, &e.running)
	return e
}

// Run starts the capture thread and blocks running the render loop on the
// calling goroutine, "capture thread" /
// "render thread" split: the caller (main) owns the render/window thread,
// since window message pumps on Windows must run on the thread that
// created the window.
func (e *Engine) Run() error {
	e.wg.Add(1)
	var captureErr error
	go func() {
		defer e.wg.Done()
		if err := e.capture.Run(); err != nil {
			captureErr = err
			engineLog.Error("capture loop exited", "error", err)
			e.Stop()
		}
	}()

	if err := e.waitForFirstFrame(); err != nil {
		e.Stop()
		e.wg.Wait()
		return err
	}

	bindCaptureTexture(e.capture)
	format := e.resolveTargetRate(e.capture.FormatDescriptor())
	renderEngine, err := NewRenderEngine(e.cfg, e.capture.Device(), e.capture.Context(), e.buffer, e.cursor, e.pacing, e.stats, format)
	if err != nil {
		e.Stop()
		e.wg.Wait()
		return fmt.Errorf("render engine init: %w", err)
	}
	e.render = renderEngine
	defer e.render.Close()

	e.wg.Add(1)
	go e.reportStats()

	e.render.Run(&e.running)
	// The render loop also returns on ESC or window close, which only
	// clears running; Stop closes done so the stats goroutine exits too.
	e.Stop()

	e.wg.Wait()
	if captureErr != nil {
		return captureErr
	}
	return nil
}

// resolveTargetRate fills in the format descriptor's target-refresh-hz
// and target-frame-skip fields, learned
// from the target monitor's current mode rather than the capture thread,
// since the capture thread only ever observes the source.
func (e *Engine) resolveTargetRate(format FormatDescriptor) FormatDescriptor {
	monitors, err := ListMonitors()
	if err != nil || e.cfg.TargetIndex >= len(monitors) {
		format.TargetRefreshHz = 60
	} else {
		format.TargetRefreshHz = monitors[e.cfg.TargetIndex].RefreshHz
	}
	format.TargetFrameSkip = ComputeTargetFrameSkip(format.SourceRefreshHz, format.TargetRefreshHz)
	return format
}

// waitForFirstFrame blocks until the capture thread has published the
// first frame and learned the source format, or the engine stops first
// (e.g. duplication failed to initialize).
func (e *Engine) waitForFirstFrame() error {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if e.buffer.PeekReadyID() != 0 {
			return nil
		}
		if !e.running.Load() {
			return fmt.Errorf("capture loop stopped before first frame")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for first captured frame")
}

// reportStats prints one line per second summarizing the prior second's
// capture/present counters.
func (e *Engine) reportStats() {
	defer e.wg.Done()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap := e.stats.TakeAndReset()
			fmt.Println(snap.String())
		case <-e.done:
			return
		}
	}
}

// Stop signals both loops to exit. Safe to call more than once and from
// any goroutine.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.running.Store(false)
		close(e.done)
	})
}
