//go:build !windows

package mirror

import (
	"fmt"
	"sync/atomic"
)

// RenderEngine is unsupported outside Windows; D3D11/DXGI presentation is
// a Windows-only API.
type RenderEngine struct{}

func NewRenderEngine(cfg Configuration, device, context uintptr, buffer *TripleBuffer, cursor *CursorState, pacing *PacingController, stats *StatsMonitor, format FormatDescriptor) (*RenderEngine, error) {
	return nil, fmt.Errorf("rendering is only supported on Windows")
}

func (r *RenderEngine) Run(running *atomic.Bool) error { return nil }
func (r *RenderEngine) Close()                         {}

func bindCaptureTexture(c *CaptureEngine) {}
