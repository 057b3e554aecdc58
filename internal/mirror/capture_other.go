//go:build !windows

package mirror

import (
	"fmt"
	"sync/atomic"
)

// CaptureEngine is unsupported outside Windows: Desktop Duplication is a
// Windows-only API.
type CaptureEngine struct{}

func NewCaptureEngine(monitorIndex int, buffer *TripleBuffer, cursor *CursorState, stats *StatsMonitor, running *atomic.Bool) *CaptureEngine {
	return &CaptureEngine{}
}

func (c *CaptureEngine) FormatDescriptor() FormatDescriptor { return FormatDescriptor{} }

func (c *CaptureEngine) Device() uintptr       { return 0 }
func (c *CaptureEngine) Context() uintptr      { return 0 }
func (c *CaptureEngine) Texture(i int) uintptr { return 0 }

func (c *CaptureEngine) Run() error {
	return fmt.Errorf("desktop duplication capture is only supported on Windows")
}
