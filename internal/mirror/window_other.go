//go:build !windows

package mirror

import "fmt"

// window is unsupported outside Windows; window creation requires
// user32.dll.
type window struct{}

func newWindow(title string, x, y, width, height int) (*window, error) {
	return nil, fmt.Errorf("window creation is only supported on Windows")
}

func (w *window) PumpMessages()     {}
func (w *window) ShouldClose() bool { return true }
func (w *window) Close()            {}
