//go:build !windows

package mirror

import "fmt"

// ListMonitors is unsupported outside Windows: Desktop Duplication and
// D3D11 are Windows-only APIs.
func ListMonitors() ([]MonitorInfo, error) {
	return nil, fmt.Errorf("monitor enumeration is only supported on Windows")
}
