//go:build windows

package mirror

import (
	"fmt"
	"syscall"
	"unsafe"
)

// dxgiOutputDesc matches DXGI_OUTPUT_DESC. Grounded on the reference
// codebase's monitor_windows.go, generalized to also report the current
// display mode's refresh rate via IDXGIOutput::GetDisplayModeList, since
// frame-skip math needs it at --list time too.
type dxgiOutputDesc struct {
	DeviceName        [32]uint16
	Left              int32
	Top               int32
	Right             int32
	Bottom            int32
	AttachedToDesktop int32
	Rotation          uint32
	Monitor           uintptr
}

const (
	dxgiOutputGetDesc           = 7  // IDXGIOutput::GetDesc
	dxgiOutputGetDisplayModeList = 10 // IDXGIOutput::GetDisplayModeList
)

// ListMonitors enumerates connected displays via DXGI, implementing the
// monitor table --list flag prints.
func ListMonitors() ([]MonitorInfo, error) {
	var device, context uintptr
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actualLevel uint32

	hr, _, _ := procD3D11CreateDevice.Call(
		0, uintptr(d3dDriverTypeHardware), 0, 0,
		uintptr(unsafe.Pointer(&featureLevel)), 1, uintptr(d3d11SDKVersion),
		uintptr(unsafe.Pointer(&device)), uintptr(unsafe.Pointer(&actualLevel)), uintptr(unsafe.Pointer(&context)),
	)
	if int32(hr) < 0 {
		return nil, fmt.Errorf("D3D11CreateDevice failed: 0x%08X", uint32(hr))
	}
	defer comRelease(context)
	defer comRelease(device)

	var dxgiDevice uintptr
	if _, err := comCall(device, vtblQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIDevice)), uintptr(unsafe.Pointer(&dxgiDevice))); err != nil {
		return nil, fmt.Errorf("QueryInterface IDXGIDevice: %w", err)
	}
	defer comRelease(dxgiDevice)

	var adapter uintptr
	if _, err := comCall(dxgiDevice, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); err != nil {
		return nil, fmt.Errorf("IDXGIDevice::GetAdapter: %w", err)
	}
	defer comRelease(adapter)

	var monitors []MonitorInfo
	for i := 0; ; i++ {
		var output uintptr
		hr, _, _ := syscall.SyscallN(comVtblFn(adapter, dxgiAdapterEnumOutputs), adapter, uintptr(i), uintptr(unsafe.Pointer(&output)))
		if int32(hr) < 0 {
			if uint32(hr) != 0x887A0002 { // DXGI_ERROR_NOT_FOUND
				captureLog.Warn("DXGI EnumOutputs failed", "index", i, "hr", fmt.Sprintf("0x%08X", uint32(hr)))
			}
			break
		}

		var desc dxgiOutputDesc
		hr, _, _ = syscall.SyscallN(comVtblFn(output, dxgiOutputGetDesc), output, uintptr(unsafe.Pointer(&desc)))
		if int32(hr) < 0 {
			comRelease(output)
			captureLog.Warn("DXGI GetDesc failed", "index", i, "hr", fmt.Sprintf("0x%08X", uint32(hr)))
			continue
		}

		if desc.AttachedToDesktop == 0 {
			comRelease(output)
			continue
		}

		refreshHz := refreshHzFromOutput(output)
		comRelease(output)

		name := syscall.UTF16ToString(desc.DeviceName[:])
		monitors = append(monitors, MonitorInfo{
			Index:     i,
			Name:      name,
			Width:     int(desc.Right - desc.Left),
			Height:    int(desc.Bottom - desc.Top),
			X:         int(desc.Left),
			Y:         int(desc.Top),
			RefreshHz: refreshHz,
			IsPrimary: desc.Left == 0 && desc.Top == 0,
		})
	}

	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitors found")
	}
	return monitors, nil
}

// refreshHzFromOutput asks for the single closest display mode to the
// current desktop resolution at an unspecified format, which is enough to
// learn the output's current refresh rate for --list without a full
// duplication session. Falls back to 60 if the call fails.
func refreshHzFromOutput(output uintptr) float64 {
	var numModes uint32
	hr, _, _ := syscall.SyscallN(comVtblFn(output, dxgiOutputGetDisplayModeList), output,
		uintptr(dxgiFormatB8G8R8A8), 0, uintptr(unsafe.Pointer(&numModes)), 0)
	if int32(hr) < 0 || numModes == 0 {
		return 60.0
	}

	modes := make([]dxgiModeDesc, numModes)
	hr, _, _ = syscall.SyscallN(comVtblFn(output, dxgiOutputGetDisplayModeList), output,
		uintptr(dxgiFormatB8G8R8A8), 0, uintptr(unsafe.Pointer(&numModes)), uintptr(unsafe.Pointer(&modes[0])))
	if int32(hr) < 0 || numModes == 0 {
		return 60.0
	}

	best := refreshHzFromRational(modes[numModes-1].RefreshRate)
	if best <= 0 {
		return 60.0
	}
	return best
}
