//go:build windows

package mirror

import (
	"fmt"
	"syscall"
	"unsafe"
)

const (
	wsPopup        = 0x80000000
	wsVisible      = 0x10000000
	wsExTopmost    = 0x00000008
	wsExToolWindow = 0x00000080

	wmDestroy = 0x0002
	wmClose   = 0x0010
	wmKeyDown = 0x0100
	wmQuit    = 0x0012

	vkEscape = 0x1B

	swShow = 5

	cwUseDefault = -2147483648 // 0x80000000 as int32
)

type wndClassExW struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     uintptr
	hIcon         uintptr
	hCursor       uintptr
	hbrBackground uintptr
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// window owns the borderless, topmost output window the render engine
// presents into: raw syscalls against user32.dll, no cgo, matching this
// package's COM-vtable calling style.
type window struct {
	hwnd      uintptr
	className *uint16

	escPressed bool
	closed     bool
}

// newWindow creates a borderless, always-on-top window at the given
// position/size spanning the target monitor.
func newWindow(title string, x, y, width, height int) (*window, error) {
	className, err := syscall.UTF16PtrFromString("VsyncMirrorWindowClass")
	if err != nil {
		return nil, err
	}
	titlePtr, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return nil, err
	}

	wndProc := syscall.NewCallback(func(hwnd uintptr, message uint32, wParam, lParam uintptr) uintptr {
		switch message {
		case wmDestroy:
			procPostQuitMessage.Call(0)
			return 0
		}
		ret, _, _ := procDefWindowProcW.Call(hwnd, uintptr(message), wParam, lParam)
		return ret
	})

	hInstance, _, _ := procGetModuleHandleW.Call(0)

	wc := wndClassExW{
		cbSize:        uint32(unsafe.Sizeof(wndClassExW{})),
		lpfnWndProc:   wndProc,
		hInstance:     hInstance,
		lpszClassName: className,
	}
	if hCursor, _, _ := procLoadCursorW.Call(0, 32512 /* IDC_ARROW */); hCursor != 0 {
		wc.hCursor = hCursor
	}

	if atom, _, _ := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
		return nil, fmt.Errorf("RegisterClassExW failed")
	}

	hwnd, _, _ := procCreateWindowExW.Call(
		uintptr(wsExTopmost|wsExToolWindow),
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(wsPopup|wsVisible),
		uintptr(x), uintptr(y), uintptr(width), uintptr(height),
		0, 0, hInstance, 0,
	)
	if hwnd == 0 {
		return nil, fmt.Errorf("CreateWindowExW failed")
	}

	procShowWindow.Call(hwnd, swShow)

	return &window{hwnd: hwnd, className: className}, nil
}

// PumpMessages drains the window message queue,
// setting escPressed/closed so the render loop can poll them between
// suspension points.
func (w *window) PumpMessages() {
	var m msg
	for {
		got, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), w.hwnd, 0, 0, 1 /* PM_REMOVE */)
		if got == 0 {
			return
		}
		if m.message == wmQuit {
			w.closed = true
			continue
		}
		if m.message == wmKeyDown && m.wParam == vkEscape {
			w.escPressed = true
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// ShouldClose reports whether ESC was pressed or the window was closed
//.
func (w *window) ShouldClose() bool {
	return w.escPressed || w.closed
}

func (w *window) Close() {
	if w.hwnd != 0 {
		procDestroyWindow.Call(w.hwnd)
		w.hwnd = 0
	}
}
