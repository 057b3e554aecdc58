//go:build windows

package mirror

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/lanternops/vsyncmirror/internal/logging"
)

var captureLog = logging.L("capture")

// CaptureEngine implements C2: it owns the desktop
// duplication interface and its own D3D11 device/context, and copies each
// accepted frame into the triple buffer's current write slot. The
// duplication is created with IDXGIOutput1::DuplicateOutput, which takes
// no preferred-format list; the captured format is read from the first
// acquired texture.
type CaptureEngine struct {
	monitorIndex int

	device      uintptr // ID3D11Device
	context     uintptr // ID3D11DeviceContext
	duplication uintptr // IDXGIOutputDuplication

	buffer *TripleBuffer
	cursor *CursorState
	stats  *StatsMonitor

	format   FormatDescriptor
	initOnce atomic.Bool

	// slotTextures holds the GPU-resident shader-resource texture backing
	// each of the triple buffer's three slots, created once on the first
	// qualifying frame.
	slotTextures [3]uintptr

	nextFrameID uint64

	running *atomic.Bool
}

// NewCaptureEngine constructs an engine bound to the given triple buffer,
// cursor state, and stats monitor. The duplication interface and device
// are created lazily in Run, on the capture thread, since D3D11 objects
// should be created on the thread that will use them.
func NewCaptureEngine(monitorIndex int, buffer *TripleBuffer, cursor *CursorState, stats *StatsMonitor, running *atomic.Bool) *CaptureEngine {
	return &CaptureEngine{monitorIndex: monitorIndex, buffer: buffer, cursor: cursor, stats: stats, running: running}
}

// FormatDescriptor returns the runtime format learned from the first
// captured frame. Valid only after the first qualifying frame; callers
// must check buffer-initialized first.
func (c *CaptureEngine) FormatDescriptor() FormatDescriptor {
	return c.format
}

// Device returns the ID3D11Device the capture engine created, shared with
// the render engine so the acquired slot's texture can be bound directly
// as a shader resource without a cross-device copy.
func (c *CaptureEngine) Device() uintptr { return c.device }

// Context returns the ID3D11DeviceContext shared with the render engine.
func (c *CaptureEngine) Context() uintptr { return c.context }

// Texture returns the GPU texture backing triple-buffer slot i. Valid
// only once the first qualifying frame has initialized the slot textures.
func (c *CaptureEngine) Texture(i int) uintptr { return c.slotTextures[i] }

// Run blocks, executing main loop until running is false.
// Must be called on its own dedicated thread/goroutine.
func (c *CaptureEngine) Run() error {
	if err := c.initDuplication(); err != nil {
		return fmt.Errorf("duplication-not-available: %w", err)
	}
	defer c.releaseDuplication()

	for c.running.Load() {
		if err := c.captureOnce(); err != nil {
			if err == errAccessLost {
				time.Sleep(100 * time.Millisecond)
				if rerr := c.initDuplication(); rerr != nil {
					captureLog.Warn("failed to reacquire duplication interface", "error", rerr)
					time.Sleep(100 * time.Millisecond)
				}
				continue
			}
			captureLog.Debug("transient capture error", "error", err)
		}
	}
	return nil
}

var errAccessLost = fmt.Errorf("access-lost")

// captureOnce runs one iteration of main loop.
func (c *CaptureEngine) captureOnce() error {
	var frameInfo dxgiOutDuplFrameInfo
	var resource uintptr

	hr, _, _ := callSyscall(comVtblFn(c.duplication, dxgiDuplAcquireNextFrame),
		c.duplication, 100, uintptr(unsafe.Pointer(&frameInfo)), uintptr(unsafe.Pointer(&resource)))
	hresult := uint32(hr)

	switch hresult {
	case dxgiErrWaitTimeout:
		return nil // step 1: timeout, continue
	case dxgiErrAccessLost:
		return errAccessLost
	}
	if int32(hr) < 0 {
		return fmt.Errorf("AcquireNextFrame: 0x%08X", hresult)
	}
	defer callSyscall(comVtblFn(c.duplication, dxgiDuplReleaseFrame), c.duplication)

	// Step 2: cursor position + shape.
	if frameInfo.LastMouseUpdateTime != 0 {
		c.cursor.Visible.Store(frameInfo.PointerVisible != 0)
		c.cursor.SetPosition(int64(frameInfo.PointerPositionX), int64(frameInfo.PointerPositionY))
	}
	if frameInfo.PointerShapeBufferSize > 0 {
		c.captureShape(frameInfo.PointerShapeBufferSize)
	}

	// Step 3: has-new-content test.
	hasContent := frameInfo.LastPresentTime != 0 || frameInfo.AccumulatedFrames > 0 || !c.initOnce.Load()
	if !hasContent {
		if resource != 0 {
			comRelease(resource)
		}
		return nil
	}
	if resource == 0 {
		return nil
	}
	defer comRelease(resource)

	var texture uintptr
	if _, err := comCall(resource, vtblQueryInterface, uintptr(unsafe.Pointer(&iidID3D11Texture2D)), uintptr(unsafe.Pointer(&texture))); err != nil {
		return fmt.Errorf("QueryInterface ID3D11Texture2D: %w", err)
	}
	defer comRelease(texture)

	// Step 4: first qualifying frame initializes format + slot textures.
	if !c.initOnce.Load() {
		if err := c.initFromTexture(texture); err != nil {
			return err
		}
		c.initOnce.Store(true)
	}

	// Step 5: copy into current write slot; flush.
	writeSlot := c.buffer.WriteIndex()
	dst := c.slotTextures[writeSlot]
	callSyscall(comVtblFn(c.context, d3d11CtxCopyResource), c.context, dst, texture)
	callSyscall(comVtblFn(c.context, d3d11CtxFlush), c.context)

	// Step 6: publish.
	c.nextFrameID++
	c.buffer.Publish(c.nextFrameID)
	c.stats.RecordCapture()

	return nil
}

// captureShape copies the OS-owned pointer-shape buffer into an
// owned buffer and records it on the cursor state, raising shape-dirty.
// It calls IDXGIOutputDuplication::GetFramePointerShape once with a buffer
// of the size the frame info reported; the call is not retried with a
// larger buffer, and on failure the shape is left unchanged.
func (c *CaptureEngine) captureShape(size uint32) {
	buf := make([]byte, size)
	var info dxgiOutDuplPointerShapeInfo
	var used uint32
	_, err := comCall(c.duplication, dxgiDuplGetFramePointerShape,
		uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&used)),
		uintptr(unsafe.Pointer(&info)))
	if err != nil {
		return
	}
	c.cursor.SetShape(PointerShapeType(info.Type), int(info.Width), int(info.Height), int(info.Pitch), buf[:used])
}

// initFromTexture reads the acquired texture's descriptor and initializes
// the triple buffer's three slots in that format/dimensions.
func (c *CaptureEngine) initFromTexture(texture uintptr) error {
	var desc d3d11Texture2DDesc
	callSyscall(comVtblFn(texture, d3d11Texture2DGetDesc), texture, uintptr(unsafe.Pointer(&desc)))

	actualFormat := FormatSRGB8
	dxgiFormat := uint32(dxgiFormatB8G8R8A8)
	if desc.Format == dxgiFormatR16G16B16A16F {
		actualFormat = FormatLinearScRGB16F
		dxgiFormat = dxgiFormatR16G16B16A16F
	}

	width, height := c.format.Width, c.format.Height
	if desc.Width != 0 && desc.Height != 0 {
		width, height = int(desc.Width), int(desc.Height)
	}
	for i := 0; i < 3; i++ {
		texDesc := d3d11Texture2DDesc{
			Width: uint32(width), Height: uint32(height),
			MipLevels: 1, ArraySize: 1,
			Format:         dxgiFormat,
			SampleCount:    1,
			Usage:          d3d11UsageDefault,
			BindFlags:      d3d11BindShaderResource,
			CPUAccessFlags: 0,
		}
		var tex uintptr
		if _, err := comCall(c.device, d3d11DeviceCreateTexture2D, uintptr(unsafe.Pointer(&texDesc)), 0, uintptr(unsafe.Pointer(&tex))); err != nil {
			return fmt.Errorf("CreateTexture2D slot %d: %w", i, err)
		}
		c.slotTextures[i] = tex
	}

	c.format.Width, c.format.Height = width, height
	c.format.ActualFormat = actualFormat
	c.format.ActualHDR = actualFormat == FormatLinearScRGB16F
	return nil
}

// initDuplication creates the D3D11 device/context and the desktop
// duplication interface for c.monitorIndex via IDXGIOutput1::DuplicateOutput.
// No preferred-format list is passed, so frames arrive in whatever format
// the duplication delivers.
func (c *CaptureEngine) initDuplication() error {
	var device, context uintptr
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actualLevel uint32

	hr, _, _ := procD3D11CreateDevice.Call(
		0, uintptr(d3dDriverTypeHardware), 0, uintptr(d3d11CreateDeviceBGRASupport),
		uintptr(unsafe.Pointer(&featureLevel)), 1, uintptr(d3d11SDKVersion),
		uintptr(unsafe.Pointer(&device)), uintptr(unsafe.Pointer(&actualLevel)), uintptr(unsafe.Pointer(&context)),
	)
	if int32(hr) < 0 {
		return fmt.Errorf("D3D11CreateDevice failed: 0x%08X", uint32(hr))
	}

	var dxgiDevice uintptr
	if _, err := comCall(device, vtblQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIDevice)), uintptr(unsafe.Pointer(&dxgiDevice))); err != nil {
		comRelease(context)
		comRelease(device)
		return fmt.Errorf("QueryInterface IDXGIDevice: %w", err)
	}
	defer comRelease(dxgiDevice)

	var adapter uintptr
	if _, err := comCall(dxgiDevice, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); err != nil {
		comRelease(context)
		comRelease(device)
		return fmt.Errorf("IDXGIDevice::GetAdapter: %w", err)
	}
	defer comRelease(adapter)

	var output uintptr
	if _, err := comCall(adapter, dxgiAdapterEnumOutputs, uintptr(c.monitorIndex), uintptr(unsafe.Pointer(&output))); err != nil {
		comRelease(context)
		comRelease(device)
		return fmt.Errorf("IDXGIAdapter::EnumOutputs: %w", err)
	}

	var output1 uintptr
	qiErr := func() error {
		_, err := comCall(output, vtblQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIOutput1)), uintptr(unsafe.Pointer(&output1)))
		return err
	}()
	comRelease(output)
	if qiErr != nil {
		comRelease(context)
		comRelease(device)
		return fmt.Errorf("QueryInterface IDXGIOutput1: %w", qiErr)
	}
	defer comRelease(output1)

	var duplication uintptr
	if _, err := comCall(output1, dxgiOutput1DuplicateOutput, device, uintptr(unsafe.Pointer(&duplication))); err != nil {
		comRelease(context)
		comRelease(device)
		return fmt.Errorf("IDXGIOutput1::DuplicateOutput: %w", err)
	}

	var duplDesc dxgiOutDuplDesc
	if _, err := comCall(duplication, dxgiDuplGetDesc, uintptr(unsafe.Pointer(&duplDesc))); err != nil {
		comRelease(duplication)
		comRelease(context)
		comRelease(device)
		return fmt.Errorf("IDXGIOutputDuplication::GetDesc: %w", err)
	}

	c.device = device
	c.context = context
	c.duplication = duplication
	c.format.Width = int(duplDesc.ModeDesc.Width)
	c.format.Height = int(duplDesc.ModeDesc.Height)
	c.format.SourceRefreshHz = refreshHzFromRational(duplDesc.ModeDesc.RefreshRate)
	c.format.ReportedHDR = duplDesc.ModeDesc.Format == dxgiFormatR16G16B16A16F

	captureLog.Info("duplication initialized",
		"monitor", c.monitorIndex, "width", c.format.Width, "height", c.format.Height,
		"reportedHDR", c.format.ReportedHDR)
	return nil
}

func refreshHzFromRational(r dxgiRational) float64 {
	if r.Denominator == 0 {
		return 60.0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

func (c *CaptureEngine) releaseDuplication() {
	for i, tex := range c.slotTextures {
		if tex != 0 {
			comRelease(tex)
			c.slotTextures[i] = 0
		}
	}
	if c.duplication != 0 {
		comRelease(c.duplication)
		c.duplication = 0
	}
	if c.context != 0 {
		comRelease(c.context)
		c.context = 0
	}
	if c.device != 0 {
		comRelease(c.device)
		c.device = 0
	}
}
