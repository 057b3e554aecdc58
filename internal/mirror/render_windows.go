//go:build windows

package mirror

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/lanternops/vsyncmirror/internal/logging"
)

var renderLog = logging.L("render")

const (
	d3dPrimitiveTopologyTriangleStrip = 5
	waitObject0                       = 0
	waitTimeout                       = 0x00000102
)

// tonemapParams mirrors hlslPixelShaderHDRReinhard's cbuffer TonemapParams:
// one float plus padding to a 16-byte boundary.
type tonemapParams struct {
	SDRWhiteNits float32
	_pad         [3]float32
}

// cursorRectParams mirrors hlslVertexShaderCursorQuad's cbuffer CursorRect.
type cursorRectParams struct {
	X, Y, W, H float32
}

// RenderEngine implements C3: it owns the swap chain bound
// to the output window, the compiled shader set, and the per-iteration
// render loop. It shares the capture engine's D3D11 device/context rather
// than creating its own, so the acquired slot's texture can be bound
// directly as a shader resource view with no cross-device copy.
type RenderEngine struct {
	cfg    Configuration
	buffer *TripleBuffer
	cursor *CursorState
	pacing *PacingController
	stats  *StatsMonitor
	format FormatDescriptor

	device  uintptr
	context uintptr

	win              *window
	windowW, windowH int
	swapChain        uintptr
	waitableObj      uintptr

	vertexShader   uintptr
	psPassthrough  uintptr
	psLinearToSRGB uintptr
	psHDRReinhard  uintptr
	inputLayout    uintptr
	samplerState   uintptr
	blendState     uintptr
	tonemapCB      uintptr

	cursorVS      uintptr
	cursorCB      uintptr
	cursorTexture uintptr
	cursorSRV     uintptr
	cursorTexW    int
	cursorTexH    int

	spinner Spinner

	lastRenderedID uint64
}

// NewRenderEngine creates the output window and swap chain for the given
// monitor, compiles the three pixel shaders plus the full-screen and
// cursor-quad vertex shaders, and prepares the fixed render state
// (sampler, blend, tonemap and cursor-rect constant buffers).
//
// The shared device comes from capture, obtained through CaptureEngine's
// Device/Context accessor methods rather than a direct field access,
// so this file's only coupling to capture_windows.go is through
// exported methods.
func NewRenderEngine(cfg Configuration, device, context uintptr, buffer *TripleBuffer, cursor *CursorState, pacing *PacingController, stats *StatsMonitor, format FormatDescriptor) (*RenderEngine, error) {
	monitors, err := ListMonitors()
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	if cfg.TargetIndex >= len(monitors) {
		return nil, fmt.Errorf("target monitor index %d out of range (%d monitors)", cfg.TargetIndex, len(monitors))
	}
	target := monitors[cfg.TargetIndex]

	win, err := newWindow("vsyncmirror", target.X, target.Y, target.Width, target.Height)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	r := &RenderEngine{
		cfg: cfg, buffer: buffer, cursor: cursor, pacing: pacing, stats: stats, format: format,
		win:     win,
		windowW: target.Width,
		windowH: target.Height,
		device:  device,
		context: context,
		spinner: newQPCSpinner(),
	}

	if err := r.createSwapChain(); err != nil {
		win.Close()
		return nil, err
	}
	if err := r.compileShaders(); err != nil {
		win.Close()
		return nil, err
	}
	if err := r.createFixedState(); err != nil {
		win.Close()
		return nil, err
	}
	return r, nil
}

func (r *RenderEngine) createSwapChain() error {
	var factory1 uintptr
	hr, _, _ := procCreateDXGIFactory1.Call(uintptr(unsafe.Pointer(&iidIDXGIFactory2)), uintptr(unsafe.Pointer(&factory1)))
	if int32(hr) < 0 {
		return fmt.Errorf("CreateDXGIFactory1: 0x%08X", uint32(hr))
	}
	defer comRelease(factory1)

	desc := dxgiSwapChainDesc1{
		Width: 0, Height: 0, // 0 = match window client size
		Format:      dxgiFormatB8G8R8A8,
		SampleDesc:  struct{ Count, Quality uint32 }{Count: 1, Quality: 0},
		BufferUsage: dxgiUsageRenderTargetOut,
		BufferCount: 2,
		Scaling:     dxgiScalingStretch,
		SwapEffect:  dxgiSwapEffectFlipDiscard,
		Flags:       0,
	}
	if r.cfg.UseWaitable {
		desc.Flags |= dxgiSwapChainFlagFrameLatencyWaitable
	}

	var swapChain uintptr
	if _, err := comCall(factory1, dxgiFactory2CreateSwapChainForHwnd,
		r.device, r.win.hwnd, uintptr(unsafe.Pointer(&desc)), 0, 0, uintptr(unsafe.Pointer(&swapChain))); err != nil {
		return fmt.Errorf("CreateSwapChainForHwnd: %w", err)
	}
	r.swapChain = swapChain

	if r.cfg.UseWaitable {
		comCall(swapChain, dxgiSwapChain2SetMaximumFrameLatency, 1)
		waitObj, _ := comCall(swapChain, dxgiSwapChain2GetFrameLatencyWaitableObject)
		r.waitableObj = waitObj
	}
	return nil
}

// blobBytes reads an ID3DBlob's bytecode pointer and length via
// GetBufferPointer/GetBufferSize. Both return the raw value directly
// rather than an HRESULT, so this goes through callSyscall rather than
// comCall.
func blobBytes(blob uintptr) (ptr uintptr, size uintptr) {
	ptr, _, _ = callSyscall(comVtblFn(blob, id3dBlobGetBufferPointer), blob)
	size, _, _ = callSyscall(comVtblFn(blob, id3dBlobGetBufferSize), blob)
	return ptr, size
}

func (r *RenderEngine) compileShaders() error {
	compile := func(src, entry, profile string) (uintptr, error) {
		var blob uintptr
		srcBytes := []byte(src + "\x00")
		entryBytes := []byte(entry + "\x00")
		target := []byte(profile + "\x00")
		hr, _, _ := procD3DCompile.Call(
			uintptr(unsafe.Pointer(&srcBytes[0])), uintptr(len(srcBytes)),
			0, 0, 0,
			uintptr(unsafe.Pointer(&entryBytes[0])), uintptr(unsafe.Pointer(&target[0])),
			0, 0,
			uintptr(unsafe.Pointer(&blob)), 0,
		)
		if int32(hr) < 0 {
			return 0, fmt.Errorf("D3DCompile(%s): 0x%08X", entry, uint32(hr))
		}
		return blob, nil
	}

	compileVS := func(src string) (vs uintptr, vsPtr, vsLen uintptr, err error) {
		blob, err := compile(src, "main", "vs_5_0")
		if err != nil {
			return 0, 0, 0, err
		}
		defer comRelease(blob)
		ptr, size := blobBytes(blob)
		if _, err := comCall(r.device, d3d11DeviceCreateVertexShader, ptr, size, 0, uintptr(unsafe.Pointer(&vs))); err != nil {
			return 0, 0, 0, fmt.Errorf("CreateVertexShader: %w", err)
		}
		return vs, ptr, size, nil
	}

	compilePS := func(src string) (uintptr, error) {
		blob, err := compile(src, "main", "ps_5_0")
		if err != nil {
			return 0, err
		}
		defer comRelease(blob)
		psPtr, psLen := blobBytes(blob)
		var ps uintptr
		if _, err := comCall(r.device, d3d11DeviceCreatePixelShader, psPtr, psLen, 0, uintptr(unsafe.Pointer(&ps))); err != nil {
			return 0, fmt.Errorf("CreatePixelShader: %w", err)
		}
		return ps, nil
	}

	vs, vsPtr, vsLen, err := compileVS(hlslVertexShaderQuad)
	if err != nil {
		return err
	}
	r.vertexShader = vs
	if _, err := comCall(r.device, d3d11DeviceCreateInputLayout, 0, 0, vsPtr, vsLen, uintptr(unsafe.Pointer(&r.inputLayout))); err != nil {
		renderLog.Debug("empty input layout creation reported an error, continuing without one", "error", err)
	}

	if r.cursorVS, _, _, err = compileVS(hlslVertexShaderCursorQuad); err != nil {
		return err
	}

	if r.psPassthrough, err = compilePS(hlslPixelShaderPassthrough); err != nil {
		return err
	}
	if r.psLinearToSRGB, err = compilePS(hlslPixelShaderLinearToSRGB); err != nil {
		return err
	}
	if r.psHDRReinhard, err = compilePS(hlslPixelShaderHDRReinhard); err != nil {
		return err
	}
	return nil
}

func (r *RenderEngine) createFixedState() error {
	samplerDesc := d3d11SamplerDesc{
		Filter:         d3d11FilterMinMagMipLinear,
		AddressU:       d3d11TextureAddressClamp,
		AddressV:       d3d11TextureAddressClamp,
		AddressW:       d3d11TextureAddressClamp,
		ComparisonFunc: d3d11ComparisonNever,
		MaxLOD:         d3d11Float32Max,
	}
	if _, err := comCall(r.device, d3d11DeviceCreateSamplerState, uintptr(unsafe.Pointer(&samplerDesc)), uintptr(unsafe.Pointer(&r.samplerState))); err != nil {
		return fmt.Errorf("CreateSamplerState: %w", err)
	}

	blendDesc := d3d11BlendDesc{}
	blendDesc.RenderTarget[0] = d3d11RenderTargetBlendDesc{
		BlendEnable:           1,
		SrcBlend:              d3d11BlendSrcAlpha,
		DestBlend:             d3d11BlendInvSrcAlpha,
		BlendOp:               d3d11BlendOpAdd,
		SrcBlendAlpha:         d3d11BlendOne,
		DestBlendAlpha:        d3d11BlendZero,
		BlendOpAlpha:          d3d11BlendOpAdd,
		RenderTargetWriteMask: d3d11ColorWriteEnableAll,
	}
	if _, err := comCall(r.device, d3d11DeviceCreateBlendState, uintptr(unsafe.Pointer(&blendDesc)), uintptr(unsafe.Pointer(&r.blendState))); err != nil {
		return fmt.Errorf("CreateBlendState: %w", err)
	}

	cbDesc := d3d11BufferDesc{
		ByteWidth: uint32(unsafe.Sizeof(tonemapParams{})),
		Usage:     d3d11UsageDefault,
		BindFlags: d3d11BindConstantBuffer,
	}
	if _, err := comCall(r.device, d3d11DeviceCreateBuffer, uintptr(unsafe.Pointer(&cbDesc)), 0, uintptr(unsafe.Pointer(&r.tonemapCB))); err != nil {
		return fmt.Errorf("CreateBuffer (tonemap cb): %w", err)
	}

	cursorCBDesc := d3d11BufferDesc{
		ByteWidth: uint32(unsafe.Sizeof(cursorRectParams{})),
		Usage:     d3d11UsageDefault,
		BindFlags: d3d11BindConstantBuffer,
	}
	if _, err := comCall(r.device, d3d11DeviceCreateBuffer, uintptr(unsafe.Pointer(&cursorCBDesc)), 0, uintptr(unsafe.Pointer(&r.cursorCB))); err != nil {
		return fmt.Errorf("CreateBuffer (cursor cb): %w", err)
	}
	return nil
}

// Run executes the per-iteration pacing policy driving the render steps,
// until running goes false or the window is closed/ESC is pressed.
func (r *RenderEngine) Run(running *atomic.Bool) error {
	for running.Load() {
		if r.win.ShouldClose() {
			running.Store(false)
			break
		}

		if r.cfg.UseWaitable && r.waitableObj != 0 {
			procWaitForSingleObject.Call(r.waitableObj, 100)
		}

		slot, frameID := r.buffer.Acquire()

		targetSkip := r.format.TargetFrameSkip
		if targetSkip < 1 {
			targetSkip = 1
		}
		if r.pacing.ShouldSpin(frameID, targetSkip) {
			r.spinner.SpinMicroseconds(r.cfg.FrameDelayMicro)
		}

		r.win.PumpMessages()

		if slot >= 0 {
			r.renderFrame(slot)
		}

		unique, delta := SkipDelta(frameID, r.lastRenderedID)
		r.stats.RecordPresented(unique, delta)
		if unique {
			r.pacing.RecordRendered(frameID)
			r.lastRenderedID = frameID
		}
	}
	return nil
}

// renderFrame implements steps 2-9 for one acquired slot.
func (r *RenderEngine) renderFrame(slot int) {
	var backBuffer uintptr
	if _, err := comCall(r.swapChain, dxgiSwapChainGetBuffer, 0, uintptr(unsafe.Pointer(&iidID3D11Texture2D)), uintptr(unsafe.Pointer(&backBuffer))); err != nil {
		renderLog.Debug("GetBuffer failed", "error", err)
		return
	}
	defer comRelease(backBuffer)

	var rtv uintptr
	if _, err := comCall(r.device, d3d11DeviceCreateRenderTargetView, backBuffer, 0, uintptr(unsafe.Pointer(&rtv))); err != nil {
		renderLog.Debug("CreateRenderTargetView failed", "error", err)
		return
	}
	defer comRelease(rtv)

	clearColor := [4]float32{0, 0, 0, 1}
	callSyscall(comVtblFn(r.context, d3d11CtxClearRenderTargetView), r.context, rtv, uintptr(unsafe.Pointer(&clearColor[0])))
	callSyscall(comVtblFn(r.context, d3d11CtxOMSetRenderTargets), r.context, 1, uintptr(unsafe.Pointer(&rtv)), 0)

	vp := FitViewport(r.format.Width, r.format.Height, r.windowW, r.windowH, r.cfg.PreserveAspect)
	type d3d11Viewport struct {
		TopLeftX, TopLeftY, Width, Height, MinDepth, MaxDepth float32
	}
	d3dvp := d3d11Viewport{float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1}
	callSyscall(comVtblFn(r.context, d3d11CtxRSSetViewports), r.context, 1, uintptr(unsafe.Pointer(&d3dvp)))

	callSyscall(comVtblFn(r.context, d3d11CtxIASetInputLayout), r.context, r.inputLayout)
	callSyscall(comVtblFn(r.context, d3d11CtxIASetPrimitiveTopology), r.context, d3dPrimitiveTopologyTriangleStrip)
	callSyscall(comVtblFn(r.context, d3d11CtxVSSetShader), r.context, r.vertexShader, 0, 0)

	ps := r.choosePixelShader()
	callSyscall(comVtblFn(r.context, d3d11CtxPSSetShader), r.context, ps, 0, 0)

	if ps == r.psHDRReinhard {
		params := tonemapParams{SDRWhiteNits: float32(r.cfg.SDRWhiteNits)}
		callSyscall(comVtblFn(r.context, d3d11CtxUpdateSubresource), r.context, r.tonemapCB, 0, 0, uintptr(unsafe.Pointer(&params)), 0, 0)
		callSyscall(comVtblFn(r.context, d3d11CtxPSSetConstantBuffers), r.context, 0, 1, uintptr(unsafe.Pointer(&r.tonemapCB)))
	}

	var srv uintptr
	texture := r.currentSlotTexture(slot)
	if texture != 0 {
		if _, err := comCall(r.device, d3d11DeviceCreateShaderResourceView, texture, 0, uintptr(unsafe.Pointer(&srv))); err == nil {
			defer comRelease(srv)
			callSyscall(comVtblFn(r.context, d3d11CtxPSSetShaderResources), r.context, 0, 1, uintptr(unsafe.Pointer(&srv)))
			callSyscall(comVtblFn(r.context, d3d11CtxPSSetSamplers), r.context, 0, 1, uintptr(unsafe.Pointer(&r.samplerState)))
		}
	}

	callSyscall(comVtblFn(r.context, d3d11CtxDraw), r.context, 4, 0)

	r.compositeCursor(vp)

	var nullSRV uintptr
	callSyscall(comVtblFn(r.context, d3d11CtxPSSetShaderResources), r.context, 0, 1, uintptr(unsafe.Pointer(&nullSRV)))

	comCall(r.swapChain, dxgiSwapChainPresent, 1, 0)
}

// choosePixelShader implements step 5.
func (r *RenderEngine) choosePixelShader() uintptr {
	switch {
	case r.format.ActualFormat == FormatLinearScRGB16F && r.cfg.TonemapEnabled:
		return r.psHDRReinhard
	case r.format.ActualFormat == FormatLinearScRGB16F:
		return r.psLinearToSRGB
	default:
		return r.psPassthrough
	}
}

// currentSlotTexture resolves the GPU texture backing slot i. Wired
// through captureTextureFn, which Engine.Run sets via bindCaptureTexture
// before constructing the render engine.
func (r *RenderEngine) currentSlotTexture(slot int) uintptr {
	if captureTextureFn == nil {
		return 0
	}
	return captureTextureFn(slot)
}

// captureTextureFn is set once by Engine.Run before the render loop
// starts, binding this render engine's texture lookups to the live
// capture engine's slot textures.
var captureTextureFn func(slot int) uintptr

// bindCaptureTexture wires captureTextureFn to the given capture engine's
// Texture accessor. Called once by Engine before constructing the render
// engine.
func bindCaptureTexture(c *CaptureEngine) {
	captureTextureFn = c.Texture
}

// compositeCursor draws the cursor quad with alpha blending enabled when
// the cursor overlay is enabled, the cursor is visible and a shape is
// recorded. vp is the viewport renderFrame just
// drew the captured frame into, used to map the cursor's source-space
// position and size into window NDC space.
func (r *RenderEngine) compositeCursor(vp Viewport) {
	if !r.cfg.ShowCursor || !r.cursor.Visible.Load() || !r.cursor.HasShape.Load() {
		return
	}
	if r.cursor.TakeDirty() {
		if err := r.rebuildCursorTexture(); err != nil {
			renderLog.Debug("cursor texture rebuild failed", "error", err)
			return
		}
	}
	if r.cursorSRV == 0 || r.format.Width == 0 || r.format.Height == 0 {
		return
	}

	srcX, srcY := float64(r.cursor.X.Load()), float64(r.cursor.Y.Load())
	winX := float64(vp.X) + srcX/float64(r.format.Width)*float64(vp.Width)
	winY := float64(vp.Y) + srcY/float64(r.format.Height)*float64(vp.Height)
	winW := float64(r.cursorTexW) / float64(r.format.Width) * float64(vp.Width)
	winH := float64(r.cursorTexH) / float64(r.format.Height) * float64(vp.Height)

	rect := cursorRectParams{
		X: float32(winX/float64(r.windowW)*2 - 1),
		Y: float32(1 - winY/float64(r.windowH)*2),
		W: float32(winW / float64(r.windowW) * 2),
		H: float32(winH / float64(r.windowH) * 2),
	}
	callSyscall(comVtblFn(r.context, d3d11CtxUpdateSubresource), r.context, r.cursorCB, 0, 0, uintptr(unsafe.Pointer(&rect)), 0, 0)

	blendFactor := [4]float32{0, 0, 0, 0}
	callSyscall(comVtblFn(r.context, d3d11CtxOMSetBlendState), r.context, r.blendState, uintptr(unsafe.Pointer(&blendFactor[0])), 0xffffffff)

	callSyscall(comVtblFn(r.context, d3d11CtxVSSetShader), r.context, r.cursorVS, 0, 0)
	callSyscall(comVtblFn(r.context, d3d11CtxVSSetConstantBuffers), r.context, 0, 1, uintptr(unsafe.Pointer(&r.cursorCB)))
	callSyscall(comVtblFn(r.context, d3d11CtxPSSetShader), r.context, r.psPassthrough, 0, 0)
	callSyscall(comVtblFn(r.context, d3d11CtxPSSetShaderResources), r.context, 0, 1, uintptr(unsafe.Pointer(&r.cursorSRV)))
	callSyscall(comVtblFn(r.context, d3d11CtxPSSetSamplers), r.context, 0, 1, uintptr(unsafe.Pointer(&r.samplerState)))
	callSyscall(comVtblFn(r.context, d3d11CtxDraw), r.context, 4, 0)

	callSyscall(comVtblFn(r.context, d3d11CtxOMSetBlendState), r.context, 0, uintptr(unsafe.Pointer(&blendFactor[0])), 0xffffffff)
}

// rebuildCursorTexture decodes the cursor's current pointer shape and
// uploads it as a new shader-resource-bound texture, replacing whatever
// was bound before.
func (r *RenderEngine) rebuildCursorTexture() error {
	pixels := r.cursor.Decode()
	_, w, h, _, _ := r.cursor.Shape()
	if pixels == nil || w == 0 || h == 0 {
		return fmt.Errorf("no cursor shape decoded")
	}

	if r.cursorSRV != 0 {
		comRelease(r.cursorSRV)
		r.cursorSRV = 0
	}
	if r.cursorTexture != 0 {
		comRelease(r.cursorTexture)
		r.cursorTexture = 0
	}

	desc := d3d11Texture2DDesc{
		Width:       uint32(w),
		Height:      uint32(h),
		MipLevels:   1,
		ArraySize:   1,
		Format:      dxgiFormatR8G8B8A8,
		SampleCount: 1,
		Usage:       d3d11UsageDefault,
		BindFlags:   d3d11BindShaderResource,
	}
	initData := d3d11SubresourceData{
		PSysMem:     uintptr(unsafe.Pointer(&pixels[0])),
		SysMemPitch: uint32(w * 4),
	}
	var texture uintptr
	if _, err := comCall(r.device, d3d11DeviceCreateTexture2D, uintptr(unsafe.Pointer(&desc)), uintptr(unsafe.Pointer(&initData)), uintptr(unsafe.Pointer(&texture))); err != nil {
		return fmt.Errorf("CreateTexture2D (cursor): %w", err)
	}

	var srv uintptr
	if _, err := comCall(r.device, d3d11DeviceCreateShaderResourceView, texture, 0, uintptr(unsafe.Pointer(&srv))); err != nil {
		comRelease(texture)
		return fmt.Errorf("CreateShaderResourceView (cursor): %w", err)
	}

	r.cursorTexture = texture
	r.cursorSRV = srv
	r.cursorTexW = w
	r.cursorTexH = h
	return nil
}

// Close releases all GPU and window resources. Safe to call once, after
// the render loop has returned.
func (r *RenderEngine) Close() {
	release := func(p *uintptr) {
		if *p != 0 {
			comRelease(*p)
			*p = 0
		}
	}
	release(&r.tonemapCB)
	release(&r.cursorCB)
	release(&r.cursorSRV)
	release(&r.cursorTexture)
	release(&r.cursorVS)
	release(&r.blendState)
	release(&r.samplerState)
	release(&r.inputLayout)
	release(&r.psHDRReinhard)
	release(&r.psLinearToSRGB)
	release(&r.psPassthrough)
	release(&r.vertexShader)
	if r.waitableObj != 0 {
		procCloseHandle.Call(r.waitableObj)
		r.waitableObj = 0
	}
	release(&r.swapChain)
	if r.win != nil {
		r.win.Close()
	}
}
