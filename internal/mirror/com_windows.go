//go:build windows

package mirror

import (
	"fmt"
	"syscall"
	"unsafe"
)

// COM vtable calling infrastructure: domain-agnostic COM calling
// convention (pure Go, no cgo, no go-ole), not screen-mirroring-specific
// logic.

// comGUID is a COM GUID (128-bit).
type comGUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// comCall invokes a COM vtable method at the given index. obj is a pointer
// to a COM interface (pointer to pointer to vtable).
func comCall(obj uintptr, vtableIdx int, args ...uintptr) (uintptr, error) {
	fnPtr := comVtblFn(obj, vtableIdx)

	var ret uintptr
	switch len(args) {
	case 0:
		ret, _, _ = syscall.SyscallN(fnPtr, obj)
	case 1:
		ret, _, _ = syscall.SyscallN(fnPtr, obj, args[0])
	case 2:
		ret, _, _ = syscall.SyscallN(fnPtr, obj, args[0], args[1])
	case 3:
		ret, _, _ = syscall.SyscallN(fnPtr, obj, args[0], args[1], args[2])
	default:
		allArgs := make([]uintptr, 0, 1+len(args))
		allArgs = append(allArgs, obj)
		allArgs = append(allArgs, args...)
		ret, _, _ = syscall.SyscallN(fnPtr, allArgs...)
	}

	if int32(ret) < 0 {
		return ret, fmt.Errorf("COM vtable[%d] HRESULT 0x%08X", vtableIdx, uint32(ret))
	}
	return ret, nil
}

// comVtblFn resolves a COM vtable function pointer by index.
func comVtblFn(obj uintptr, idx int) uintptr {
	vtablePtr := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtablePtr + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
}

// comRelease calls IUnknown::Release (vtable index 2).
func comRelease(obj uintptr) {
	if obj != 0 {
		syscall.SyscallN(comVtblFn(obj, 2), obj)
	}
}

// --- vtable index constants ---
//
// These are fixed by the COM ABI and must be exact.
//
// IUnknown: 0=QueryInterface, 1=AddRef, 2=Release

const (
	vtblQueryInterface = 0

	// IDXGIObject/IDXGIDevice/IDXGIAdapter/IDXGIOutput/IDXGIOutput1
	dxgiDeviceGetAdapter        = 7  // IDXGIDevice
	dxgiAdapterEnumOutputs      = 7  // IDXGIAdapter
	dxgiOutput1DuplicateOutput  = 22 // IDXGIOutput1
	dxgiDuplGetDesc             = 7  // IDXGIOutputDuplication
	dxgiDuplAcquireNextFrame    = 8  // IDXGIOutputDuplication
	dxgiDuplGetFramePointerShape = 9 // IDXGIOutputDuplication
	dxgiDuplReleaseFrame        = 14 // IDXGIOutputDuplication

	// IDXGIFactory2 / IDXGISwapChain1 / IDXGISwapChain2
	dxgiFactory2CreateSwapChainForHwnd  = 15 // IDXGIFactory2 (extends IDXGIFactory1, base 12 + 3)
	dxgiSwapChainGetBuffer              = 9  // IDXGISwapChain
	dxgiSwapChainPresent                = 8  // IDXGISwapChain
	dxgiSwapChain2SetMaximumFrameLatency = 26 // IDXGISwapChain2
	dxgiSwapChain2GetFrameLatencyWaitableObject = 27 // IDXGISwapChain2

	// ID3D11Device
	d3d11DeviceCreateTexture2D        = 5
	d3d11DeviceCreateShaderResourceView = 7
	d3d11DeviceCreateRenderTargetView  = 9
	d3d11DeviceCreateVertexShader      = 12
	d3d11DeviceCreatePixelShader       = 15
	d3d11DeviceCreateBlendState        = 17
	d3d11DeviceCreateSamplerState      = 23
	d3d11DeviceCreateInputLayout       = 11
	d3d11DeviceCreateBuffer            = 3

	// ID3D11DeviceContext
	d3d11CtxVSSetConstantBuffers = 7
	d3d11CtxVSSetShader        = 11
	d3d11CtxPSSetShader        = 9
	d3d11CtxPSSetShaderResources = 8
	d3d11CtxPSSetSamplers      = 10
	d3d11CtxPSSetConstantBuffers = 21
	d3d11CtxUpdateSubresource  = 48
	d3d11CtxIASetVertexBuffers = 18
	d3d11CtxIASetInputLayout   = 17
	d3d11CtxIASetPrimitiveTopology = 24
	d3d11CtxDraw               = 13
	d3d11CtxOMSetRenderTargets = 33
	d3d11CtxOMSetBlendState    = 35
	d3d11CtxRSSetViewports     = 44
	d3d11CtxClearRenderTargetView = 50
	d3d11CtxMap                = 14
	d3d11CtxUnmap              = 15
	d3d11CtxCopyResource       = 47
	d3d11CtxFlush              = 111

	d3d11Texture2DGetDesc = 10

	// ID3DBlob
	id3dBlobGetBufferPointer = 3
	id3dBlobGetBufferSize    = 4
)

// callSyscall invokes a raw vtable function pointer directly (rather than
// through comCall) for methods that return void or whose HRESULT the
// caller inspects manually, e.g. Flush, CopyResource, ReleaseFrame,
// AcquireNextFrame.
func callSyscall(fn, obj uintptr, args ...uintptr) (uintptr, uintptr, error) {
	all := make([]uintptr, 0, 1+len(args))
	all = append(all, obj)
	all = append(all, args...)
	r, r2, err := syscall.SyscallN(fn, all...)
	return r, r2, err
}

// d3d11Texture2DDesc matches D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// d3d11MappedSubresource matches D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// d3d11SamplerDesc matches D3D11_SAMPLER_DESC.
type d3d11SamplerDesc struct {
	Filter         uint32
	AddressU       uint32
	AddressV       uint32
	AddressW       uint32
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc uint32
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

const (
	d3d11FilterMinMagMipLinear = 0x15
	d3d11TextureAddressClamp   = 3
	d3d11ComparisonNever       = 1
	d3d11Float32Max            = 3.402823466e+38
)

// d3d11RenderTargetBlendDesc matches D3D11_RENDER_TARGET_BLEND_DESC.
type d3d11RenderTargetBlendDesc struct {
	BlendEnable           int32
	SrcBlend              uint32
	DestBlend             uint32
	BlendOp               uint32
	SrcBlendAlpha         uint32
	DestBlendAlpha        uint32
	BlendOpAlpha          uint32
	RenderTargetWriteMask uint8
	_pad                  [3]byte
}

// d3d11BlendDesc matches D3D11_BLEND_DESC.
type d3d11BlendDesc struct {
	AlphaToCoverageEnable  int32
	IndependentBlendEnable int32
	RenderTarget           [8]d3d11RenderTargetBlendDesc
}

const (
	d3d11BlendZero           = 1
	d3d11BlendOne            = 2
	d3d11BlendSrcAlpha       = 5
	d3d11BlendInvSrcAlpha    = 6
	d3d11BlendOpAdd          = 1
	d3d11ColorWriteEnableAll = 0x0F
)

// d3d11BufferDesc matches D3D11_BUFFER_DESC.
type d3d11BufferDesc struct {
	ByteWidth           uint32
	Usage               uint32
	BindFlags           uint32
	CPUAccessFlags      uint32
	MiscFlags           uint32
	StructureByteStride uint32
}

// d3d11SubresourceData matches D3D11_SUBRESOURCE_DATA.
type d3d11SubresourceData struct {
	PSysMem          uintptr
	SysMemPitch      uint32
	SysMemSlicePitch uint32
}

type dxgiRational struct {
	Numerator   uint32
	Denominator uint32
}

// dxgiModeDesc matches DXGI_MODE_DESC.
type dxgiModeDesc struct {
	Width            uint32
	Height           uint32
	RefreshRate      dxgiRational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

// dxgiOutDuplDesc matches DXGI_OUTDUPL_DESC.
type dxgiOutDuplDesc struct {
	ModeDesc                   dxgiModeDesc
	Rotation                   uint32
	DesktopImageInSystemMemory int32
}

// dxgiOutDuplFrameInfo matches DXGI_OUTDUPL_FRAME_INFO.
type dxgiOutDuplFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerPositionX          int32
	PointerPositionY          int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

// dxgiOutDuplPointerShapeInfo matches DXGI_OUTDUPL_POINTER_SHAPE_INFO.
type dxgiOutDuplPointerShapeInfo struct {
	Type    uint32
	Width   uint32
	Height  uint32
	Pitch   uint32
	HotSpot struct{ X, Y int32 }
}

// dxgiSwapChainDesc1 matches DXGI_SWAP_CHAIN_DESC1.
type dxgiSwapChainDesc1 struct {
	Width       uint32
	Height      uint32
	Format      uint32
	Stereo      int32
	SampleDesc  struct{ Count, Quality uint32 }
	BufferUsage uint32
	BufferCount uint32
	Scaling     uint32
	SwapEffect  uint32
	AlphaMode   uint32
	Flags       uint32
}

// HRESULT codes (DXGI_ERROR_*).
const (
	dxgiErrWaitTimeout   = 0x887A0027
	dxgiErrAccessLost    = 0x887A0026
	dxgiErrInvalidCall   = 0x887A0001
	dxgiErrDeviceRemoved = 0x887A0005
	dxgiErrDeviceReset   = 0x887A0007
)

// D3D11/DXGI format and flag constants.
const (
	d3dDriverTypeHardware = 1
	d3dFeatureLevel11_0   = 0xb000
	d3d11SDKVersion       = 7

	d3d11CreateDeviceBGRASupport = 0x20

	d3d11UsageDefault  = 0
	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000

	d3d11BindShaderResource = 0x8
	d3d11BindRenderTarget   = 0x20
	d3d11BindVertexBuffer   = 0x1
	d3d11BindConstantBuffer = 0x4

	dxgiFormatB8G8R8A8        = 87
	dxgiFormatR8G8B8A8        = 28
	dxgiFormatR16G16B16A16F   = 10
	dxgiFormatR32G32B32A32F   = 2

	dxgiSwapEffectFlipDiscard = 4
	dxgiScalingStretch        = 0
	dxgiUsageRenderTargetOut  = 0x20

	dxgiSwapChainFlagFrameLatencyWaitable = 0x200

	d3d11CreateVertexLayoutPerVertex = 0
)

// --- DLL procs ---

var (
	d3d11DLL         = syscall.NewLazyDLL("d3d11.dll")
	dxgiDLL          = syscall.NewLazyDLL("dxgi.dll")
	d3dcompilerDLL   = syscall.NewLazyDLL("d3dcompiler_47.dll")
	user32DLL        = syscall.NewLazyDLL("user32.dll")
	kernel32DLL      = syscall.NewLazyDLL("kernel32.dll")

	procD3D11CreateDevice       = d3d11DLL.NewProc("D3D11CreateDevice")
	procCreateDXGIFactory1      = dxgiDLL.NewProc("CreateDXGIFactory1")
	procD3DCompile              = d3dcompilerDLL.NewProc("D3DCompile")

	procRegisterClassExW = user32DLL.NewProc("RegisterClassExW")
	procCreateWindowExW  = user32DLL.NewProc("CreateWindowExW")
	procDefWindowProcW   = user32DLL.NewProc("DefWindowProcW")
	procPeekMessageW     = user32DLL.NewProc("PeekMessageW")
	procTranslateMessage = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW = user32DLL.NewProc("DispatchMessageW")
	procDestroyWindow    = user32DLL.NewProc("DestroyWindow")
	procShowWindow       = user32DLL.NewProc("ShowWindow")
	procLoadCursorW      = user32DLL.NewProc("LoadCursorW")
	procPostQuitMessage  = user32DLL.NewProc("PostQuitMessage")

	procGetModuleHandleW    = kernel32DLL.NewProc("GetModuleHandleW")
	procWaitForSingleObject = kernel32DLL.NewProc("WaitForSingleObject")
	procCloseHandle         = kernel32DLL.NewProc("CloseHandle")
)

// COM GUIDs for DXGI/D3D11 interfaces used by the capture and render
// engines.
var (
	iidIDXGIDevice      = comGUID{0x54ec77fa, 0x1377, 0x44e6, [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidID3D11Texture2D  = comGUID{0x6f15aaf2, 0xd208, 0x4e89, [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
	iidIDXGIOutput1     = comGUID{0x00cddea8, 0x939b, 0x4b83, [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidIDXGIFactory2    = comGUID{0x50c83a1c, 0xe072, 0x4c48, [8]byte{0x87, 0xb0, 0x36, 0x30, 0xfa, 0x36, 0xa6, 0xd0}}
	iidIDXGISwapChain2  = comGUID{0xa8be2ac4, 0x199f, 0x4946, [8]byte{0xb3, 0x31, 0x79, 0x59, 0x9f, 0xb9, 0x8d, 0xe7}}
)
