// Package mirror implements the capture/pace/render pipeline that mirrors
// one display onto another: a lock-free triple buffer handing GPU frames
// from a capture thread to a vsync-locked render thread, frame-identity
// pacing for mismatched refresh rates, and HDR→SDR tonemapping.
package mirror

import "fmt"

// PixelFormat identifies the two container formats a capture can arrive in.
type PixelFormat int

const (
	// FormatUnknown is the zero value before the first frame is captured.
	FormatUnknown PixelFormat = iota
	// FormatSRGB8 is an 8-bit BGRA sRGB-encoded container (SDR sources).
	FormatSRGB8
	// FormatLinearScRGB16F is a 16-bit-per-channel linear scRGB container,
	// where 1.0 = 80 cd/m² reference white (HDR sources).
	FormatLinearScRGB16F
)

func (f PixelFormat) String() string {
	switch f {
	case FormatSRGB8:
		return "rgb8-srgb-container"
	case FormatLinearScRGB16F:
		return "rgba16-float-linear-scrgb"
	default:
		return "unknown"
	}
}

// FormatDescriptor is the runtime-learned shape of the mirrored stream.
// ReportedHDR is known at duplication setup; ActualHDR is learned from the
// first captured texture's description and may disagree with ReportedHDR.
type FormatDescriptor struct {
	ReportedHDR     bool
	ActualHDR       bool
	ActualFormat    PixelFormat
	Width           int
	Height          int
	SourceRefreshHz float64
	TargetRefreshHz float64
	TargetFrameSkip int
}

// ComputeTargetFrameSkip returns round(sourceHz/targetHz) clamped to ≥1.
func ComputeTargetFrameSkip(sourceHz, targetHz float64) int {
	if targetHz <= 0 {
		return 1
	}
	skip := int(sourceHz/targetHz + 0.5)
	if skip < 1 {
		skip = 1
	}
	return skip
}

// PointerShapeType mirrors the DXGI_OUTDUPL_POINTER_SHAPE_TYPE values.
type PointerShapeType int

const (
	PointerShapeMonochrome  PointerShapeType = 1
	PointerShapeColor       PointerShapeType = 2
	PointerShapeMaskedColor PointerShapeType = 4
)

// Configuration is the immutable, validated set of parameters threaded into
// every component. It is the resolved form of the CLI flags, after
// monitor-index validation.
type Configuration struct {
	SourceIndex     int
	TargetIndex     int
	PreserveAspect  bool
	TonemapEnabled  bool
	SDRWhiteNits    float64
	ShowCursor      bool
	UseWaitable     bool
	UseSmartSelect  bool
	UseFrameDelay   bool
	FrameDelayMicro int
	Debug           bool
}

// DefaultConfiguration matches defaults.
func DefaultConfiguration() Configuration {
	return Configuration{
		SourceIndex:     0,
		TargetIndex:     1,
		PreserveAspect:  true,
		TonemapEnabled:  true,
		SDRWhiteNits:    240,
		ShowCursor:      true,
		UseWaitable:     true,
		UseSmartSelect:  true,
		UseFrameDelay:   true,
		FrameDelayMicro: 1000,
	}
}

// Validate checks the configuration-error taxonomy from kind 1.
// It must run before any device object is created.
func (c Configuration) Validate() error {
	if c.SourceIndex < 0 {
		return fmt.Errorf("invalid source monitor index %d", c.SourceIndex)
	}
	if c.TargetIndex < 0 {
		return fmt.Errorf("invalid target monitor index %d", c.TargetIndex)
	}
	if c.SourceIndex == c.TargetIndex {
		return fmt.Errorf("source and target monitor must differ (both %d)", c.SourceIndex)
	}
	if c.SDRWhiteNits <= 0 {
		return fmt.Errorf("sdr-white must be > 0, got %v", c.SDRWhiteNits)
	}
	if c.FrameDelayMicro < 0 {
		return fmt.Errorf("frame-delay must be >= 0, got %d", c.FrameDelayMicro)
	}
	return nil
}

// MonitorInfo describes one enumerated display output.
type MonitorInfo struct {
	Index     int
	Name      string
	Width     int
	Height    int
	X         int
	Y         int
	RefreshHz float64
	IsPrimary bool
}
