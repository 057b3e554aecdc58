package mirror

import "sync/atomic"

// CursorPixel is a straight-alpha RGBA output pixel from a shape decode.
type CursorPixel struct {
	R, G, B, A uint8
}

// DecodeMonochromeCursor converts a DXGI monochrome pointer shape (an
// AND-mask followed by an XOR-mask, each 1 bpp, stacked vertically in a
// buffer `height*2` rows tall) into width*height straight-alpha pixels.
//
// mapping: (AND,XOR) -> (0,0) opaque black, (0,1) opaque
// white, (1,0) transparent, (1,1) half-transparent white (an approximation
// of a true inverting XOR blend — see open questions).
func DecodeMonochromeCursor(shape []byte, width, height, pitch int) []CursorPixel {
	out := make([]CursorPixel, width*height)
	andBase := 0
	xorBase := pitch * height

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			and := bitAt(shape, andBase+y*pitch, x)
			xor := bitAt(shape, xorBase+y*pitch, x)
			out[y*width+x] = monoPixel(and, xor)
		}
	}
	return out
}

func monoPixel(and, xor bool) CursorPixel {
	switch {
	case !and && !xor:
		return CursorPixel{0, 0, 0, 255}
	case !and && xor:
		return CursorPixel{255, 255, 255, 255}
	case and && !xor:
		return CursorPixel{0, 0, 0, 0}
	default: // and && xor
		return CursorPixel{255, 255, 255, 127}
	}
}

func bitAt(buf []byte, rowOffset, bitIndex int) bool {
	byteIdx := rowOffset + bitIndex/8
	if byteIdx < 0 || byteIdx >= len(buf) {
		return false
	}
	shift := 7 - uint(bitIndex%8)
	return (buf[byteIdx]>>shift)&1 != 0
}

// DecodeColorCursor converts a DXGI color pointer shape (straight-alpha
// BGRA, row stride `pitch`) into width*height straight-alpha pixels,
// copied as-is.
func DecodeColorCursor(shape []byte, width, height, pitch int) []CursorPixel {
	out := make([]CursorPixel, width*height)
	for y := 0; y < height; y++ {
		row := y * pitch
		for x := 0; x < width; x++ {
			i := row + x*4
			if i+3 >= len(shape) {
				continue
			}
			out[y*width+x] = CursorPixel{R: shape[i+2], G: shape[i+1], B: shape[i+0], A: shape[i+3]}
		}
	}
	return out
}

// DecodeMaskedColorCursor converts a DXGI masked-color pointer shape
// (BGRA where alpha doubles as an AND-mask: 0xFF passes the color through,
// 0x00 means the RGB value is an XOR mask against the destination):
// alpha=0xFF -> opaque RGB; alpha=0 with nonzero RGB -> half-transparent
// RGB (approximates XOR); otherwise transparent.
func DecodeMaskedColorCursor(shape []byte, width, height, pitch int) []CursorPixel {
	out := make([]CursorPixel, width*height)
	for y := 0; y < height; y++ {
		row := y * pitch
		for x := 0; x < width; x++ {
			i := row + x*4
			if i+3 >= len(shape) {
				continue
			}
			b, g, r, a := shape[i+0], shape[i+1], shape[i+2], shape[i+3]
			switch {
			case a == 0xFF:
				out[y*width+x] = CursorPixel{R: r, G: g, B: b, A: 255}
			case a == 0 && (r != 0 || g != 0 || b != 0):
				out[y*width+x] = CursorPixel{R: r, G: g, B: b, A: 127}
			default:
				out[y*width+x] = CursorPixel{0, 0, 0, 0}
			}
		}
	}
	return out
}

// CursorState holds the capture engine's view of the pointer, updated
// exclusively by the capture engine and consumed exclusively by the
// render engine through the dirty handshake in SetShape()/TakeDirty().
//
// The shape-dirty flag is a single-writer/single-reader one-shot: a release store on publish (SetShape), an acquire-then-clear
// (exchange) on consumption (TakeDirty) — modeled directly on atomic.Bool
// semantics, which on Go provide sequential consistency, a superset of
// the required release/acquire pairing.
type CursorState struct {
	Visible  atomic.Bool
	HasShape atomic.Bool
	X        atomic.Int64
	Y        atomic.Int64

	dirty atomic.Bool

	shapeType   atomic.Int32
	width       atomic.Int32
	height      atomic.Int32
	pitch       atomic.Int32
	shapeMu     atomic.Pointer[[]byte]
}

// NewCursorState returns a zeroed cursor state with no shape recorded.
func NewCursorState() *CursorState {
	return &CursorState{}
}

// SetPosition records a new cursor position. Called from the capture
// engine when the frame info's last-mouse-update-time is non-zero.
func (c *CursorState) SetPosition(x, y int64) {
	c.X.Store(x)
	c.Y.Store(y)
}

// SetShape records a new pointer shape buffer and raises shape-dirty. buf
// is the owned copy made by the capture engine.
func (c *CursorState) SetShape(shapeType PointerShapeType, width, height, pitch int, buf []byte) {
	c.shapeType.Store(int32(shapeType))
	c.width.Store(int32(width))
	c.height.Store(int32(height))
	c.pitch.Store(int32(pitch))
	c.shapeMu.Store(&buf)
	c.HasShape.Store(true)
	c.dirty.Store(true)
}

// TakeDirty atomically clears and returns whether a new shape is pending
// rebuild. Call from the render engine once per iteration.
func (c *CursorState) TakeDirty() bool {
	return c.dirty.Swap(false)
}

// Shape returns the most recently recorded shape buffer and its metadata.
func (c *CursorState) Shape() (shapeType PointerShapeType, width, height, pitch int, buf []byte) {
	p := c.shapeMu.Load()
	if p == nil {
		return 0, 0, 0, 0, nil
	}
	return PointerShapeType(c.shapeType.Load()), int(c.width.Load()), int(c.height.Load()), int(c.pitch.Load()), *p
}

// Decode dispatches to the decoder matching the recorded shape type.
func (c *CursorState) Decode() []CursorPixel {
	shapeType, w, h, pitch, buf := c.Shape()
	if buf == nil || w == 0 || h == 0 {
		return nil
	}
	switch shapeType {
	case PointerShapeMonochrome:
		return DecodeMonochromeCursor(buf, w, h, pitch)
	case PointerShapeColor:
		return DecodeColorCursor(buf, w, h, pitch)
	case PointerShapeMaskedColor:
		return DecodeMaskedColorCursor(buf, w, h, pitch)
	default:
		return nil
	}
}
