package mirror

import "testing"

func setBit(buf []byte, rowOffset, bitIndex int) {
	byteIdx := rowOffset + bitIndex/8
	shift := 7 - uint(bitIndex%8)
	buf[byteIdx] |= 1 << shift
}

// B3: Monochrome cursor renders 1:1 on transparent background; opaque
// pixels are either black or white.
func TestDecodeMonochromeCursorOpaquePixelsAreBlackOrWhite(t *testing.T) {
	const w, h, pitch = 8, 2, 1
	shape := make([]byte, pitch*h*2) // AND rows then XOR rows

	// Row 0: AND=0 everywhere -> XOR=0 -> black, XOR=1 -> white.
	setBit(shape, pitch*h /*xorBase*/ +0, 4) // xor bit 4 set -> white at x=4

	pixels := DecodeMonochromeCursor(shape, w, h, pitch)
	if len(pixels) != w*h {
		t.Fatalf("expected %d pixels, got %d", w*h, len(pixels))
	}
	for i, p := range pixels {
		if p.A == 255 {
			isBlack := p.R == 0 && p.G == 0 && p.B == 0
			isWhite := p.R == 255 && p.G == 255 && p.B == 255
			if !isBlack && !isWhite {
				t.Fatalf("pixel %d: opaque pixel must be black or white, got %+v", i, p)
			}
		}
	}
	if pixels[4].R != 255 || pixels[4].A != 255 {
		t.Fatalf("expected white opaque pixel at x=4, got %+v", pixels[4])
	}
	if pixels[0].A != 255 || pixels[0].R != 0 {
		t.Fatalf("expected black opaque pixel at x=0, got %+v", pixels[0])
	}
}

func TestDecodeMonochromeCursorTransparentWhenANDSet(t *testing.T) {
	const w, h, pitch = 8, 1, 1
	shape := make([]byte, pitch*h*2)
	setBit(shape, 0, 0) // AND bit 0 set, XOR bit 0 unset -> transparent

	pixels := DecodeMonochromeCursor(shape, w, h, pitch)
	if pixels[0].A != 0 {
		t.Fatalf("expected transparent pixel when AND=1,XOR=0, got %+v", pixels[0])
	}
}

func TestDecodeMonochromeCursorHalfTransparentWhenBothSet(t *testing.T) {
	const w, h, pitch = 8, 1, 1
	shape := make([]byte, pitch*h*2)
	setBit(shape, 0, 0)    // AND
	setBit(shape, pitch, 0) // XOR (xorBase = pitch*h = pitch here since h=1)

	pixels := DecodeMonochromeCursor(shape, w, h, pitch)
	if pixels[0].A == 0 || pixels[0].A == 255 {
		t.Fatalf("expected half-transparent white when AND=1,XOR=1, got %+v", pixels[0])
	}
	if pixels[0].R != 255 {
		t.Fatalf("expected white RGB in the (1,1) approximation, got %+v", pixels[0])
	}
}

func TestDecodeColorCursorCopiesStraightAlpha(t *testing.T) {
	shape := []byte{10, 20, 30, 200} // B,G,R,A
	pixels := DecodeColorCursor(shape, 1, 1, 4)
	want := CursorPixel{R: 30, G: 20, B: 10, A: 200}
	if pixels[0] != want {
		t.Fatalf("expected %+v, got %+v", want, pixels[0])
	}
}

func TestDecodeMaskedColorCursorOpaqueWhenAlphaFF(t *testing.T) {
	shape := []byte{10, 20, 30, 0xFF}
	pixels := DecodeMaskedColorCursor(shape, 1, 1, 4)
	if pixels[0].A != 255 {
		t.Fatalf("expected opaque pixel, got %+v", pixels[0])
	}
}

func TestDecodeMaskedColorCursorHalfTransparentXORApprox(t *testing.T) {
	shape := []byte{10, 20, 30, 0x00}
	pixels := DecodeMaskedColorCursor(shape, 1, 1, 4)
	if pixels[0].A == 0 || pixels[0].A == 255 {
		t.Fatalf("expected half-transparent XOR approximation, got %+v", pixels[0])
	}
}

func TestDecodeMaskedColorCursorTransparentWhenAlphaZeroAndBlack(t *testing.T) {
	shape := []byte{0, 0, 0, 0x00}
	pixels := DecodeMaskedColorCursor(shape, 1, 1, 4)
	if pixels[0].A != 0 {
		t.Fatalf("expected fully transparent pixel, got %+v", pixels[0])
	}
}

func TestCursorStateDirtyHandshake(t *testing.T) {
	var cs CursorState
	if cs.TakeDirty() {
		t.Fatalf("expected not dirty before any SetShape")
	}
	cs.SetShape(PointerShapeColor, 1, 1, 4, []byte{1, 2, 3, 255})
	if !cs.TakeDirty() {
		t.Fatalf("expected dirty after SetShape")
	}
	if cs.TakeDirty() {
		t.Fatalf("expected dirty to clear after being taken once")
	}
}

func TestCursorStateDecodeDispatchesByType(t *testing.T) {
	var cs CursorState
	cs.SetShape(PointerShapeColor, 1, 1, 4, []byte{1, 2, 3, 255})
	pixels := cs.Decode()
	if len(pixels) != 1 || pixels[0].A != 255 {
		t.Fatalf("expected decoded color pixel, got %+v", pixels)
	}
}
