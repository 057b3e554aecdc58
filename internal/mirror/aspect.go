package mirror

// Viewport is a pixel rectangle within the target window's client area.
type Viewport struct {
	X, Y, Width, Height int
}

// FitViewport implements aspect policy: if preserveAspect
// is true, compute the largest centered rectangle within the window that
// matches the source aspect ratio, pillarboxing or letterboxing the
// remainder to black (B2). Otherwise the full window is returned.
func FitViewport(sourceW, sourceH, windowW, windowH int, preserveAspect bool) Viewport {
	if !preserveAspect || sourceW <= 0 || sourceH <= 0 || windowW <= 0 || windowH <= 0 {
		return Viewport{0, 0, windowW, windowH}
	}

	sourceAspect := float64(sourceW) / float64(sourceH)
	windowAspect := float64(windowW) / float64(windowH)

	if sourceAspect > windowAspect {
		// Source is relatively wider than the window: fit width, letterbox
		// top/bottom (black bars above and below, offset on the Y axis).
		w := windowW
		h := int(float64(w) / sourceAspect)
		return Viewport{X: 0, Y: (windowH - h) / 2, Width: w, Height: h}
	}
	if sourceAspect < windowAspect {
		// Source is relatively taller than the window: fit height,
		// pillarbox left/right (black bars at the sides, offset on the X
		// axis).
		h := windowH
		w := int(float64(h) * sourceAspect)
		return Viewport{X: (windowW - w) / 2, Y: 0, Width: w, Height: h}
	}
	return Viewport{0, 0, windowW, windowH}
}
