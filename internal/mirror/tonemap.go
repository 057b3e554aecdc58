package mirror

import "math"

// scRGBReferenceWhiteNits is the scRGB convention that 1.0 == 80 cd/m².
const scRGBReferenceWhiteNits = 80.0

// RGB is a linear triple used by the pure tonemap reference functions
// below. The shader in shaders_windows.go implements the identical math
// in HLSL; this Go copy exists so the tonemap law is testable without a
// GPU.
type RGB struct {
	R, G, B float64
}

// ReinhardTonemap implements the HDR-Reinhard pixel shader math: clamp
// negative channels to 0, scale by (scRGBReferenceWhiteNits / sdrWhiteNits),
// apply the maxRGB Reinhard curve, saturate to [0,1], then apply the sRGB
// OETF.
//
// maxRGB Reinhard: m = max(r,g,b); for m > 1, scale the whole vector by
// (m/(1+m))/m — i.e. by 1/(1+m) — which compresses highlights while
// preserving hue; for m <= 1 it is the identity (GLOSSARY).
func ReinhardTonemap(c RGB, sdrWhiteNits float64) RGB {
	scale := scRGBReferenceWhiteNits / sdrWhiteNits

	r := math.Max(c.R, 0) * scale
	g := math.Max(c.G, 0) * scale
	b := math.Max(c.B, 0) * scale

	m := math.Max(r, math.Max(g, b))
	if m > 1 {
		factor := 1 / (1 + m)
		r *= factor
		g *= factor
		b *= factor
	}

	return RGB{
		R: srgbOETF(saturate(r)),
		G: srgbOETF(saturate(g)),
		B: srgbOETF(saturate(b)),
	}
}

// LinearToSRGB applies only the sRGB OETF, for the linear-container SDR
// edge case noted in step 5's parenthetical (no Non-goal HDR
// source, but a linear pixel container nonetheless).
func LinearToSRGB(c RGB) RGB {
	return RGB{
		R: srgbOETF(saturate(c.R)),
		G: srgbOETF(saturate(c.G)),
		B: srgbOETF(saturate(c.B)),
	}
}

func saturate(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// srgbOETF is the piecewise sRGB opto-electronic transfer function.
func srgbOETF(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}
