package mirror

import "testing"

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// R2: with sdr-white-nits = 80, the tonemap is the identity (scale == 1)
// for inputs in [0,1], so the output is just the sRGB gamma of the input.
func TestReinhardIdentityAtReferenceWhite(t *testing.T) {
	inputs := []RGB{{0, 0, 0}, {0.2, 0.2, 0.2}, {0.5, 0.3, 0.9}, {1, 1, 1}}
	for _, in := range inputs {
		got := ReinhardTonemap(in, 80)
		want := LinearToSRGB(in)
		if !almostEqual(got.R, want.R, 1e-9) || !almostEqual(got.G, want.G, 1e-9) || !almostEqual(got.B, want.B, 1e-9) {
			t.Fatalf("expected identity scaling at 80 nits for %+v, got %+v want %+v", in, got, want)
		}
	}
}

// R3: increasing sdr-white-nits monotonically decreases output luminance
// for the same HDR input.
func TestReinhardMonotonicWithSDRWhite(t *testing.T) {
	in := RGB{2.5, 1.2, 3.0}
	nits := []float64{80, 120, 160, 240, 320, 480}
	var prevLum float64 = -1
	for _, n := range nits {
		out := ReinhardTonemap(in, n)
		lum := 0.2126*out.R + 0.7152*out.G + 0.0722*out.B
		if prevLum >= 0 && lum > prevLum+1e-9 {
			t.Fatalf("expected luminance to decrease as sdr-white-nits increases: at %v nits got %v after %v", n, lum, prevLum)
		}
		prevLum = lum
	}
}

func TestReinhardClampsNegativeChannels(t *testing.T) {
	out := ReinhardTonemap(RGB{-1, -0.5, 0.5}, 240)
	if out.R < 0 || out.G < 0 {
		t.Fatalf("expected negative channels clamped before tonemap, got %+v", out)
	}
}

func TestReinhardIdentityBelowShoulderEqualsLinearToSRGB(t *testing.T) {
	// scale = 80/240 = 1/3, so input 1.0 scales to m=1/3 <= 1: identity path.
	out := ReinhardTonemap(RGB{1, 1, 1}, 240)
	want := LinearToSRGB(RGB{1.0 / 3, 1.0 / 3, 1.0 / 3})
	if !almostEqual(out.R, want.R, 1e-9) {
		t.Fatalf("expected identity-path output %v, got %v", want.R, out.R)
	}
}

func TestSRGBOETFMatchesKnownPoints(t *testing.T) {
	if got := srgbOETF(0); got != 0 {
		t.Fatalf("OETF(0) = %v, want 0", got)
	}
	if got := srgbOETF(1); !almostEqual(got, 1, 1e-9) {
		t.Fatalf("OETF(1) = %v, want 1", got)
	}
	// Near mid-gray linear 0.214 should gamma-encode close to 0.5.
	if got := srgbOETF(0.214); !almostEqual(got, 0.5, 0.01) {
		t.Fatalf("OETF(0.214) = %v, want ~0.5", got)
	}
}
