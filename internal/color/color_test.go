package color

import (
	"math"
	"testing"
)

// TestSRGBToLinearEdgeCases tests edge cases for sRGB to linear conversion.
func TestSRGBToLinearEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"black", 0.0, 0.0},
		{"white", 1.0, 1.0},
		{"threshold", 0.04045, 0.04045 / 12.92},
		{"mid gray", 0.5, math.Pow((0.5+0.055)/1.055, 2.4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SRGBToLinear(tt.input)
			if !floatNear(got, tt.want, 1e-12) {
				t.Errorf("SRGBToLinear(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestSRGB8LUTMatchesFormula checks every table entry against the formula.
func TestSRGB8LUTMatchesFormula(t *testing.T) {
	for i := 0; i <= 255; i++ {
		want := SRGBToLinear(float64(i) / 255)
		if got := SRGB8ToLinear(uint8(i)); got != want {
			t.Fatalf("SRGB8ToLinear(%d) = %v, want %v", i, got, want)
		}
	}
}

// TestOklabRoundTrip verifies that 8-bit colors survive sRGB -> Oklab -> sRGB.
func TestOklabRoundTrip(t *testing.T) {
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 15 {
			for b := 0; b < 256; b += 15 {
				lab := SRGB8ToOklab(uint8(r), uint8(g), uint8(b))
				r2, g2, b2 := OklabToSRGB8(lab)
				if r2 != uint8(r) || g2 != uint8(g) || b2 != uint8(b) {
					t.Fatalf("round trip (%d,%d,%d) -> (%d,%d,%d)", r, g, b, r2, g2, b2)
				}
			}
		}
	}
}

// TestOklabReferenceValues checks white and black against known Oklab values.
func TestOklabReferenceValues(t *testing.T) {
	white := SRGBToOklab(1, 1, 1)
	if !floatNear(white.L, 1, 1e-4) || !floatNear(white.A, 0, 1e-4) || !floatNear(white.B, 0, 1e-4) {
		t.Errorf("white = %+v, want {1 0 0}", white)
	}
	black := SRGBToOklab(0, 0, 0)
	if black.L != 0 || black.A != 0 || black.B != 0 {
		t.Errorf("black = %+v, want zero", black)
	}
	red := SRGBToOklab(1, 0, 0)
	if !floatNear(red.L, 0.62796, 1e-4) {
		t.Errorf("red.L = %v, want ~0.62796", red.L)
	}
}

func TestDistance(t *testing.T) {
	a := Lab{L: 0.5}
	b := Lab{L: 0.5, A: 0.3, B: 0.4}
	if got := Distance(a, b); !floatNear(got, 0.5, 1e-12) {
		t.Errorf("Distance = %v, want 0.5", got)
	}
	if Distance(a, a) != 0 {
		t.Error("Distance of a color to itself must be 0")
	}
}

func TestHSVRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		h       float64
	}{
		{"red", 1, 0, 0, 0},
		{"green", 0, 1, 0, 120},
		{"blue", 0, 0, 1, 240},
		{"orange", 1, 0.5, 0, 30},
		{"gray", 0.5, 0.5, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
			if !floatNear(h, tt.h, 1e-9) {
				t.Errorf("hue = %v, want %v", h, tt.h)
			}
			r, g, b := HSVToRGB(h, s, v)
			if !floatNear(r, tt.r, 1e-9) || !floatNear(g, tt.g, 1e-9) || !floatNear(b, tt.b, 1e-9) {
				t.Errorf("round trip = (%v,%v,%v), want (%v,%v,%v)", r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestHSVHueWraps(t *testing.T) {
	r1, g1, b1 := HSVToRGB(30, 1, 1)
	r2, g2, b2 := HSVToRGB(390, 1, 1)
	r3, g3, b3 := HSVToRGB(-330, 1, 1)
	if r1 != r2 || g1 != g2 || b1 != b2 {
		t.Errorf("390 deg = (%v,%v,%v), want (%v,%v,%v)", r2, g2, b2, r1, g1, b1)
	}
	if !floatNear(r1, r3, 1e-12) || !floatNear(g1, g3, 1e-12) || !floatNear(b1, b3, 1e-12) {
		t.Errorf("-330 deg = (%v,%v,%v), want (%v,%v,%v)", r3, g3, b3, r1, g1, b1)
	}
}

func TestClamp01(t *testing.T) {
	if Clamp01(-1) != 0 || Clamp01(2) != 1 || Clamp01(0.25) != 0.25 || Clamp01(math.NaN()) != 0 {
		t.Error("Clamp01 out of contract")
	}
	if To8(1) != 255 || To8(0) != 0 || To8(0.5) != 128 {
		t.Errorf("To8: got %d %d %d", To8(1), To8(0), To8(0.5))
	}
}

func floatNear(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
