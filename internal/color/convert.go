package color

import "math"

// srgbToLinearLUT converts an sRGB byte to linear light in O(1).
var srgbToLinearLUT [256]float64

func init() {
	for i := range srgbToLinearLUT {
		srgbToLinearLUT[i] = SRGBToLinear(float64(i) / 255)
	}
}

// SRGBToLinear converts an sRGB component to linear (EOTF).
// Formula: if s <= 0.04045: s/12.92; else: pow((s+0.055)/1.055, 2.4)
func SRGBToLinear(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// LinearToSRGB converts a linear component to sRGB (OETF).
// Formula: if l <= 0.0031308: l*12.92; else: 1.055*pow(l, 1/2.4)-0.055
func LinearToSRGB(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1.0/2.4) - 0.055
}

// SRGB8ToLinear converts an sRGB byte to linear light using a lookup table.
func SRGB8ToLinear(s uint8) float64 {
	return srgbToLinearLUT[s]
}

// Clamp01 clamps v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// To8 converts a [0, 1] component to a byte with rounding.
func To8(v float64) uint8 {
	return uint8(Clamp01(v)*255 + 0.5)
}
