// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package color

import "math"

// LinearToOklab converts linear RGB to Oklab.
func LinearToOklab(r, g, b float64) Lab {
	l := 0.4122214708*r + 0.5363325363*g + 0.0514459929*b
	m := 0.2119034982*r + 0.6806995451*g + 0.1073969566*b
	s := 0.0883024619*r + 0.2817188376*g + 0.6299787005*b

	lp := math.Cbrt(l)
	mp := math.Cbrt(m)
	sp := math.Cbrt(s)

	return Lab{
		L: 0.2104542553*lp + 0.7936177850*mp - 0.0040720468*sp,
		A: 1.9779984951*lp - 2.4285922050*mp + 0.4505937099*sp,
		B: 0.0259040371*lp + 0.7827717662*mp - 0.8086757660*sp,
	}
}

// OklabToLinear converts Oklab to linear RGB. The result is not clamped.
func OklabToLinear(c Lab) (r, g, b float64) {
	lp := c.L + 0.3963377774*c.A + 0.2158037573*c.B
	mp := c.L - 0.1055613458*c.A - 0.0638541728*c.B
	sp := c.L - 0.0894841775*c.A - 1.2914855480*c.B

	l := lp * lp * lp
	m := mp * mp * mp
	s := sp * sp * sp

	r = +4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g = -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	b = -0.0041960863*l - 0.7034186147*m + 1.7076147010*s
	return r, g, b
}

// SRGBToOklab converts gamma-encoded sRGB in [0, 1] to Oklab.
func SRGBToOklab(r, g, b float64) Lab {
	return LinearToOklab(SRGBToLinear(r), SRGBToLinear(g), SRGBToLinear(b))
}

// SRGB8ToOklab converts sRGB bytes to Oklab.
func SRGB8ToOklab(r, g, b uint8) Lab {
	return LinearToOklab(SRGB8ToLinear(r), SRGB8ToLinear(g), SRGB8ToLinear(b))
}

// OklabToSRGB converts Oklab to gamma-encoded sRGB, clamped to [0, 1].
func OklabToSRGB(c Lab) (r, g, b float64) {
	lr, lg, lb := OklabToLinear(c)
	return LinearToSRGB(Clamp01(lr)), LinearToSRGB(Clamp01(lg)), LinearToSRGB(Clamp01(lb))
}

// OklabToSRGB8 converts Oklab to sRGB bytes.
func OklabToSRGB8(c Lab) (r, g, b uint8) {
	fr, fg, fb := OklabToSRGB(c)
	return To8(fr), To8(fg), To8(fb)
}

// Distance returns the Euclidean distance between two Oklab colors.
func Distance(a, b Lab) float64 {
	dl := a.L - b.L
	da := a.A - b.A
	db := a.B - b.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// Chroma returns the colorfulness of c.
func (c Lab) Chroma() float64 {
	return math.Hypot(c.A, c.B)
}
