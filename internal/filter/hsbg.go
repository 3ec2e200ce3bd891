// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"math"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/internal/color"
)

// HSBG is the hue/saturation/brightness/gamma post filter.
type HSBG struct {
	// HueShift rotates hue by the given angle in degrees.
	HueShift float64
	// Saturation scales HSV saturation. 0 = grayscale, 1 = unchanged.
	Saturation float64
	// Brightness scales HSV value. 0 = black, 1 = unchanged.
	Brightness float64
	// Gamma raises each channel to this power. 1 = unchanged.
	Gamma float64
}

// NewHSBG creates the filter from post-adjustment parameters.
func NewHSBG(p recolor.PostParams) HSBG {
	return HSBG{
		HueShift:   p.HueShift,
		Saturation: p.Saturation,
		Brightness: p.Brightness,
		Gamma:      p.Gamma,
	}
}

// IsIdentity reports whether the filter leaves pixels unchanged.
func (f HSBG) IsIdentity() bool {
	return math.Mod(f.HueShift, 360) == 0 && f.Saturation == 1 && f.Brightness == 1 && f.Gamma == 1
}

// Apply returns a new pixmap with the filter applied. The source is not
// modified. An identity filter returns an exact copy.
func (f HSBG) Apply(src *recolor.Pixmap) *recolor.Pixmap {
	dst := src.Clone()
	if f.IsIdentity() || dst.IsEmpty() {
		return dst
	}

	data := dst.Data()
	for i := 0; i+3 < len(data); i += 4 {
		r, g, b := f.pixel(data[i], data[i+1], data[i+2])
		data[i+0] = r
		data[i+1] = g
		data[i+2] = b
	}
	return dst
}

// pixel applies the filter to one straight-alpha pixel.
func (f HSBG) pixel(r8, g8, b8 uint8) (uint8, uint8, uint8) {
	h, s, v := color.RGBToHSV(float64(r8)/255, float64(g8)/255, float64(b8)/255)
	h += f.HueShift
	s *= f.Saturation
	v *= f.Brightness
	r, g, b := color.HSVToRGB(h, s, v)

	if f.Gamma != 1 {
		r = math.Pow(r, f.Gamma)
		g = math.Pow(g, f.Gamma)
		b = math.Pow(b, f.Gamma)
	}
	return color.To8(r), color.To8(g), color.To8(b)
}
