package color

import "math"

// RGBToHSV converts sRGB components in [0, 1] to hue (degrees in
// [0, 360)), saturation and value in [0, 1].
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v = maxC
	d := maxC - minC
	if maxC <= 0 || d <= 0 {
		return 0, 0, v
	}
	s = d / maxC

	switch maxC {
	case r:
		h = (g - b) / d
		if h < 0 {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s, v
}

// HSVToRGB converts hue (degrees), saturation and value back to sRGB
// components. Hue wraps; saturation and value are clamped to [0, 1].
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	s = Clamp01(s)
	v = Clamp01(v)
	if s == 0 {
		return v, v, v
	}

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
