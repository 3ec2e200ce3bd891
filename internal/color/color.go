// Package color provides the color space conversions used by recolor's
// matching algorithms: sRGB transfer functions, Oklab (a perceptual
// lightness/chroma space) and HSV.
//
// All functions work on float64 components. sRGB inputs and outputs are
// gamma-encoded in [0, 1]; 8-bit inputs go through a lookup table.
package color

// Lab is a color in Oklab coordinates. L is perceptual lightness in
// [0, 1]; A and B span the chroma plane (roughly [-0.4, 0.4]).
type Lab struct {
	L, A, B float64
}

// Channel returns component i (0 = L, 1 = A, 2 = B).
func (c Lab) Channel(i int) float64 {
	switch i {
	case 0:
		return c.L
	case 1:
		return c.A
	default:
		return c.B
	}
}

// SetChannel sets component i (0 = L, 1 = A, 2 = B).
func (c *Lab) SetChannel(i int, v float64) {
	switch i {
	case 0:
		c.L = v
	case 1:
		c.A = v
	default:
		c.B = v
	}
}

// Lerp interpolates between two Lab colors.
func (c Lab) Lerp(o Lab, t float64) Lab {
	return Lab{
		L: c.L + (o.L-c.L)*t,
		A: c.A + (o.A-c.A)*t,
		B: c.B + (o.B-c.B)*t,
	}
}
