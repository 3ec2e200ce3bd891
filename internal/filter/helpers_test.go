package filter

import (
	"image/color"

	"github.com/gogpu/recolor"
)

// Test helper functions shared across filter tests.

// createTestPixmap creates a pixmap filled with the given color.
func createTestPixmap(w, h int, c color.NRGBA) *recolor.Pixmap {
	p := recolor.NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.SetPixel(x, y, c)
		}
	}
	return p
}

// gradientPixmap creates a pixmap whose pixels sweep through many colors.
func gradientPixmap(w, h int) *recolor.Pixmap {
	p := recolor.NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.SetPixel(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) * 127 / max(w+h-2, 1)),
				A: uint8(128 + x%128),
			})
		}
	}
	return p
}

// absDiff returns |a-b| for bytes.
func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
