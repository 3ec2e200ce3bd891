package adjust

import (
	"context"

	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
	icolor "github.com/gogpu/recolor/internal/color"
	"github.com/gogpu/recolor/internal/parallel"
)

// newTransfer builds the statistics transfer from src to ref statistics.
func newTransfer(src, ref Stats, intensity float64, preserveLuminance bool) recolor.StatTransfer {
	return recolor.StatTransfer{
		SrcMean:           src.Mean,
		SrcStd:            src.Std,
		RefMean:           ref.Mean,
		RefStd:            ref.Std,
		Intensity:         intensity,
		PreserveLuminance: preserveLuminance,
	}
}

// transferLab maps one Oklab color through t, blended by amount.
func transferLab(c icolor.Lab, t *recolor.StatTransfer, amount float64) icolor.Lab {
	out := c
	for ch := range 3 {
		x := c.Channel(ch)
		m := (x-t.SrcMean[ch])*t.Scale(ch) + t.RefMean[ch]
		out.SetChannel(ch, x+(m-x)*amount)
	}
	if t.PreserveLuminance {
		out.L = c.L
	}
	return out
}

// ApplyTransfer runs the per-pixel statistics transfer on the CPU. This is
// the reference implementation of what an accelerator computes.
//
// A zero intensity returns an exact copy. Alpha is preserved.
func ApplyTransfer(src *recolor.Pixmap, t recolor.StatTransfer) (*recolor.Pixmap, error) {
	if src == nil || src.IsEmpty() {
		return nil, zerr.Wrap(recolor.ErrEmptyBuffer, "source buffer is empty")
	}
	if t.Intensity == 0 {
		return src.Clone(), nil
	}
	return mapPixels(src, func(i int, r, g, b uint8) (uint8, uint8, uint8, bool) {
		c := transferLab(icolor.SRGB8ToOklab(r, g, b), &t, t.Intensity)
		r2, g2, b2 := icolor.OklabToSRGB8(c)
		return r2, g2, b2, true
	}), nil
}

// mapPixels returns a copy of src with fn applied to every pixel's color
// channels. fn receives the pixel index and reports whether it changed the
// pixel; unchanged pixels keep their original bytes.
func mapPixels(src *recolor.Pixmap, fn func(i int, r, g, b uint8) (uint8, uint8, uint8, bool)) *recolor.Pixmap {
	dst := src.Clone()
	w := dst.Width()
	data := dst.Data()
	_ = parallel.Rows(context.Background(), dst.Height(), func(_ context.Context, b parallel.Band) error {
		for i := b.Y0 * w; i < b.Y1*w; i++ {
			o := i * 4
			if r, g, bl, ok := fn(i, data[o], data[o+1], data[o+2]); ok {
				data[o], data[o+1], data[o+2] = r, g, bl
			}
		}
		return nil
	})
	return dst
}
