package adjust

import (
	"github.com/gogpu/recolor"
	icolor "github.com/gogpu/recolor/internal/color"
)

// selector weighs colors by closeness to a center color. With a zero
// range only exact 8-bit matches are selected.
type selector struct {
	center icolor.Lab
	exact  [3]uint8
	rng    float64
}

func newSelector(c recolor.RGBA, rng float64) selector {
	r, g, b := icolor.To8(c.R), icolor.To8(c.G), icolor.To8(c.B)
	return selector{
		center: icolor.SRGBToOklab(icolor.Clamp01(c.R), icolor.Clamp01(c.G), icolor.Clamp01(c.B)),
		exact:  [3]uint8{r, g, b},
		rng:    rng,
	}
}

// weight returns 1 at the center, falling smoothly to 0 at distance rng.
func (s selector) weight(r, g, b uint8, lab icolor.Lab) float64 {
	if s.rng <= 0 {
		if r == s.exact[0] && g == s.exact[1] && b == s.exact[2] {
			return 1
		}
		return 0
	}
	return 1 - smoothstep(0, s.rng, icolor.Distance(lab, s.center))
}

// weightedStats returns statistics of the opaque pixels of img weighted by
// sel. The raw pixmap supplies the exact bytes for zero-range selection.
func weightedStats(img *labImage, raw []uint8, sel selector) (Stats, []float64) {
	weights := make([]float64, len(img.px))
	samples := make([]icolor.Lab, 0, len(img.px))
	sw := make([]float64, 0, len(img.px))
	for i, c := range img.px {
		if img.alpha[i] == 0 {
			continue
		}
		o := i * 4
		w := sel.weight(raw[o], raw[o+1], raw[o+2], c)
		weights[i] = w
		if w > 0 {
			samples = append(samples, c)
			sw = append(sw, w)
		}
	}
	return statsOf(samples, sw), weights
}

// matchSelective moves colors near TargetColor toward ReferenceColor.
//
// Selected source pixels are matched to the reference pixels selected
// around ReferenceColor. When the reference has no such pixels, the
// selection is shifted by ReferenceColor - TargetColor with its spread
// kept. Pixels with zero weight keep their original bytes.
func matchSelective(src, ref *recolor.Pixmap, s *recolor.Settings) (*recolor.Pixmap, error) {
	if s.Intensity == 0 {
		return src.Clone(), nil
	}
	p := s.Selective
	target := newSelector(p.TargetColor, p.Range)
	toward := newSelector(p.ReferenceColor, p.Range)

	srcLab := toLab(src)
	srcStats, weights := weightedStats(srcLab, src.Data(), target)
	if srcStats.Weight == 0 {
		return src.Clone(), nil
	}

	refStats, _ := weightedStats(toLab(ref), ref.Data(), toward)
	if refStats.Weight == 0 {
		refStats = srcStats
		shift := [3]float64{
			toward.center.L - target.center.L,
			toward.center.A - target.center.A,
			toward.center.B - target.center.B,
		}
		for ch := range 3 {
			refStats.Mean[ch] += shift[ch]
		}
	}

	t := newTransfer(srcStats, refStats, s.Intensity, s.PreserveLuminance)
	return mapPixels(src, func(i int, _, _, _ uint8) (uint8, uint8, uint8, bool) {
		amount := weights[i] * s.Intensity
		if amount == 0 {
			return 0, 0, 0, false
		}
		r, g, b := icolor.OklabToSRGB8(transferLab(srcLab.px[i], &t, amount))
		return r, g, b, true
	}), nil
}
