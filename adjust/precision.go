package adjust

import (
	"errors"

	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
	icolor "github.com/gogpu/recolor/internal/color"
)

// percentScale converts intensity in [0,1] to the percent scale taken by
// the high-precision transfer.
const percentScale = 100

// referencePalette samples the reference texels covered by the mesh UVs
// and reduces them to the dominant colors. Any error wraps
// recolor.ErrInvalidPrecisionSetup.
func referencePalette(ref *recolor.Pixmap, p *recolor.PrecisionParams) ([]swatch, int, error) {
	cov, err := meshCoverage(p, ref.Width(), ref.Height())
	if err != nil {
		return nil, 0, err
	}

	if !recolor.IsNil(p.Mask) {
		mask, err := recolor.ReadPixels(p.Mask)
		if err != nil {
			return nil, 0, zerr.With(zerr.Wrap(recolor.ErrInvalidPrecisionSetup, "mask texture is unreadable"), "cause", err.Error())
		}
		cov.applyMask(mask, p.MaskThreshold)
	}

	buckets := collectBuckets(ref.Data(), cov.weight)
	covered := cov.count()
	if covered == 0 || len(buckets) == 0 {
		return nil, covered, zerr.Wrap(recolor.ErrInvalidPrecisionSetup, "mesh covers no reference texels")
	}
	return dominantColors(buckets, p.DominantColors), covered, nil
}

// precisionTransfer matches src statistics to the palette statistics.
// intensityPercent is in [0,100].
func precisionTransfer(src *recolor.Pixmap, palette Stats, intensityPercent float64, preserveLuminance bool) (*recolor.Pixmap, error) {
	amount := intensityPercent / percentScale
	t := newTransfer(imageStats(toLab(src)), palette, amount, preserveLuminance)
	return ApplyTransfer(src, t)
}

// matchPrecision runs high-precision matching, or global matching when
// the mesh setup is unusable. The fallback is reported in rep.
func matchPrecision(src, ref *recolor.Pixmap, s *recolor.Settings, rep *Report) (*recolor.Pixmap, error) {
	palette, covered, err := referencePalette(ref, &s.Precision)
	rep.Covered = covered
	if err != nil {
		if !errors.Is(err, recolor.ErrInvalidPrecisionSetup) {
			return nil, err
		}
		recolor.Logger().Warn("high-precision setup unusable, using global matching", "error", err)
		rep.Mode = recolor.ModeGlobal
		rep.Fallback = true
		rep.Reason = err
		return matchGlobal(src, ref, s)
	}

	rep.Palette = make([]recolor.RGBA, len(palette))
	for i, sw := range palette {
		r, g, b := icolor.OklabToSRGB(sw.color)
		rep.Palette[i] = recolor.RGBA{R: r, G: g, B: b, A: 1}
	}
	if s.Intensity == 0 {
		return src.Clone(), nil
	}
	return precisionTransfer(src, paletteStats(palette), s.Intensity*percentScale, s.PreserveLuminance)
}
