package adjust

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/gogpu/recolor"
	icolor "github.com/gogpu/recolor/internal/color"
	"github.com/gogpu/recolor/internal/parallel"
)

// Stats holds per-channel Oklab statistics of a weighted sample.
type Stats struct {
	Mean, Std [3]float64
	// Weight is the total sample weight. Zero means the sample was empty.
	Weight float64
}

// labImage is a pixmap converted to Oklab, with the alpha channel kept
// alongside for sample selection.
type labImage struct {
	width, height int
	px            []icolor.Lab
	alpha         []uint8
}

func toLab(p *recolor.Pixmap) *labImage {
	w, h := p.Width(), p.Height()
	img := &labImage{
		width:  w,
		height: h,
		px:     make([]icolor.Lab, w*h),
		alpha:  make([]uint8, w*h),
	}
	data := p.Data()
	_ = parallel.Rows(context.Background(), h, func(_ context.Context, b parallel.Band) error {
		for i := b.Y0 * w; i < b.Y1*w; i++ {
			o := i * 4
			img.px[i] = icolor.SRGB8ToOklab(data[o], data[o+1], data[o+2])
			img.alpha[i] = data[o+3]
		}
		return nil
	})
	return img
}

// opaqueIndices returns the indices of pixels with non-zero alpha. A fully
// transparent image contributes all of its pixels instead.
func (img *labImage) opaqueIndices() []int {
	idx := make([]int, 0, len(img.alpha))
	for i, a := range img.alpha {
		if a != 0 {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		for i := range img.alpha {
			idx = append(idx, i)
		}
	}
	return idx
}

// statsOf computes weighted population statistics. A nil weights slice
// weighs every sample 1. Samples with zero weight do not contribute.
func statsOf(samples []icolor.Lab, weights []float64) Stats {
	var s Stats
	if len(samples) == 0 {
		return s
	}
	if weights == nil {
		s.Weight = float64(len(samples))
	} else {
		for _, w := range weights {
			s.Weight += w
		}
	}
	if !(s.Weight > 0) {
		return Stats{}
	}

	x := make([]float64, len(samples))
	for ch := range 3 {
		for i, c := range samples {
			x[i] = c.Channel(ch)
		}
		mean, std := stat.PopMeanStdDev(x, weights)
		if math.IsNaN(std) {
			std = 0
		}
		s.Mean[ch], s.Std[ch] = mean, std
	}
	return s
}

// imageStats returns the statistics of the opaque pixels of img.
func imageStats(img *labImage) Stats {
	idx := img.opaqueIndices()
	samples := make([]icolor.Lab, len(idx))
	for i, j := range idx {
		samples[i] = img.px[j]
	}
	return statsOf(samples, nil)
}

func smoothstep(e0, e1, x float64) float64 {
	t := icolor.Clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}
