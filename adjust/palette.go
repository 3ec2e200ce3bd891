// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package adjust

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	icolor "github.com/gogpu/recolor/internal/color"
)

// maxIterations bounds Lloyd refinement of the palette.
const maxIterations = 32

// swatch is a palette color with its share of the sample weight.
type swatch struct {
	color  icolor.Lab
	weight float64
}

// bucket is one distinct 8-bit color of the sample.
type bucket struct {
	key    uint32
	color  icolor.Lab
	weight float64
}

// collectBuckets merges weighted samples by exact 8-bit color, ordered by
// color value so clustering does not depend on texel order.
func collectBuckets(raw []uint8, weights []float64) []bucket {
	byKey := make(map[uint32]float64)
	for i, w := range weights {
		if w <= 0 || raw[i*4+3] == 0 {
			continue
		}
		o := i * 4
		byKey[uint32(raw[o])<<16|uint32(raw[o+1])<<8|uint32(raw[o+2])] += w
	}

	out := make([]bucket, 0, len(byKey))
	for k, w := range byKey {
		out = append(out, bucket{
			key:    k,
			color:  icolor.SRGB8ToOklab(uint8(k>>16), uint8(k>>8), uint8(k)),
			weight: w,
		})
	}
	slices.SortFunc(out, func(a, b bucket) int { return cmp.Compare(a.key, b.key) })
	return out
}

// dominantColors clusters the buckets into at most k colors by weighted
// k-means in Oklab. Seeding is deterministic: the heaviest color first,
// then repeatedly the color maximizing weight times squared distance to
// the nearest seed. The result is sorted by weight, heaviest first.
func dominantColors(buckets []bucket, k int) []swatch {
	k = min(k, len(buckets))
	if k <= 0 {
		return nil
	}

	centers := seed(buckets, k)
	assign := make([]int, len(buckets))
	for i := range assign {
		assign[i] = -1
	}

	for range maxIterations {
		changed := false
		for i, b := range buckets {
			best := nearest(centers, b.color)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		centers = recenter(buckets, assign, centers)
	}

	weights := make([]float64, len(centers))
	for i, b := range buckets {
		weights[assign[i]] += b.weight
	}
	out := make([]swatch, 0, len(centers))
	for i, c := range centers {
		if weights[i] > 0 {
			out = append(out, swatch{color: c, weight: weights[i]})
		}
	}
	slices.SortStableFunc(out, func(a, b swatch) int { return cmp.Compare(b.weight, a.weight) })
	return out
}

func seed(buckets []bucket, k int) []icolor.Lab {
	heaviest := 0
	for i, b := range buckets {
		if b.weight > buckets[heaviest].weight {
			heaviest = i
		}
	}
	centers := []icolor.Lab{buckets[heaviest].color}

	score := make([]float64, len(buckets))
	for len(centers) < k {
		for i, b := range buckets {
			d := icolor.Distance(b.color, centers[nearest(centers, b.color)])
			score[i] = b.weight * d * d
		}
		next := floats.MaxIdx(score)
		if score[next] == 0 {
			break
		}
		centers = append(centers, buckets[next].color)
	}
	return centers
}

func nearest(centers []icolor.Lab, c icolor.Lab) int {
	best, bestD := 0, math.Inf(1)
	for i, ctr := range centers {
		if d := icolor.Distance(c, ctr); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

func recenter(buckets []bucket, assign []int, prev []icolor.Lab) []icolor.Lab {
	sum := make([]icolor.Lab, len(prev))
	wsum := make([]float64, len(prev))
	for i, b := range buckets {
		j := assign[i]
		sum[j].L += b.color.L * b.weight
		sum[j].A += b.color.A * b.weight
		sum[j].B += b.color.B * b.weight
		wsum[j] += b.weight
	}
	out := make([]icolor.Lab, len(prev))
	for j := range out {
		if wsum[j] == 0 {
			out[j] = prev[j]
			continue
		}
		out[j] = icolor.Lab{L: sum[j].L / wsum[j], A: sum[j].A / wsum[j], B: sum[j].B / wsum[j]}
	}
	return out
}

// paletteStats returns the weighted statistics of a palette.
func paletteStats(p []swatch) Stats {
	colors := make([]icolor.Lab, len(p))
	weights := make([]float64, len(p))
	for i, s := range p {
		colors[i], weights[i] = s.color, s.weight
	}
	return statsOf(colors, weights)
}
