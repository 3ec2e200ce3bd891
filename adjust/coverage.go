// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package adjust

import (
	"math"

	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
)

// maxWraps bounds how many texture repeats one triangle may span.
const maxWraps = 4

// coverage accumulates per-texel sampling weights over a texture grid.
type coverage struct {
	width, height int
	weight        []float64
}

func newCoverage(w, h int) *coverage {
	return &coverage{width: w, height: h, weight: make([]float64, w*h)}
}

// count returns the number of texels with non-zero weight.
func (c *coverage) count() int {
	n := 0
	for _, w := range c.weight {
		if w > 0 {
			n++
		}
	}
	return n
}

// wrap maps a possibly out-of-range texel coordinate into the grid
// (repeat addressing).
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// meshCoverage rasterizes the triangles of one submesh in UV space over a
// w×h texel grid. A texel is covered when its center lies inside a
// triangle; a triangle too small to contain any center covers the texel
// under its centroid. Covered texels get weight 1, or the UV area of
// every covering triangle when weighted.
//
// V runs bottom to top, texel rows top to bottom.
func meshCoverage(p *recolor.PrecisionParams, w, h int) (*coverage, error) {
	mesh := p.Mesh
	if recolor.IsNil(mesh) || !mesh.Alive() {
		return nil, zerr.Wrap(recolor.ErrInvalidPrecisionSetup, "reference mesh is not set")
	}
	if p.MaterialIndex < 0 || p.MaterialIndex >= mesh.SubmeshCount() {
		return nil, zerr.With(zerr.With(zerr.Wrap(recolor.ErrInvalidPrecisionSetup, "material index out of range"),
			"index", p.MaterialIndex), "submeshes", mesh.SubmeshCount())
	}
	uvs := mesh.UVs(p.UVChannel)
	if len(uvs) == 0 {
		return nil, zerr.With(zerr.Wrap(recolor.ErrInvalidPrecisionSetup, "mesh has no UVs on channel"), "channel", p.UVChannel)
	}

	cov := newCoverage(w, h)
	tris := mesh.Triangles(p.MaterialIndex)
	for i := 0; i+2 < len(tris); i += 3 {
		a, b, c := tris[i], tris[i+1], tris[i+2]
		if a < 0 || b < 0 || c < 0 || a >= len(uvs) || b >= len(uvs) || c >= len(uvs) {
			continue
		}
		cov.triangle(uvs[a], uvs[b], uvs[c], p.Weighted)
	}
	return cov, nil
}

func (c *coverage) toTexel(uv recolor.Point) (float64, float64) {
	return uv.X * float64(c.width), (1 - uv.Y) * float64(c.height)
}

func (c *coverage) triangle(a, b, d recolor.Point, weighted bool) {
	ax, ay := c.toTexel(a)
	bx, by := c.toTexel(b)
	dx, dy := c.toTexel(d)

	area2 := (bx-ax)*(dy-ay) - (by-ay)*(dx-ax)
	if area2 == 0 || math.IsNaN(area2) || math.IsInf(area2, 0) {
		return
	}
	w := 1.0
	if weighted {
		uvArea := math.Abs(area2) / 2 / float64(c.width*c.height)
		w = uvArea
	}

	minX := int(math.Floor(min(ax, bx, dx)))
	maxX := int(math.Ceil(max(ax, bx, dx)))
	minY := int(math.Floor(min(ay, by, dy)))
	maxY := int(math.Ceil(max(ay, by, dy)))
	maxX = min(maxX, minX+c.width*maxWraps)
	maxY = min(maxY, minY+c.height*maxWraps)

	hit := false
	for y := minY; y < maxY; y++ {
		cy := float64(y) + 0.5
		for x := minX; x < maxX; x++ {
			cx := float64(x) + 0.5
			if !inside(ax, ay, bx, by, dx, dy, cx, cy, area2) {
				continue
			}
			c.add(x, y, w, weighted)
			hit = true
		}
	}
	if !hit {
		cx := (ax + bx + dx) / 3
		cy := (ay + by + dy) / 3
		c.add(int(math.Floor(cx)), int(math.Floor(cy)), w, weighted)
	}
}

func (c *coverage) add(x, y int, w float64, weighted bool) {
	i := wrap(y, c.height)*c.width + wrap(x, c.width)
	if weighted {
		c.weight[i] += w
		return
	}
	c.weight[i] = 1
}

// inside reports whether (px, py) lies inside or on the triangle. The sign
// of area2 gives the winding.
func inside(ax, ay, bx, by, cx, cy, px, py, area2 float64) bool {
	e0 := (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	e1 := (cx-bx)*(py-by) - (cy-by)*(px-bx)
	e2 := (ax-cx)*(py-cy) - (ay-cy)*(px-cx)
	if area2 < 0 {
		e0, e1, e2 = -e0, -e1, -e2
	}
	return e0 >= 0 && e1 >= 0 && e2 >= 0
}

// applyMask zeroes the weight of texels whose mask luminance is below
// threshold. The mask is resampled to the coverage grid when its size
// differs.
func (c *coverage) applyMask(mask *recolor.Pixmap, threshold float64) {
	if mask.Width() != c.width || mask.Height() != c.height {
		mask = mask.Resize(c.width, c.height)
	}
	data := mask.Data()
	for i := range c.weight {
		o := i * 4
		lum := (0.2126*float64(data[o]) + 0.7152*float64(data[o+1]) + 0.0722*float64(data[o+2])) / 255
		lum *= float64(data[o+3]) / 255
		if lum < threshold {
			c.weight[i] = 0
		}
	}
}
