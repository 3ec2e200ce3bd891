// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/recolor"
)

// paramsSize is the byte size of the Params uniform in transfer.wgsl:
// five 16-byte vectors.
const paramsSize = 80

// grid is the dispatch shape of one transfer.
type grid struct {
	groupsX, groupsY uint32
	// rowStride is the number of invocations per dispatch row.
	rowStride uint32
}

// gridFor splits pixelCount invocations into a 2D dispatch that stays
// within maxGroupsPerDim in each dimension.
func gridFor(pixelCount int) grid {
	groups := (uint32(pixelCount) + workgroupSize - 1) / workgroupSize //nolint:gosec // pixel count fits uint32
	if groups == 0 {
		return grid{}
	}
	gx := min(groups, maxGroupsPerDim)
	gy := (groups + gx - 1) / gx
	return grid{groupsX: gx, groupsY: gy, rowStride: gx * workgroupSize}
}

// packParams serializes the transfer into the Params uniform layout.
func packParams(t recolor.StatTransfer, pixelCount int, g grid) []byte {
	buf := make([]byte, paramsSize)
	le := binary.LittleEndian

	var preserve uint32
	if t.PreserveLuminance {
		preserve = 1
	}
	le.PutUint32(buf[0:], uint32(pixelCount)) //nolint:gosec // pixel count fits uint32
	le.PutUint32(buf[4:], g.rowStride)
	le.PutUint32(buf[8:], preserve)

	putVec3 := func(off int, v [3]float64) {
		for i, x := range v {
			le.PutUint32(buf[off+i*4:], math.Float32bits(float32(x)))
		}
	}
	putVec3(16, t.SrcMean)
	putVec3(32, [3]float64{t.Scale(0), t.Scale(1), t.Scale(2)})
	putVec3(48, t.RefMean)
	le.PutUint32(buf[64:], math.Float32bits(float32(t.Intensity)))
	return buf
}

func packPixels(data []uint8, pixelCount int) []byte {
	out := make([]byte, pixelCount*4)
	for i := range pixelCount {
		o := i * 4
		packed := uint32(data[o]) | uint32(data[o+1])<<8 | uint32(data[o+2])<<16 | uint32(data[o+3])<<24
		binary.LittleEndian.PutUint32(out[o:], packed)
	}
	return out
}

func unpackPixels(packed []byte, dst []uint8, pixelCount int) {
	for i := range pixelCount {
		o := i * 4
		v := binary.LittleEndian.Uint32(packed[o:])
		dst[o+0] = uint8(v)       //nolint:gosec // truncation intended
		dst[o+1] = uint8(v >> 8)  //nolint:gosec // truncation intended
		dst[o+2] = uint8(v >> 16) //nolint:gosec // truncation intended
		dst[o+3] = uint8(v >> 24) //nolint:gosec // truncation intended
	}
}
