package recolor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash is a deterministic content fingerprint used as a cache key.
type Hash uint64

// String returns the hash as 16 hex digits.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// hashPrecision is the number of decimal places floats keep before hashing.
const hashPrecision = 1e4

// quantize rounds v to hashPrecision so float noise from editing does not
// change the hash.
func quantize(v float64) int64 {
	if math.IsNaN(v) {
		return math.MinInt64
	}
	return int64(math.Round(v * hashPrecision))
}

// hashWriter accumulates fields into an xxhash digest, separated so that
// adjacent fields cannot alias.
type hashWriter struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHashWriter() *hashWriter {
	return &hashWriter{d: xxhash.New()}
}

func (w *hashWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:], v)
	_, _ = w.d.Write(w.buf[:])
}

func (w *hashWriter) int(v int) { w.u64(uint64(int64(v))) }

func (w *hashWriter) float(v float64) { w.u64(uint64(quantize(v))) }

func (w *hashWriter) bool(v bool) {
	if v {
		w.u64(1)
		return
	}
	w.u64(0)
}

// section starts a new group of fields.
func (w *hashWriter) section(tag byte) { _, _ = w.d.Write([]byte{0, tag}) }

func (w *hashWriter) color(c RGBA) {
	w.float(c.R)
	w.float(c.G)
	w.float(c.B)
	w.float(c.A)
}

func (w *hashWriter) asset(a Asset) { w.u64(assetID(a)) }

func (w *hashWriter) sum() Hash { return Hash(w.d.Sum64()) }

// assetID returns the identity of a live asset, or 0 for a missing one.
func assetID(a Asset) uint64 {
	if !live(a) {
		return 0
	}
	return uint64(a.ID())
}

// ContentHash fingerprints every input that affects the result computed
// for one binding: mode, mode-specific parameters, post-adjustment
// parameters, reference/mask/mesh identities and the target identity.
//
// Parameters of modes other than s.Mode do not contribute, so editing an
// inactive parameter does not invalidate cached results.
func ContentHash(s *Settings, target Binding) Hash {
	w := newHashWriter()

	w.section('m')
	w.int(int(s.Mode))
	w.float(s.Intensity)
	w.bool(s.PreserveLuminance)
	w.asset(s.Reference)

	switch s.Mode {
	case ModeSelective:
		w.section('s')
		w.color(s.Selective.TargetColor)
		w.color(s.Selective.ReferenceColor)
		w.float(s.Selective.Range)
	case ModePrecision:
		p := s.Precision
		w.section('p')
		w.asset(p.Mesh)
		w.int(p.MaterialIndex)
		w.int(p.UVChannel)
		w.int(p.DominantColors)
		w.bool(p.Weighted)
		w.asset(p.Mask)
		w.float(p.MaskThreshold)
	}

	w.section('h')
	w.float(s.Post.HueShift)
	w.float(s.Post.Saturation)
	w.float(s.Post.Brightness)
	w.float(s.Post.Gamma)

	w.section('t')
	w.asset(target.Renderer)
	w.int(target.Slot)

	return w.sum()
}

// bindingListHash fingerprints the shape of a binding list.
func bindingListHash(bindings []Binding) Hash {
	w := newHashWriter()
	w.int(len(bindings))
	for _, b := range bindings {
		w.asset(b.Renderer)
		w.int(b.Slot)
	}
	return w.sum()
}
