package adjust

import (
	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/internal/filter"
)

// Apply runs matching for s.Mode followed by the post stage and returns a
// new buffer with the source's dimensions. src and ref are not modified.
//
// Nil or empty buffers return an error wrapping recolor.ErrEmptyBuffer.
// An unusable high-precision setup is not an error; see Report.Fallback.
func Apply(src, ref *recolor.Pixmap, s *recolor.Settings) (*recolor.Pixmap, Report, error) {
	out, rep, err := Match(src, ref, s)
	if err != nil {
		return nil, rep, err
	}
	return Post(out, s.Post), rep, nil
}

// Match runs only the matching stage.
func Match(src, ref *recolor.Pixmap, s *recolor.Settings) (*recolor.Pixmap, Report, error) {
	rep := Report{Requested: s.Mode, Mode: s.Mode}
	if err := checkBuffers(src, ref); err != nil {
		return nil, rep, err
	}
	if err := s.ValidateParams(); err != nil {
		return nil, rep, err
	}

	var (
		out *recolor.Pixmap
		err error
	)
	switch s.Mode {
	case recolor.ModeSelective:
		out, err = matchSelective(src, ref, s)
	case recolor.ModePrecision:
		out, err = matchPrecision(src, ref, s, &rep)
	default:
		out, err = matchGlobal(src, ref, s)
	}
	if err != nil {
		return nil, rep, err
	}
	return out, rep, nil
}

// Post applies the hue/saturation/brightness/gamma stage. Identity
// parameters return an exact copy.
func Post(px *recolor.Pixmap, p recolor.PostParams) *recolor.Pixmap {
	return filter.NewHSBG(p).Apply(px)
}

func checkBuffers(src, ref *recolor.Pixmap) error {
	if src == nil || src.IsEmpty() {
		return zerr.Wrap(recolor.ErrEmptyBuffer, "source buffer is empty")
	}
	if ref == nil || ref.IsEmpty() {
		return zerr.Wrap(recolor.ErrEmptyBuffer, "reference buffer is empty")
	}
	return nil
}
