package adjust

import (
	"github.com/gogpu/recolor"
)

// GlobalTransfer computes the global histogram matching transfer from src
// to ref. Statistics exclude fully transparent pixels.
//
// The dispatcher uses it to prepare GPU execution: statistics are
// gathered on the CPU and only the per-pixel mapping is offloaded.
func GlobalTransfer(src, ref *recolor.Pixmap, s *recolor.Settings) (recolor.StatTransfer, error) {
	if err := checkBuffers(src, ref); err != nil {
		return recolor.StatTransfer{}, err
	}
	return newTransfer(imageStats(toLab(src)), imageStats(toLab(ref)), s.Intensity, s.PreserveLuminance), nil
}

func matchGlobal(src, ref *recolor.Pixmap, s *recolor.Settings) (*recolor.Pixmap, error) {
	if s.Intensity == 0 {
		return src.Clone(), nil
	}
	t, err := GlobalTransfer(src, ref, s)
	if err != nil {
		return nil, err
	}
	return ApplyTransfer(src, t)
}
