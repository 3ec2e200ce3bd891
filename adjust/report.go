package adjust

import "github.com/gogpu/recolor"

// Report describes what the engine actually did for one request.
type Report struct {
	// Requested is the mode from the settings.
	Requested recolor.Mode

	// Mode is the algorithm that ran. It differs from Requested only when
	// high-precision matching fell back to global matching.
	Mode recolor.Mode

	// Fallback is set when high-precision matching could not run.
	Fallback bool

	// Reason is the configuration error that caused the fallback. It wraps
	// recolor.ErrInvalidPrecisionSetup.
	Reason error

	// Covered is the number of reference texels sampled by high-precision
	// matching.
	Covered int

	// Palette holds the dominant reference colors, most significant first.
	Palette []recolor.RGBA
}
