package recolor

import (
	"math"

	"go.trai.ch/zerr"
)

// Mode selects the matching algorithm.
type Mode uint8

const (
	// ModeGlobal matches the whole source distribution to the reference.
	ModeGlobal Mode = iota

	// ModeSelective shifts only colors near a target color toward a
	// reference color.
	ModeSelective

	// ModePrecision matches against the dominant colors of the reference
	// texels actually covered by a mesh's UVs.
	ModePrecision
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeGlobal:
		return "global"
	case ModeSelective:
		return "selective"
	case ModePrecision:
		return "precision"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name back to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "global", "":
		return ModeGlobal, true
	case "selective", "dual-color":
		return ModeSelective, true
	case "precision", "high-precision":
		return ModePrecision, true
	}
	return ModeGlobal, false
}

// SelectiveParams configures dual-color selective matching.
type SelectiveParams struct {
	// TargetColor is the source color to select.
	TargetColor RGBA
	// ReferenceColor is where selected colors are moved to.
	ReferenceColor RGBA
	// Range is the Oklab distance over which selection fades out.
	// Zero selects exact matches only.
	Range float64
}

// PrecisionParams configures UV-aware high-precision matching.
type PrecisionParams struct {
	Mesh           Mesh
	MaterialIndex  int
	UVChannel      int
	DominantColors int
	// Weighted weights covered texels by covered triangle area.
	Weighted bool
	// Mask optionally restricts sampling to texels whose mask luminance
	// is at least MaskThreshold.
	Mask          Texture
	MaskThreshold float64
}

// PostParams configures the post-adjustment stage.
type PostParams struct {
	// HueShift rotates hue, in degrees.
	HueShift   float64
	Saturation float64
	Brightness float64
	Gamma      float64
}

// DefaultPostParams returns the identity post-adjustment.
func DefaultPostParams() PostParams {
	return PostParams{Saturation: 1, Brightness: 1, Gamma: 1}
}

// IsIdentity reports whether the post stage leaves pixels unchanged.
func (p PostParams) IsIdentity() bool {
	return math.Mod(p.HueShift, 360) == 0 && p.Saturation == 1 && p.Brightness == 1 && p.Gamma == 1
}

// Settings is the full parameter set of one logical recolor operation.
type Settings struct {
	Reference         Texture
	Mode              Mode
	Intensity         float64
	PreserveLuminance bool
	Selective         SelectiveParams
	Precision         PrecisionParams
	Post              PostParams

	// PreviewOnCPU forces the CPU backend.
	PreviewOnCPU bool
}

// DefaultSettings returns settings with full intensity, identity post
// adjustment and four dominant colors.
func DefaultSettings() Settings {
	return Settings{
		Mode:      ModeGlobal,
		Intensity: 1,
		Selective: SelectiveParams{Range: 0.1},
		Precision: PrecisionParams{DominantColors: 4, MaskThreshold: 0.5},
		Post:      DefaultPostParams(),
	}
}

// MaxDominantColors bounds the palette size of high-precision matching.
const MaxDominantColors = 64

// Validate checks that a reference texture is set and that parameters are
// in range. It does not validate the high-precision mesh setup; that is a
// recoverable condition handled by the engine.
func (s *Settings) Validate() error {
	if !live(s.Reference) {
		return zerr.Wrap(ErrMissingReference, "reference texture is not set")
	}
	return s.ValidateParams()
}

// ValidateParams checks parameter ranges only.
func (s *Settings) ValidateParams() error {
	switch {
	case s.Mode > ModePrecision:
		return zerr.With(zerr.Wrap(ErrConfiguration, "unknown mode"), "mode", int(s.Mode))
	case math.IsNaN(s.Intensity) || s.Intensity < 0 || s.Intensity > 1:
		return zerr.With(zerr.Wrap(ErrConfiguration, "intensity out of range"), "intensity", s.Intensity)
	case !(s.Post.Gamma > 0):
		return zerr.With(zerr.Wrap(ErrConfiguration, "gamma must be positive"), "gamma", s.Post.Gamma)
	case s.Post.Saturation < 0 || s.Post.Brightness < 0:
		return zerr.Wrap(ErrConfiguration, "saturation and brightness must not be negative")
	case s.Mode == ModeSelective && s.Selective.Range < 0:
		return zerr.With(zerr.Wrap(ErrConfiguration, "selection range must not be negative"), "range", s.Selective.Range)
	}
	if s.Mode == ModePrecision {
		p := s.Precision
		if p.DominantColors < 1 || p.DominantColors > MaxDominantColors {
			return zerr.With(zerr.Wrap(ErrConfiguration, "dominant color count out of range"), "count", p.DominantColors)
		}
		if p.MaskThreshold < 0 || p.MaskThreshold > 1 {
			return zerr.With(zerr.Wrap(ErrConfiguration, "mask threshold out of range"), "threshold", p.MaskThreshold)
		}
	}
	return nil
}

// IsNoop reports whether the settings leave every pixel unchanged, so a
// derived result can reuse its unmodified input.
func (s *Settings) IsNoop() bool {
	return s.Intensity == 0 && s.Post.IsIdentity()
}
