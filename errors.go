package recolor

import (
	"errors"

	"go.trai.ch/zerr"
)

// Configuration errors. The affected target is skipped; processing
// continues for the others.
var (
	// ErrConfiguration is the parent of every configuration error.
	ErrConfiguration = zerr.New("invalid adjustment configuration")

	// ErrMissingReference is returned when an adjustment has no reference texture.
	ErrMissingReference = zerr.Wrap(ErrConfiguration, "missing reference texture")

	// ErrNoValidBindings is returned when an adjustment has no valid binding.
	ErrNoValidBindings = zerr.Wrap(ErrConfiguration, "no valid bindings")

	// ErrInvalidPrecisionSetup is reported when the mesh, material index or
	// UV channel of a high-precision adjustment cannot be validated, or the
	// mesh covers no reference texel.
	ErrInvalidPrecisionSetup = zerr.Wrap(ErrConfiguration, "invalid high-precision setup")

	// ErrNoMaterial is returned when a binding's slot holds no material.
	ErrNoMaterial = zerr.Wrap(ErrConfiguration, "no material in slot")

	// ErrNoTexture is returned when a material has no texture-valued property.
	ErrNoTexture = zerr.Wrap(ErrConfiguration, "material has no texture")
)

// Processing errors. The texture and its bindings are skipped.
var (
	// ErrProcessing is the parent of every processing error.
	ErrProcessing = zerr.New("texture processing failed")

	// ErrEmptyBuffer is returned for nil or zero-size pixel buffers.
	ErrEmptyBuffer = zerr.Wrap(ErrProcessing, "empty pixel buffer")

	// ErrUnreadableTexture is returned when texture pixels cannot be read back.
	ErrUnreadableTexture = zerr.Wrap(ErrProcessing, "texture is not readable")
)

// Backend errors. Always recovered by CPU fallback inside the dispatcher.
var (
	// ErrBackend is the parent of every GPU backend error.
	ErrBackend = zerr.New("gpu backend failure")

	// ErrFallbackToCPU indicates the accelerator cannot handle the request.
	// The dispatcher transparently falls back to the CPU path.
	ErrFallbackToCPU = zerr.Wrap(ErrBackend, "falling back to CPU")
)

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsProcessingError reports whether err is a processing error.
func IsProcessingError(err error) bool {
	return errors.Is(err, ErrProcessing)
}

// IsBackendError reports whether err is a GPU backend error.
func IsBackendError(err error) bool {
	return errors.Is(err, ErrBackend)
}
