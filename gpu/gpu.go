//go:build !nogpu

// Package gpu registers the wgpu accelerator for global histogram
// matching.
//
// Import this package to run the per-pixel statistics transfer as a
// compute pass. Selective and high-precision matching, and the
// post-adjustment stage, always run on the CPU.
//
// If no Vulkan adapter is found the accelerator stays registered but
// unavailable and every request falls back to the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/recolor/gpu"
package gpu

import (
	"github.com/gogpu/gpucontext"
	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
	gpuimpl "github.com/gogpu/recolor/internal/gpu"
)

func init() {
	if err := recolor.RegisterAccelerator(&gpuimpl.Accelerator{}); err != nil {
		recolor.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider makes the registered accelerator use a GPU device
// shared by the host instead of its own.
//
// The provider must also expose HalDevice() and HalQueue() for direct
// HAL access, as gogpu's provider does.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	a, ok := recolor.RegisteredAccelerator().(*gpuimpl.Accelerator)
	if !ok {
		return zerr.Wrap(recolor.ErrBackend, "wgpu accelerator is not registered")
	}
	return a.SetDeviceProvider(provider)
}
