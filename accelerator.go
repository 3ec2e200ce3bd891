package recolor

import (
	"errors"
	"sync"
)

// AcceleratedOp describes operation types for GPU capability checking.
type AcceleratedOp uint32

const (
	// AccelHistogram represents global histogram matching (statistics
	// transfer applied per pixel).
	AccelHistogram AcceleratedOp = 1 << iota
)

// StatTransfer is the per-pixel part of global histogram matching.
//
// Channels are Oklab (L, a, b). A pixel x maps to
// (x-SrcMean)*RefStd/SrcStd + RefMean, blended with x by Intensity; with
// PreserveLuminance the L channel keeps its original value.
// A channel whose SrcStd is below MinStd keeps the scale at 1.
type StatTransfer struct {
	SrcMean, SrcStd   [3]float64
	RefMean, RefStd   [3]float64
	Intensity         float64
	PreserveLuminance bool
}

// MinStd is the smallest source spread that is rescaled. Oklab values
// closer than this are perceptually identical.
const MinStd = 1e-4

// Scale returns the per-channel scale factor of the transfer.
func (t StatTransfer) Scale(ch int) float64 {
	if t.SrcStd[ch] < MinStd {
		return 1
	}
	return t.RefStd[ch] / t.SrcStd[ch]
}

// GPUImage is a GPU-resident result. It must be read back before any CPU
// stage can use it and released exactly once.
type GPUImage interface {
	Width() int
	Height() int

	// Readback copies the result to a CPU-accessible buffer. It may fail,
	// e.g. when the device is lost.
	Readback() (*Pixmap, error)

	// Release frees the GPU resources.
	Release()
}

// Accelerator is an optional GPU execution backend.
//
// When registered via RegisterAccelerator, the dispatcher tries it first
// for supported operations. Any error, including ErrFallbackToCPU, makes
// the dispatcher recompute on the CPU transparently.
//
// Implementations are provided by GPU backend packages. Opt in via blank
// import:
//
//	import _ "github.com/gogpu/recolor/gpu"
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// Available reports whether the device is currently usable. It is
	// probed before every request.
	Available() bool

	// CanAccelerate reports whether the accelerator supports the operation.
	CanAccelerate(op AcceleratedOp) bool

	// ApplyTransfer runs the statistics transfer over src on the GPU.
	ApplyTransfer(src *Pixmap, t StatTransfer) (GPUImage, error)
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers the GPU accelerator.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. If Init fails, the accelerator is not registered and
// the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("recolor: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	return nil
}

// UnregisterAccelerator removes and closes the registered accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RegisteredAccelerator returns the registered accelerator, or nil.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}
