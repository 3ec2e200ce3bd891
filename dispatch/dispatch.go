// Package dispatch selects the execution backend for a recolor request and
// guarantees a result under backend failure.
//
// Each request moves through SelectBackend, Execute and either success or
// a CPU recompute. Only global matching runs on an accelerator; the
// statistics are always gathered on the CPU and the post stage always runs
// on a CPU buffer read back from the device. Any accelerator failure is
// logged and recovered by recomputing on the CPU, so callers see either a
// finished buffer or the CPU's own error.
package dispatch

import (
	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/adjust"
)

// Backend identifies where a request ran.
type Backend uint8

const (
	// BackendCPU is the pure Go pixel loop.
	BackendCPU Backend = iota
	// BackendGPU is the registered accelerator.
	BackendGPU
)

// String returns the backend name.
func (b Backend) String() string {
	if b == BackendGPU {
		return "gpu"
	}
	return "cpu"
}

// Result is the outcome of one request.
type Result struct {
	Pixmap *recolor.Pixmap

	// Backend is the backend that produced Pixmap.
	Backend Backend

	// FellBack is set when the accelerator was tried and failed.
	FellBack bool

	// Report describes the matching that ran.
	Report adjust.Report
}

// Dispatcher routes requests to the accelerator or the CPU engine.
//
// A Dispatcher holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	accel    recolor.Accelerator
	explicit bool
	forceCPU bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAccelerator uses a instead of the globally registered accelerator.
// A nil a disables acceleration.
func WithAccelerator(a recolor.Accelerator) Option {
	return func(d *Dispatcher) {
		d.accel = a
		d.explicit = true
	}
}

// WithForceCPU makes every request run on the CPU.
func WithForceCPU(force bool) Option {
	return func(d *Dispatcher) { d.forceCPU = force }
}

// New creates a dispatcher. Without WithAccelerator it uses the
// accelerator registered with recolor.RegisterAccelerator at request time.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) accelerator() recolor.Accelerator {
	if d.explicit {
		return d.accel
	}
	return recolor.RegisteredAccelerator()
}

// SelectBackend picks the backend for s and returns the reason for a CPU
// choice.
func (d *Dispatcher) SelectBackend(s *recolor.Settings) (Backend, string) {
	switch {
	case d.forceCPU:
		return BackendCPU, "forced"
	case s.PreviewOnCPU:
		return BackendCPU, "preview on cpu"
	case s.Mode == recolor.ModePrecision:
		return BackendCPU, "high-precision matching is cpu only"
	case s.Mode == recolor.ModeSelective:
		return BackendCPU, "selective matching is cpu only"
	case s.Intensity == 0:
		return BackendCPU, "zero intensity"
	}

	a := d.accelerator()
	switch {
	case recolor.IsNil(a):
		return BackendCPU, "no accelerator"
	case !a.CanAccelerate(recolor.AccelHistogram):
		return BackendCPU, "accelerator cannot match histograms"
	case !a.Available():
		return BackendCPU, "accelerator unavailable"
	}
	return BackendGPU, ""
}

// Run produces the adjusted buffer for src. Parameter errors are returned
// before any backend runs; backend errors never escape.
func (d *Dispatcher) Run(src, ref *recolor.Pixmap, s *recolor.Settings) (Result, error) {
	if err := s.ValidateParams(); err != nil {
		return Result{}, err
	}

	log := recolor.Logger()
	backend, reason := d.SelectBackend(s)
	log.Debug("backend selected", "backend", backend, "mode", s.Mode, "reason", reason)

	fellBack := false
	if backend == BackendGPU {
		a := d.accelerator()
		px, err := d.runGPU(a, src, ref, s)
		if err == nil {
			return Result{
				Pixmap:  adjust.Post(px, s.Post),
				Backend: BackendGPU,
				Report:  adjust.Report{Requested: s.Mode, Mode: s.Mode},
			}, nil
		}
		log.Warn("gpu execution failed, recomputing on cpu", "accelerator", a.Name(), "error", err)
		fellBack = true
	}

	px, rep, err := adjust.Apply(src, ref, s)
	if err != nil {
		return Result{}, err
	}
	return Result{Pixmap: px, Backend: BackendCPU, FellBack: fellBack, Report: rep}, nil
}

// runGPU gathers statistics on the CPU, applies the transfer on the
// accelerator and reads the result back. The GPU image is always released.
func (d *Dispatcher) runGPU(a recolor.Accelerator, src, ref *recolor.Pixmap, s *recolor.Settings) (*recolor.Pixmap, error) {
	t, err := adjust.GlobalTransfer(src, ref, s)
	if err != nil {
		return nil, err
	}

	img, err := a.ApplyTransfer(src, t)
	if err != nil {
		return nil, zerr.Wrap(err, "gpu transfer")
	}
	if recolor.IsNil(img) {
		return nil, zerr.Wrap(recolor.ErrBackend, "accelerator returned no image")
	}
	defer img.Release()

	px, err := img.Readback()
	if err != nil {
		return nil, zerr.Wrap(err, "gpu readback")
	}
	if px.IsEmpty() {
		return nil, zerr.Wrap(recolor.ErrBackend, "readback is empty")
	}
	if px.Width() != src.Width() || px.Height() != src.Height() {
		return nil, zerr.With(zerr.With(zerr.Wrap(recolor.ErrBackend, "readback has unexpected size"),
			"width", px.Width()), "height", px.Height())
	}
	return px, nil
}
