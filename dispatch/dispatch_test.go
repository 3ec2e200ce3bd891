package dispatch

import (
	"bytes"
	"errors"
	"image/color"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/adjust"
)

// fakeAccel runs the CPU reference transfer behind the Accelerator
// interface, with switchable failure modes.
type fakeAccel struct {
	available  bool
	noHist     bool
	applyErr   error
	nilImage   bool
	readErr    error
	wrongSize  bool
	applied    atomic.Int32
	released   atomic.Int32
	initCalled bool
	closed     bool
}

func (f *fakeAccel) Name() string { return "fake" }
func (f *fakeAccel) Init() error  { f.initCalled = true; return nil }
func (f *fakeAccel) Close()       { f.closed = true }
func (f *fakeAccel) Available() bool {
	return f.available
}

func (f *fakeAccel) CanAccelerate(op recolor.AcceleratedOp) bool {
	return !f.noHist && op&recolor.AccelHistogram != 0
}

func (f *fakeAccel) ApplyTransfer(src *recolor.Pixmap, t recolor.StatTransfer) (recolor.GPUImage, error) {
	f.applied.Add(1)
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	if f.nilImage {
		return nil, nil
	}
	px, err := adjust.ApplyTransfer(src, t)
	if err != nil {
		return nil, err
	}
	if f.wrongSize {
		px = px.Resize(px.Width()/2, px.Height())
	}
	return &fakeImage{f: f, px: px}, nil
}

type fakeImage struct {
	f  *fakeAccel
	px *recolor.Pixmap
}

func (i *fakeImage) Width() int  { return i.px.Width() }
func (i *fakeImage) Height() int { return i.px.Height() }
func (i *fakeImage) Release()    { i.f.released.Add(1) }
func (i *fakeImage) Readback() (*recolor.Pixmap, error) {
	if i.f.readErr != nil {
		return nil, i.f.readErr
	}
	return i.px.Clone(), nil
}

func testImages() (src, ref *recolor.Pixmap) {
	src = recolor.NewPixmap(16, 8)
	ref = recolor.NewPixmap(8, 8)
	for y := range 8 {
		for x := range 16 {
			src.SetPixel(x, y, color.NRGBA{uint8(40 + x*5), uint8(60 + y*10), 90, 255})
			if x < 8 {
				ref.SetPixel(x, y, color.NRGBA{200, uint8(100 + x*10), uint8(40 + y*8), 255})
			}
		}
	}
	return src, ref
}

func globalSettings() *recolor.Settings {
	s := recolor.DefaultSettings()
	s.Intensity = 0.8
	s.Post.HueShift = 10
	return &s
}

func runCPU(t *testing.T, s *recolor.Settings) *recolor.Pixmap {
	t.Helper()
	src, ref := testImages()
	res, err := New(WithForceCPU(true)).Run(src, ref, s)
	if err != nil {
		t.Fatalf("forced cpu: %v", err)
	}
	return res.Pixmap
}

func TestSelectBackend(t *testing.T) {
	ok := &fakeAccel{available: true}
	tests := []struct {
		name  string
		d     *Dispatcher
		setup func(s *recolor.Settings)
		want  Backend
	}{
		{"gpu", New(WithAccelerator(ok)), nil, BackendGPU},
		{"forced", New(WithAccelerator(ok), WithForceCPU(true)), nil, BackendCPU},
		{"preview on cpu", New(WithAccelerator(ok)), func(s *recolor.Settings) { s.PreviewOnCPU = true }, BackendCPU},
		{"precision", New(WithAccelerator(ok)), func(s *recolor.Settings) { s.Mode = recolor.ModePrecision }, BackendCPU},
		{"selective", New(WithAccelerator(ok)), func(s *recolor.Settings) { s.Mode = recolor.ModeSelective }, BackendCPU},
		{"zero intensity", New(WithAccelerator(ok)), func(s *recolor.Settings) { s.Intensity = 0 }, BackendCPU},
		{"no accelerator", New(WithAccelerator(nil)), nil, BackendCPU},
		{"unavailable", New(WithAccelerator(&fakeAccel{})), nil, BackendCPU},
		{"unsupported op", New(WithAccelerator(&fakeAccel{available: true, noHist: true})), nil, BackendCPU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := globalSettings()
			if tt.setup != nil {
				tt.setup(s)
			}
			got, reason := tt.d.SelectBackend(s)
			if got != tt.want {
				t.Errorf("SelectBackend = %v (%s), want %v", got, reason, tt.want)
			}
		})
	}
}

func TestUnavailableGPUMatchesForcedCPU(t *testing.T) {
	s := globalSettings()
	want := runCPU(t, s)

	accel := &fakeAccel{available: false}
	src, ref := testImages()
	res, err := New(WithAccelerator(accel)).Run(src, ref, s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Backend != BackendCPU || res.FellBack {
		t.Errorf("backend = %v, fellBack = %v", res.Backend, res.FellBack)
	}
	if accel.applied.Load() != 0 {
		t.Error("unavailable accelerator was called")
	}
	if !res.Pixmap.Equal(want) {
		t.Error("result differs from forced cpu")
	}
}

func TestGPUSuccess(t *testing.T) {
	s := globalSettings()
	accel := &fakeAccel{available: true}
	src, ref := testImages()

	res, err := New(WithAccelerator(accel)).Run(src, ref, s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Backend != BackendGPU || res.FellBack {
		t.Errorf("backend = %v, fellBack = %v", res.Backend, res.FellBack)
	}
	if accel.released.Load() != 1 {
		t.Errorf("gpu image released %d times, want 1", accel.released.Load())
	}
	if !res.Pixmap.Equal(runCPU(t, s)) {
		t.Error("gpu path with post stage differs from cpu path")
	}
}

func TestGPUFailureFallsBack(t *testing.T) {
	tests := []struct {
		name        string
		accel       *fakeAccel
		wantRelease int32
	}{
		{"apply error", &fakeAccel{available: true, applyErr: recolor.ErrFallbackToCPU}, 0},
		{"nil image", &fakeAccel{available: true, nilImage: true}, 0},
		{"readback error", &fakeAccel{available: true, readErr: errors.New("device lost")}, 1},
		{"wrong size", &fakeAccel{available: true, wrongSize: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			orig := recolor.Logger()
			recolor.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
			t.Cleanup(func() { recolor.SetLogger(orig) })

			s := globalSettings()
			src, ref := testImages()
			res, err := New(WithAccelerator(tt.accel)).Run(src, ref, s)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Backend != BackendCPU || !res.FellBack {
				t.Errorf("backend = %v, fellBack = %v", res.Backend, res.FellBack)
			}
			if got := tt.accel.released.Load(); got != tt.wantRelease {
				t.Errorf("released %d times, want %d", got, tt.wantRelease)
			}
			if !res.Pixmap.Equal(runCPU(t, s)) {
				t.Error("fallback result differs from cpu")
			}
			if !strings.Contains(logs.String(), "recomputing on cpu") {
				t.Errorf("missing fallback warning:\n%s", logs.String())
			}
		})
	}
}

func TestRunUsesRegisteredAccelerator(t *testing.T) {
	accel := &fakeAccel{available: true}
	if err := recolor.RegisterAccelerator(accel); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(recolor.UnregisterAccelerator)

	src, ref := testImages()
	res, err := New().Run(src, ref, globalSettings())
	if err != nil {
		t.Fatal(err)
	}
	if res.Backend != BackendGPU || accel.applied.Load() != 1 {
		t.Errorf("registered accelerator not used: backend %v", res.Backend)
	}
}

func TestRunReturnsCPUErrors(t *testing.T) {
	s := globalSettings()
	_, err := New(WithAccelerator(&fakeAccel{available: true})).Run(nil, recolor.NewPixmap(1, 1), s)
	if !recolor.IsProcessingError(err) {
		t.Errorf("err = %v, want processing error", err)
	}

	s.Post.Gamma = 0
	src, ref := testImages()
	_, err = New().Run(src, ref, s)
	if !recolor.IsConfigurationError(err) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestBackendString(t *testing.T) {
	if BackendCPU.String() != "cpu" || BackendGPU.String() != "gpu" {
		t.Error("unexpected backend names")
	}
}
