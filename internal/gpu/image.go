//go:build !nogpu

package gpu

import (
	"errors"
	"sync"
	"unsafe"

	"go.trai.ch/zerr"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/recolor"
)

// image is a transfer result held in a mappable staging buffer.
type image struct {
	acc     *Accelerator
	staging hal.Buffer
	size    uint64

	width, height int

	once sync.Once
}

var _ recolor.GPUImage = (*image)(nil)

func (img *image) Width() int  { return img.width }
func (img *image) Height() int { return img.height }

// Readback maps the staging buffer and copies the pixels out.
func (img *image) Readback() (*recolor.Pixmap, error) {
	a := img.acc
	a.mu.Lock()
	defer a.mu.Unlock()
	if img.staging == nil || a.device == nil {
		return nil, zerr.Wrap(recolor.ErrBackend, "gpu image already released")
	}

	m, err := a.device.MapBuffer(img.staging, 0, img.size)
	if err != nil {
		if errors.Is(err, hal.ErrDeviceLost) {
			a.lost = true
		}
		return nil, zerr.Wrap(errors.Join(recolor.ErrBackend, err), "map staging buffer")
	}
	packed := unsafe.Slice((*byte)(m.Ptr), img.size) //nolint:gosec // mapping covers size bytes

	px := recolor.NewPixmap(img.width, img.height)
	unpackPixels(packed, px.Data(), img.width*img.height)
	if err := a.device.UnmapBuffer(img.staging); err != nil {
		slogger().Debug("unmap staging buffer", "err", err)
	}
	return px, nil
}

// Release destroys the staging buffer. Later calls do nothing.
func (img *image) Release() {
	img.once.Do(func() {
		a := img.acc
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.device != nil && img.staging != nil {
			a.device.DestroyBuffer(img.staging)
		}
		img.staging = nil
	})
}
