package recolor

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG decoding for LoadImage
	"image/png"
	"io"
	"os"

	"go.trai.ch/zerr"
	_ "golang.org/x/image/bmp" // register BMP decoding for LoadImage
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoding for LoadImage
	_ "golang.org/x/image/webp" // register WebP decoding for LoadImage
)

// Pixmap is a CPU-readable rectangular pixel buffer.
//
// Pixels are stored as straight (non-premultiplied) RGBA, 4 bytes per
// pixel, row by row without padding. Every algorithm in recolor reads a
// Pixmap and writes a new one; no stage mutates its input.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a zeroed pixmap with the given dimensions.
// Non-positive dimensions produce an empty pixmap.
func NewPixmap(width, height int) *Pixmap {
	if width <= 0 || height <= 0 {
		return &Pixmap{}
	}
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// PixmapFromRaw creates a pixmap from a copy of raw straight-alpha RGBA data.
// Returns ErrEmptyBuffer for non-positive dimensions and a processing error
// when data is shorter than width*height*4.
func PixmapFromRaw(data []uint8, width, height int) (*Pixmap, error) {
	if width <= 0 || height <= 0 {
		return nil, zerr.With(zerr.With(zerr.Wrap(ErrEmptyBuffer, "invalid dimensions"), "width", width), "height", height)
	}
	need := width * height * 4
	if len(data) < need {
		return nil, zerr.With(zerr.With(zerr.Wrap(ErrProcessing, "pixel data too small"), "have", len(data)), "need", need)
	}
	p := NewPixmap(width, height)
	copy(p.data, data[:need])
	return p, nil
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (straight RGBA).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// IsEmpty reports whether the pixmap is nil or has no pixels.
func (p *Pixmap) IsEmpty() bool {
	return p == nil || p.width <= 0 || p.height <= 0 || len(p.data) < p.width*p.height*4
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	if p == nil {
		return nil
	}
	data := make([]uint8, len(p.data))
	copy(data, p.data)
	return &Pixmap{width: p.width, height: p.height, data: data}
}

// Equal reports whether two pixmaps have the same size and identical bytes.
func (p *Pixmap) Equal(q *Pixmap) bool {
	if p == nil || q == nil {
		return p == q
	}
	return p.width == q.width && p.height == q.height && bytes.Equal(p.data, q.data)
}

// PixelAt returns the straight-alpha bytes of a pixel.
// Out-of-bounds coordinates return transparent black.
func (p *Pixmap) PixelAt(x, y int) color.NRGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.NRGBA{}
	}
	i := (y*p.width + x) * 4
	return color.NRGBA{R: p.data[i], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// SetPixel sets the straight-alpha bytes of a pixel.
// Out-of-bounds coordinates are silently ignored.
func (p *Pixmap) SetPixel(x, y int, c color.NRGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = c.R
	p.data[i+1] = c.G
	p.data[i+2] = c.B
	p.data[i+3] = c.A
}

// Fill sets every pixel to c.
func (p *Pixmap) Fill(c RGBA) {
	n := c.Color().(color.NRGBA)
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = n.R
		p.data[i+1] = n.G
		p.data[i+2] = n.B
		p.data[i+3] = n.A
	}
}

// ToImage converts the pixmap to an image.NRGBA sharing no memory with p.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from any image.
func FromImage(img image.Image) *Pixmap {
	b := img.Bounds()
	pm := NewPixmap(b.Dx(), b.Dy())
	if pm.IsEmpty() {
		return pm
	}
	if n, ok := img.(*image.NRGBA); ok {
		for y := 0; y < pm.height; y++ {
			src := n.Pix[(y)*n.Stride : (y)*n.Stride+pm.width*4]
			copy(pm.data[y*pm.width*4:], src)
		}
		return pm
	}
	for y := 0; y < pm.height; y++ {
		for x := 0; x < pm.width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			pm.SetPixel(x, y, c)
		}
	}
	return pm
}

// Resize returns a copy of the pixmap resampled to the given size with a
// Catmull-Rom filter. Resizing to the current size returns a plain clone.
func (p *Pixmap) Resize(width, height int) *Pixmap {
	if p.width == width && p.height == height {
		return p.Clone()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), p.ToImage(), image.Rect(0, 0, p.width, p.height), xdraw.Src, nil)
	return FromImage(dst)
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create png"), "path", path)
	}
	return p.writePNG(f, path)
}

// writePNG encodes p into w and closes it. A failed close is reported, as
// buffered data may not have reached the file.
func (p *Pixmap) writePNG(w io.WriteCloser, path string) error {
	if err := png.Encode(w, p.ToImage()); err != nil {
		_ = w.Close()
		return zerr.With(zerr.Wrap(err, "failed to encode png"), "path", path)
	}
	if err := w.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close png"), "path", path)
	}
	return nil
}

// LoadImage decodes a PNG, JPEG, BMP, TIFF or WebP file into a pixmap.
func LoadImage(path string) (*Pixmap, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrUnreadableTexture, err.Error()), "path", path)
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrUnreadableTexture, err.Error()), "path", path)
	}
	return FromImage(img), nil
}

// ReadPixels returns a private CPU copy of a texture's pixels.
//
// This is the single readback entry point of the pipeline: a nil texture,
// a failing host readback and an empty result all become processing
// errors, and the caller may freely modify the returned buffer.
func ReadPixels(t Texture) (*Pixmap, error) {
	if IsNil(t) {
		return nil, zerr.Wrap(ErrUnreadableTexture, "nil texture")
	}
	px, err := t.Pixels()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrUnreadableTexture, err.Error()), "texture", t.Name())
	}
	if px.IsEmpty() {
		return nil, zerr.With(zerr.Wrap(ErrEmptyBuffer, "texture readback is empty"), "texture", t.Name())
	}
	return px.Clone(), nil
}
