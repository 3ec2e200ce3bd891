package adjust

import (
	"bytes"
	"image/color"
	"log/slog"
	"testing"

	"github.com/gogpu/recolor"
	icolor "github.com/gogpu/recolor/internal/color"
	"github.com/gogpu/recolor/internal/memhost"
)

func solid(w, h int, c color.NRGBA) *recolor.Pixmap {
	p := recolor.NewPixmap(w, h)
	for y := range h {
		for x := range w {
			p.SetPixel(x, y, c)
		}
	}
	return p
}

// grayRamp fills a pixmap with grays from lo to hi, left to right.
func grayRamp(w, h int, lo, hi uint8) *recolor.Pixmap {
	p := recolor.NewPixmap(w, h)
	for y := range h {
		for x := range w {
			v := uint8(int(lo) + (int(hi)-int(lo))*x/max(w-1, 1))
			p.SetPixel(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return p
}

// tintRamp fills a pixmap with a tinted ramp starting at base.
func tintRamp(w, h int, base color.NRGBA, step uint8) *recolor.Pixmap {
	p := recolor.NewPixmap(w, h)
	for y := range h {
		for x := range w {
			d := uint8(x%4) * step
			p.SetPixel(x, y, color.NRGBA{base.R + d, base.G + d, base.B + d, 255})
		}
	}
	return p
}

// halves fills the left half of a pixmap with a and the right half with b.
func halves(w, h int, a, b color.NRGBA) *recolor.Pixmap {
	p := recolor.NewPixmap(w, h)
	for y := range h {
		for x := range w {
			if x < w/2 {
				p.SetPixel(x, y, a)
			} else {
				p.SetPixel(x, y, b)
			}
		}
	}
	return p
}

func meanL(p *recolor.Pixmap) float64 {
	sum := 0.0
	d := p.Data()
	for i := 0; i < len(d); i += 4 {
		sum += icolor.SRGB8ToOklab(d[i], d[i+1], d[i+2]).L
	}
	return sum / float64(p.Width()*p.Height())
}

func near8(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}

// captureLogs routes recolor logging into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := recolor.Logger()
	recolor.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { recolor.SetLogger(orig) })
	return &buf
}

func settings(mode recolor.Mode) *recolor.Settings {
	s := recolor.DefaultSettings()
	s.Mode = mode
	return &s
}

func quadMesh(h *memhost.Host, u0, v0, u1, v1 float64) *memhost.Mesh {
	uv, tris := memhost.Quad(u0, v0, u1, v1)
	return h.Mesh("quad", [][]recolor.Point{uv}, tris)
}
