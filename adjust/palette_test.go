package adjust

import (
	"testing"

	icolor "github.com/gogpu/recolor/internal/color"
)

func TestDominantColors(t *testing.T) {
	// Two near reds and one blue; the reds outweigh the blue.
	raw := []uint8{
		200, 30, 30, 255,
		205, 32, 28, 255,
		30, 30, 200, 255,
		0, 255, 0, 0, // transparent, ignored
	}
	weights := []float64{3, 2, 1, 100}

	buckets := collectBuckets(raw, weights)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}

	pal := dominantColors(buckets, 2)
	if len(pal) != 2 {
		t.Fatalf("palette size = %d, want 2", len(pal))
	}
	if pal[0].weight != 5 || pal[1].weight != 1 {
		t.Errorf("weights = %v, %v; want 5, 1", pal[0].weight, pal[1].weight)
	}
	red := icolor.SRGB8ToOklab(200, 30, 30)
	if icolor.Distance(pal[0].color, red) > 0.02 {
		t.Errorf("heaviest color %+v is not red", pal[0].color)
	}
}

func TestDominantColorsDeterministic(t *testing.T) {
	raw := make([]uint8, 0, 64*4)
	weights := make([]float64, 0, 64)
	for i := range 64 {
		raw = append(raw, uint8(i*4), uint8(255-i*3), uint8(i*i%256), 255)
		weights = append(weights, float64(1+i%5))
	}

	a := dominantColors(collectBuckets(raw, weights), 5)
	b := dominantColors(collectBuckets(raw, weights), 5)
	if len(a) != len(b) {
		t.Fatal("palette size differs between runs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("swatch %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestDominantColorsClampsK(t *testing.T) {
	raw := []uint8{10, 10, 10, 255}
	pal := dominantColors(collectBuckets(raw, []float64{1}), 8)
	if len(pal) != 1 {
		t.Errorf("palette size = %d, want 1", len(pal))
	}
	if dominantColors(nil, 4) != nil {
		t.Error("empty sample must give an empty palette")
	}
}
