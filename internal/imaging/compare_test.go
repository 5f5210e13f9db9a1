package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCompare(t *testing.T) {
	base := createInMemoryImage(10, 10, color.NRGBA{100, 100, 100, 255})

	tests := []struct {
		name          string
		other         func() *image.NRGBA
		tolerance     int
		wantDiff      int
		wantMax       int
		wantIdentical bool
	}{
		{"identical", func() *image.NRGBA { return withPixel(base, color.NRGBA{100, 100, 100, 255}) }, 0, 0, 0, true},
		{"one pixel off", func() *image.NRGBA { return withPixel(base, color.NRGBA{110, 100, 100, 255}) }, 0, 1, 10, false},
		{"within tolerance", func() *image.NRGBA { return withPixel(base, color.NRGBA{110, 100, 100, 255}) }, 10, 0, 10, true},
		{"alpha only", func() *image.NRGBA { return withPixel(base, color.NRGBA{100, 100, 100, 0}) }, 0, 1, 255, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compare(base, tt.other(), tt.tolerance)
			if res.PixelsDifferent != tt.wantDiff {
				t.Errorf("PixelsDifferent: got %d, want %d", res.PixelsDifferent, tt.wantDiff)
			}
			if res.MaxChannelDiff != tt.wantMax {
				t.Errorf("MaxChannelDiff: got %d, want %d", res.MaxChannelDiff, tt.wantMax)
			}
			if res.Identical() != tt.wantIdentical {
				t.Errorf("Identical: got %v, want %v", res.Identical(), tt.wantIdentical)
			}
			if res.TotalPixels != 100 {
				t.Errorf("TotalPixels: got %d, want 100", res.TotalPixels)
			}
		})
	}
}

func TestCompare_Similarity(t *testing.T) {
	a := createInMemoryImage(10, 10, color.NRGBA{0, 0, 0, 255})
	b := createInMemoryImage(10, 10, color.NRGBA{0, 0, 0, 255})
	for x := 0; x < 10; x++ {
		b.SetNRGBA(x, 0, color.NRGBA{255, 255, 255, 255})
	}

	res := Compare(a, b, 0)
	if res.SimilarityScore != 0.9 {
		t.Errorf("SimilarityScore: got %v, want 0.9", res.SimilarityScore)
	}
}

func TestCompare_DifferentSizes(t *testing.T) {
	a := createInMemoryImage(10, 10, color.NRGBA{0, 0, 0, 255})
	b := createInMemoryImage(20, 5, color.NRGBA{0, 0, 0, 255})

	res := Compare(a, b, 0)
	if res.SameSize {
		t.Error("SameSize should be false")
	}
	if res.TotalPixels != 50 {
		t.Errorf("TotalPixels: got %d, want 50 (common area)", res.TotalPixels)
	}
	if res.Identical() {
		t.Error("different sizes are never identical")
	}
}

// withPixel returns a copy of base with the pixel at (3,3) replaced by c.
func withPixel(base *image.NRGBA, c color.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(base.Rect)
	copy(out.Pix, base.Pix)
	out.SetNRGBA(3, 3, c)
	return out
}
