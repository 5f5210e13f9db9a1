package imaging

import (
	"image/color"
	"testing"
)

func TestCropOverlay(t *testing.T) {
	gray := color.NRGBA{128, 128, 128, 255}
	img := createInMemoryImage(100, 100, gray)

	out := CropOverlay(img, Rect{X: 20, Y: 20, Width: 60, Height: 60}, "")

	if out.Bounds() != img.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), img.Bounds())
	}
	if c := pixelAt(out, 5, 5); c.R >= 128 {
		t.Errorf("outside selection should be shaded, got %v", c)
	}
	if c := pixelAt(out, 50, 50); c != gray {
		t.Errorf("inside selection should be untouched, got %v", c)
	}
	if c := pixelAt(out, 20, 50); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("selection border: got %v, want white", c)
	}
	// Thirds line at x = 20 + 60/3
	if c := pixelAt(out, 40, 30); c.R <= 128 {
		t.Errorf("thirds line should be lighter, got %v", c)
	}
	if c := pixelAt(img, 5, 5); c != gray {
		t.Error("input image was modified")
	}
}

func TestCropOverlay_Label(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{128, 128, 128, 255})

	plain := CropOverlay(img, Rect{X: 10, Y: 10, Width: 80, Height: 80}, "")
	labeled := CropOverlay(img, Rect{X: 10, Y: 10, Width: 80, Height: 80}, "800x600")

	if Compare(plain, labeled, 0).Identical() {
		t.Error("label should change the overlay")
	}
}

func TestCropOverlay_SelectionOutside(t *testing.T) {
	img := createInMemoryImage(20, 20, color.NRGBA{128, 128, 128, 255})

	// Should not panic; everything is shaded
	out := CropOverlay(img, Rect{X: 50, Y: 50, Width: 10, Height: 10}, "10x10")
	if c := pixelAt(out, 10, 10); c.R >= 128 {
		t.Errorf("expected shading everywhere, got %v", c)
	}
}

func TestCropOverlay_NegativeSelection(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{128, 128, 128, 255})

	forward := CropOverlay(img, Rect{X: 20, Y: 20, Width: 40, Height: 40}, "")
	backward := CropOverlay(img, Rect{X: 60, Y: 60, Width: -40, Height: -40}, "")
	if !Compare(forward, backward, 0).Identical() {
		t.Error("a selection dragged backwards should draw like its normalized form")
	}
}

func TestCropOverlay_LabelPixels(t *testing.T) {
	gray := color.NRGBA{128, 128, 128, 255}
	img := createInMemoryImage(100, 100, gray)

	out := CropOverlay(img, Rect{X: 10, Y: 10, Width: 80, Height: 80}, "800x600")

	hasText := false
	hasBackground := false
	for y := 13; y < 32; y++ {
		for x := 13; x < 70; x++ {
			c := pixelAt(out, x, y)
			if c.R >= 250 && c.G >= 250 && c.B >= 250 {
				hasText = true
			}
			if c.R < 64 {
				hasBackground = true
			}
		}
	}

	if !hasText {
		t.Error("label should have text pixels")
	}
	if !hasBackground {
		t.Error("label should have a background box")
	}
	if c := pixelAt(out, 80, 80); c != gray {
		t.Errorf("label should stay near the top-left corner, got %v at (80,80)", c)
	}
}

func TestCropOverlay_LabelClipped(t *testing.T) {
	img := createInMemoryImage(20, 20, color.NRGBA{128, 128, 128, 255})

	// None of these should panic
	for _, sel := range []Rect{
		{X: 15, Y: 15, Width: 5, Height: 5},
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: -5, Y: -5, Width: 30, Height: 30},
	} {
		out := CropOverlay(img, sel, "100x100")
		if out.Bounds() != img.Bounds() {
			t.Errorf("bounds: got %v, want %v", out.Bounds(), img.Bounds())
		}
	}
}
