package editor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/fogleman/gg"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.NRGBA{255, 0, 0, 255} // Red top-left
			case y < height/2:
				c = color.NRGBA{0, 255, 0, 255} // Green top-right
			case x < width/2:
				c = color.NRGBA{0, 0, 255, 255} // Blue bottom-left
			default:
				c = color.NRGBA{255, 255, 255, 255} // White bottom-right
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createInMemoryImage creates a uniformly colored image
func createInMemoryImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNewCanvas_Defaults(t *testing.T) {
	c := NewCanvas(0, 0, -1)
	if w, h := c.ViewSize(); w != DefaultViewWidth || h != DefaultViewHeight {
		t.Errorf("view: got %dx%d, want %dx%d", w, h, DefaultViewWidth, DefaultViewHeight)
	}
	if c.PreviewScale() != 1 {
		t.Errorf("empty PreviewScale: got %v, want 1", c.PreviewScale())
	}
	if c.Preview() != nil || c.Image() != nil {
		t.Error("new canvas should be empty")
	}
}

func TestCanvas_PreviewFits(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
		wantScale    float64
	}{
		{"large landscape", 1520, 1120, 760, 560, 0.5},
		{"wide", 1520, 380, 760, 190, 0.5},
		{"small not enlarged", 100, 50, 100, 50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(800, 600, 40)
			c.SetImage(imaging.NewBitmap(createPatternImage(tt.w, tt.h)))

			p := c.Preview()
			if p.Rect.Dx() != tt.wantW || p.Rect.Dy() != tt.wantH {
				t.Errorf("preview: got %dx%d, want %dx%d", p.Rect.Dx(), p.Rect.Dy(), tt.wantW, tt.wantH)
			}
			if c.PreviewScale() != tt.wantScale {
				t.Errorf("PreviewScale: got %v, want %v", c.PreviewScale(), tt.wantScale)
			}
		})
	}
}

func TestCanvas_PreviewMatchesSmallImage(t *testing.T) {
	img := createPatternImage(100, 50)
	c := NewCanvas(800, 600, 40)
	c.SetImage(imaging.NewBitmap(img))

	if !imaging.Compare(c.Preview(), img, 0).Identical() {
		t.Error("an image smaller than the view should preview unchanged")
	}
}

func TestCanvas_UpdatePreviewFilter(t *testing.T) {
	img := createInMemoryImage(50, 50, color.NRGBA{100, 100, 100, 255})
	c := NewCanvas(800, 600, 40)
	c.SetImage(imaging.NewBitmap(img))

	c.UpdatePreview(&imaging.Adjustments{Brightness: 50, Contrast: 100, Saturation: 100})
	if p := c.Preview().NRGBAAt(10, 10); p.R > 60 {
		t.Errorf("filtered preview should be darker, got %v", p)
	}
	if p := c.Image().Image().NRGBAAt(10, 10); p.R != 100 {
		t.Errorf("full-resolution image must not change, got %v", p)
	}

	c.UpdatePreview(nil)
	if p := c.Preview().NRGBAAt(10, 10); p.R != 100 {
		t.Errorf("unfiltered preview: got %v", p)
	}
}

func TestCanvas_DrawOnPreviewDoesNotAccumulate(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	c := NewCanvas(800, 600, 40)
	c.SetImage(imaging.NewBitmap(createInMemoryImage(100, 100, white)))

	dot := func(x, y float64) func(dc *gg.Context) error {
		return func(dc *gg.Context) error {
			dc.SetRGB(1, 0, 0)
			dc.DrawRectangle(x, y, 10, 10)
			dc.Fill()
			return nil
		}
	}

	if err := c.DrawOnPreview(dot(10, 10)); err != nil {
		t.Fatalf("DrawOnPreview failed: %v", err)
	}
	if p := c.Preview().NRGBAAt(15, 15); p.G != 0 {
		t.Errorf("first drag should be visible, got %v", p)
	}

	if err := c.DrawOnPreview(dot(60, 60)); err != nil {
		t.Fatalf("DrawOnPreview failed: %v", err)
	}
	if p := c.Preview().NRGBAAt(15, 15); p != white {
		t.Errorf("previous drag should be gone, got %v", p)
	}
	if p := c.Image().Image().NRGBAAt(65, 65); p != white {
		t.Error("drawing on the preview must not touch the image")
	}
}

func TestCanvas_DrawOnPreviewEmpty(t *testing.T) {
	c := NewCanvas(800, 600, 40)
	err := c.DrawOnPreview(func(dc *gg.Context) error { return nil })
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("got %v, want ErrNoImage", err)
	}
}

func TestCanvas_SetPreviewImageRescales(t *testing.T) {
	c := NewCanvas(140, 90, 40)
	c.SetImage(imaging.NewBitmap(createPatternImage(200, 100)))

	c.SetPreviewImage(createInMemoryImage(200, 100, color.NRGBA{0, 0, 0, 255}))
	p := c.Preview()
	if p.Rect.Dx() != 100 || p.Rect.Dy() != 50 {
		t.Fatalf("preview: got %v, want 100x50", p.Rect.Size())
	}
	if px := p.NRGBAAt(10, 10); px.R != 0 || px.G != 0 || px.B != 0 || px.A < 250 {
		t.Errorf("preview pixel: got %v, want black", px)
	}
}

func TestCanvas_Resize(t *testing.T) {
	c := NewCanvas(800, 600, 40)
	c.SetImage(imaging.NewBitmap(createPatternImage(1000, 500)))

	if c.Preview().Rect.Dx() != 760 {
		t.Fatalf("initial preview width: got %d", c.Preview().Rect.Dx())
	}

	c.Resize(440, 600)
	if got := c.Preview().Rect.Size(); got != image.Pt(400, 200) {
		t.Errorf("resized preview: got %v, want 400x200", got)
	}
	if c.PreviewScale() != 0.4 {
		t.Errorf("PreviewScale: got %v, want 0.4", c.PreviewScale())
	}
}

func TestCanvas_Export(t *testing.T) {
	img := createPatternImage(64, 32)
	c := NewCanvas(800, 600, 40)

	var buf bytes.Buffer
	if err := c.Export(&buf, imaging.FormatPNG, 0); !errors.Is(err, ErrNoImage) {
		t.Fatalf("empty export: got %v, want ErrNoImage", err)
	}

	c.SetImage(imaging.NewBitmap(img))
	if err := c.Export(&buf, imaging.FormatPNG, 0); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	decoded, err := imaging.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !imaging.Compare(decoded, img, 0).Identical() {
		t.Error("exported PNG should match the full-resolution image")
	}

	buf.Reset()
	if err := c.Export(&buf, imaging.Format("bmp"), 0); !errors.Is(err, imaging.ErrUnknownFormat) {
		t.Errorf("unknown format: got %v", err)
	}
}

func TestCanvas_Clear(t *testing.T) {
	c := NewCanvas(800, 600, 40)
	c.SetImage(imaging.NewBitmap(createPatternImage(10, 10)))

	c.Clear()
	if c.Image() != nil || c.Preview() != nil {
		t.Error("Clear should drop image and preview")
	}
	if c.PreviewScale() != 1 {
		t.Error("PreviewScale should be 1 after Clear")
	}
}
