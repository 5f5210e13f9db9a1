package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

var (
	overlayShade  = color.NRGBA{0, 0, 0, 128}
	overlayBorder = color.NRGBA{255, 255, 255, 255}
	overlayThirds = color.NRGBA{255, 255, 255, 96}
	labelFG       = color.NRGBA{255, 255, 255, 255}
	labelBG       = color.NRGBA{0, 0, 0, 180}
)

// labelPadding is the space between the label text and its background box.
const labelPadding = 2

// CropOverlay draws an in-progress crop selection over a preview image: the
// area outside sel is shaded, the selection gets a one-pixel border and a
// rule-of-thirds grid, and label (typically the full-resolution size) is
// printed just inside the top-left corner. img is not modified.
func CropOverlay(img image.Image, sel Rect, label string) *image.NRGBA {
	dc := gg.NewContextForImage(img)
	bounds := image.Rect(0, 0, dc.Width(), dc.Height())
	r := image.Rect(sel.X, sel.Y, sel.X+sel.Width, sel.Y+sel.Height).Canon().Intersect(bounds)

	dc.SetColor(overlayShade)
	for _, band := range []image.Rectangle{
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, r.Min.Y),
		image.Rect(bounds.Min.X, r.Max.Y, bounds.Max.X, bounds.Max.Y),
		image.Rect(bounds.Min.X, r.Min.Y, r.Min.X, r.Max.Y),
		image.Rect(r.Max.X, r.Min.Y, bounds.Max.X, r.Max.Y),
	} {
		if !band.Empty() {
			fillRect(dc, band)
		}
	}
	if r.Empty() {
		return imaging.Clone(dc.Image())
	}

	dc.SetColor(overlayThirds)
	for i := 1; i <= 2; i++ {
		x := r.Min.X + r.Dx()*i/3
		y := r.Min.Y + r.Dy()*i/3
		fillRect(dc, image.Rect(x, r.Min.Y, x+1, r.Max.Y))
		fillRect(dc, image.Rect(r.Min.X, y, r.Max.X, y+1))
	}

	dc.SetColor(overlayBorder)
	fillRect(dc, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1))
	fillRect(dc, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y))
	fillRect(dc, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y))
	fillRect(dc, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y))

	if label != "" {
		drawLabel(dc, float64(r.Min.X+3), float64(r.Min.Y+3), label)
	}
	return imaging.Clone(dc.Image())
}

func fillRect(dc *gg.Context, r image.Rectangle) {
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Fill()
}

// drawLabel prints text with its top-left corner at (x, y) on a background
// box, using the context's default bitmap face.
func drawLabel(dc *gg.Context, x, y float64, text string) {
	w, h := dc.MeasureString(text)
	dc.SetColor(labelBG)
	dc.DrawRectangle(x, y, w+2*labelPadding, h+2*labelPadding)
	dc.Fill()
	dc.SetColor(labelFG)
	dc.DrawStringAnchored(text, x+labelPadding, y+labelPadding, 0, 1)
}
