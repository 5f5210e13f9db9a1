package editor

import (
	"image"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	xdraw "golang.org/x/image/draw"
)

// Default view geometry.
const (
	DefaultViewWidth  = 800
	DefaultViewHeight = 600
	DefaultPadding    = 40
)

// Canvas holds the authoritative full-resolution image and a derived preview
// fitted to the view.
//
// The preview is built in two layers. The base is the current image scaled
// to preview size and is only recomputed when the image or the view changes.
// The composed layer is what UpdatePreview or SetPreviewImage last produced
// (base plus any uncommitted filter). DrawOnPreview and OverlayPreview paint
// on a copy of the composed layer, so repeated live drags never accumulate.
//
// Canvas is safe for concurrent use.
type Canvas struct {
	mu sync.RWMutex

	viewW, viewH int
	padding      int

	img      *imaging.Bitmap
	base     *image.NRGBA
	composed *image.NRGBA
	preview  *image.NRGBA
}

// NewCanvas creates an empty canvas for a view of the given size. Non-positive
// sizes select the defaults; a negative padding selects DefaultPadding.
func NewCanvas(viewW, viewH, padding int) *Canvas {
	if viewW <= 0 {
		viewW = DefaultViewWidth
	}
	if viewH <= 0 {
		viewH = DefaultViewHeight
	}
	if padding < 0 {
		padding = DefaultPadding
	}
	return &Canvas{viewW: viewW, viewH: viewH, padding: padding}
}

// SetImage installs b as the full-resolution image and redraws the preview
// without a filter. The canvas does not take ownership of b.
func (c *Canvas) SetImage(b *imaging.Bitmap) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.img = b
	c.base = nil
	c.updateLocked(nil)
}

// Image returns the full-resolution image, or nil when empty.
func (c *Canvas) Image() *imaging.Bitmap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img
}

// UpdatePreview redraws the preview, applying filter at preview resolution
// when it is non-nil.
func (c *Canvas) UpdatePreview(filter *imaging.Adjustments) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateLocked(filter)
}

func (c *Canvas) updateLocked(filter *imaging.Adjustments) {
	base := c.baseLocked()
	if base == nil {
		c.composed, c.preview = nil, nil
		return
	}
	if filter != nil && !filter.IsIdentity() {
		c.composed = imaging.Adjust(base, *filter)
	} else {
		c.composed = base
	}
	c.preview = c.composed
}

// baseLocked returns the scaled, unfiltered preview, computing it if needed.
func (c *Canvas) baseLocked() *image.NRGBA {
	if c.base != nil {
		return c.base
	}
	if c.img == nil {
		return nil
	}
	src := c.img.Image()
	if src == nil {
		return nil
	}
	w, h := c.previewSizeLocked()
	c.base = scaleTo(src, w, h)
	return c.base
}

// previewSizeLocked fits the image into the view minus padding. Images are
// never enlarged.
func (c *Canvas) previewSizeLocked() (int, int) {
	if c.img == nil {
		return 0, 0
	}
	maxW := max(1, c.viewW-c.padding)
	maxH := max(1, c.viewH-c.padding)
	return imaging.FitSize(c.img.Width(), c.img.Height(), maxW, maxH)
}

// PreviewBase returns the unfiltered preview of the current image. Callers
// must not modify it.
func (c *Canvas) PreviewBase() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseLocked()
}

// ScaleToPreview resizes img to the current preview size.
func (c *Canvas) ScaleToPreview(img image.Image) *image.NRGBA {
	c.mu.RLock()
	w, h := c.previewSizeLocked()
	c.mu.RUnlock()
	if w == 0 || h == 0 {
		return nil
	}
	return scaleTo(img, w, h)
}

// SetPreviewImage installs img as the composed preview. img is rescaled if
// it does not match the preview size.
func (c *Canvas) SetPreviewImage(img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, h := c.previewSizeLocked()
	if w == 0 || h == 0 {
		return
	}
	c.composed = scaleTo(img, w, h)
	c.preview = c.composed
}

// DrawOnPreview paints on a copy of the composed preview. The stored image
// is never touched.
func (c *Canvas) DrawOnPreview(draw func(dc *gg.Context) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.composed == nil {
		return ErrNoImage
	}
	out, err := imaging.Render(c.composed, draw)
	if err != nil {
		return err
	}
	c.preview = out
	return nil
}

// OverlayPreview replaces the displayed preview with fn applied to the
// composed preview. fn must not modify its argument.
func (c *Canvas) OverlayPreview(fn func(img *image.NRGBA) *image.NRGBA) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.composed == nil {
		return ErrNoImage
	}
	c.preview = fn(c.composed)
	return nil
}

// Preview returns the image currently displayed. Callers must not modify it.
func (c *Canvas) Preview() *image.NRGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preview
}

// Resize changes the view size and rebuilds the unfiltered preview. Any
// filter must be reapplied by the caller.
func (c *Canvas) Resize(viewW, viewH int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if viewW > 0 {
		c.viewW = viewW
	}
	if viewH > 0 {
		c.viewH = viewH
	}
	c.base = nil
	c.updateLocked(nil)
}

// ViewSize returns the view width and height.
func (c *Canvas) ViewSize() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewW, c.viewH
}

// PreviewScale returns preview width / image width, or 1 when empty.
func (c *Canvas) PreviewScale() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.img == nil || c.img.Width() == 0 {
		return 1
	}
	w, _ := c.previewSizeLocked()
	return float64(w) / float64(c.img.Width())
}

// Export encodes the full-resolution image. quality applies to JPEG only.
func (c *Canvas) Export(w io.Writer, format imaging.Format, quality float64) error {
	c.mu.RLock()
	b := c.img
	c.mu.RUnlock()

	if b == nil {
		return ErrNoImage
	}
	src := b.Image()
	if src == nil {
		return ErrNoImage
	}
	return imaging.Encode(w, src, format, quality)
}

// Clear drops the image and the preview.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.img = nil
	c.base, c.composed, c.preview = nil, nil, nil
}

// scaleTo resamples src to w×h. A same-size request returns a copy.
func scaleTo(src image.Image, w, h int) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if b.Dx() == w && b.Dy() == h {
		xdraw.Draw(dst, dst.Rect, src, b.Min, xdraw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Rect, src, b, xdraw.Src, nil)
	return dst
}
