package imaging

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Bitmap is an immutable, fully decoded raster owned by exactly one holder.
//
// Every edit produces a new Bitmap; pixels are never changed in place after
// construction. The holder that owns a Bitmap (the canvas, a history entry, or
// pending background-removal state) is responsible for calling Release when
// the Bitmap is evicted or superseded, which drops the pixel buffer so that
// long editing sessions do not accumulate full-resolution copies.
//
// Bitmap is safe for concurrent use.
type Bitmap struct {
	mu       sync.RWMutex
	pix      *image.NRGBA
	width    int
	height   int
	released bool
}

// NewBitmap wraps img as a Bitmap.
//
// If img is already an *image.NRGBA anchored at the origin it is adopted
// without copying and the caller must not modify it afterwards. Any other
// image is converted to NRGBA.
func NewBitmap(img image.Image) *Bitmap {
	var pix *image.NRGBA
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		pix = n
	} else {
		pix = imaging.Clone(img)
	}
	b := pix.Bounds()
	return &Bitmap{pix: pix, width: b.Dx(), height: b.Dy()}
}

// Width returns the width in pixels. It stays valid after Release.
func (b *Bitmap) Width() int { return b.width }

// Height returns the height in pixels. It stays valid after Release.
func (b *Bitmap) Height() int { return b.height }

// Size returns width and height as an image.Point.
func (b *Bitmap) Size() image.Point { return image.Pt(b.width, b.height) }

// Image returns the pixel buffer, or nil once the Bitmap has been released.
// Callers must treat the returned image as read-only.
func (b *Bitmap) Image() *image.NRGBA {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pix
}

// Release drops the pixel buffer. Calling Release more than once is allowed.
func (b *Bitmap) Release() {
	b.mu.Lock()
	b.pix = nil
	b.released = true
	b.mu.Unlock()
}

// Released reports whether Release has been called.
func (b *Bitmap) Released() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.released
}
