package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Rect is a rectangular region in pixel coordinates: the top-left corner
// plus a size.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scaled converts a rectangle in preview coordinates into full-resolution
// coordinates by dividing by the preview scale and rounding.
func (r Rect) Scaled(scale float64) Rect {
	if scale <= 0 {
		return r
	}
	return Rect{
		X:      int(math.Round(float64(r.X) / scale)),
		Y:      int(math.Round(float64(r.Y) / scale)),
		Width:  int(math.Round(float64(r.Width) / scale)),
		Height: int(math.Round(float64(r.Height) / scale)),
	}
}

// Normalized returns r with a non-negative size, moving the origin when the
// rectangle was dragged up or to the left.
func (r Rect) Normalized() Rect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// FlipHorizontal mirrors img left to right.
func FlipHorizontal(img image.Image) *image.NRGBA {
	return imaging.FlipH(img)
}

// FlipVertical mirrors img top to bottom.
func FlipVertical(img image.Image) *image.NRGBA {
	return imaging.FlipV(img)
}

// rotateEpsilon absorbs floating point noise in the trigonometric size
// computation so that e.g. 90° does not grow the canvas by one pixel.
const rotateEpsilon = 1e-9

// RotatedSize returns the bounding box of a w×h image rotated by degrees:
//
//	ceil(w·|cos θ| + h·|sin θ|) × ceil(w·|sin θ| + h·|cos θ|)
func RotatedSize(w, h int, degrees float64) (int, int) {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	sin, cos = math.Abs(sin), math.Abs(cos)
	fw, fh := float64(w), float64(h)
	nw := int(math.Ceil(fw*cos + fh*sin - rotateEpsilon))
	nh := int(math.Ceil(fw*sin + fh*cos - rotateEpsilon))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// Rotate rotates img clockwise by degrees about its center. The output is
// resized to the rotated bounding box (see RotatedSize) and the area not
// covered by the source is transparent. Multiples of 90° are lossless.
func Rotate(img image.Image, degrees float64) *image.NRGBA {
	turns := math.Mod(degrees, 360)
	if turns < 0 {
		turns += 360
	}
	// imaging rotates counter-clockwise.
	switch turns {
	case 0:
		return imaging.Clone(img)
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}

	b := img.Bounds()
	w, h := RotatedSize(b.Dx(), b.Dy(), degrees)
	rotated := imaging.Rotate(img, -degrees, color.Transparent)
	return imaging.PasteCenter(imaging.New(w, h, color.Transparent), rotated)
}

// ClampRect clamps a requested crop region into a w×h image. Both edges are
// clamped, so the result is the part of r inside the image, at least 1×1; a
// region entirely outside the image collapses onto the nearest boundary
// corner.
func ClampRect(r Rect, w, h int) image.Rectangle {
	sx := clamp(r.X, 0, w-1)
	sy := clamp(r.Y, 0, h-1)
	ex := clamp(r.X+r.Width, sx+1, w)
	ey := clamp(r.Y+r.Height, sy+1, h)
	return image.Rect(sx, sy, ex, ey)
}

// Crop extracts region from img after clamping it into bounds. Crop never
// fails: out-of-range requests are clamped rather than rejected.
func Crop(img image.Image, region Rect) *image.NRGBA {
	b := img.Bounds()
	r := ClampRect(region.Normalized(), b.Dx(), b.Dy()).Add(b.Min)
	return imaging.Crop(img, r)
}

// MergePosition is where the second image is placed relative to the first.
type MergePosition string

const (
	MergeLeft   MergePosition = "left"
	MergeRight  MergePosition = "right"
	MergeTop    MergePosition = "top"
	MergeBottom MergePosition = "bottom"
)

// ParseMergePosition validates a merge position name.
func ParseMergePosition(s string) (MergePosition, error) {
	switch p := MergePosition(s); p {
	case MergeLeft, MergeRight, MergeTop, MergeBottom:
		return p, nil
	}
	return "", fmt.Errorf("unknown merge position: %s", s)
}

// Merge concatenates second onto first. For left/right the second image is
// scaled to first's height, for top/bottom to first's width; the output size
// is the sum along the joining axis.
func Merge(first, second image.Image, pos MergePosition) (*image.NRGBA, error) {
	fb, sb := first.Bounds(), second.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return nil, fmt.Errorf("cannot merge empty image")
	}

	var (
		scaledW, scaledH int
		outW, outH       int
		firstAt, secAt   image.Point
	)

	switch pos {
	case MergeLeft, MergeRight:
		scale := float64(fb.Dy()) / float64(sb.Dy())
		scaledW = max(1, int(math.Round(float64(sb.Dx())*scale)))
		scaledH = fb.Dy()
		outW, outH = fb.Dx()+scaledW, fb.Dy()
		if pos == MergeLeft {
			firstAt = image.Pt(scaledW, 0)
		} else {
			secAt = image.Pt(fb.Dx(), 0)
		}
	case MergeTop, MergeBottom:
		scale := float64(fb.Dx()) / float64(sb.Dx())
		scaledW = fb.Dx()
		scaledH = max(1, int(math.Round(float64(sb.Dy())*scale)))
		outW, outH = fb.Dx(), fb.Dy()+scaledH
		if pos == MergeTop {
			firstAt = image.Pt(0, scaledH)
		} else {
			secAt = image.Pt(0, fb.Dy())
		}
	default:
		return nil, fmt.Errorf("unknown merge position: %s", pos)
	}

	scaled := imaging.Resize(second, scaledW, scaledH, imaging.Lanczos)
	out := imaging.New(outW, outH, color.Transparent)
	out = imaging.Paste(out, first, firstAt)
	out = imaging.Paste(out, scaled, secAt)
	return out, nil
}

// Upscale resizes img by factor using Lanczos resampling. The output size is
// round(w·factor) × round(h·factor), never smaller than 1×1.
func Upscale(img image.Image, factor float64) (*image.NRGBA, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("invalid upscale factor: %v", factor)
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	h := max(1, int(math.Round(float64(b.Dy())*factor)))
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// FitSize returns the size of a w×h image fitted inside maxW×maxH with its
// aspect ratio preserved. Images are never enlarged.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	imageAspect := float64(w) / float64(h)
	boxAspect := float64(maxW) / float64(maxH)

	var fw, fh float64
	if imageAspect > boxAspect {
		fw = math.Min(float64(maxW), float64(w))
		fh = fw / imageAspect
	} else {
		fh = math.Min(float64(maxH), float64(h))
		fw = fh * imageAspect
	}
	return max(1, int(math.Round(fw))), max(1, int(math.Round(fh)))
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
