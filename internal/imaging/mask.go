package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// MaskLookup maps an output coordinate onto the nearest mask coordinate when
// the mask and the image differ in size: round(v·maskSize/imageSize),
// clamped into the mask.
func MaskLookup(v, imageSize, maskSize int) int {
	if imageSize <= 0 || maskSize <= 0 {
		return 0
	}
	m := int(math.Round(float64(v) * float64(maskSize) / float64(imageSize)))
	return clamp(m, 0, maskSize-1)
}

// ApplyMask replaces the alpha channel of src with the segmentation mask.
//
// With a non-zero threshold the mask is binarized: alpha is 255 where the
// mask value is >= threshold and 0 elsewhere. A threshold of 0 keeps the raw
// soft mask. Color channels are copied unchanged, so pixels hidden here keep
// their color and can be restored later. Applying the same mask and
// threshold to the same source always yields identical output.
func ApplyMask(src image.Image, mask *image.Alpha, threshold uint8) (*image.NRGBA, error) {
	if mask == nil {
		return nil, fmt.Errorf("nil segmentation mask")
	}
	mb := mask.Bounds()
	if mb.Empty() {
		return nil, fmt.Errorf("empty segmentation mask")
	}

	out := imaging.Clone(src)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	mw, mh := mb.Dx(), mb.Dy()

	cols := make([]int, w)
	for x := range cols {
		cols[x] = MaskLookup(x, w, mw)
	}

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			my := MaskLookup(y, h, mh)
			maskRow := mask.Pix[my*mask.Stride : my*mask.Stride+mw]
			row := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for x := 0; x < w; x++ {
				a := maskRow[cols[x]]
				if threshold > 0 {
					if a >= threshold {
						a = 255
					} else {
						a = 0
					}
				}
				row[x*4+3] = a
			}
		}
	})
	return out, nil
}

// MaskMode selects what a refine stroke does.
type MaskMode string

const (
	MaskErase   MaskMode = "erase"
	MaskRestore MaskMode = "restore"
)

// MaskStroke is one circular dab of the refine brush, in full-resolution
// coordinates.
type MaskStroke struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Radius float64  `json:"radius"`
	Mode   MaskMode `json:"mode"`
}

// Scaled converts a stroke recorded in preview coordinates into
// full-resolution coordinates.
func (s MaskStroke) Scaled(scale float64) MaskStroke {
	if scale <= 0 {
		return s
	}
	s.X /= scale
	s.Y /= scale
	s.Radius /= scale
	return s
}

// RefineMask applies brush strokes to a background-removed image. Erase
// clears alpha inside the circle. Restore copies all four channels from
// original, the image as it was before removal; restoring alpha alone would
// resurrect pixels whose color was lost. Restore strokes are ignored when
// original is nil or differs in size from img.
func RefineMask(img image.Image, original image.Image, strokes []MaskStroke) (*image.NRGBA, error) {
	out := imaging.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()

	var orig *image.NRGBA
	if original != nil {
		ob := original.Bounds()
		if ob.Dx() == w && ob.Dy() == h {
			orig = imaging.Clone(original)
		}
	}

	for _, s := range strokes {
		if s.Mode != MaskErase && s.Mode != MaskRestore {
			return nil, fmt.Errorf("unknown mask mode: %s", s.Mode)
		}
		if s.Mode == MaskRestore && orig == nil {
			continue
		}

		r2 := s.Radius * s.Radius
		minX := max(0, int(math.Floor(s.X-s.Radius)))
		maxX := min(w-1, int(math.Ceil(s.X+s.Radius)))
		minY := max(0, int(math.Floor(s.Y-s.Radius)))
		maxY := min(h-1, int(math.Ceil(s.Y+s.Radius)))

		for py := minY; py <= maxY; py++ {
			for px := minX; px <= maxX; px++ {
				dx, dy := float64(px)-s.X, float64(py)-s.Y
				if dx*dx+dy*dy > r2 {
					continue
				}
				i := py*out.Stride + px*4
				if s.Mode == MaskErase {
					out.Pix[i+3] = 0
					continue
				}
				j := py*orig.Stride + px*4
				copy(out.Pix[i:i+4], orig.Pix[j:j+4])
			}
		}
	}
	return out, nil
}
