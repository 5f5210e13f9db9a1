package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// Posterize quantizes each RGB channel to the given number of levels:
//
//	out = round(floor(v·levels/256) · 255/(levels-1))
//
// Alpha is left untouched. levels must be in [2, 256].
func Posterize(img image.Image, levels int) (*image.NRGBA, error) {
	if levels < 2 || levels > 256 {
		return nil, fmt.Errorf("posterize levels must be between 2 and 256, got %d", levels)
	}

	lut := posterizeTable(levels)
	out := imaging.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for i := 0; i < len(row); i += 4 {
				row[i] = lut[row[i]]
				row[i+1] = lut[row[i+1]]
				row[i+2] = lut[row[i+2]]
			}
		}
	})
	return out, nil
}

// posterizeTable precomputes the quantized value for every 8-bit input.
func posterizeTable(levels int) [256]uint8 {
	var lut [256]uint8
	step := 255 / float64(levels-1)
	for v := 0; v < 256; v++ {
		bucket := math.Floor(float64(v*levels) / 256)
		lut[v] = uint8(math.Round(bucket * step))
	}
	return lut
}
