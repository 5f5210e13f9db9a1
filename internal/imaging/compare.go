package imaging

import (
	"image"
	"image/color"
	"math"
)

// CompareResult summarizes how two images differ.
type CompareResult struct {
	SameSize        bool    `json:"same_size"`
	PixelsDifferent int     `json:"pixels_different"`
	TotalPixels     int     `json:"total_pixels"`
	MaxChannelDiff  int     `json:"max_channel_diff"`
	SimilarityScore float64 `json:"similarity_score"` // 1.0 = identical
}

// Identical reports whether the images matched pixel for pixel.
func (r *CompareResult) Identical() bool {
	return r.SameSize && r.PixelsDifferent == 0
}

// Compare compares a and b pixel by pixel in non-premultiplied RGBA,
// including alpha. A pixel counts as different when any channel differs by
// more than tolerance. Images of different sizes are compared over their
// common top-left area and never reported identical.
func Compare(a, b image.Image, tolerance int) *CompareResult {
	ab, bb := a.Bounds(), b.Bounds()
	sameSize := ab.Dx() == bb.Dx() && ab.Dy() == bb.Dy()

	w := min(ab.Dx(), bb.Dx())
	h := min(ab.Dy(), bb.Dy())

	res := &CompareResult{SameSize: sameSize, TotalPixels: w * h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ca := color.NRGBAModel.Convert(a.At(ab.Min.X+x, ab.Min.Y+y)).(color.NRGBA)
			cb := color.NRGBAModel.Convert(b.At(bb.Min.X+x, bb.Min.Y+y)).(color.NRGBA)
			d := max(absDiff(ca.R, cb.R), absDiff(ca.G, cb.G), absDiff(ca.B, cb.B), absDiff(ca.A, cb.A))
			if d > res.MaxChannelDiff {
				res.MaxChannelDiff = d
			}
			if d > tolerance {
				res.PixelsDifferent++
			}
		}
	}

	if res.TotalPixels > 0 {
		res.SimilarityScore = math.Round((1-float64(res.PixelsDifferent)/float64(res.TotalPixels))*1000) / 1000
	}
	return res
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
