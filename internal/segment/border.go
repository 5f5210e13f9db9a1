package segment

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
)

// Default settings for BorderSegmenter.
const (
	DefaultTolerance = 12
	DefaultMaxSide   = 1024
)

// BorderSegmenter separates a subject from a roughly uniform backdrop.
//
// The background color is estimated as the most common color on the image
// border. Starting from the border, every connected pixel within Tolerance
// (CIE76 ΔE in Lab space) of that color is background. Foreground pixels
// touching the background get a soft edge proportional to their color
// distance so that threshold changes have a visible effect. Transparent
// pixels are always background.
type BorderSegmenter struct {
	// Tolerance is the ΔE below which a pixel matches the background.
	// Zero selects DefaultTolerance.
	Tolerance float64

	// MaxSide caps the longer side of the working image; larger inputs are
	// downsampled and the mask is returned at the reduced size. Zero
	// selects DefaultMaxSide, a negative value disables downsampling.
	MaxSide int
}

// NewBorderSegmenter returns a BorderSegmenter with the given tolerance and
// default MaxSide.
func NewBorderSegmenter(tolerance float64) *BorderSegmenter {
	return &BorderSegmenter{Tolerance: tolerance}
}

// Segment implements Segmenter.
func (s *BorderSegmenter) Segment(ctx context.Context, img image.Image, progress ProgressFunc) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report(progress, "Processing...")

	work := s.downsample(img)
	b := work.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyMask
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	dominant := imaging.DominantColors(work, imaging.BorderPoints(b), 1)
	if dominant == nil {
		// Border is fully transparent: keep every opaque pixel.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if work.Pix[y*work.Stride+x*4+3] > 0 {
					mask.Pix[y*mask.Stride+x] = 255
				}
			}
		}
		return &Result{Mask: mask, Label: "foreground", Score: coverage(mask)}, nil
	}
	bg := toColorful(dominant[0].Mean)

	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	tol /= 100 // go-colorful Lab distances use L in [0, 1]

	dist := make([]float64, w*h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				i := y*work.Stride + x*4
				if work.Pix[i+3] == 0 {
					dist[y*w+x] = -1
					continue
				}
				c := toColorful(color.NRGBA{work.Pix[i], work.Pix[i+1], work.Pix[i+2], 255})
				dist[y*w+x] = c.DistanceLab(bg)
			}
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	background := floodBackground(dist, w, h, tol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if background[i] || dist[i] < 0 {
				continue
			}
			v := uint8(255)
			if touchesBackground(background, w, h, x, y) {
				v = uint8(math.Max(1, math.Min(255, math.Round(255*dist[i]/(2*tol)))))
			}
			mask.Pix[y*mask.Stride+x] = v
		}
	}

	return &Result{Mask: mask, Label: "foreground", Score: coverage(mask)}, nil
}

// downsample converts img to NRGBA, shrinking it so that its longer side is
// at most MaxSide.
func (s *BorderSegmenter) downsample(img image.Image) *image.NRGBA {
	maxSide := s.MaxSide
	if maxSide == 0 {
		maxSide = DefaultMaxSide
	}
	b := img.Bounds()
	if maxSide < 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
			return n
		}
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(dst, dst.Rect, img, b.Min, xdraw.Src)
		return dst
	}

	w, h := imaging.FitSize(b.Dx(), b.Dy(), maxSide, maxSide)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst
}

// floodBackground marks every pixel reachable from the border through
// pixels within tol of the background color. Transparent pixels (dist < 0)
// are passable.
func floodBackground(dist []float64, w, h int, tol float64) []bool {
	visited := make([]bool, w*h)
	matches := func(i int) bool { return dist[i] <= tol }

	queue := make([]int, 0, 2*(w+h))
	for _, p := range imaging.BorderPoints(image.Rect(0, 0, w, h)) {
		i := p.Y*w + p.X
		if matches(i) {
			visited[i] = true
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if n[0] < 0 || n[0] >= w || n[1] < 0 || n[1] >= h {
				continue
			}
			j := n[1]*w + n[0]
			if !visited[j] && matches(j) {
				visited[j] = true
				queue = append(queue, j)
			}
		}
	}
	return visited
}

func touchesBackground(background []bool, w, h, x, y int) bool {
	return (x > 0 && background[y*w+x-1]) ||
		(x < w-1 && background[y*w+x+1]) ||
		(y > 0 && background[(y-1)*w+x]) ||
		(y < h-1 && background[(y+1)*w+x])
}

// coverage returns the mean mask opacity in [0, 1].
func coverage(mask *image.Alpha) float64 {
	if len(mask.Pix) == 0 {
		return 0
	}
	var sum int
	for _, v := range mask.Pix {
		sum += int(v)
	}
	return float64(sum) / float64(len(mask.Pix)*255)
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
