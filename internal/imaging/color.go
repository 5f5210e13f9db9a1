package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit, non-premultiplied
// components.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"` // 0 = fully transparent, 255 = fully opaque
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a sampled color in several representations.
type ColorResult struct {
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// ParseColor parses a CSS-style hex color: "#rgb", "#rrggbb" or
// "#rrggbbaa". The leading '#' is optional.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if s[0] != '#' {
		s = "#" + s
	}

	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	if len(s) != 4 && len(s) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color length: %q", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// SampleColor returns the color at pixel (x, y).
//
// # Errors
//
// Returns an error if (x, y) is outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if !image.Pt(x, y).In(bounds) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	c := colorful.Color{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255}
	h, s, l := c.Hsl()

	return &ColorResult{
		Hex:  fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B),
		RGBA: RGBAColor{R: n.R, G: n.G, B: n.B, A: n.A},
		HSL:  HSLColor{H: int(math.Round(h)) % 360, S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
	}, nil
}

// ColorFrequency is a quantized color and the share of sampled pixels that
// fell into it.
type ColorFrequency struct {
	Color      color.NRGBA `json:"-"`
	Mean       color.NRGBA `json:"-"` // average of the unquantized members
	Hex        string      `json:"hex"`
	Percentage float64     `json:"percentage"` // 0-100
}

// DominantColors returns up to count of the most frequent colors among the
// given pixels, most common first. Channels are quantized to multiples of
// 16 so that near-identical shades are grouped; fully transparent pixels are
// ignored.
func DominantColors(img image.Image, points []image.Point, count int) []ColorFrequency {
	type bucket struct {
		n       int
		r, g, b int
	}
	buckets := make(map[color.NRGBA]*bucket)
	total := 0
	for _, p := range points {
		n := color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
		if n.A == 0 {
			continue
		}
		q := color.NRGBA{R: n.R / 16 * 16, G: n.G / 16 * 16, B: n.B / 16 * 16, A: 255}
		bk, ok := buckets[q]
		if !ok {
			bk = &bucket{}
			buckets[q] = bk
		}
		bk.n++
		bk.r += int(n.R)
		bk.g += int(n.G)
		bk.b += int(n.B)
		total++
	}
	if total == 0 {
		return nil
	}

	colors := make([]ColorFrequency, 0, len(buckets))
	for c, bk := range buckets {
		colors = append(colors, ColorFrequency{
			Color:      c,
			Mean:       color.NRGBA{R: uint8(bk.r / bk.n), G: uint8(bk.g / bk.n), B: uint8(bk.b / bk.n), A: 255},
			Hex:        fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
			Percentage: float64(bk.n) / float64(total) * 100,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

// BorderPoints lists every pixel on the outer one-pixel frame of bounds,
// each exactly once.
func BorderPoints(bounds image.Rectangle) []image.Point {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	pts := make([]image.Point, 0, 2*w+2*h)
	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		pts = append(pts, image.Pt(x, bounds.Min.Y))
		if h > 1 {
			pts = append(pts, image.Pt(x, bounds.Max.Y-1))
		}
	}
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		pts = append(pts, image.Pt(bounds.Min.X, y))
		if w > 1 {
			pts = append(pts, image.Pt(bounds.Max.X-1, y))
		}
	}
	return pts
}
