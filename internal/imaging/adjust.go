package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
)

// Adjustments holds brightness, contrast and saturation as percentages.
// 100/100/100 is the identity.
type Adjustments struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturation int `json:"saturation"`
}

// DefaultAdjustments returns the identity adjustment.
func DefaultAdjustments() Adjustments {
	return Adjustments{Brightness: 100, Contrast: 100, Saturation: 100}
}

// IsIdentity reports whether applying a would leave an image unchanged.
func (a Adjustments) IsIdentity() bool {
	return a.Brightness == 100 && a.Contrast == 100 && a.Saturation == 100
}

// Filter renders a as a CSS filter string, e.g.
// "brightness(120%) contrast(100%) saturate(80%)".
func (a Adjustments) Filter() string {
	return fmt.Sprintf("brightness(%d%%) contrast(%d%%) saturate(%d%%)", a.Brightness, a.Contrast, a.Saturation)
}

// String is the short label used in history descriptions.
func (a Adjustments) String() string {
	return fmt.Sprintf("B:%d%% C:%d%% S:%d%%", a.Brightness, a.Contrast, a.Saturation)
}

// Validate rejects negative percentages.
func (a Adjustments) Validate() error {
	if a.Brightness < 0 || a.Contrast < 0 || a.Saturation < 0 {
		return fmt.Errorf("adjustment percentages must be non-negative: %s", a)
	}
	return nil
}

// Adjust applies brightness, then contrast, then saturation, in the order a
// CSS filter chain evaluates them. Brightness multiplies each channel,
// contrast scales distance from mid-gray and saturation scales HSL
// saturation. Colors are adjusted as straight (non-premultiplied) values and
// alpha is left untouched. The identity returns an unmodified copy.
func Adjust(img image.Image, a Adjustments) *image.NRGBA {
	src := imaging.Clone(img)
	if a.IsIdentity() {
		return src
	}

	// bild works on premultiplied RGBA; run it on an opaque copy so
	// semi-transparent pixels are adjusted like opaque ones.
	var out image.Image = imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		c.A = 255
		return c
	})
	if a.Brightness != 100 {
		out = adjust.Brightness(out, percentChange(a.Brightness))
	}
	if a.Contrast != 100 {
		out = adjust.Contrast(out, percentChange(a.Contrast))
	}
	if a.Saturation != 100 {
		out = adjust.Saturation(out, percentChange(a.Saturation))
	}

	dst := imaging.Clone(out)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = src.Pix[i]
	}
	return dst
}

// percentChange maps a CSS-style percentage (100 = unchanged) onto bild's
// relative change (0 = unchanged).
func percentChange(p int) float64 {
	return float64(p)/100 - 1
}
