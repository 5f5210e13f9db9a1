package ops

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// Operation is one undoable edit.
type Operation interface {
	// Apply returns the edited image. src is never modified.
	Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error)

	// Description is the human-readable history label.
	Description() string

	operation()
}

// Flip mirrors the image horizontally or vertically.
type Flip struct {
	Horizontal bool
}

func (Flip) operation() {}

func (f Flip) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Horizontal {
		return imaging.FlipHorizontal(src), nil
	}
	return imaging.FlipVertical(src), nil
}

func (f Flip) Description() string {
	if f.Horizontal {
		return "Flip Horizontal"
	}
	return "Flip Vertical"
}

// Rotate turns the image clockwise about its center, growing the canvas to
// the rotated bounding box.
type Rotate struct {
	Degrees float64
}

func (Rotate) operation() {}

func (r Rotate) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if math.IsNaN(r.Degrees) || math.IsInf(r.Degrees, 0) {
		return nil, fmt.Errorf("invalid rotation angle: %v", r.Degrees)
	}
	return imaging.Rotate(src, r.Degrees), nil
}

func (r Rotate) Description() string {
	return "Rotate " + formatNumber(r.Degrees) + "°"
}

// Crop keeps Region, clamped into the image.
type Crop struct {
	Region imaging.Rect
}

func (Crop) operation() {}

func (c Crop) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Crop(src, c.Region), nil
}

func (c Crop) Description() string {
	r := c.Region.Normalized()
	return fmt.Sprintf("Crop to %dx%d", r.Width, r.Height)
}

// Merge joins Second to the current image at Position, scaling Second to
// match the shared edge.
type Merge struct {
	Second   image.Image
	Position imaging.MergePosition
}

func (Merge) operation() {}

func (m Merge) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Second == nil {
		return nil, fmt.Errorf("merge: no second image")
	}
	return imaging.Merge(src, m.Second, m.Position)
}

func (m Merge) Description() string {
	return fmt.Sprintf("Merge image (%s)", m.Position)
}

// Adjust applies brightness, contrast and saturation.
type Adjust struct {
	Values imaging.Adjustments
}

func (Adjust) operation() {}

func (a Adjust) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.Values.Validate(); err != nil {
		return nil, err
	}
	return imaging.Adjust(src, a.Values), nil
}

func (a Adjust) Description() string {
	return fmt.Sprintf("Adjust (%s)", a.Values)
}

// Shape draws a rectangle or ellipse.
type Shape struct {
	Data imaging.ShapeData
}

func (Shape) operation() {}

func (s Shape) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Render(src, func(dc *gg.Context) error { return imaging.DrawShape(dc, s.Data) })
}

func (s Shape) Description() string {
	return fmt.Sprintf("Draw %s", s.Data.Kind)
}

// Line draws a straight line, optionally with an arrowhead.
type Line struct {
	Data imaging.LineData
}

func (Line) operation() {}

func (l Line) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Render(src, func(dc *gg.Context) error { return imaging.DrawLine(dc, l.Data) })
}

func (Line) Description() string { return "Draw line" }

// Pencil draws a freehand stroke.
type Pencil struct {
	Stroke imaging.PencilStroke
}

func (Pencil) operation() {}

func (p Pencil) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Render(src, func(dc *gg.Context) error { return imaging.DrawPencil(dc, p.Stroke) })
}

func (Pencil) Description() string { return "Draw pencil stroke" }

// Posterize reduces each RGB channel to Levels values.
type Posterize struct {
	Levels int
}

func (Posterize) operation() {}

func (p Posterize) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Posterize(src, p.Levels)
}

func (p Posterize) Description() string {
	return fmt.Sprintf("Posterize (%d levels)", p.Levels)
}

// Upscale resizes by Scale with Lanczos resampling.
type Upscale struct {
	Scale float64
}

func (Upscale) operation() {}

func (u Upscale) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Upscale(src, u.Scale)
}

func (u Upscale) Description() string {
	return "Upscale " + formatNumber(u.Scale) + "×"
}

// RemoveBackground replaces alpha with a segmentation mask. The mask is
// computed beforehand so that Apply stays a pure function.
type RemoveBackground struct {
	Mask      *image.Alpha
	Threshold uint8
}

func (RemoveBackground) operation() {}

func (r RemoveBackground) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.ApplyMask(src, r.Mask, r.Threshold)
}

func (RemoveBackground) Description() string { return "Remove Background" }

// RefineMask erases or restores circular areas of a background-removed
// image. Original is the image before removal and feeds restore strokes.
type RefineMask struct {
	Strokes  []imaging.MaskStroke
	Original image.Image
}

func (RefineMask) operation() {}

func (r RefineMask) Apply(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.RefineMask(src, r.Original, r.Strokes)
}

func (RefineMask) Description() string { return "Refine Mask" }

// formatNumber prints v without trailing zeros: 90, 1.5, -45.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
