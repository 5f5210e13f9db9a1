package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// ShapeKind selects the primitive drawn by a ShapeData.
type ShapeKind string

const (
	ShapeRect    ShapeKind = "rect"
	ShapeEllipse ShapeKind = "ellipse"
)

// ShapeData describes a rectangle or an ellipse inscribed in the box
// (X, Y, Width, Height).
type ShapeData struct {
	Kind      ShapeKind `json:"type"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Color     string    `json:"color"`
	LineWidth float64   `json:"line_width"`
	Filled    bool      `json:"filled"`
}

// Scaled converts preview coordinates into full-resolution coordinates.
// Geometry and line width are divided by scale and rounded.
func (s ShapeData) Scaled(scale float64) ShapeData {
	if scale <= 0 {
		return s
	}
	s.X = math.Round(s.X / scale)
	s.Y = math.Round(s.Y / scale)
	s.Width = math.Round(s.Width / scale)
	s.Height = math.Round(s.Height / scale)
	s.LineWidth = math.Max(1, math.Round(s.LineWidth/scale))
	return s
}

// LineData describes a straight line, optionally ending in an arrowhead at
// (X2, Y2).
type LineData struct {
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"line_width"`
	Arrowhead bool    `json:"arrowhead"`
}

// Scaled converts preview coordinates into full-resolution coordinates.
func (l LineData) Scaled(scale float64) LineData {
	if scale <= 0 {
		return l
	}
	l.X1 = math.Round(l.X1 / scale)
	l.Y1 = math.Round(l.Y1 / scale)
	l.X2 = math.Round(l.X2 / scale)
	l.Y2 = math.Round(l.Y2 / scale)
	l.LineWidth = math.Max(1, math.Round(l.LineWidth/scale))
	return l
}

// PencilStroke is a freehand polyline.
type PencilStroke struct {
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"line_width"`
}

// Scaled converts preview coordinates into full-resolution coordinates.
func (p PencilStroke) Scaled(scale float64) PencilStroke {
	if scale <= 0 {
		return p
	}
	pts := make([]Point, len(p.Points))
	for i, pt := range p.Points {
		pts[i] = Point{X: pt.X / scale, Y: pt.Y / scale}
	}
	p.Points = pts
	p.LineWidth = math.Max(1, p.LineWidth/scale)
	return p
}

// DrawShape renders s onto dc. It is shared by the commit path and the
// live preview so both produce the same geometry.
func DrawShape(dc *gg.Context, s ShapeData) error {
	c, err := ParseColor(s.Color)
	if err != nil {
		return err
	}

	dc.Push()
	defer dc.Pop()
	dc.SetColor(c)
	dc.SetLineWidth(math.Max(1, s.LineWidth))

	switch s.Kind {
	case ShapeRect:
		dc.DrawRectangle(s.X, s.Y, s.Width, s.Height)
	case ShapeEllipse:
		dc.DrawEllipse(s.X+s.Width/2, s.Y+s.Height/2, math.Abs(s.Width/2), math.Abs(s.Height/2))
	default:
		return fmt.Errorf("unknown shape type: %s", s.Kind)
	}

	if s.Filled {
		dc.Fill()
	} else {
		dc.Stroke()
	}
	return nil
}

// DrawLine renders l onto dc with round caps, adding the arrowhead when
// requested.
func DrawLine(dc *gg.Context, l LineData) error {
	c, err := ParseColor(l.Color)
	if err != nil {
		return err
	}

	dc.Push()
	defer dc.Pop()
	dc.SetColor(c)
	dc.SetLineWidth(math.Max(1, l.LineWidth))
	dc.SetLineCap(gg.LineCapRound)

	dc.MoveTo(l.X1, l.Y1)
	dc.LineTo(l.X2, l.Y2)
	dc.Stroke()

	if l.Arrowhead {
		head := ArrowheadPoints(Point{X: l.X1, Y: l.Y1}, Point{X: l.X2, Y: l.Y2}, l.LineWidth)
		dc.MoveTo(head[0].X, head[0].Y)
		dc.LineTo(head[1].X, head[1].Y)
		dc.LineTo(head[2].X, head[2].Y)
		dc.ClosePath()
		dc.Fill()
	}
	return nil
}

// DrawPencil renders a freehand stroke. A single point becomes a dot whose
// diameter is the line width; an empty stroke draws nothing.
func DrawPencil(dc *gg.Context, p PencilStroke) error {
	c, err := ParseColor(p.Color)
	if err != nil {
		return err
	}
	width := math.Max(1, p.LineWidth)

	dc.Push()
	defer dc.Pop()
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	switch len(p.Points) {
	case 0:
	case 1:
		dc.DrawCircle(p.Points[0].X, p.Points[0].Y, width/2)
		dc.Fill()
	default:
		dc.MoveTo(p.Points[0].X, p.Points[0].Y)
		for _, pt := range p.Points[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
		dc.Stroke()
	}
	return nil
}

// Render copies img into a drawing context, runs draw on it and returns the
// flattened result. img is not modified.
func Render(img image.Image, draw func(dc *gg.Context) error) (*image.NRGBA, error) {
	dc := gg.NewContextForImage(img)
	if err := draw(dc); err != nil {
		return nil, err
	}
	return imaging.Clone(dc.Image()), nil
}
