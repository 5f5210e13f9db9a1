package imaging

import "math"

// Point is a 2D point in pixel space. Coordinates are fractional because
// gestures are recorded in preview space and scaled to full resolution.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Angle returns the direction from a to b in radians
// (0 = right, π/2 = down).
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// arrowheadSpread is the half-angle between the arrow shaft and each wing.
const arrowheadSpread = math.Pi / 6

// ArrowheadPoints returns the triangle tip, left wing and right wing of an
// arrowhead at the end of the line from -> to. The wings are
// max(4·lineWidth, 12) pixels long.
func ArrowheadPoints(from, to Point, lineWidth float64) [3]Point {
	angle := Angle(from, to)
	headLen := math.Max(lineWidth*4, 12)
	return [3]Point{
		to,
		{X: to.X - headLen*math.Cos(angle-arrowheadSpread), Y: to.Y - headLen*math.Sin(angle-arrowheadSpread)},
		{X: to.X - headLen*math.Cos(angle+arrowheadSpread), Y: to.Y - headLen*math.Sin(angle+arrowheadSpread)},
	}
}
