package glass

import "math"

// FieldFunc maps a point in unit space [0,1]x[0,1] to the point whose
// content should appear there. pointer is the pointer position in the same
// space; functions are free to ignore it.
//
// A FieldFunc must be pure: the same inputs always produce the same output.
type FieldFunc func(uv, pointer Point) Point

// Bulge parameters of RoundedRectBulge, in unit space centered on the panel.
const (
	bulgeHalfWidth  = 0.3
	bulgeHalfHeight = 0.2
	bulgeRadius     = 0.6
	bulgeInset      = 0.15
	bulgeFalloff    = 0.8
)

// RoundedRectBulge is the liquid glass field. Inside a rounded rectangle
// covering the panel interior content is left in place; towards the rim the
// field pulls samples towards the center, which magnifies the backdrop like
// the thick edge of a lens.
func RoundedRectBulge(uv, _ Point) Point {
	ix := uv.X - 0.5
	iy := uv.Y - 0.5
	d := RoundedRectSDF(ix, iy, bulgeHalfWidth, bulgeHalfHeight, bulgeRadius)
	displacement := Smoothstep(bulgeFalloff, 0, d-bulgeInset)
	scaled := Smoothstep(0, 1, displacement)
	return Point{X: ix*scaled + 0.5, Y: iy*scaled + 0.5}
}

// IdentityField leaves every point in place. Its displacement map is
// uniformly neutral.
func IdentityField(uv, _ Point) Point { return uv }

// RoundedRectSDF returns the signed distance from (x, y) to a rounded
// rectangle centered at the origin with half extents halfW x halfH.
// Negative values are inside, positive values are outside.
//
// radius may exceed the half extents; the shape then degenerates to a
// rounded blob larger than the nominal rectangle.
func RoundedRectSDF(x, y, halfW, halfH, radius float64) float64 {
	qx := math.Abs(x) - halfW + radius
	qy := math.Abs(y) - halfH + radius
	return math.Min(math.Max(qx, qy), 0) +
		Length(math.Max(qx, 0), math.Max(qy, 0)) - radius
}

// Smoothstep performs Hermite interpolation of x between edge0 and edge1.
// edge0 may be greater than edge1, which inverts the ramp.
// edge0 == edge1 is a hard step at that value.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}

// Length returns the Euclidean length of the vector (x, y).
func Length(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}
