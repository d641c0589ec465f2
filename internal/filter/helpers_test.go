package filter

import "github.com/gogpu/glass/internal/blend"

// solidImage creates an image filled with the premultiplied color c.
func solidImage(w, h int, c blend.Color) *Image {
	return Flood(w, h, c)
}

// absf32 returns the absolute value of a float32.
func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// colorApproxEqual compares two colors with tolerance.
func colorApproxEqual(a, b blend.Color, tolerance float32) bool {
	return absf32(a.R-b.R) < tolerance &&
		absf32(a.G-b.G) < tolerance &&
		absf32(a.B-b.B) < tolerance &&
		absf32(a.A-b.A) < tolerance
}
