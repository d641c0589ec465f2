// Package blend provides color blending and compositing operations on
// premultiplied, normalized colors.
//
// Blend modes follow the W3C Compositing and Blending Level 1 formulas as used
// by feBlend; compositing operators follow Porter-Duff as used by feComposite.
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

// Color is a premultiplied color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Mode represents a separable blend mode.
type Mode uint8

const (
	// ModeNormal draws the top layer over the bottom layer.
	ModeNormal Mode = iota
	// ModeMultiply multiplies both layers.
	ModeMultiply
	// ModeScreen produces 1 - (1-S)*(1-D).
	ModeScreen
	// ModeDarken keeps the darker of both layers.
	ModeDarken
	// ModeLighten keeps the lighter of both layers.
	ModeLighten
)

// String returns the feBlend name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMultiply:
		return "multiply"
	case ModeScreen:
		return "screen"
	case ModeDarken:
		return "darken"
	case ModeLighten:
		return "lighten"
	default:
		return "normal"
	}
}

// Blend blends top over bottom using the specified mode.
func Blend(top, bottom Color, mode Mode) Color {
	switch mode {
	case ModeMultiply:
		return separable(top, bottom, func(s, d, sa, da float32) float32 {
			return s*(1-da) + d*(1-sa) + s*d
		})
	case ModeScreen:
		return separable(top, bottom, func(s, d, _, _ float32) float32 {
			return s + d - s*d
		})
	case ModeDarken:
		return separable(top, bottom, func(s, d, sa, da float32) float32 {
			return min(s*da, d*sa) + s*(1-da) + d*(1-sa)
		})
	case ModeLighten:
		return separable(top, bottom, func(s, d, sa, da float32) float32 {
			return max(s*da, d*sa) + s*(1-da) + d*(1-sa)
		})
	default:
		return sourceOver(top, bottom)
	}
}

// separable applies a per-channel premultiplied blend function.
// The result alpha is always Sa + Da - Sa*Da.
func separable(s, d Color, fn func(s, d, sa, da float32) float32) Color {
	return Color{
		R: clamp01(fn(s.R, d.R, s.A, d.A)),
		G: clamp01(fn(s.G, d.G, s.A, d.A)),
		B: clamp01(fn(s.B, d.B, s.A, d.A)),
		A: clamp01(s.A + d.A - s.A*d.A),
	}
}

// sourceOver composites source over destination.
// Formula: S + D * (1 - Sa)
func sourceOver(s, d Color) Color {
	inv := 1 - s.A
	return Color{
		R: s.R + d.R*inv,
		G: s.G + d.G*inv,
		B: s.B + d.B*inv,
		A: s.A + d.A*inv,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
