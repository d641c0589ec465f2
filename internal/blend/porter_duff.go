package blend

// Op represents a Porter-Duff compositing operator.
type Op uint8

const (
	OpOver       Op = iota // Result: S + D*(1-Sa)
	OpIn                   // Result: S*Da
	OpOut                  // Result: S*(1-Da)
	OpAtop                 // Result: S*Da + D*(1-Sa)
	OpXor                  // Result: S*(1-Da) + D*(1-Sa)
	OpArithmetic           // Result: k1*S*D + k2*S + k3*D + k4
)

// String returns the feComposite operator name.
func (o Op) String() string {
	switch o {
	case OpIn:
		return "in"
	case OpOut:
		return "out"
	case OpAtop:
		return "atop"
	case OpXor:
		return "xor"
	case OpArithmetic:
		return "arithmetic"
	default:
		return "over"
	}
}

// Composite combines s (the "in" input) with d (the "in2" input).
// k holds the arithmetic coefficients and is ignored by the other operators.
func Composite(s, d Color, op Op, k [4]float32) Color {
	switch op {
	case OpIn:
		return scale(s, d.A)
	case OpOut:
		return scale(s, 1-d.A)
	case OpAtop:
		return add(scale(s, d.A), scale(d, 1-s.A))
	case OpXor:
		return add(scale(s, 1-d.A), scale(d, 1-s.A))
	case OpArithmetic:
		return arithmetic(s, d, k)
	default:
		return sourceOver(s, d)
	}
}

func arithmetic(s, d Color, k [4]float32) Color {
	ch := func(sc, dc float32) float32 {
		return clamp01(k[0]*sc*dc + k[1]*sc + k[2]*dc + k[3])
	}
	out := Color{
		R: ch(s.R, d.R),
		G: ch(s.G, d.G),
		B: ch(s.B, d.B),
		A: ch(s.A, d.A),
	}
	// Premultiplied color can never exceed alpha.
	out.R = min(out.R, out.A)
	out.G = min(out.G, out.A)
	out.B = min(out.B, out.A)
	return out
}

func scale(c Color, f float32) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f, A: c.A * f}
}

func add(a, b Color) Color {
	return Color{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B, A: a.A + b.A}
}
