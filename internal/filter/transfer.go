package filter

import "math"

// TransferType selects a component transfer function.
type TransferType uint8

const (
	// TransferIdentity leaves the channel unchanged.
	TransferIdentity TransferType = iota
	// TransferTable linearly interpolates between table values.
	TransferTable
	// TransferDiscrete steps between table values.
	TransferDiscrete
	// TransferLinear computes slope*C + intercept.
	TransferLinear
)

// TransferFunc is one channel's feFuncX.
type TransferFunc struct {
	Type      TransferType
	Table     []float64
	Slope     float32
	Intercept float32
}

// Eval applies the transfer function to a normalized channel value.
func (f TransferFunc) Eval(c float32) float32 {
	switch f.Type {
	case TransferTable:
		n := len(f.Table)
		if n == 0 {
			return c
		}
		if n == 1 {
			return clamp01(float32(f.Table[0]))
		}
		pos := float64(c) * float64(n-1)
		k := int(math.Floor(pos))
		if k >= n-1 {
			return clamp01(float32(f.Table[n-1]))
		}
		if k < 0 {
			return clamp01(float32(f.Table[0]))
		}
		t := pos - float64(k)
		return clamp01(float32(f.Table[k] + t*(f.Table[k+1]-f.Table[k])))
	case TransferDiscrete:
		n := len(f.Table)
		if n == 0 {
			return c
		}
		k := int(math.Floor(float64(c) * float64(n)))
		if k >= n {
			k = n - 1
		}
		if k < 0 {
			k = 0
		}
		return clamp01(float32(f.Table[k]))
	case TransferLinear:
		return clamp01(f.Slope*c + f.Intercept)
	default:
		return c
	}
}

// ComponentTransfer applies per-channel transfer functions (R, G, B, A order)
// to the unpremultiplied colors of src.
func ComponentTransfer(src *Image, funcs [4]TransferFunc) *Image {
	dst := NewImage(src.Width, src.Height)
	for i := 0; i < len(src.Pix); i += 4 {
		r, g, b, a := unpremultiply(src.Pix[i : i+4])
		premultiply(dst.Pix[i:i+4],
			funcs[0].Eval(r),
			funcs[1].Eval(g),
			funcs[2].Eval(b),
			funcs[3].Eval(a),
		)
	}
	return dst
}
