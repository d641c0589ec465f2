package filter

import "github.com/gogpu/glass/internal/blend"

// DropShadow describes a shadow cast beneath an image.
type DropShadow struct {
	// OffsetX and OffsetY move the shadow in pixels.
	OffsetX, OffsetY float64

	// StdDev is the shadow blur standard deviation in pixels.
	StdDev float64

	// Color is the premultiplied shadow color.
	Color blend.Color
}

// Apply returns src composited over its shadow.
// The algorithm:
//  1. Extract the alpha channel of src, offset by (OffsetX, OffsetY)
//  2. Blur the alpha
//  3. Colorize it with Color
//  4. Composite src over the shadow
func (s DropShadow) Apply(src *Image) *Image {
	alpha := ExtractAlpha(src)
	alpha = Offset(alpha, s.OffsetX, s.OffsetY)
	if s.StdDev > 0 {
		alpha = GaussianBlur(alpha, s.StdDev, s.StdDev)
	}

	dst := NewImage(src.Width, src.Height)
	for i := 0; i < len(dst.Pix); i += 4 {
		a := alpha.Pix[i+3]
		shadow := blend.Color{R: s.Color.R * a, G: s.Color.G * a, B: s.Color.B * a, A: s.Color.A * a}
		top := blend.Color{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2], A: src.Pix[i+3]}
		c := blend.Composite(top, shadow, blend.OpOver, [4]float32{})
		dst.Pix[i+0] = c.R
		dst.Pix[i+1] = c.G
		dst.Pix[i+2] = c.B
		dst.Pix[i+3] = c.A
	}
	return dst
}

// ExtractAlpha returns an image holding only the alpha of src, with every
// color channel zero. It is the SourceAlpha filter input.
func ExtractAlpha(src *Image) *Image {
	dst := NewImage(src.Width, src.Height)
	for i := 3; i < len(src.Pix); i += 4 {
		dst.Pix[i] = src.Pix[i]
	}
	return dst
}
