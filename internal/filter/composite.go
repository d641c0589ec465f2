package filter

import (
	"fmt"
	"math"

	"github.com/gogpu/glass/internal/blend"
)

// Composite combines in (top) with in2 (bottom) using a Porter-Duff operator.
// k carries the arithmetic coefficients k1..k4.
func Composite(in, in2 *Image, op blend.Op, k [4]float32) (*Image, error) {
	if !in.SameSize(in2) {
		return nil, sizeMismatch("composite", in, in2)
	}
	dst := NewImage(in.Width, in.Height)
	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			dst.Set(x, y, blend.Composite(in.At(x, y), in2.At(x, y), op, k))
		}
	}
	return dst, nil
}

// Blend blends in (top) over in2 (bottom) using a separable blend mode.
func Blend(in, in2 *Image, mode blend.Mode) (*Image, error) {
	if !in.SameSize(in2) {
		return nil, sizeMismatch("blend", in, in2)
	}
	dst := NewImage(in.Width, in.Height)
	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			dst.Set(x, y, blend.Blend(in.At(x, y), in2.At(x, y), mode))
		}
	}
	return dst, nil
}

// Offset translates src by (dx, dy) pixels, rounded to whole pixels.
func Offset(src *Image, dx, dy float64) *Image {
	ox := int(math.Round(dx))
	oy := int(math.Round(dy))
	if ox == 0 && oy == 0 {
		return src.Clone()
	}
	dst := NewImage(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			dst.Set(x, y, src.At(x-ox, y-oy))
		}
	}
	return dst
}

// Flood returns an image of the given size filled with a premultiplied color.
func Flood(width, height int, c blend.Color) *Image {
	dst := NewImage(width, height)
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i+0] = c.R
		dst.Pix[i+1] = c.G
		dst.Pix[i+2] = c.B
		dst.Pix[i+3] = c.A
	}
	return dst
}

func sizeMismatch(op string, a, b *Image) error {
	return fmt.Errorf("filter: %s inputs differ in size: %dx%d vs %dx%d", op, a.Width, a.Height, b.Width, b.Height)
}
