package filter

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/glass/internal/blend"
)

// Image is a premultiplied RGBA raster with float32 components in [0, 1].
type Image struct {
	Width  int
	Height int
	Pix    []float32 // 4 components per pixel, row-major
}

// NewImage creates a transparent image with the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// FromImage converts img to a premultiplied float image.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	out := NewImage(b.Dx(), b.Dy())

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < out.Height; y++ {
			row := nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < out.Width; x++ {
				i := x * 4
				a := float32(row[i+3]) / 255
				o := (y*out.Width + x) * 4
				out.Pix[o+0] = float32(row[i+0]) / 255 * a
				out.Pix[o+1] = float32(row[i+1]) / 255 * a
				out.Pix[o+2] = float32(row[i+2]) / 255 * a
				out.Pix[o+3] = a
			}
		}
		return out
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			a := float32(c.A) / 255
			o := (y*out.Width + x) * 4
			out.Pix[o+0] = float32(c.R) / 255 * a
			out.Pix[o+1] = float32(c.G) / 255 * a
			out.Pix[o+2] = float32(c.B) / 255 * a
			out.Pix[o+3] = a
		}
	}
	return out
}

// NRGBA converts the image to 8-bit unpremultiplied RGBA.
func (m *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i := 0; i < len(m.Pix); i += 4 {
		a := m.Pix[i+3]
		if a <= 0 {
			continue
		}
		out.Pix[i+0] = toByte(m.Pix[i+0] / a)
		out.Pix[i+1] = toByte(m.Pix[i+1] / a)
		out.Pix[i+2] = toByte(m.Pix[i+2] / a)
		out.Pix[i+3] = toByte(a)
	}
	return out
}

// At returns the premultiplied color at (x, y).
// Coordinates outside the image are transparent.
func (m *Image) At(x, y int) blend.Color {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return blend.Color{}
	}
	i := (y*m.Width + x) * 4
	return blend.Color{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: m.Pix[i+3]}
}

// Set stores the premultiplied color c at (x, y).
func (m *Image) Set(x, y int, c blend.Color) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	i := (y*m.Width + x) * 4
	m.Pix[i+0] = c.R
	m.Pix[i+1] = c.G
	m.Pix[i+2] = c.B
	m.Pix[i+3] = c.A
}

// Clone returns a deep copy of the image.
func (m *Image) Clone() *Image {
	out := &Image{Width: m.Width, Height: m.Height, Pix: make([]float32, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// SameSize reports whether both images have identical dimensions.
func (m *Image) SameSize(o *Image) bool {
	return m.Width == o.Width && m.Height == o.Height
}

// toByte converts a normalized value to a byte, rounding to nearest.
func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
