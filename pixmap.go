package glass

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Pixmap represents a rectangular pixel buffer of unpremultiplied RGBA
// bytes, 4 bytes per pixel, rows packed without padding.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a new transparent pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// SetPixel sets the color of a single pixel.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	n := c.Color().(color.NRGBA)
	p.data[i+0] = n.R
	p.data[i+1] = n.G
	p.data[i+2] = n.B
	p.data[i+3] = n.A
}

// GetPixel returns the color of a single pixel.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	return RGBA{
		R: float64(p.data[i+0]) / 255,
		G: float64(p.data[i+1]) / 255,
		B: float64(p.data[i+2]) / 255,
		A: float64(p.data[i+3]) / 255,
	}
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	n := c.Color().(color.NRGBA)
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = n.R
		p.data[i+1] = n.G
		p.data[i+2] = n.B
		p.data[i+3] = n.A
	}
}

// ToImage returns an image.NRGBA sharing the pixmap's pixel buffer.
func (p *Pixmap) ToImage() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.data,
		Stride: p.width * 4,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}
}

// FromImage creates a pixmap holding a copy of img.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	pm := NewPixmap(bounds.Dx(), bounds.Dy())

	if n, ok := img.(*image.NRGBA); ok {
		for y := 0; y < pm.height; y++ {
			off := n.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(pm.data[y*pm.width*4:(y+1)*pm.width*4], n.Pix[off:off+pm.width*4])
		}
		return pm
	}

	for y := 0; y < pm.height; y++ {
		for x := 0; x < pm.width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := (y*pm.width + x) * 4
			pm.data[i+0] = c.R
			pm.data[i+1] = c.G
			pm.data[i+2] = c.B
			pm.data[i+3] = c.A
		}
	}
	return pm
}

// EncodePNG writes the pixmap to w in PNG format.
func (p *Pixmap) EncodePNG(w io.Writer) error {
	return png.Encode(w, p.ToImage())
}

// DataURI returns the pixmap as a base64 PNG data URI.
func (p *Pixmap) DataURI() (string, error) {
	var buf bytes.Buffer
	if err := p.EncodePNG(&buf); err != nil {
		return "", err
	}
	return pngDataURI(buf.Bytes()), nil
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := p.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.NRGBA{}
	}
	i := (y*p.width + x) * 4
	return color.NRGBA{R: p.data[i], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}

func pngDataURI(encoded []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(encoded)
}
