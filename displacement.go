package glass

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// MaxSurfaceArea is the largest raster surface, in pixels, the default
// surface provider hands out.
const MaxSurfaceArea = 16384 * 16384

// edgeFalloff is the distance in pixels over which displacement fades in
// from the image border.
const edgeFalloff = 2.0

var (
	// ErrInvalidDimensions is returned for widths or heights below one pixel.
	ErrInvalidDimensions = errors.New("glass: width and height must be at least 1")

	// ErrSurfaceUnavailable is returned when no raster surface can be
	// acquired for a displacement map.
	ErrSurfaceUnavailable = errors.New("glass: raster surface unavailable")
)

// mapNamespace scopes the content-derived displacement map identifiers.
var mapNamespace = uuid.MustParse("7d5f0f0e-2c1a-5e86-9a3b-6c1f4b2f9e10")

// SurfaceProvider hands out raster surfaces for map generation.
// Acquire returns a surface of exactly width x height pixels, or an error
// wrapping ErrSurfaceUnavailable. Every acquired surface is released once.
type SurfaceProvider interface {
	Acquire(width, height int) (*Pixmap, error)
	Release(*Pixmap)
}

// surfacePool is the default SurfaceProvider. Released surfaces are reused
// for later maps of any size that fits their buffer.
type surfacePool struct {
	pool sync.Pool
}

var defaultSurfaces = &surfacePool{}

// DefaultSurfaces returns the process-wide pooled surface provider.
func DefaultSurfaces() SurfaceProvider { return defaultSurfaces }

func (s *surfacePool) Acquire(width, height int) (*Pixmap, error) {
	if width < 1 || height < 1 {
		return nil, ErrInvalidDimensions
	}
	if int64(width)*int64(height) > MaxSurfaceArea {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSurfaceUnavailable, width, height, MaxSurfaceArea)
	}
	need := width * height * 4
	if pm, ok := s.pool.Get().(*Pixmap); ok && cap(pm.data) >= need {
		pm.width, pm.height = width, height
		pm.data = pm.data[:need]
		clear(pm.data)
		return pm, nil
	}
	return NewPixmap(width, height), nil
}

func (s *surfacePool) Release(pm *Pixmap) {
	if pm != nil {
		s.pool.Put(pm)
	}
}

// DisplacementMap is an encoded per-pixel offset image.
//
// Red holds the horizontal offset and green and blue hold the vertical
// offset, each normalized by the largest offset of the map and stored around
// a neutral value of 128. Alpha is always 255.
type DisplacementMap struct {
	// ID identifies the map by content: maps with identical pixels share an
	// ID. It is a valid XML identifier.
	ID string

	Width, Height int

	// Pix holds Width*Height*4 RGBA bytes.
	Pix []byte

	// PNG is the PNG encoding of Pix.
	PNG []byte

	// MaxScale is the normalization divisor, in pixels.
	MaxScale float64

	released atomic.Bool
}

// DataURI returns the map as a base64 PNG data URI.
func (m *DisplacementMap) DataURI() string {
	return pngDataURI(m.PNG)
}

// Image returns an image view of the map's pixels.
func (m *DisplacementMap) Image() *image.NRGBA {
	return &image.NRGBA{Pix: m.Pix, Stride: m.Width * 4, Rect: image.Rect(0, 0, m.Width, m.Height)}
}

// Offset decodes the displacement stored at (x, y) in pixels, after edge
// attenuation. It inverts encodeOffset, so an offset within MaxScale/2 of
// zero decodes to within half a quantization step (MaxScale/510).
func (m *DisplacementMap) Offset(x, y int) (dx, dy float64) {
	i := (y*m.Width + x) * 4
	dx = decodeOffset(m.Pix[i]) * m.MaxScale
	dy = decodeOffset(m.Pix[i+1]) * m.MaxScale
	return dx, dy
}

func decodeOffset(v uint8) float64 {
	return float64(v)/255 - 0.5
}

// Release retires the map. A released map is never bound to a filter
// again; renders already holding it finish with its pixels intact.
// Release is idempotent.
func (m *DisplacementMap) Release() {
	m.released.Store(true)
}

// Released reports whether Release has been called.
func (m *DisplacementMap) Released() bool {
	return m.released.Load()
}

// Rasterizer produces displacement maps from a field function.
// The zero value rasterizes RoundedRectBulge on pooled surfaces.
type Rasterizer struct {
	// Field maps unit-space points; nil selects RoundedRectBulge.
	Field FieldFunc

	// Pointer is passed to Field, in unit space.
	Pointer Point

	// Surfaces supplies raster surfaces; nil selects DefaultSurfaces.
	Surfaces SurfaceProvider
}

// Rasterize generates a displacement map with the default rasterizer.
func Rasterize(width, height int, field FieldFunc) (*DisplacementMap, error) {
	r := Rasterizer{Field: field}
	return r.Rasterize(width, height)
}

// Rasterize generates a width x height displacement map.
//
// Generation runs in two passes. The first evaluates the field for every
// pixel and records the largest absolute offset (at least 1). The second
// fades offsets to zero within two pixels of the border, normalizes them by
// that maximum and encodes the pixels. Identical inputs always produce
// byte-identical maps.
func (r *Rasterizer) Rasterize(width, height int) (*DisplacementMap, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	field := r.Field
	if field == nil {
		field = RoundedRectBulge
	}
	surfaces := r.Surfaces
	if surfaces == nil {
		surfaces = defaultSurfaces
	}

	surface, err := surfaces.Acquire(width, height)
	if err != nil {
		return nil, err
	}
	defer surfaces.Release(surface)

	w, h := float64(width), float64(height)

	// Pass 1: raw offsets and the global maximum.
	offsets := make([]float64, width*height*2)
	maxScale := 1.0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			uv := Point{X: float64(x) / w, Y: float64(y) / h}
			pos := field(uv, r.Pointer)
			var dx, dy float64
			if pos.IsFinite() {
				dx = pos.X*w - float64(x)
				dy = pos.Y*h - float64(y)
			}
			maxScale = math.Max(maxScale, math.Max(math.Abs(dx), math.Abs(dy)))
			i := (y*width + x) * 2
			offsets[i] = dx
			offsets[i+1] = dy
		}
	}

	// Pass 2: edge attenuation and encoding.
	data := surface.data
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			edgeDistance := min(x, y, width-1-x, height-1-y)
			edge := math.Min(1, float64(edgeDistance)/edgeFalloff)

			i := (y*width + x) * 2
			red := encodeOffset(offsets[i]*edge/maxScale + 0.5)
			green := encodeOffset(offsets[i+1]*edge/maxScale + 0.5)

			p := (y*width + x) * 4
			data[p+0] = red
			data[p+1] = green
			data[p+2] = green
			data[p+3] = 255
		}
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, surface.ToImage()); err != nil {
		return nil, fmt.Errorf("glass: encode displacement map: %w", err)
	}

	m := &DisplacementMap{
		ID:       mapID(width, height, data),
		Width:    width,
		Height:   height,
		Pix:      bytes.Clone(data),
		PNG:      encoded.Bytes(),
		MaxScale: maxScale,
	}

	Logger().Debug("glass: displacement map generated",
		"id", m.ID,
		"width", width,
		"height", height,
		"maxScale", maxScale,
		"png", humanize.Bytes(uint64(len(m.PNG))))
	return m, nil
}

// encodeOffset converts a normalized channel value to a byte, clamping to
// [0, 255] and rounding half away from zero.
func encodeOffset(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// mapID derives a stable identifier from the map dimensions and pixels.
func mapID(width, height int, pix []byte) string {
	buf := make([]byte, 8, 8+len(pix))
	binary.BigEndian.PutUint32(buf[0:4], uint32(width))
	binary.BigEndian.PutUint32(buf[4:8], uint32(height))
	buf = append(buf, pix...)
	return "dm-" + uuid.NewSHA1(mapNamespace, buf).String()
}
