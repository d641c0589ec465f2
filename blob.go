package glass

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// Blob shader constants. The field threshold sits between blobThresholdLow
// and blobThresholdHigh; covered pixels are white at blobAlpha.
const (
	// BlobTimeStep is the time advance per rendered frame.
	BlobTimeStep float32 = 0.04

	// BlobOverlayOpacity is the overlay opacity once the pipeline is running.
	BlobOverlayOpacity = 0.8

	blobThresholdLow  float32 = 0.42
	blobThresholdHigh float32 = 0.48
	blobAlpha         float32 = 0.42
	blobMinDistance   float32 = 0.0005

	pointerBlobSize float32 = 0.16
)

// BlobUniformSize is the byte size of the packed shader uniform block.
const BlobUniformSize = 32

// BlobState is the per-frame input of the blob shader.
type BlobState struct {
	// Time is the animation clock, advanced by BlobTimeStep per frame.
	Time float32

	// Pointer is the pointer position in shader space: x and y in [-1, 1],
	// y pointing up. The pointer is not corrected for aspect ratio.
	Pointer [2]float32

	// Resolution is the drawing buffer size in pixels.
	Resolution [2]float32
}

// Blob is one metaball: a center in aspect-corrected shader space and a size.
type Blob struct {
	X, Y float32
	Size float32
}

// Blobs returns the three metaballs for a frame: one following the pointer
// and two orbiting the center on fixed clocks.
func Blobs(s BlobState) [3]Blob {
	t := s.Time
	return [3]Blob{
		{X: s.Pointer[0], Y: s.Pointer[1], Size: pointerBlobSize},
		{X: math32.Sin(t*0.55) * 0.55, Y: 0, Size: 0.12},
		{X: math32.Cos(t*0.80) * 0.35, Y: math32.Sin(t*0.35) * 0.22, Size: 0.10},
	}
}

// BlobFieldAt evaluates the summed metaball field at a fragment coordinate.
// fragY grows upward from the bottom of the buffer.
func BlobFieldAt(fragX, fragY float32, s BlobState) float32 {
	resX, resY := s.Resolution[0], s.Resolution[1]
	if resX <= 0 || resY <= 0 {
		return 0
	}
	ux := (fragX/resX)*2 - 1
	uy := (fragY/resY)*2 - 1
	ux *= resX / resY

	var m float32
	for _, b := range Blobs(s) {
		d := math32.Hypot(ux-b.X, uy-b.Y)
		m += b.Size / math32.Max(blobMinDistance, d)
	}
	return m
}

// BlobAlphaAt returns the overlay alpha in [0, blobAlpha] at a fragment.
func BlobAlphaAt(fragX, fragY float32, s BlobState) float32 {
	return smoothstep32(blobThresholdLow, blobThresholdHigh, BlobFieldAt(fragX, fragY, s)) * blobAlpha
}

// RenderBlobRows writes rows [y0, y1) of a top-down RGBA buffer of the
// given width and height. Row r samples fragY = height - r - 0.5.
func RenderBlobRows(dst []uint8, width, height, y0, y1 int, s BlobState) {
	for r := y0; r < y1; r++ {
		fragY := float32(height-r) - 0.5
		row := dst[r*width*4 : (r+1)*width*4]
		for x := 0; x < width; x++ {
			a := BlobAlphaAt(float32(x)+0.5, fragY, s)
			i := x * 4
			row[i+0] = 255
			row[i+1] = 255
			row[i+2] = 255
			row[i+3] = uint8(math32.Floor(a*255 + 0.5))
		}
	}
}

// ShaderPoint maps a pointer position in element pixels to shader space.
// A zero-sized element maps everything to the origin.
func ShaderPoint(px, py, width, height float64) [2]float32 {
	if width <= 0 || height <= 0 {
		return [2]float32{}
	}
	x := (px/width)*2 - 1
	y := -((py/height)*2 - 1)
	return [2]float32{float32(x), float32(y)}
}

// Bytes packs the state into the std140 uniform layout
// {resolution vec2, pointer vec2, time f32, pad}.
func (s BlobState) Bytes() []byte {
	b := make([]byte, BlobUniformSize)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
	}
	put(0, s.Resolution[0])
	put(4, s.Resolution[1])
	put(8, s.Pointer[0])
	put(12, s.Pointer[1])
	put(16, s.Time)
	return b
}

func smoothstep32(edge0, edge1, x float32) float32 {
	t := (x - edge0) / (edge1 - edge0)
	t = math32.Max(0, math32.Min(1, t))
	return t * t * (3 - 2*t)
}
