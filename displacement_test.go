package glass

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"
)

func TestRasterizeLayout(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"single pixel", 1, 1},
		{"wide", 200, 60},
		{"tall", 17, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Rasterize(tt.w, tt.h, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(m.Pix) != tt.w*tt.h*4 {
				t.Fatalf("len(Pix) = %d, want %d", len(m.Pix), tt.w*tt.h*4)
			}
			for i := 0; i < len(m.Pix); i += 4 {
				if m.Pix[i+3] != 255 {
					t.Fatalf("pixel %d alpha = %d, want 255", i/4, m.Pix[i+3])
				}
				if m.Pix[i+1] != m.Pix[i+2] {
					t.Fatalf("pixel %d green %d != blue %d", i/4, m.Pix[i+1], m.Pix[i+2])
				}
			}
			if m.MaxScale < 1 {
				t.Errorf("MaxScale = %v, want >= 1", m.MaxScale)
			}
		})
	}
}

func TestRasterizeBorderIsNeutral(t *testing.T) {
	const w, h = 120, 50
	m, err := Rasterize(w, h, nil)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x != 0 && y != 0 && x != w-1 && y != h-1 {
				continue
			}
			i := (y*w + x) * 4
			if m.Pix[i] != 128 || m.Pix[i+1] != 128 {
				t.Fatalf("border pixel (%d,%d) = %d,%d, want 128,128", x, y, m.Pix[i], m.Pix[i+1])
			}
			halfStep := m.MaxScale / 510
			if dx, dy := m.Offset(x, y); math.Abs(dx) > halfStep || math.Abs(dy) > halfStep {
				t.Fatalf("border offset (%d,%d) = %v,%v, want within %v of 0", x, y, dx, dy, halfStep)
			}
		}
	}
}

func TestOffsetDecodesWithinHalfStep(t *testing.T) {
	const w, h = 100, 50
	// Horizontal stretch about the center: dx = 0.2*(x - w/2), dy = 0.
	stretch := func(uv, _ Point) Point {
		return Point{X: uv.X + 0.2*(uv.X-0.5), Y: uv.Y}
	}
	m, err := Rasterize(w, h, stretch)
	if err != nil {
		t.Fatal(err)
	}
	if !near(m.MaxScale, 10) {
		t.Fatalf("MaxScale = %v, want 10", m.MaxScale)
	}

	halfStep := m.MaxScale/510 + 1e-9
	const y = h / 2
	for x := 26; x < 75; x++ {
		want := 0.2 * (float64(x) - w/2)
		dx, dy := m.Offset(x, y)
		if math.Abs(dx-want) > halfStep {
			t.Errorf("Offset(%d, %d).dx = %v, want %v within %v", x, y, dx, want, halfStep)
		}
		if math.Abs(dy) > halfStep {
			t.Errorf("Offset(%d, %d).dy = %v, want 0 within %v", x, y, dy, halfStep)
		}
	}
}

func TestDecodeOffsetInvertsEncode(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.5, 0.7, 1} {
		if got := decodeOffset(encodeOffset(v)) + 0.5; math.Abs(got-v) > 0.5/255+1e-12 {
			t.Errorf("decodeOffset(encodeOffset(%v)) + 0.5 = %v", v, got)
		}
	}
	if got := decodeOffset(0); got != -0.5 {
		t.Errorf("decodeOffset(0) = %v, want -0.5", got)
	}
	if got := decodeOffset(255); got != 0.5 {
		t.Errorf("decodeOffset(255) = %v, want 0.5", got)
	}
}

func TestRasterizeIdentityIsNeutral(t *testing.T) {
	m, err := Rasterize(40, 30, IdentityField)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(m.Pix); i += 4 {
		if m.Pix[i] != 128 || m.Pix[i+1] != 128 {
			t.Fatalf("pixel %d = %d,%d, want neutral", i/4, m.Pix[i], m.Pix[i+1])
		}
	}
	if m.MaxScale != 1 {
		t.Errorf("MaxScale = %v, want 1", m.MaxScale)
	}
}

func TestRasterizeNonFiniteFieldIsNeutral(t *testing.T) {
	nan := func(Point, Point) Point { return Point{X: math.NaN(), Y: math.Inf(1)} }
	m, err := Rasterize(10, 10, nan)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(m.Pix); i += 4 {
		if m.Pix[i] != 128 || m.Pix[i+1] != 128 {
			t.Fatalf("pixel %d = %d,%d, want neutral", i/4, m.Pix[i], m.Pix[i+1])
		}
	}
}

func TestRasterizeDeterministic(t *testing.T) {
	a, err := Rasterize(64, 32, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Rasterize(64, 32, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) || !bytes.Equal(a.PNG, b.PNG) {
		t.Error("identical inputs produced different maps")
	}
	if a.ID != b.ID {
		t.Errorf("IDs differ: %s vs %s", a.ID, b.ID)
	}
	if !strings.HasPrefix(a.ID, "dm-") {
		t.Errorf("ID %q should start with dm-", a.ID)
	}

	c, err := Rasterize(32, 64, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == a.ID {
		t.Error("different sizes share an ID")
	}
}

func TestRasterizePNGMatchesPix(t *testing.T) {
	m, err := Rasterize(30, 20, nil)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(m.PNG))
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			r, g, _, a := img.At(x, y).RGBA()
			i := (y*30 + x) * 4
			if uint8(r>>8) != m.Pix[i] || uint8(g>>8) != m.Pix[i+1] || uint8(a>>8) != 255 {
				t.Fatalf("PNG pixel (%d,%d) differs from Pix", x, y)
			}
		}
	}
	if !strings.HasPrefix(m.DataURI(), "data:image/png;base64,") {
		t.Errorf("DataURI prefix = %q", m.DataURI()[:22])
	}
}

func TestRasterizeErrors(t *testing.T) {
	tests := []struct {
		name string
		r    Rasterizer
		w, h int
		want error
	}{
		{"zero width", Rasterizer{}, 0, 10, ErrInvalidDimensions},
		{"negative height", Rasterizer{}, 10, -1, ErrInvalidDimensions},
		{"no surface", Rasterizer{Surfaces: failingSurfaces{}}, 10, 10, ErrSurfaceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.r.Rasterize(tt.w, tt.h); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDefaultSurfacesRefusesOversize(t *testing.T) {
	if _, err := DefaultSurfaces().Acquire(16385, 16384); !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("oversize acquire: err = %v, want ErrSurfaceUnavailable", err)
	}
	pm, err := DefaultSurfaces().Acquire(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if pm.Width() != 8 || pm.Height() != 4 || len(pm.Data()) != 8*4*4 {
		t.Errorf("surface = %dx%d (%d bytes), want 8x4", pm.Width(), pm.Height(), len(pm.Data()))
	}
	DefaultSurfaces().Release(pm)
}

func TestRasterizerReleasesSurface(t *testing.T) {
	s := &countingSurfaces{}
	r := Rasterizer{Surfaces: s}
	if _, err := r.Rasterize(12, 12); err != nil {
		t.Fatal(err)
	}
	if s.acquired != 1 || s.released != 1 {
		t.Errorf("acquired=%d released=%d, want 1 1", s.acquired, s.released)
	}
}

func TestDisplacementMapRelease(t *testing.T) {
	m, err := Rasterize(4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	m.Release()
	m.Release()
	if !m.Released() {
		t.Error("Released() = false after Release")
	}
}

func TestEncodeOffset(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0.5, 128},
		{0, 0},
		{1, 255},
		{-3, 0},
		{7, 255},
	}
	for _, tt := range tests {
		if got := encodeOffset(tt.in); got != tt.want {
			t.Errorf("encodeOffset(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
