package filter

import (
	"testing"

	"github.com/gogpu/glass/internal/blend"
)

func TestApplyColorMatrixIdentity(t *testing.T) {
	c := blend.Color{R: 0.1, G: 0.2, B: 0.3, A: 0.5}
	dst := ApplyColorMatrix(solidImage(2, 2, c), IdentityMatrix())
	if got := dst.At(1, 1); !colorApproxEqual(got, c, 1e-6) {
		t.Errorf("identity = %v, want %v", got, c)
	}
}

func TestApplyColorMatrixChannelIsolation(t *testing.T) {
	src := solidImage(1, 1, blend.Color{R: 0.8, G: 0.4, B: 0.2, A: 1})
	redOnly := ColorMatrix{
		1, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 1, 0,
	}
	got := ApplyColorMatrix(src, redOnly).At(0, 0)
	want := blend.Color{R: 0.8, A: 1}
	if !colorApproxEqual(got, want, 1e-6) {
		t.Errorf("red isolation = %v, want %v", got, want)
	}
}

func TestApplyColorMatrixClamps(t *testing.T) {
	src := solidImage(1, 1, blend.Color{R: 1, G: 1, B: 1, A: 1})
	sum := ColorMatrix{
		0.3, 0.3, 0.3, 0, 0,
		0.3, 0.3, 0.3, 0, 0,
		0.3, 0.3, 0.3, 0, 0,
		0, 0, 0, 1, 0,
	}
	got := ApplyColorMatrix(src, sum).At(0, 0)
	if absf32(got.R-0.9) > 1e-6 || got.A != 1 {
		t.Errorf("weighted sum = %v, want R=0.9 A=1", got)
	}

	boost := IdentityMatrix()
	boost[4] = 2
	if got := ApplyColorMatrix(src, boost).At(0, 0); got.R != 1 {
		t.Errorf("bias result R = %v, want clamped 1", got.R)
	}
}

func TestSaturateMatrix(t *testing.T) {
	c := blend.Color{R: 0.9, G: 0.1, B: 0.3, A: 1}
	src := solidImage(1, 1, c)

	if got := ApplyColorMatrix(src, SaturateMatrix(1)).At(0, 0); !colorApproxEqual(got, c, 1e-5) {
		t.Errorf("saturate(1) = %v, want %v", got, c)
	}

	gray := ApplyColorMatrix(src, SaturateMatrix(0)).At(0, 0)
	if absf32(gray.R-gray.G) > 1e-5 || absf32(gray.G-gray.B) > 1e-5 {
		t.Errorf("saturate(0) = %v, want gray", gray)
	}
}
