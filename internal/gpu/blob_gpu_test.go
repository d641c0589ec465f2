// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/glass"
)

const spirvMagic = 0x07230203

func TestBlobShaderCompiles(t *testing.T) {
	code, err := compileShader(blobShaderSource)
	if err != nil {
		t.Fatalf("compileShader: %v", err)
	}
	if len(code) < 5 {
		t.Fatalf("SPIR-V too short: %d words", len(code))
	}
	if code[0] != spirvMagic {
		t.Errorf("SPIR-V magic = %#x, want %#x", code[0], spirvMagic)
	}
}

func TestBlobUniformLayout(t *testing.T) {
	s := glass.BlobState{
		Time:       1.5,
		Pointer:    [2]float32{-0.25, 0.75},
		Resolution: [2]float32{640, 480},
	}
	b := s.Bytes()
	if len(b) != glass.BlobUniformSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(b), glass.BlobUniformSize)
	}
	tests := []struct {
		name   string
		offset int
		want   float32
	}{
		{"resolution.x", 0, 640},
		{"resolution.y", 4, 480},
		{"pointer.x", 8, -0.25},
		{"pointer.y", 12, 0.75},
		{"time", 16, 1.5},
	}
	for _, tt := range tests {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[tt.offset:]))
		if got != tt.want {
			t.Errorf("%s at %d = %v, want %v", tt.name, tt.offset, got, tt.want)
		}
	}
}

func TestNewBlobRendererWithoutDevice(t *testing.T) {
	a := NewBlobAccelerator()
	ctx := context.Background()

	if _, err := a.NewBlobRenderer(ctx, 32, 32); !errors.Is(err, glass.ErrFallbackToCPU) {
		t.Errorf("uninitialized accelerator: err = %v, want ErrFallbackToCPU", err)
	}
	if _, err := a.NewBlobRenderer(ctx, 0, 32); !errors.Is(err, glass.ErrInvalidDimensions) {
		t.Errorf("zero width: err = %v, want ErrInvalidDimensions", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := a.NewBlobRenderer(cancelled, 32, 32); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: err = %v, want context.Canceled", err)
	}
}

func TestSetDeviceProviderRejectsNonHAL(t *testing.T) {
	a := NewBlobAccelerator()
	if err := a.SetDeviceProvider(struct{}{}); err == nil {
		t.Error("SetDeviceProvider(struct{}{}) should fail")
	}
}

func TestBlobAcceleratorMatchesSoftware(t *testing.T) {
	a := NewBlobAccelerator()
	if err := a.Init(); err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	t.Cleanup(a.Close)

	const w, h = 64, 40
	r, err := a.NewBlobRenderer(context.Background(), w, h)
	if err != nil {
		t.Fatalf("NewBlobRenderer: %v", err)
	}
	t.Cleanup(r.Close)

	s := glass.BlobState{
		Time:       0.4,
		Pointer:    [2]float32{0.3, -0.2},
		Resolution: [2]float32{w, h},
	}
	got := glass.NewPixmap(w, h)
	if err := r.Render(s, got); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := make([]uint8, w*h*4)
	glass.RenderBlobRows(want, w, h, 0, h, s)

	// Transcendental precision differs between GPU and CPU; allow a small
	// alpha tolerance and a few threshold-edge pixels.
	mismatches := 0
	for i := 0; i < w*h; i++ {
		ga, wa := int(got.Data()[i*4+3]), int(want[i*4+3])
		if d := ga - wa; d > 2 || d < -2 {
			mismatches++
		}
		if got.Data()[i*4] != 255 {
			t.Fatalf("pixel %d red = %d, want 255", i, got.Data()[i*4])
		}
	}
	if mismatches > w*h/50 {
		t.Errorf("%d of %d pixels differ from the software renderer", mismatches, w*h)
	}

	if err := r.Resize(32, 16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := r.Render(s, got); err == nil {
		t.Error("Render into a stale-size target should fail")
	}
}
