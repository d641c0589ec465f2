// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// blobShaderSource is the metaball compute shader. One invocation shades one
// pixel of a top-down buffer; fragment y grows upward, so row r samples
// height - r - 0.5. Each pixel is written as packed RGBA8 (R in the low byte).
//
// The three blob terms are unrolled: naga's SPIR-V output runs only the
// first iteration of loops in compute shaders.
const blobShaderSource = `
struct Params {
    resolution: vec2<f32>,
    pointer: vec2<f32>,
    time: f32,
    _pad0: f32,
    _pad1: f32,
    _pad2: f32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read_write> pixels: array<u32>;

fn blob(uv: vec2<f32>, pos: vec2<f32>, size: f32) -> f32 {
    return size / max(0.0005, length(uv - pos));
}

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let w = u32(params.resolution.x);
    let h = u32(params.resolution.y);
    if (id.x >= w || id.y >= h) {
        return;
    }

    let frag = vec2<f32>(f32(id.x) + 0.5, f32(h - id.y) - 0.5);
    var uv = frag / params.resolution * 2.0 - 1.0;
    uv.x = uv.x * (params.resolution.x / params.resolution.y);

    let t = params.time;
    var m = blob(uv, params.pointer, 0.16);
    m = m + blob(uv, vec2<f32>(sin(t * 0.55) * 0.55, 0.0), 0.12);
    m = m + blob(uv, vec2<f32>(cos(t * 0.80) * 0.35, sin(t * 0.35) * 0.22), 0.10);

    let a = smoothstep(0.42, 0.48, m) * 0.42;
    let alpha = u32(clamp(floor(a * 255.0 + 0.5), 0.0, 255.0));
    pixels[id.y * w + id.x] = 0x00FFFFFFu | (alpha << 24u);
}
`

// compileShader compiles WGSL to SPIR-V words.
func compileShader(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile shader: SPIR-V size %d is not word aligned", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}
