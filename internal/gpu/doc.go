// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu implements the blob overlay on a wgpu/hal compute pipeline.
//
// The WGSL shader is compiled to SPIR-V with naga and dispatched in 8x8
// workgroups over a storage buffer of packed RGBA8 pixels, which is copied to
// a staging buffer and read back into the caller's pixmap after a fence wait.
// The public entry point is the github.com/gogpu/glass/gpu package.
package gpu
