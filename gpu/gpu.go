// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu registers the GPU blob accelerator.
//
// Import this package to render the blob overlay with a wgpu/hal compute
// shader instead of the software accelerator:
//
//	import _ "github.com/gogpu/glass/gpu"
//
// If GPU initialization fails (no Vulkan adapter available), registration is
// skipped with a warning and blob pipelines keep using the software
// accelerator.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glass"
	gpuimpl "github.com/gogpu/glass/internal/gpu"
)

func init() {
	if err := glass.RegisterBlobAccelerator(gpuimpl.NewBlobAccelerator()); err != nil {
		glass.Logger().Warn("glass: GPU blob accelerator not available", "error", err)
	}
}

// SetDeviceProvider configures the blob accelerator to use a shared GPU
// device from an external provider (e.g., a gogpu window). This avoids
// creating a separate GPU instance.
//
// The provider should also implement HalDevice() any and HalQueue() any for
// direct HAL access; providers that don't are rejected with an error.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if provider == nil {
		return nil
	}
	return glass.SetAcceleratorDeviceProvider(provider)
}
