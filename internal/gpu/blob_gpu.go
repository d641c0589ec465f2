// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glass"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

const (
	acceleratorName = "blob-gpu"

	// fenceTimeout bounds a single frame's GPU wait.
	fenceTimeout = 5 * time.Second
)

// BlobAccelerator renders blob frames with a wgpu/hal compute pipeline.
// It implements glass.BlobAccelerator.
type BlobAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	adapterName    string
	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var (
	_ glass.BlobAccelerator     = (*BlobAccelerator)(nil)
	_ glass.DeviceProviderAware = (*BlobAccelerator)(nil)
)

// NewBlobAccelerator returns an uninitialized accelerator.
func NewBlobAccelerator() *BlobAccelerator {
	return &BlobAccelerator{}
}

// Name implements glass.BlobAccelerator.
func (a *BlobAccelerator) Name() string { return acceleratorName }

// SetLogger receives the logger propagated by glass.SetLogger.
func (a *BlobAccelerator) SetLogger(l *slog.Logger) { setLogger(l) }

// Init opens a device unless one was shared via SetDeviceProvider.
// It fails with glass.ErrNoAccelerator when no usable adapter exists.
func (a *BlobAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gpuReady {
		return nil
	}
	if err := a.initGPU(); err != nil {
		return fmt.Errorf("%w: %w", glass.ErrNoAccelerator, err)
	}
	return nil
}

// Ready reports whether the compute pipeline is usable.
func (a *BlobAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Close implements glass.BlobAccelerator.
func (a *BlobAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipeline()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetDeviceProvider switches the accelerator to a shared GPU device from an
// external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (a *BlobAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("blob-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("blob-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("blob-gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipeline()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}
	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.gpuReady = false

	if err := a.createPipeline(); err != nil {
		return fmt.Errorf("blob-gpu: create pipeline with shared device: %w", err)
	}
	a.gpuReady = true
	a.adapterName = "shared"
	slogger().Info("glass: using shared GPU device")
	return nil
}

// NewBlobRenderer implements glass.BlobAccelerator.
func (a *BlobAccelerator) NewBlobRenderer(ctx context.Context, width, height int) (glass.BlobRenderer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width < 1 || height < 1 || width*height > glass.MaxSurfaceArea {
		return nil, fmt.Errorf("%w: blob buffer %dx%d", glass.ErrInvalidDimensions, width, height)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return nil, glass.ErrFallbackToCPU
	}
	r := &blobRenderer{accel: a}
	if err := r.allocate(width, height); err != nil {
		r.free()
		return nil, err
	}
	return r, nil
}

func (a *BlobAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		a.instance = nil
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		a.instance = nil
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipeline(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		instance.Destroy()
		a.instance = nil
		return fmt.Errorf("create pipeline: %w", err)
	}
	a.gpuReady = true
	a.adapterName = selected.Info.Name
	slogger().Info("glass: GPU blob accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *BlobAccelerator) createPipeline() error {
	code, err := compileShader(blobShaderSource)
	if err != nil {
		return err
	}
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "blob",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("create blob shader module: %w", err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blob_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create blob bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "blob_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create blob pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "blob_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create blob compute pipeline: %w", err)
	}
	a.pipeline = pipeline
	return nil
}

func (a *BlobAccelerator) destroyPipeline() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

// blobRenderer owns the per-buffer GPU resources of one overlay.
// All device access happens under the accelerator lock.
type blobRenderer struct {
	accel *BlobAccelerator

	width, height int
	uniformBuf    hal.Buffer
	pixelBuf      hal.Buffer
	stagingBuf    hal.Buffer
	bindGroup     hal.BindGroup
	closed        bool
}

func (r *blobRenderer) pixelBufSize() uint64 {
	return uint64(r.width) * uint64(r.height) * 4 //nolint:gosec // dimensions checked positive
}

// allocate creates buffers and the bind group for a width x height buffer.
// The caller holds the accelerator lock.
func (r *blobRenderer) allocate(width, height int) error {
	device := r.accel.device
	r.width, r.height = width, height
	size := r.pixelBufSize()

	var err error
	r.uniformBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blob_params", Size: glass.BlobUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	r.pixelBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blob_pixels", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create storage buffer: %w", err)
	}
	r.stagingBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blob_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	r.bindGroup, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "blob_bind", Layout: r.accel.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.uniformBuf.NativeHandle(), Offset: 0, Size: glass.BlobUniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: r.pixelBuf.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}

	slogger().Debug("glass: blob buffers allocated",
		"width", width,
		"height", height,
		"pixels", humanize.Bytes(size),
		"staging", humanize.Bytes(size))
	return nil
}

// free destroys the renderer's resources. The caller holds the accelerator lock.
func (r *blobRenderer) free() {
	device := r.accel.device
	if device == nil {
		return
	}
	if r.bindGroup != nil {
		device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	for _, buf := range []*hal.Buffer{&r.uniformBuf, &r.pixelBuf, &r.stagingBuf} {
		if *buf != nil {
			device.DestroyBuffer(*buf)
			*buf = nil
		}
	}
}

func (r *blobRenderer) Resize(width, height int) error {
	if width < 1 || height < 1 || width*height > glass.MaxSurfaceArea {
		return fmt.Errorf("%w: blob buffer %dx%d", glass.ErrInvalidDimensions, width, height)
	}
	a := r.accel
	a.mu.Lock()
	defer a.mu.Unlock()
	if r.closed {
		return glass.ErrRendererClosed
	}
	if !a.gpuReady {
		return glass.ErrFallbackToCPU
	}
	if width == r.width && height == r.height {
		return nil
	}
	r.free()
	if err := r.allocate(width, height); err != nil {
		r.free()
		return err
	}
	return nil
}

func (r *blobRenderer) Render(s glass.BlobState, dst *glass.Pixmap) error {
	a := r.accel
	a.mu.Lock()
	defer a.mu.Unlock()
	if r.closed {
		return glass.ErrRendererClosed
	}
	if !a.gpuReady || r.bindGroup == nil {
		return glass.ErrFallbackToCPU
	}
	if dst == nil || dst.Width() != r.width || dst.Height() != r.height {
		return fmt.Errorf("blob-gpu: target does not match %dx%d buffer", r.width, r.height)
	}

	a.queue.WriteBuffer(r.uniformBuf, 0, s.Bytes())

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "blob_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("blob"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	w, h := uint32(r.width), uint32(r.height) //nolint:gosec // dimensions always fit uint32
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "blob_pass"})
	pass.SetPipeline(a.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()

	size := r.pixelBufSize()
	encoder.CopyBufferToBuffer(r.pixelBuf, r.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	// Packed words are RGBA8 little-endian, the pixmap's byte order.
	if err := a.queue.ReadBuffer(r.stagingBuf, 0, dst.Data()[:size]); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}

func (r *blobRenderer) Close() {
	a := r.accel
	a.mu.Lock()
	defer a.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.free()
}
