package glass

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/glass/internal/parallel"
)

// ErrFallbackToCPU indicates the GPU accelerator cannot serve a request.
// The caller should transparently fall back to software rendering.
var ErrFallbackToCPU = errors.New("glass: falling back to CPU rendering")

// ErrNoAccelerator indicates that no blob accelerator could be initialized.
var ErrNoAccelerator = errors.New("glass: no blob accelerator available")

// ErrRendererClosed is returned by a BlobRenderer used after Close.
var ErrRendererClosed = errors.New("glass: blob renderer closed")

// BlobRenderer draws blob frames into a fixed-size drawing buffer.
type BlobRenderer interface {
	// Resize changes the drawing buffer size.
	Resize(width, height int) error

	// Render draws one frame into dst, which must match the buffer size.
	Render(s BlobState, dst *Pixmap) error

	// Close releases the renderer. Close is idempotent.
	Close()
}

// BlobAccelerator is a provider of blob renderers.
//
// A software accelerator is always available. GPU backends register a
// replacement via RegisterBlobAccelerator; users opt in with a blank import:
//
//	import _ "github.com/gogpu/glass/gpu" // enables GPU blob rendering
type BlobAccelerator interface {
	// Name returns the accelerator name (e.g., "software", "vulkan").
	Name() string

	// Init initializes accelerator resources. Called once during registration.
	Init() error

	// Close releases accelerator resources.
	Close()

	// NewBlobRenderer acquires a renderer for a width x height buffer.
	// ctx bounds the acquisition only.
	NewBlobRenderer(ctx context.Context, width, height int) (BlobRenderer, error)
}

// DeviceProviderAware is an optional interface for accelerators that can share
// GPU resources with an external provider (e.g., a gogpu window).
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   BlobAccelerator
)

// RegisterBlobAccelerator registers the accelerator used by new blob pipelines.
//
// Only one accelerator can be registered. Subsequent calls replace the previous
// one, which is closed. Init is called during registration; if it fails the
// accelerator is not registered and the error is returned.
func RegisterBlobAccelerator(a BlobAccelerator) error {
	if a == nil {
		return errors.New("glass: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	Logger().Info("glass: blob accelerator registered", "name", a.Name())
	return nil
}

// Accelerator returns the registered blob accelerator, or nil if none.
func Accelerator() BlobAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is registered
// or it doesn't support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

// SoftwareBlobAccelerator evaluates the blob shader on the CPU, one row band
// per worker.
type SoftwareBlobAccelerator struct {
	mu   sync.Mutex
	pool *parallel.WorkerPool
}

// NewSoftwareBlobAccelerator returns a software accelerator. Workers <= 0
// selects GOMAXPROCS.
func NewSoftwareBlobAccelerator(workers int) *SoftwareBlobAccelerator {
	return &SoftwareBlobAccelerator{pool: parallel.NewWorkerPool(workers)}
}

// Name implements BlobAccelerator.
func (a *SoftwareBlobAccelerator) Name() string { return "software" }

// Init implements BlobAccelerator.
func (a *SoftwareBlobAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pool == nil || !a.pool.IsRunning() {
		a.pool = parallel.NewWorkerPool(0)
	}
	return nil
}

// Close implements BlobAccelerator.
func (a *SoftwareBlobAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pool != nil {
		a.pool.Close()
	}
}

// NewBlobRenderer implements BlobAccelerator.
func (a *SoftwareBlobAccelerator) NewBlobRenderer(ctx context.Context, width, height int) (BlobRenderer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkBlobSize(width, height); err != nil {
		return nil, err
	}
	a.mu.Lock()
	pool := a.pool
	a.mu.Unlock()
	return &softwareBlobRenderer{pool: pool, width: width, height: height}, nil
}

type softwareBlobRenderer struct {
	mu            sync.Mutex
	pool          *parallel.WorkerPool
	width, height int
	closed        bool
}

func (r *softwareBlobRenderer) Resize(width, height int) error {
	if err := checkBlobSize(width, height); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	r.width, r.height = width, height
	return nil
}

func (r *softwareBlobRenderer) Render(s BlobState, dst *Pixmap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	if dst == nil || dst.Width() != r.width || dst.Height() != r.height {
		return fmt.Errorf("glass: blob target does not match %dx%d buffer", r.width, r.height)
	}
	data := dst.Data()
	w, h := r.width, r.height
	if r.pool == nil {
		RenderBlobRows(data, w, h, 0, h, s)
		return nil
	}
	r.pool.Rows(h, func(y0, y1 int) {
		RenderBlobRows(data, w, h, y0, y1, s)
	})
	return nil
}

func (r *softwareBlobRenderer) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func checkBlobSize(width, height int) error {
	if width < 1 || height < 1 || width*height > MaxSurfaceArea {
		return fmt.Errorf("%w: blob buffer %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

var softwareOnce = sync.OnceValue(func() BlobAccelerator {
	return NewSoftwareBlobAccelerator(0)
})

// blobAccelerator returns the registered accelerator or the shared software one.
func blobAccelerator() BlobAccelerator {
	if a := Accelerator(); a != nil {
		return a
	}
	return softwareOnce()
}
