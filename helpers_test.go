package glass

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// failingSurfaces refuses every surface request.
type failingSurfaces struct{}

func (failingSurfaces) Acquire(int, int) (*Pixmap, error) { return nil, ErrSurfaceUnavailable }
func (failingSurfaces) Release(*Pixmap)                   {}

// countingSurfaces allocates fresh surfaces and counts requests.
type countingSurfaces struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (s *countingSurfaces) Acquire(w, h int) (*Pixmap, error) {
	s.mu.Lock()
	s.acquired++
	s.mu.Unlock()
	return NewPixmap(w, h), nil
}

func (s *countingSurfaces) Release(*Pixmap) {
	s.mu.Lock()
	s.released++
	s.mu.Unlock()
}

// mockAccelerator hands out mockRenderers. When gate is non-nil,
// NewBlobRenderer blocks until it is closed.
type mockAccelerator struct {
	name    string
	initErr error
	newErr  error
	gate    chan struct{}

	mu        sync.Mutex
	closed    bool
	logger    *slog.Logger
	renderers []*mockRenderer
}

func (m *mockAccelerator) Name() string { return m.name }
func (m *mockAccelerator) Init() error  { return m.initErr }

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockAccelerator) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockAccelerator) SetLogger(l *slog.Logger) {
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

func (m *mockAccelerator) currentLogger() *slog.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logger
}

func (m *mockAccelerator) NewBlobRenderer(ctx context.Context, w, h int) (BlobRenderer, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.newErr != nil {
		return nil, m.newErr
	}
	r := &mockRenderer{width: w, height: h}
	m.mu.Lock()
	m.renderers = append(m.renderers, r)
	m.mu.Unlock()
	return r, nil
}

func (m *mockAccelerator) created() []*mockRenderer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mockRenderer(nil), m.renderers...)
}

type mockRenderer struct {
	mu            sync.Mutex
	width, height int
	resizes       int
	renders       int
	closed        bool
}

func (r *mockRenderer) Resize(w, h int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = w, h
	r.resizes++
	return nil
}

func (r *mockRenderer) Render(BlobState, *Pixmap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	r.renders++
	return nil
}

func (r *mockRenderer) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *mockRenderer) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// resetAccelerator clears the global accelerator state between tests.
func resetAccelerator() {
	accelMu.Lock()
	accel = nil
	accelMu.Unlock()
}

// manualScheduler queues frame callbacks until Step runs them.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*scheduledFrame
}

type scheduledFrame struct {
	fn        func()
	cancelled bool
}

func (s *manualScheduler) Schedule(fn func()) (cancel func()) {
	f := &scheduledFrame{fn: fn}
	s.mu.Lock()
	s.pending = append(s.pending, f)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		f.cancelled = true
		s.mu.Unlock()
	}
}

// Step runs every frame scheduled so far and returns how many ran.
func (s *manualScheduler) Step() int {
	s.mu.Lock()
	frames := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, f := range frames {
		s.mu.Lock()
		cancelled := f.cancelled
		s.mu.Unlock()
		if !cancelled {
			f.fn()
			ran++
		}
	}
	return ran
}

// fakeOverlay records every call made by a blob pipeline.
type fakeOverlay struct {
	attachErr error

	mu        sync.Mutex
	attached  bool
	attaches  int
	detaches  int
	presented int
	opacity   float64
	opacities []float64
	width     int
	height    int
}

func (o *fakeOverlay) Attach(w, h int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attachErr != nil {
		return o.attachErr
	}
	o.attached = true
	o.attaches++
	o.width, o.height = w, h
	return nil
}

func (o *fakeOverlay) Detach() {
	o.mu.Lock()
	o.attached = false
	o.detaches++
	o.mu.Unlock()
}

func (o *fakeOverlay) Present(*Pixmap) {
	o.mu.Lock()
	o.presented++
	o.mu.Unlock()
}

func (o *fakeOverlay) SetOpacity(v float64) {
	o.mu.Lock()
	o.opacity = v
	o.opacities = append(o.opacities, v)
	o.mu.Unlock()
}

type overlaySnapshot struct {
	attached  bool
	attaches  int
	detaches  int
	presented int
	opacity   float64
	opacities int
}

func (o *fakeOverlay) snapshot() overlaySnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return overlaySnapshot{
		attached:  o.attached,
		attaches:  o.attaches,
		detaches:  o.detaches,
		presented: o.presented,
		opacity:   o.opacity,
		opacities: len(o.opacities),
	}
}

// fakeHost is a fixed-size host with an optional overlay.
type fakeHost struct {
	width, height float64
	overlay       *fakeOverlay
}

func (h *fakeHost) Measure() (float64, float64) { return h.width, h.height }

func (h *fakeHost) Overlay() Overlay {
	if h.overlay == nil {
		return nil
	}
	return h.overlay
}

var errBoom = errors.New("boom")
