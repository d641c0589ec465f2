package glass

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// BlobStatus is the lifecycle state of a BlobPipeline.
type BlobStatus uint8

const (
	// BlobUninitialized is the state before Boot.
	BlobUninitialized BlobStatus = iota
	// BlobBooting means a renderer is being acquired.
	BlobBooting
	// BlobRunning means frames are being rendered and presented.
	BlobRunning
	// BlobDisposed is terminal: Dispose was called.
	BlobDisposed
	// BlobDisabled is terminal: boot failed and the overlay is hidden.
	BlobDisabled
)

// String returns the status name.
func (s BlobStatus) String() string {
	switch s {
	case BlobUninitialized:
		return "uninitialized"
	case BlobBooting:
		return "booting"
	case BlobRunning:
		return "running"
	case BlobDisposed:
		return "disposed"
	case BlobDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// cancelToken is a single-use cancellation flag shared between Dispose and
// an in-flight boot.
type cancelToken struct {
	cancelled atomic.Bool
}

func (t *cancelToken) cancel()         { t.cancelled.Store(true) }
func (t *cancelToken) Cancelled() bool { return t.cancelled.Load() }

// FrameScheduler schedules frame callbacks, one per call, like a display's
// animation-frame hook. Schedule must not call fn synchronously.
type FrameScheduler interface {
	Schedule(fn func()) (cancel func())
}

// TickerScheduler schedules frames on a fixed interval.
// The zero value runs at 60 Hz.
type TickerScheduler struct {
	Interval time.Duration
}

// Schedule implements FrameScheduler.
func (s TickerScheduler) Schedule(fn func()) (cancel func()) {
	d := s.Interval
	if d <= 0 {
		d = time.Second / 60
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// BlobOption configures a BlobPipeline.
type BlobOption func(*blobOptions)

type blobOptions struct {
	scheduler FrameScheduler
	accel     BlobAccelerator
}

// WithScheduler sets the frame scheduler. Default: TickerScheduler at 60 Hz.
func WithScheduler(s FrameScheduler) BlobOption {
	return func(o *blobOptions) {
		o.scheduler = s
	}
}

// WithBlobAccelerator overrides the registered blob accelerator.
func WithBlobAccelerator(a BlobAccelerator) BlobOption {
	return func(o *blobOptions) {
		o.accel = a
	}
}

// BlobPipeline drives the animated metaball overlay of one host.
//
// Boot acquires a renderer asynchronously. Once running, every scheduled
// frame advances time by BlobTimeStep, renders and presents the overlay.
// Pointer and resize events arrive through the Bridge. Boot failures hide
// the overlay and never escape; Dispose stops everything and is safe at any
// point, including while a boot is in flight.
//
// Overlay methods are called with the pipeline lock held and must not call
// back into the pipeline.
type BlobPipeline struct {
	host      Host
	overlay   Overlay
	bridge    *Bridge
	scheduler FrameScheduler
	accel     BlobAccelerator

	mu             sync.Mutex
	status         BlobStatus
	token          *cancelToken
	renderer       BlobRenderer
	frame          *Pixmap
	state          BlobState
	width, height  int
	removeListener func()
	cancelFrame    func()
	frames         int

	ready     chan struct{}
	readyOnce sync.Once
}

// NewBlobPipeline creates a pipeline for host's overlay. Events are taken
// from bridge. The pipeline does nothing until Boot.
func NewBlobPipeline(host Host, bridge *Bridge, opts ...BlobOption) *BlobPipeline {
	o := blobOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = TickerScheduler{}
	}
	if o.accel == nil {
		o.accel = blobAccelerator()
	}
	if bridge == nil {
		bridge = NewBridge()
	}
	var overlay Overlay
	if host != nil {
		overlay = host.Overlay()
	}
	return &BlobPipeline{
		host:      host,
		overlay:   overlay,
		bridge:    bridge,
		scheduler: o.scheduler,
		accel:     o.accel,
		ready:     make(chan struct{}),
	}
}

// Boot starts the pipeline in the background. Only the first call on an
// uninitialized pipeline has any effect. Ready reports when boot resolves.
func (p *BlobPipeline) Boot(ctx context.Context) {
	p.mu.Lock()
	if p.status != BlobUninitialized {
		p.mu.Unlock()
		return
	}
	p.status = BlobBooting
	tok := &cancelToken{}
	p.token = tok
	p.width, p.height = p.measure()
	w, h := p.width, p.height
	p.mu.Unlock()

	go p.boot(ctx, tok, w, h)
}

func (p *BlobPipeline) boot(ctx context.Context, tok *cancelToken, w, h int) {
	defer p.resolve()

	if p.overlay == nil {
		p.disable(tok, errors.New("glass: host has no overlay surface"), false)
		return
	}

	r, err := p.accel.NewBlobRenderer(ctx, w, h)
	if tok.Cancelled() {
		if r != nil {
			r.Close()
		}
		return
	}
	if err != nil {
		p.disable(tok, err, ctx.Err() != nil)
		return
	}

	p.mu.Lock()
	if tok.Cancelled() {
		p.mu.Unlock()
		r.Close()
		return
	}
	if p.width != w || p.height != h {
		// Resized while booting.
		if err := r.Resize(p.width, p.height); err == nil {
			w, h = p.width, p.height
		} else {
			p.width, p.height = w, h
		}
	}
	if err := p.overlay.Attach(w, h); err != nil {
		p.mu.Unlock()
		r.Close()
		p.disable(tok, err, false)
		return
	}
	p.renderer = r
	p.frame = NewPixmap(w, h)
	p.state.Resolution = [2]float32{float32(w), float32(h)}
	p.removeListener = p.bridge.Listen(EventPointerMove|EventPointerLeave|EventResize, p.handle)
	p.status = BlobRunning
	p.overlay.SetOpacity(BlobOverlayOpacity)
	p.cancelFrame = p.scheduler.Schedule(p.tick)
	p.mu.Unlock()

	Logger().Info("glass: blob pipeline running",
		"accelerator", p.accel.Name(),
		"width", w,
		"height", h)
}

// disable moves a booting pipeline to BlobDisabled and hides the overlay.
// Cancelled boots are left to Dispose.
func (p *BlobPipeline) disable(tok *cancelToken, err error, silent bool) {
	p.mu.Lock()
	if tok.Cancelled() || p.status != BlobBooting {
		p.mu.Unlock()
		return
	}
	p.status = BlobDisabled
	if p.overlay != nil {
		p.overlay.SetOpacity(0)
	}
	p.mu.Unlock()

	if !silent {
		Logger().Warn("glass: blob overlay disabled", "error", err)
	}
}

func (p *BlobPipeline) resolve() {
	p.readyOnce.Do(func() { close(p.ready) })
}

// Ready returns a channel that is closed once boot has resolved, whether
// the pipeline is running, disabled or disposed.
func (p *BlobPipeline) Ready() <-chan struct{} {
	return p.ready
}

func (p *BlobPipeline) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != BlobRunning {
		return
	}
	if err := p.renderLocked(); err != nil {
		Logger().Debug("glass: blob frame skipped", "error", err)
	}
	p.cancelFrame = p.scheduler.Schedule(p.tick)
}

// Frame renders and presents one frame immediately, outside the schedule.
// It is a no-op unless the pipeline is running.
func (p *BlobPipeline) Frame() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != BlobRunning {
		return nil
	}
	return p.renderLocked()
}

func (p *BlobPipeline) renderLocked() error {
	p.state.Time += BlobTimeStep
	if err := p.renderer.Render(p.state, p.frame); err != nil {
		return err
	}
	p.frames++
	p.overlay.Present(p.frame)
	return nil
}

func (p *BlobPipeline) handle(ev Event) {
	switch ev.Kind {
	case EventPointerMove:
		p.PointerMove(ev.X, ev.Y)
	case EventPointerLeave:
		p.PointerLeave()
	case EventResize:
		p.Resize(ev.Width, ev.Height)
	}
}

// Resize updates the drawing buffer and resolution to the new element size.
// The renderer is resized in place; the pipeline never reboots.
func (p *BlobPipeline) Resize(width, height float64) {
	w, h := roundDimension(width), roundDimension(height)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.status {
	case BlobDisposed, BlobDisabled:
		return
	case BlobRunning:
	default:
		p.width, p.height = w, h
		return
	}
	if w == p.width && h == p.height {
		return
	}
	if err := p.renderer.Resize(w, h); err != nil {
		Logger().Warn("glass: blob resize failed", "width", w, "height", h, "error", err)
		return
	}
	p.width, p.height = w, h
	p.frame = NewPixmap(w, h)
	p.state.Resolution = [2]float32{float32(w), float32(h)}
}

// PointerMove sets the pointer uniform from a position in element pixels.
func (p *BlobPipeline) PointerMove(px, py float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == BlobDisposed || p.status == BlobDisabled {
		return
	}
	p.state.Pointer = ShaderPoint(px, py, float64(p.width), float64(p.height))
}

// PointerLeave resets the pointer uniform to the origin.
func (p *BlobPipeline) PointerLeave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == BlobDisposed || p.status == BlobDisabled {
		return
	}
	p.state.Pointer = [2]float32{}
}

// Dispose cancels any in-flight boot, stops the frame loop, removes event
// listeners, closes the renderer and detaches the overlay. Dispose is
// idempotent and a no-op on a disabled pipeline.
func (p *BlobPipeline) Dispose() {
	p.mu.Lock()
	prev := p.status
	if prev == BlobDisposed || prev == BlobDisabled {
		p.mu.Unlock()
		return
	}
	p.status = BlobDisposed
	if p.token != nil {
		p.token.cancel()
	}
	if p.cancelFrame != nil {
		p.cancelFrame()
		p.cancelFrame = nil
	}
	if p.removeListener != nil {
		p.removeListener()
		p.removeListener = nil
	}
	if p.renderer != nil {
		p.renderer.Close()
		p.renderer = nil
	}
	if prev == BlobRunning {
		p.overlay.Detach()
	}
	p.frame = nil
	p.mu.Unlock()

	if prev == BlobUninitialized {
		p.resolve()
	}
}

// Status returns the lifecycle state.
func (p *BlobPipeline) Status() BlobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// State returns the current shader uniforms.
func (p *BlobPipeline) State() BlobState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Frames returns the number of frames presented.
func (p *BlobPipeline) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

func (p *BlobPipeline) measure() (int, int) {
	if p.host == nil {
		return 1, 1
	}
	w, h := p.host.Measure()
	return roundDimension(w), roundDimension(h)
}
