package glass

import "context"

// Host is the element a glass effect is mounted on.
type Host interface {
	// Measure returns the element's box size in pixels.
	Measure() (width, height float64)

	// Overlay returns the surface the blob animation is drawn onto, or nil
	// when the host has none.
	Overlay() Overlay
}

// Overlay is a host surface stacked above the panel content.
type Overlay interface {
	// Attach prepares a width x height surface.
	Attach(width, height int) error

	// Detach removes the surface.
	Detach()

	// Present shows a rendered frame. The pixmap is reused by the next frame.
	Present(frame *Pixmap)

	// SetOpacity sets the overlay opacity in [0, 1].
	SetOpacity(opacity float64)
}

// Effect is a glass panel mounted on a host together with its blob overlay.
type Effect struct {
	panel  *Panel
	blobs  *BlobPipeline
	bridge *Bridge
}

// Mount measures host once, creates its panel and starts the blob overlay
// when the host provides one. Resize events dispatched on the effect's
// bridge re-measure the panel and resize the overlay. Nothing returned by
// the host is fatal: failures fall back to an unfiltered panel or a hidden
// overlay.
func Mount(ctx context.Context, host Host, opts ...Option) *Effect {
	panel := NewPanel(opts...)
	bridge := NewBridge()
	e := &Effect{panel: panel, bridge: bridge}

	w, h := host.Measure()
	panel.Measure(w, h)

	remove := bridge.Listen(EventResize, func(ev Event) {
		panel.Measure(ev.Width, ev.Height)
	})
	bridge.OnTeardown(remove)
	bridge.OnTeardown(panel.Close)

	if host.Overlay() != nil {
		e.blobs = NewBlobPipeline(host, bridge, panel.Config().Blob...)
		bridge.OnTeardown(e.blobs.Dispose)
		e.blobs.Boot(ctx)
	}
	return e
}

// Panel returns the effect's panel.
func (e *Effect) Panel() *Panel { return e.panel }

// Blobs returns the blob pipeline, or nil when the host has no overlay.
func (e *Effect) Blobs() *BlobPipeline { return e.blobs }

// Bridge returns the bridge the host dispatches pointer and resize events to.
func (e *Effect) Bridge() *Bridge { return e.bridge }

// Dispatch forwards a host event to the effect.
func (e *Effect) Dispatch(ev Event) { e.bridge.Dispatch(ev) }

// Close disposes the blob pipeline, closes the panel and drops all
// listeners. Close is idempotent.
func (e *Effect) Close() {
	e.bridge.Close()
}
