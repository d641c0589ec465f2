package glass

import (
	"slices"
	"sync"
)

// EventKind identifies a host event. Kinds are bit flags so listeners can
// subscribe to several at once.
type EventKind uint8

const (
	// EventPointerMove reports a pointer position in element pixels.
	EventPointerMove EventKind = 1 << iota

	// EventPointerLeave reports that the pointer left the element.
	EventPointerLeave

	// EventResize reports a new element or window size in pixels.
	EventResize

	// EventAll matches every event kind.
	EventAll = EventPointerMove | EventPointerLeave | EventResize
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventPointerMove:
		return "pointermove"
	case EventPointerLeave:
		return "pointerleave"
	case EventResize:
		return "resize"
	default:
		return "mixed"
	}
}

// Event is a host event delivered through a Bridge.
type Event struct {
	Kind EventKind

	// X, Y is the pointer position relative to the element, for pointer moves.
	X, Y float64

	// Width, Height is the new size, for resizes.
	Width, Height float64
}

// PointerMove returns a pointer move event.
func PointerMove(x, y float64) Event { return Event{Kind: EventPointerMove, X: x, Y: y} }

// PointerLeave returns a pointer leave event.
func PointerLeave() Event { return Event{Kind: EventPointerLeave} }

// Resize returns a resize event.
func Resize(width, height float64) Event {
	return Event{Kind: EventResize, Width: width, Height: height}
}

// Listener receives bridged events.
type Listener func(Event)

type listenerEntry struct {
	id   uint64
	mask EventKind
	fn   Listener
}

// Bridge delivers host events to listeners and owns teardown callbacks.
//
// Listeners run on the dispatching goroutine, outside the bridge lock, in
// registration order. A listener may remove itself or others while running.
//
// Thread safety: Bridge is safe for concurrent use.
type Bridge struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listenerEntry
	teardown  []func()
	closed    bool
}

// NewBridge returns an open bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Listen subscribes fn to events whose kind is in mask. The returned function
// removes the subscription and is idempotent. Listening on a closed bridge
// registers nothing.
func (b *Bridge) Listen(mask EventKind, fn Listener) (remove func()) {
	if fn == nil || mask == 0 {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listenerEntry{id: id, mask: mask, fn: fn})
	return func() { b.remove(id) }
}

func (b *Bridge) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = slices.DeleteFunc(b.listeners, func(e listenerEntry) bool {
		return e.id == id
	})
}

// Dispatch delivers ev to every matching listener. Events dispatched after
// Close are dropped.
func (b *Bridge) Dispatch(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	var targets []Listener
	for _, e := range b.listeners {
		if e.mask&ev.Kind != 0 {
			targets = append(targets, e.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(ev)
	}
}

// OnTeardown registers fn to run when the bridge closes. Callbacks run in
// reverse registration order. On a closed bridge fn runs immediately.
func (b *Bridge) OnTeardown(fn func()) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		fn()
		return
	}
	b.teardown = append(b.teardown, fn)
	b.mu.Unlock()
}

// Close drops every listener and runs the teardown callbacks.
// Close is safe to call multiple times.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.listeners = nil
	teardown := b.teardown
	b.teardown = nil
	b.mu.Unlock()

	for i := len(teardown) - 1; i >= 0; i-- {
		teardown[i]()
	}
}

// Closed reports whether Close has been called.
func (b *Bridge) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Listeners returns the number of active subscriptions.
func (b *Bridge) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
