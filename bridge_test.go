package glass

import (
	"slices"
	"sync"
	"testing"
)

func TestBridgeDispatchByMask(t *testing.T) {
	b := NewBridge()
	var moves, resizes, all int
	b.Listen(EventPointerMove, func(Event) { moves++ })
	b.Listen(EventResize, func(Event) { resizes++ })
	b.Listen(EventAll, func(Event) { all++ })

	b.Dispatch(PointerMove(1, 2))
	b.Dispatch(PointerLeave())
	b.Dispatch(Resize(10, 20))

	if moves != 1 || resizes != 1 || all != 3 {
		t.Errorf("moves=%d resizes=%d all=%d, want 1 1 3", moves, resizes, all)
	}
}

func TestBridgeRemove(t *testing.T) {
	b := NewBridge()
	calls := 0
	remove := b.Listen(EventAll, func(Event) { calls++ })
	if b.Listeners() != 1 {
		t.Fatalf("Listeners() = %d, want 1", b.Listeners())
	}
	remove()
	remove()
	b.Dispatch(PointerLeave())
	if calls != 0 || b.Listeners() != 0 {
		t.Errorf("calls=%d listeners=%d after remove, want 0 0", calls, b.Listeners())
	}
}

func TestBridgeListenerMayRemoveItself(t *testing.T) {
	b := NewBridge()
	calls := 0
	var remove func()
	remove = b.Listen(EventAll, func(Event) {
		calls++
		remove()
	})
	b.Dispatch(PointerLeave())
	b.Dispatch(PointerLeave())
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBridgeCloseRunsTeardownInReverse(t *testing.T) {
	b := NewBridge()
	var order []int
	b.OnTeardown(func() { order = append(order, 1) })
	b.OnTeardown(func() { order = append(order, 2) })
	b.OnTeardown(func() { order = append(order, 3) })
	b.Listen(EventAll, func(Event) { t.Error("listener called after Close") })

	b.Close()
	b.Close()

	if !slices.Equal(order, []int{3, 2, 1}) {
		t.Errorf("teardown order = %v, want [3 2 1]", order)
	}
	if !b.Closed() || b.Listeners() != 0 {
		t.Error("closed bridge should report Closed and no listeners")
	}
	b.Dispatch(PointerLeave())

	late := false
	b.OnTeardown(func() { late = true })
	if !late {
		t.Error("teardown registered after Close should run immediately")
	}
	b.Listen(EventAll, func(Event) {})
	if b.Listeners() != 0 {
		t.Error("Listen on a closed bridge registered a listener")
	}
}

func TestBridgeConcurrentDispatch(t *testing.T) {
	b := NewBridge()
	var mu sync.Mutex
	count := 0
	b.Listen(EventPointerMove, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Dispatch(PointerMove(1, 1))
		}()
		go func() {
			defer wg.Done()
			remove := b.Listen(EventResize, func(Event) {})
			remove()
		}()
	}
	wg.Wait()
	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		k    EventKind
		want string
	}{
		{EventPointerMove, "pointermove"},
		{EventPointerLeave, "pointerleave"},
		{EventResize, "resize"},
		{EventAll, "mixed"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}
