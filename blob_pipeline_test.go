package glass

import (
	"context"
	"testing"
	"time"
)

func waitReady(t *testing.T, p *BlobPipeline) {
	t.Helper()
	select {
	case <-p.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("boot did not resolve")
	}
}

func newTestPipeline(host *fakeHost, acc *mockAccelerator) (*BlobPipeline, *Bridge, *manualScheduler) {
	bridge := NewBridge()
	sched := &manualScheduler{}
	p := NewBlobPipeline(host, bridge, WithScheduler(sched), WithBlobAccelerator(acc))
	return p, bridge, sched
}

func TestBlobStatusString(t *testing.T) {
	tests := []struct {
		s    BlobStatus
		want string
	}{
		{BlobUninitialized, "uninitialized"},
		{BlobBooting, "booting"},
		{BlobRunning, "running"},
		{BlobDisposed, "disposed"},
		{BlobDisabled, "disabled"},
		{BlobStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("BlobStatus(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestBlobPipelineBootAndFrames(t *testing.T) {
	overlay := &fakeOverlay{}
	host := &fakeHost{width: 120.4, height: 39.6, overlay: overlay}
	acc := &mockAccelerator{name: "mock"}
	p, bridge, sched := newTestPipeline(host, acc)
	t.Cleanup(p.Dispose)

	p.Boot(context.Background())
	p.Boot(context.Background())
	waitReady(t, p)

	if got := p.Status(); got != BlobRunning {
		t.Fatalf("Status() = %v, want running", got)
	}
	if n := len(acc.created()); n != 1 {
		t.Errorf("renderers created = %d, want 1", n)
	}
	snap := overlay.snapshot()
	if !snap.attached || snap.opacity != BlobOverlayOpacity {
		t.Errorf("overlay = %+v, want attached at opacity %v", snap, BlobOverlayOpacity)
	}
	if overlay.width != 120 || overlay.height != 40 {
		t.Errorf("overlay size = %dx%d, want 120x40", overlay.width, overlay.height)
	}
	if bridge.Listeners() != 1 {
		t.Errorf("Listeners() = %d, want 1", bridge.Listeners())
	}

	for range 3 {
		if sched.Step() != 1 {
			t.Fatal("each frame should schedule exactly one successor")
		}
	}
	if p.Frames() != 3 || overlay.snapshot().presented != 3 {
		t.Errorf("frames = %d presented = %d, want 3", p.Frames(), overlay.snapshot().presented)
	}
	st := p.State()
	if d := st.Time - 3*BlobTimeStep; d > 1e-6 || d < -1e-6 {
		t.Errorf("Time = %v, want %v", st.Time, 3*BlobTimeStep)
	}
	if st.Resolution != [2]float32{120, 40} {
		t.Errorf("Resolution = %v, want [120 40]", st.Resolution)
	}
}

func TestBlobPipelineEvents(t *testing.T) {
	overlay := &fakeOverlay{}
	host := &fakeHost{width: 200, height: 100, overlay: overlay}
	acc := &mockAccelerator{name: "mock"}
	p, bridge, _ := newTestPipeline(host, acc)
	t.Cleanup(p.Dispose)

	p.Boot(context.Background())
	waitReady(t, p)

	bridge.Dispatch(PointerMove(200, 0))
	if got := p.State().Pointer; got != [2]float32{1, 1} {
		t.Errorf("Pointer after move = %v, want [1 1]", got)
	}
	bridge.Dispatch(PointerLeave())
	if got := p.State().Pointer; got != [2]float32{} {
		t.Errorf("Pointer after leave = %v, want origin", got)
	}

	bridge.Dispatch(Resize(300, 150))
	bridge.Dispatch(Resize(300, 150))
	r := acc.created()[0]
	if r.resizes != 1 {
		t.Errorf("renderer resizes = %d, want 1", r.resizes)
	}
	if got := p.State().Resolution; got != [2]float32{300, 150} {
		t.Errorf("Resolution = %v, want [300 150]", got)
	}
	if n := len(acc.created()); n != 1 {
		t.Errorf("resize rebooted: %d renderers created", n)
	}
}

func TestBlobPipelineBootFailureDisables(t *testing.T) {
	tests := []struct {
		name    string
		acc     *mockAccelerator
		overlay *fakeOverlay
	}{
		{"renderer unavailable", &mockAccelerator{name: "mock", newErr: errBoom}, &fakeOverlay{}},
		{"attach fails", &mockAccelerator{name: "mock"}, &fakeOverlay{attachErr: errBoom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &fakeHost{width: 50, height: 50, overlay: tt.overlay}
			p, bridge, sched := newTestPipeline(host, tt.acc)

			p.Boot(context.Background())
			waitReady(t, p)

			if got := p.Status(); got != BlobDisabled {
				t.Fatalf("Status() = %v, want disabled", got)
			}
			snap := tt.overlay.snapshot()
			if snap.opacity != 0 || snap.opacities != 1 {
				t.Errorf("overlay opacity = %v (%d calls), want a single 0", snap.opacity, snap.opacities)
			}
			if bridge.Listeners() != 0 || sched.Step() != 0 {
				t.Error("a disabled pipeline must not listen or schedule frames")
			}
			for _, r := range tt.acc.created() {
				if !r.isClosed() {
					t.Error("renderer acquired before the failure was not closed")
				}
			}

			// Dispose on a disabled pipeline is a no-op.
			p.Dispose()
			if got := p.Status(); got != BlobDisabled {
				t.Errorf("Status() after Dispose = %v, want disabled", got)
			}
		})
	}
}

func TestBlobPipelineNoOverlay(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeHost{width: 10, height: 10}, &mockAccelerator{name: "mock"})
	p.Boot(context.Background())
	waitReady(t, p)
	if got := p.Status(); got != BlobDisabled {
		t.Errorf("Status() = %v, want disabled", got)
	}
}

func TestBlobPipelineContextCancelled(t *testing.T) {
	overlay := &fakeOverlay{}
	acc := &mockAccelerator{name: "mock", gate: make(chan struct{})}
	p, _, _ := newTestPipeline(&fakeHost{width: 10, height: 10, overlay: overlay}, acc)

	ctx, cancel := context.WithCancel(context.Background())
	p.Boot(ctx)
	cancel()
	waitReady(t, p)

	if got := p.Status(); got != BlobDisabled {
		t.Errorf("Status() = %v, want disabled", got)
	}
	if overlay.snapshot().attaches != 0 {
		t.Error("overlay attached after cancellation")
	}
}

func TestBlobPipelineDisposeBeforeBoot(t *testing.T) {
	overlay := &fakeOverlay{}
	acc := &mockAccelerator{name: "mock"}
	p, _, _ := newTestPipeline(&fakeHost{width: 10, height: 10, overlay: overlay}, acc)

	p.Dispose()
	waitReady(t, p)
	p.Boot(context.Background())

	if got := p.Status(); got != BlobDisposed {
		t.Errorf("Status() = %v, want disposed", got)
	}
	if len(acc.created()) != 0 || overlay.snapshot().attaches != 0 {
		t.Error("a disposed pipeline must never boot")
	}
}

func TestBlobPipelineDisposeDuringBoot(t *testing.T) {
	overlay := &fakeOverlay{}
	acc := &mockAccelerator{name: "mock", gate: make(chan struct{})}
	p, bridge, sched := newTestPipeline(&fakeHost{width: 10, height: 10, overlay: overlay}, acc)

	p.Boot(context.Background())
	if got := p.Status(); got != BlobBooting {
		t.Fatalf("Status() = %v, want booting", got)
	}
	p.Dispose()
	close(acc.gate)
	waitReady(t, p)

	if got := p.Status(); got != BlobDisposed {
		t.Errorf("Status() = %v, want disposed", got)
	}
	snap := overlay.snapshot()
	if snap.attaches != 0 || snap.opacities != 0 {
		t.Errorf("overlay touched after dispose: %+v", snap)
	}
	if bridge.Listeners() != 0 || sched.Step() != 0 {
		t.Error("cancelled boot registered listeners or frames")
	}
	for _, r := range acc.created() {
		if !r.isClosed() {
			t.Error("renderer acquired by a cancelled boot was not closed")
		}
	}
}

func TestBlobPipelineDisposeTwice(t *testing.T) {
	overlay := &fakeOverlay{}
	acc := &mockAccelerator{name: "mock"}
	p, bridge, sched := newTestPipeline(&fakeHost{width: 10, height: 10, overlay: overlay}, acc)

	p.Boot(context.Background())
	waitReady(t, p)
	p.Dispose()
	p.Dispose()

	snap := overlay.snapshot()
	if snap.detaches != 1 || snap.attached {
		t.Errorf("detaches = %d attached = %v, want 1 and false", snap.detaches, snap.attached)
	}
	if bridge.Listeners() != 0 {
		t.Errorf("Listeners() = %d, want 0", bridge.Listeners())
	}
	if sched.Step() != 0 {
		t.Error("frame ran after Dispose")
	}
	if !acc.created()[0].isClosed() {
		t.Error("renderer not closed")
	}
	if err := p.Frame(); err != nil || p.Frames() != 0 {
		t.Errorf("Frame() after Dispose = %v with %d frames, want a no-op", err, p.Frames())
	}
}

func TestTickerScheduler(t *testing.T) {
	done := make(chan struct{})
	cancel := TickerScheduler{Interval: time.Millisecond}.Schedule(func() { close(done) })
	defer cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled frame never ran")
	}

	ran := make(chan struct{}, 1)
	stop := TickerScheduler{Interval: time.Hour}.Schedule(func() { ran <- struct{}{} })
	stop()
	select {
	case <-ran:
		t.Error("cancelled frame ran")
	default:
	}
}
