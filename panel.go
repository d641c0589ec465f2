package glass

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/glass/internal/blend"
	"github.com/gogpu/glass/internal/filter"
)

// maxMeasure caps measured dimensions before rounding.
const maxMeasure = 1 << 20

// Highlight layer geometry, in fractions of the panel box.
const (
	highlightRadiusX = 1.2
	highlightRadiusY = 0.8
	highlightStop    = 0.62
	highlightOpacity = 0.9
	sheenAlpha       = 0.08
)

// panelShadow is the box shadow drawn by RenderOnto.
var panelShadow = filter.DropShadow{
	OffsetY: 12,
	StdDev:  20,
	Color:   MustParseColor(defaultShadow).premultiplied(),
}

// panelState is the generation output visible to renderers. The map and the
// graph bound to it are always swapped together.
type panelState struct {
	width, height int
	dmap          *DisplacementMap
	filter        *FilterGraph
}

// Panel coordinates the displacement map and filter graph of one mounted
// glass panel.
//
// Measure regenerates both whenever the measured size changes. Generation
// failures never escape: the panel keeps rendering as a plain blurred,
// tinted panel and the failure is logged at Warn level.
//
// Panel is safe for concurrent use. Measure, Configure and Close are
// serialized; renderers read an atomically swapped snapshot.
type Panel struct {
	mu         sync.Mutex
	cfg        PanelConfig
	compositor *Compositor
	measured   bool
	closed     bool

	state         atomic.Pointer[panelState]
	regenerations atomic.Int64
}

// NewPanel creates an unmeasured 1x1 panel.
func NewPanel(opts ...Option) *Panel {
	cfg := DefaultPanelConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ID == "" {
		cfg.ID = "lg-" + uuid.NewString()
	}
	p := &Panel{
		cfg:        cfg,
		compositor: NewCompositor(cfg.ID),
	}
	p.state.Store(&panelState{width: 1, height: 1})
	return p
}

// ID returns the panel's filter identifier.
func (p *Panel) ID() string { return p.compositor.ID() }

// Config returns a copy of the panel configuration.
func (p *Panel) Config() PanelConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Measure records the host box size. Dimensions are rounded to whole pixels
// with a minimum of 1x1. The first call and every call with a different
// size regenerate the displacement map and filter graph and return true;
// repeated sizes are a no-op.
func (p *Panel) Measure(width, height float64) bool {
	w, h := roundDimension(width), roundDimension(height)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	if cur := p.state.Load(); p.measured && cur.width == w && cur.height == h {
		return false
	}
	p.measured = true
	p.regenerate(w, h)
	return true
}

// Configure updates the panel controls. Only the filter graph is rebuilt;
// the displacement map depends on size alone. The panel ID cannot change.
func (p *Panel) Configure(opts ...Option) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	id := p.cfg.ID
	for _, opt := range opts {
		opt(&p.cfg)
	}
	p.cfg.ID = id

	cur := p.state.Load()
	if cur.dmap == nil {
		return
	}
	var g *FilterGraph
	ok := p.guard("filter graph rebuild", func() (err error) {
		g, err = p.compositor.Graph(cur.dmap, p.cfg.FilterParams())
		return err
	})
	if !ok {
		p.state.Store(&panelState{width: cur.width, height: cur.height})
		cur.dmap.Release()
		return
	}
	if g != cur.filter {
		p.state.Store(&panelState{width: cur.width, height: cur.height, dmap: cur.dmap, filter: g})
	}
}

// regenerate produces a new map and graph for w x h and swaps them in.
// Must be called with p.mu held.
func (p *Panel) regenerate(w, h int) {
	p.regenerations.Add(1)
	next := &panelState{width: w, height: h}

	p.guard("displacement generation", func() error {
		r := Rasterizer{Field: p.cfg.Field, Surfaces: p.cfg.Surfaces}
		m, err := r.Rasterize(w, h)
		if err != nil {
			return err
		}
		g, err := p.compositor.Graph(m, p.cfg.FilterParams())
		if err != nil {
			m.Release()
			return err
		}
		next.dmap, next.filter = m, g
		return nil
	})

	old := p.state.Swap(next)
	if old.dmap != nil && old.dmap != next.dmap {
		old.dmap.Release()
	}
}

// guard runs fn and absorbs both returned errors and panics, logging them.
// It reports whether fn succeeded.
func (p *Panel) guard(stage string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("glass: "+stage+" panicked, filter suppressed",
				"panel", p.cfg.ID, "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		Logger().Warn("glass: "+stage+" failed, filter suppressed",
			"panel", p.cfg.ID, "err", err)
		return false
	}
	return true
}

// Size returns the current panel size in pixels.
func (p *Panel) Size() (width, height int) {
	st := p.state.Load()
	return st.width, st.height
}

// Map returns the current displacement map, or nil when generation failed
// or the panel was never measured.
func (p *Panel) Map() *DisplacementMap {
	return p.state.Load().dmap
}

// Filter returns the active filter graph. ok is false when the filter is
// suppressed.
func (p *Panel) Filter() (g *FilterGraph, ok bool) {
	g = p.state.Load().filter
	return g, g != nil
}

// Regenerations returns how many times the displacement map was generated.
func (p *Panel) Regenerations() int {
	return int(p.regenerations.Load())
}

// GraphBuilds returns how many filter graphs the panel has built.
func (p *Panel) GraphBuilds() int {
	return p.compositor.Builds()
}

// Close releases the displacement map and drops the filter. It is
// idempotent. A closed panel ignores Measure and Configure.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	cur := p.state.Load()
	old := p.state.Swap(&panelState{width: cur.width, height: cur.height})
	if old.dmap != nil {
		old.dmap.Release()
	}
	p.compositor.Invalidate()
}

func roundDimension(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	return int(math.Round(math.Min(v, maxMeasure)))
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

// BackdropLayer describes the blurred, saturated backdrop.
type BackdropLayer struct {
	// Blur is the blur standard deviation in pixels.
	Blur float64
	// Saturation in percent.
	Saturation float64
	// FilterID is the active filter, or empty when suppressed.
	FilterID string
}

// CSS returns the backdrop as a CSS backdrop-filter value.
func (b BackdropLayer) CSS() string {
	return fmt.Sprintf("blur(%gpx) saturate(%g%%)", b.Blur, b.Saturation)
}

// HighlightLayer describes the static top highlight.
type HighlightLayer struct {
	// Color of the radial glow at the top center.
	Color RGBA
	// Stop is where the glow fades out, as a fraction of its radius.
	Stop float64
	// Sheen is the alpha of the vertical white sheen at the top edge.
	Sheen float64
	// Opacity of the whole layer.
	Opacity float64
}

// Layers is the visual stack of a panel, bottom to top: backdrop, tint,
// highlight, content slot, border.
type Layers struct {
	Width, Height int
	CornerRadius  float64
	Backdrop      BackdropLayer
	Tint          RGBA
	Highlight     HighlightLayer
	Border        RGBA
	// Content is the content slot in panel pixels.
	Content image.Rectangle
}

// Layers returns the current layer stack.
func (p *Panel) Layers() Layers {
	return layersFor(p.state.Load(), p.Config())
}

func layersFor(st *panelState, cfg PanelConfig) Layers {
	l := Layers{
		Width:        st.width,
		Height:       st.height,
		CornerRadius: cfg.Radius(float64(st.width), float64(st.height)),
		Backdrop: BackdropLayer{
			Blur:       cfg.BackdropBlur(),
			Saturation: cfg.Saturation,
		},
		Tint: cfg.TintColor(),
		Highlight: HighlightLayer{
			Color:   cfg.HighlightColor(),
			Stop:    highlightStop,
			Sheen:   sheenAlpha,
			Opacity: highlightOpacity,
		},
		Border:  cfg.BorderColor(),
		Content: contentSlot(st.width, st.height, cfg.Padding),
	}
	if st.filter != nil {
		l.Backdrop.FilterID = st.filter.ID()
	}
	return l
}

func contentSlot(w, h int, pad Padding) image.Rectangle {
	px := int(math.Round(pad.Horizontal))
	py := int(math.Round(pad.Vertical))
	r := image.Rect(px, py, w-px, h-py)
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}

// ---------------------------------------------------------------------------
// CPU rendering
// ---------------------------------------------------------------------------

// Render composes the panel at its current size. backdrop is scaled to the
// panel size; content is drawn unscaled at the top-left of the content slot
// and clipped to it. Either may be nil.
func (p *Panel) Render(backdrop, content image.Image) *Pixmap {
	out := renderPanel(p.state.Load(), p.Config(), backdrop, content)
	return pixmapFromNRGBA(out.NRGBA())
}

// RenderOnto composes the panel over canvas with its top-left corner at
// at, including the panel's drop shadow. The backdrop is the canvas region
// under the panel. The result has the size of canvas.
func (p *Panel) RenderOnto(canvas image.Image, at image.Point, content image.Image) *Pixmap {
	st := p.state.Load()
	cb := canvas.Bounds()
	region := image.Rect(0, 0, st.width, st.height).Add(at).Add(cb.Min)

	backdrop := image.NewNRGBA(image.Rect(0, 0, st.width, st.height))
	xdraw.Draw(backdrop, backdrop.Bounds(), canvas, region.Min, xdraw.Src)

	panel := renderPanel(st, p.Config(), backdrop, content)

	layer := filter.NewImage(cb.Dx(), cb.Dy())
	for y := 0; y < panel.Height; y++ {
		for x := 0; x < panel.Width; x++ {
			layer.Set(at.X+x, at.Y+y, panel.At(x, y))
		}
	}
	layer = panelShadow.Apply(layer)

	out := filter.FromImage(canvas)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Set(x, y, blend.Composite(layer.At(x, y), out.At(x, y), blend.OpOver, [4]float32{}))
		}
	}
	return pixmapFromNRGBA(out.NRGBA())
}

func renderPanel(st *panelState, cfg PanelConfig, backdrop, content image.Image) *filter.Image {
	w, h := st.width, st.height
	l := layersFor(st, cfg)

	img := filter.FromImage(scaleTo(backdrop, w, h))
	if blur := l.Backdrop.Blur; blur > 0 {
		img = filter.GaussianBlur(img, blur, blur)
	}
	if l.Backdrop.Saturation != 100 {
		img = filter.ApplyColorMatrix(img, filter.SaturateMatrix(float32(l.Backdrop.Saturation/100)))
	}

	if st.filter != nil {
		filtered, err := st.filter.Apply(img.NRGBA())
		switch {
		case err == nil:
			img = filter.FromImage(filtered)
		case errors.Is(err, errMapReleased):
			// Replaced concurrently; the next frame uses the new graph.
		default:
			Logger().Warn("glass: filter evaluation failed, rendering unfiltered",
				"panel", cfg.ID, "err", err)
		}
	}

	tint := l.Tint.premultiplied()
	sheen := l.Highlight
	glow := sheen.Color.premultiplied()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(x, y)
			c = blend.Composite(tint, c, blend.OpOver, [4]float32{})
			c = blend.Composite(highlightAt(x, y, w, h, glow, sheen), c, blend.OpOver, [4]float32{})
			img.Set(x, y, c)
		}
	}

	if content != nil && !l.Content.Empty() {
		drawContent(img, content, l.Content)
	}

	clipAndStroke(img, l)
	return img
}

// highlightAt evaluates the highlight layer: an elliptical glow centered on
// the top edge over a vertical sheen fading out towards the bottom.
func highlightAt(x, y, w, h int, glow blend.Color, hl HighlightLayer) blend.Color {
	fx := (float64(x) + 0.5 - float64(w)/2) / (highlightRadiusX * float64(w))
	fy := (float64(y) + 0.5) / (highlightRadiusY * float64(h))
	t := Length(fx, fy) / hl.Stop
	radial := scaleColor(glow, float32(math.Max(0, 1-t)))

	sheenA := float32(hl.Sheen * (1 - (float64(y)+0.5)/float64(h)))
	sheen := blend.Color{R: sheenA, G: sheenA, B: sheenA, A: sheenA}

	c := blend.Composite(radial, sheen, blend.OpOver, [4]float32{})
	return scaleColor(c, float32(hl.Opacity))
}

func drawContent(dst *filter.Image, content image.Image, slot image.Rectangle) {
	src := filter.FromImage(content)
	for y := 0; y < min(src.Height, slot.Dy()); y++ {
		for x := 0; x < min(src.Width, slot.Dx()); x++ {
			dx, dy := slot.Min.X+x, slot.Min.Y+y
			dst.Set(dx, dy, blend.Composite(src.At(x, y), dst.At(dx, dy), blend.OpOver, [4]float32{}))
		}
	}
}

// clipAndStroke draws the 1px rim and clips everything to the rounded rect.
func clipAndStroke(img *filter.Image, l Layers) {
	w, h := float64(l.Width), float64(l.Height)
	cx, cy := w/2, h/2
	r := l.CornerRadius
	border := l.Border.premultiplied()

	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			c := img.At(x, y)
			if rim := SDFRRectCoverage(px, py, cx, cy, cx-0.5, cy-0.5, math.Max(0, r-0.5), 0.5); rim > 0 {
				c = blend.Composite(scaleColor(border, float32(rim)), c, blend.OpOver, [4]float32{})
			}
			cov := SDFFilledRRectCoverage(px, py, cx, cy, cx, cy, r)
			img.Set(x, y, scaleColor(c, float32(cov)))
		}
	}
}

// scaleTo returns img resampled to exactly w x h pixels. nil yields a
// transparent image.
func scaleTo(img image.Image, w, h int) image.Image {
	if img == nil {
		return image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

func scaleColor(c blend.Color, f float32) blend.Color {
	return blend.Color{R: c.R * f, G: c.G * f, B: c.B * f, A: c.A * f}
}

func pixmapFromNRGBA(n *image.NRGBA) *Pixmap {
	return &Pixmap{width: n.Rect.Dx(), height: n.Rect.Dy(), data: n.Pix}
}
