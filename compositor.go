package glass

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"

	svg "github.com/ajstarks/svgo"

	"github.com/gogpu/glass/graph"
)

// Named results of the liquid glass filter graph.
const (
	resultDisplacementMap  graph.Ref = "DISPLACEMENT_MAP"
	resultEdgeRedHigh      graph.Ref = "EDGE_RED_HIGH"
	resultEdgeRedLow       graph.Ref = "EDGE_RED_LOW"
	resultEdgeGreenHigh    graph.Ref = "EDGE_GREEN_HIGH"
	resultEdgeGreenLow     graph.Ref = "EDGE_GREEN_LOW"
	resultEdgeRed          graph.Ref = "EDGE_RED"
	resultEdgeGreen        graph.Ref = "EDGE_GREEN"
	resultEdgeIntensity    graph.Ref = "EDGE_INTENSITY"
	resultEdgeMask         graph.Ref = "EDGE_MASK"
	resultCenterOriginal   graph.Ref = "CENTER_ORIGINAL"
	resultRedDisplaced     graph.Ref = "RED_DISPLACED"
	resultRedChannel       graph.Ref = "RED_CHANNEL"
	resultGreenDisplaced   graph.Ref = "GREEN_DISPLACED"
	resultGreenChannel     graph.Ref = "GREEN_CHANNEL"
	resultBlueDisplaced    graph.Ref = "BLUE_DISPLACED"
	resultBlueChannel      graph.Ref = "BLUE_CHANNEL"
	resultGBCombined       graph.Ref = "GB_COMBINED"
	resultRGBCombined      graph.Ref = "RGB_COMBINED"
	resultAberratedBlurred graph.Ref = "ABERRATED_BLURRED"
	resultEdgeAberration   graph.Ref = "EDGE_ABERRATION"
	resultInvertedMask     graph.Ref = "INVERTED_MASK"
	resultCenterClean      graph.Ref = "CENTER_CLEAN"
)

// displacementImageKey binds the displacement map during evaluation.
const displacementImageKey = "displacement"

// errMapReleased is returned when a filter graph is applied after its map
// was replaced.
var errMapReleased = errors.New("glass: displacement map released")

// edgeGain scales how far a map channel sits from neutral grey into edge
// intensity alpha. A channel a sixth of the range away from 0.5 saturates.
const edgeGain = 4

// deviationMatrix moves the signed distance of one map channel from neutral
// into alpha: sign*edgeGain*(c-0.5), clamped to [0, 1]. Color is discarded,
// so a neutral map pixel yields a fully transparent result.
func deviationMatrix(channel int, sign float32) graph.ColorMatrix {
	var m graph.ColorMatrix
	m[15+channel] = sign * edgeGain
	m[19] = -sign * edgeGain / 2
	return m
}

var (
	redHighMatrix   = deviationMatrix(0, 1)
	redLowMatrix    = deviationMatrix(0, -1)
	greenHighMatrix = deviationMatrix(1, 1)
	greenLowMatrix  = deviationMatrix(1, -1)

	redOnlyMatrix = graph.ColorMatrix{
		1, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 1, 0,
	}
	greenOnlyMatrix = graph.ColorMatrix{
		0, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 1, 0,
	}
	blueOnlyMatrix = graph.ColorMatrix{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
)

// FilterParams are the numeric controls a filter graph depends on.
type FilterParams struct {
	// DisplacementScale is the largest displacement in pixels, applied to
	// the red channel. Green and blue use smaller scales.
	DisplacementScale float64

	// AberrationIntensity controls how far the channels separate and how
	// wide the edge band is.
	AberrationIntensity float64
}

// ChannelScales returns the displacement scales of the red, green and blue
// channels: s, s-3ai and s-6ai.
func (p FilterParams) ChannelScales() [3]float64 {
	s, ai := p.DisplacementScale, p.AberrationIntensity
	return [3]float64{s, s - ai*3, s - ai*6}
}

// EdgeBlur returns the standard deviation of the blur applied to the
// recombined channels: max(0.1, 0.5-0.1ai).
func (p FilterParams) EdgeBlur() float64 {
	return math.Max(0.1, 0.5-p.AberrationIntensity*0.1)
}

// EdgeMaskStop returns the percentage at which the radial edge-mask
// gradient starts to rise: max(30, 80-2ai).
func (p FilterParams) EdgeMaskStop() float64 {
	return math.Max(30, 80-p.AberrationIntensity*2)
}

// edgeMaskThreshold is the middle entry of the discrete edge mask table.
func (p FilterParams) edgeMaskThreshold() float64 {
	return p.AberrationIntensity * 0.05
}

// FilterGraph is the liquid glass filter bound to one displacement map.
// It is immutable.
type FilterGraph struct {
	graph  *graph.Graph
	dmap   *DisplacementMap
	params FilterParams
}

// BuildFilterGraph assembles the liquid glass filter for m.
//
// The graph derives an edge mask from the map, displaces the source three
// times with decreasing scales, keeps one color channel of each copy,
// screens them back together, blurs the result and confines it to the edge
// mask. Outside the mask the untouched source shows through.
//
// Edge intensity is the union of how far the red and green map channels sit
// from neutral grey in either direction. Where the map encodes no
// displacement the intensity is 0, the discrete table maps it to 0 and the
// output is the source pixel for every aberration intensity.
func BuildFilterGraph(id string, m *DisplacementMap, p FilterParams) (*FilterGraph, error) {
	if m == nil || m.Released() {
		return nil, errMapReleased
	}
	scales := p.ChannelScales()

	b := graph.NewBuilder(id).
		RadialGradient(graph.RadialGradient{
			ID: id + "-edge-mask",
			CX: 50, CY: 50, R: 50,
			Stops: []graph.Stop{
				{Offset: 0, Color: "black", Opacity: 0},
				{Offset: p.EdgeMaskStop(), Color: "black", Opacity: 0},
				{Offset: 100, Color: "white", Opacity: 1},
			},
		}).
		Image(displacementImageKey, m.DataURI(), resultDisplacementMap).
		ColorMatrix(resultDisplacementMap, redHighMatrix, resultEdgeRedHigh).
		ColorMatrix(resultDisplacementMap, redLowMatrix, resultEdgeRedLow).
		ColorMatrix(resultDisplacementMap, greenHighMatrix, resultEdgeGreenHigh).
		ColorMatrix(resultDisplacementMap, greenLowMatrix, resultEdgeGreenLow).
		Blend(resultEdgeRedHigh, resultEdgeRedLow, graph.BlendScreen, resultEdgeRed).
		Blend(resultEdgeGreenHigh, resultEdgeGreenLow, graph.BlendScreen, resultEdgeGreen).
		Blend(resultEdgeRed, resultEdgeGreen, graph.BlendScreen, resultEdgeIntensity).
		ComponentTransfer(resultEdgeIntensity, [4]graph.TransferFunc{
			3: {Type: graph.TransferDiscrete, Table: []float64{0, p.edgeMaskThreshold(), 1}},
		}, resultEdgeMask).
		Offset(graph.SourceGraphic, 0, 0, resultCenterOriginal).
		DisplacementMap(graph.SourceGraphic, resultDisplacementMap, scales[0], graph.ChannelR, graph.ChannelB, resultRedDisplaced).
		ColorMatrix(resultRedDisplaced, redOnlyMatrix, resultRedChannel).
		DisplacementMap(graph.SourceGraphic, resultDisplacementMap, scales[1], graph.ChannelR, graph.ChannelB, resultGreenDisplaced).
		ColorMatrix(resultGreenDisplaced, greenOnlyMatrix, resultGreenChannel).
		DisplacementMap(graph.SourceGraphic, resultDisplacementMap, scales[2], graph.ChannelR, graph.ChannelB, resultBlueDisplaced).
		ColorMatrix(resultBlueDisplaced, blueOnlyMatrix, resultBlueChannel).
		Blend(resultGreenChannel, resultBlueChannel, graph.BlendScreen, resultGBCombined).
		Blend(resultRedChannel, resultGBCombined, graph.BlendScreen, resultRGBCombined).
		GaussianBlur(resultRGBCombined, p.EdgeBlur(), resultAberratedBlurred).
		Composite(resultAberratedBlurred, resultEdgeMask, graph.CompositeIn, resultEdgeAberration).
		ComponentTransfer(resultEdgeMask, [4]graph.TransferFunc{
			3: {Type: graph.TransferTable, Table: []float64{1, 0}},
		}, resultInvertedMask).
		Composite(resultCenterOriginal, resultInvertedMask, graph.CompositeIn, resultCenterClean).
		Composite(resultEdgeAberration, resultCenterClean, graph.CompositeOver, "")

	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("glass: build filter graph: %w", err)
	}
	return &FilterGraph{graph: g, dmap: m, params: p}, nil
}

// ID returns the filter identifier.
func (f *FilterGraph) ID() string { return f.graph.ID() }

// MapID returns the identifier of the bound displacement map.
func (f *FilterGraph) MapID() string { return f.dmap.ID }

// Params returns the parameters the graph was built with.
func (f *FilterGraph) Params() FilterParams { return f.params }

// EdgeMaskStop returns the edge-mask gradient stop percentage.
func (f *FilterGraph) EdgeMaskStop() float64 { return f.params.EdgeMaskStop() }

// Graph returns the underlying filter graph.
func (f *FilterGraph) Graph() *graph.Graph { return f.graph }

// WriteSVG emits the filter definitions into s.
func (f *FilterGraph) WriteSVG(s *svg.SVG) { f.graph.WriteSVG(s) }

// Apply renders the filter over src on the CPU. src must have the size of
// the bound displacement map.
func (f *FilterGraph) Apply(src image.Image) (*image.NRGBA, error) {
	if f.dmap.Released() {
		return nil, errMapReleased
	}
	b := src.Bounds()
	if b.Dx() != f.dmap.Width || b.Dy() != f.dmap.Height {
		return nil, fmt.Errorf("%w: source %dx%d does not match map %dx%d",
			ErrInvalidDimensions, b.Dx(), b.Dy(), f.dmap.Width, f.dmap.Height)
	}
	return f.graph.Evaluate(src, map[string]image.Image{
		displacementImageKey: f.dmap.Image(),
	})
}

type compositorKey struct {
	mapID  string
	params FilterParams
}

// Compositor caches the filter graph of one panel. A new graph is built
// only when the map identifier, the displacement scale or the aberration
// intensity changes.
type Compositor struct {
	id string

	mu     sync.Mutex
	key    compositorKey
	cached *FilterGraph

	builds atomic.Int64
}

// NewCompositor creates a compositor whose graphs use the filter ID id.
func NewCompositor(id string) *Compositor {
	return &Compositor{id: id}
}

// ID returns the filter identifier shared by all graphs of the compositor.
func (c *Compositor) ID() string { return c.id }

// Graph returns the filter graph for m and p, building it on a cache miss.
func (c *Compositor) Graph(m *DisplacementMap, p FilterParams) (*FilterGraph, error) {
	if m == nil {
		return nil, errMapReleased
	}
	key := compositorKey{mapID: m.ID, params: p}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.key == key && c.cached.dmap == m {
		return c.cached, nil
	}

	g, err := BuildFilterGraph(c.id, m, p)
	if err != nil {
		return nil, err
	}
	c.builds.Add(1)
	c.key = key
	c.cached = g

	Logger().Debug("glass: filter graph built",
		"filter", c.id,
		"map", m.ID,
		"scale", p.DisplacementScale,
		"aberration", p.AberrationIntensity,
		"edgeMaskStop", p.EdgeMaskStop())
	return g, nil
}

// Builds returns how many graphs the compositor has built.
func (c *Compositor) Builds() int {
	return int(c.builds.Load())
}

// Invalidate drops the cached graph.
func (c *Compositor) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.key = compositorKey{}
	c.mu.Unlock()
}
