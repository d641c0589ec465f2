package graph

import (
	"errors"
	"slices"

	"github.com/gogpu/glass/internal/blend"
	"github.com/gogpu/glass/internal/filter"
)

// Errors reported by Build and Evaluate.
var (
	// ErrDanglingRef is returned when a primitive consumes a result that no
	// earlier primitive produced.
	ErrDanglingRef = errors.New("graph: reference to undefined result")

	// ErrDuplicateResult is returned when two primitives produce the same
	// result name.
	ErrDuplicateResult = errors.New("graph: result defined twice")

	// ErrMissingImage is returned by Evaluate when an image primitive has no
	// bound image.
	ErrMissingImage = errors.New("graph: no image bound for key")

	// ErrEmptyGraph is returned when Build is called before any primitive
	// was added.
	ErrEmptyGraph = errors.New("graph: no primitives")
)

// Ref names the result of a primitive.
type Ref string

// Standard inputs available to every graph.
const (
	SourceGraphic Ref = "SourceGraphic"
	SourceAlpha   Ref = "SourceAlpha"
)

// Primitive parameter types.
type (
	ColorMatrix  = filter.ColorMatrix
	TransferFunc = filter.TransferFunc
	Channel      = filter.Channel
	BlendMode    = blend.Mode
	CompositeOp  = blend.Op

	// Color is a premultiplied color with components in [0, 1].
	Color = blend.Color
)

// Displacement channel selectors.
const (
	ChannelR = filter.ChannelR
	ChannelG = filter.ChannelG
	ChannelB = filter.ChannelB
	ChannelA = filter.ChannelA
)

// Component transfer function types.
const (
	TransferIdentity = filter.TransferIdentity
	TransferTable    = filter.TransferTable
	TransferDiscrete = filter.TransferDiscrete
	TransferLinear   = filter.TransferLinear
)

// Blend modes.
const (
	BlendNormal   = blend.ModeNormal
	BlendMultiply = blend.ModeMultiply
	BlendScreen   = blend.ModeScreen
	BlendDarken   = blend.ModeDarken
	BlendLighten  = blend.ModeLighten
)

// Compositing operators.
const (
	CompositeOver       = blend.OpOver
	CompositeIn         = blend.OpIn
	CompositeOut        = blend.OpOut
	CompositeAtop       = blend.OpAtop
	CompositeXor        = blend.OpXor
	CompositeArithmetic = blend.OpArithmetic
)

// Kind identifies a primitive.
type Kind uint8

// Primitive kinds.
const (
	KindImage Kind = iota
	KindColorMatrix
	KindComponentTransfer
	KindDisplacementMap
	KindBlend
	KindGaussianBlur
	KindComposite
	KindOffset
	KindFlood
)

// String returns the SVG element name of the primitive.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "feImage"
	case KindColorMatrix:
		return "feColorMatrix"
	case KindComponentTransfer:
		return "feComponentTransfer"
	case KindDisplacementMap:
		return "feDisplacementMap"
	case KindBlend:
		return "feBlend"
	case KindGaussianBlur:
		return "feGaussianBlur"
	case KindComposite:
		return "feComposite"
	case KindOffset:
		return "feOffset"
	case KindFlood:
		return "feFlood"
	default:
		return "unknown"
	}
}

// Node is one primitive of a graph. Only the fields relevant to Kind are set.
type Node struct {
	Kind   Kind
	In     Ref
	In2    Ref
	Result Ref

	// KindImage
	Key  string
	Href string

	// KindColorMatrix
	Matrix ColorMatrix

	// KindComponentTransfer, in R, G, B, A order.
	Funcs [4]TransferFunc

	// KindDisplacementMap
	Scale    float64
	XChannel Channel
	YChannel Channel

	// KindBlend
	Mode BlendMode

	// KindGaussianBlur
	StdDevX float64
	StdDevY float64

	// KindComposite
	Op CompositeOp
	K  [4]float32

	// KindOffset
	DX float64
	DY float64

	// KindFlood
	Color Color
}

// Inputs returns the results consumed by the node.
func (n Node) Inputs() []Ref {
	switch n.Kind {
	case KindImage, KindFlood:
		return nil
	case KindDisplacementMap, KindBlend, KindComposite:
		return []Ref{n.In, n.In2}
	default:
		return []Ref{n.In}
	}
}

// Stop is one color stop of a gradient. Offset is a percentage.
type Stop struct {
	Offset  float64
	Color   string
	Opacity float64
}

// RadialGradient is a gradient definition emitted next to the filter.
// Geometry is expressed in percent of the bounding box.
type RadialGradient struct {
	ID     string
	CX, CY float64
	R      float64
	Stops  []Stop
}

// Region is the filter effects region in percent of the bounding box.
type Region struct {
	X, Y, Width, Height float64
}

// DefaultRegion leaves room for displaced samples outside the element box.
var DefaultRegion = Region{X: -35, Y: -35, Width: 170, Height: 170}

// Graph is an immutable, validated filter graph.
type Graph struct {
	id        string
	region    Region
	nodes     []Node
	gradients []RadialGradient
}

// ID returns the filter identifier.
func (g *Graph) ID() string { return g.id }

// Region returns the filter effects region.
func (g *Graph) Region() Region { return g.region }

// Nodes returns a copy of the primitives in evaluation order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Output returns the primitive whose result is the visible output of the
// graph. It is always the last primitive.
func (g *Graph) Output() Node { return g.nodes[len(g.nodes)-1] }

// Images returns the keys of the external images the graph needs, in the
// order they are consumed.
func (g *Graph) Images() []string {
	var keys []string
	for _, n := range g.nodes {
		if n.Kind == KindImage && !slices.Contains(keys, n.Key) {
			keys = append(keys, n.Key)
		}
	}
	return keys
}

// Gradients returns a copy of the gradient definitions.
func (g *Graph) Gradients() []RadialGradient { return slices.Clone(g.gradients) }

// Node returns the primitive producing result r.
func (g *Graph) Node(r Ref) (Node, bool) {
	for _, n := range g.nodes {
		if n.Result == r && r != "" {
			return n, true
		}
	}
	return Node{}, false
}
