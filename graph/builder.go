package graph

import (
	"fmt"
	"slices"
)

// Builder assembles a Graph with a fluent API.
//
// Every method takes explicit input references. The first invalid reference
// or duplicate result is remembered and returned by Build; later calls are
// ignored.
//
// Example:
//
//	g, err := graph.NewBuilder("glow").
//	    GaussianBlur(graph.SourceAlpha, 4, "BLUR").
//	    Flood(graph.Color{R: 1, A: 1}, "RED").
//	    Composite("RED", "BLUR", graph.CompositeIn, "GLOW").
//	    Composite(graph.SourceGraphic, "GLOW", graph.CompositeOver, "").
//	    Build()
type Builder struct {
	graph   Graph
	defined map[Ref]struct{}
	err     error
}

// NewBuilder creates a builder for a graph with the given filter ID.
func NewBuilder(id string) *Builder {
	return &Builder{
		graph: Graph{id: id, region: DefaultRegion},
		defined: map[Ref]struct{}{
			SourceGraphic: {},
			SourceAlpha:   {},
		},
	}
}

// Region sets the filter effects region.
func (b *Builder) Region(r Region) *Builder {
	b.graph.region = r
	return b
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Image imports an external image. key selects the image passed to
// Evaluate; href is emitted in SVG output.
func (b *Builder) Image(key, href string, result Ref) *Builder {
	return b.add(Node{Kind: KindImage, Key: key, Href: href, Result: result})
}

// ColorMatrix transforms the colors of in by a 4x5 matrix.
func (b *Builder) ColorMatrix(in Ref, m ColorMatrix, result Ref) *Builder {
	return b.add(Node{Kind: KindColorMatrix, In: in, Matrix: m, Result: result})
}

// ComponentTransfer remaps each channel of in independently.
func (b *Builder) ComponentTransfer(in Ref, funcs [4]TransferFunc, result Ref) *Builder {
	for i := range funcs {
		funcs[i].Table = slices.Clone(funcs[i].Table)
	}
	return b.add(Node{Kind: KindComponentTransfer, In: in, Funcs: funcs, Result: result})
}

// DisplacementMap warps in by the vectors encoded in dmap.
func (b *Builder) DisplacementMap(in, dmap Ref, scale float64, xc, yc Channel, result Ref) *Builder {
	return b.add(Node{
		Kind:     KindDisplacementMap,
		In:       in,
		In2:      dmap,
		Scale:    scale,
		XChannel: xc,
		YChannel: yc,
		Result:   result,
	})
}

// Blend blends in over in2.
func (b *Builder) Blend(in, in2 Ref, mode BlendMode, result Ref) *Builder {
	return b.add(Node{Kind: KindBlend, In: in, In2: in2, Mode: mode, Result: result})
}

// GaussianBlur blurs in with the same standard deviation on both axes.
func (b *Builder) GaussianBlur(in Ref, stdDev float64, result Ref) *Builder {
	return b.add(Node{Kind: KindGaussianBlur, In: in, StdDevX: stdDev, StdDevY: stdDev, Result: result})
}

// Composite combines in with in2 using a Porter-Duff operator.
func (b *Builder) Composite(in, in2 Ref, op CompositeOp, result Ref) *Builder {
	return b.add(Node{Kind: KindComposite, In: in, In2: in2, Op: op, Result: result})
}

// Arithmetic combines in with in2 as k1*i1*i2 + k2*i1 + k3*i2 + k4.
func (b *Builder) Arithmetic(in, in2 Ref, k1, k2, k3, k4 float32, result Ref) *Builder {
	return b.add(Node{
		Kind:   KindComposite,
		In:     in,
		In2:    in2,
		Op:     CompositeArithmetic,
		K:      [4]float32{k1, k2, k3, k4},
		Result: result,
	})
}

// Offset translates in by (dx, dy) pixels.
func (b *Builder) Offset(in Ref, dx, dy float64, result Ref) *Builder {
	return b.add(Node{Kind: KindOffset, In: in, DX: dx, DY: dy, Result: result})
}

// Flood fills the filter region with c.
func (b *Builder) Flood(c Color, result Ref) *Builder {
	return b.add(Node{Kind: KindFlood, Color: c, Result: result})
}

// RadialGradient adds a gradient definition emitted alongside the filter.
func (b *Builder) RadialGradient(g RadialGradient) *Builder {
	if b.err != nil {
		return b
	}
	for _, existing := range b.graph.gradients {
		if existing.ID == g.ID {
			b.err = fmt.Errorf("%w: gradient %q", ErrDuplicateResult, g.ID)
			return b
		}
	}
	g.Stops = slices.Clone(g.Stops)
	b.graph.gradients = append(b.graph.gradients, g)
	return b
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error { return b.err }

// Build validates the graph and returns it. The builder must not be used
// afterwards.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.graph.nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	g := b.graph
	return &g, nil
}

func (b *Builder) add(n Node) *Builder {
	if b.err != nil {
		return b
	}
	for _, in := range n.Inputs() {
		if _, ok := b.defined[in]; !ok {
			b.err = fmt.Errorf("%w: %s consumes %q", ErrDanglingRef, n.Kind, in)
			return b
		}
	}
	if n.Result != "" {
		if _, dup := b.defined[n.Result]; dup {
			b.err = fmt.Errorf("%w: %q", ErrDuplicateResult, n.Result)
			return b
		}
		b.defined[n.Result] = struct{}{}
	}
	b.graph.nodes = append(b.graph.nodes, n)
	return b
}
