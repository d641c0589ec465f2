// Package graph describes image filters as directed acyclic graphs of
// primitives connected by named results.
//
// A graph is assembled with a [Builder], which keeps track of every result
// name it has seen. Referencing a name that no earlier primitive produced, or
// producing the same name twice, is recorded and reported by [Builder.Build],
// so a finished [Graph] never contains dangling edges.
//
// A built graph is immutable and can be consumed in two ways:
//
//   - [Graph.WriteSVG] emits it as an SVG <filter> element for renderers
//     that implement SVG filter effects.
//   - [Graph.Evaluate] runs it on the CPU against an image.Image source.
//
// Example:
//
//	g, err := graph.NewBuilder("soften").
//	    GaussianBlur(graph.SourceGraphic, 2, "BLURRED").
//	    Composite("BLURRED", graph.SourceGraphic, graph.CompositeIn, "").
//	    Build()
package graph
