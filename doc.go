// Package glass renders "liquid glass" panels: translucent surfaces whose
// backdrop is warped by a procedurally generated displacement field and split
// into chromatically aberrated color channels, with an optional animated blob
// overlay that follows the pointer.
//
// # Overview
//
// The package is made of three engines sharing one lifecycle discipline
// (measure, generate, animate, dispose):
//
//   - [Rasterizer] turns a [FieldFunc] into a [DisplacementMap], an RGBA
//     image whose red and blue channels encode per-pixel offsets.
//   - [Compositor] builds a filter graph ([FilterGraph]) that displaces the
//     red, green and blue channels of the backdrop by slightly different
//     amounts near the panel rim and keeps the center untouched.
//   - [BlobPipeline] animates a metaball field on a [BlobAccelerator],
//     either the GPU backend registered by github.com/gogpu/glass/gpu or the
//     built-in software renderer.
//
// [Panel] ties the first two together for one mounted panel and [Effect]
// wires a panel and a blob overlay to a [Host] through a [Bridge].
//
// # Quick Start
//
//	p := glass.NewPanel(glass.WithDisplacementScale(70))
//	defer p.Close()
//
//	p.Measure(320, 64)
//	out := p.Render(backdrop, content)
//	_ = out.SavePNG("panel.png")
//
// # Failure Model
//
// Effects never fail the host. When a displacement map or filter graph cannot
// be produced the panel renders a plain blurred backdrop, and when no blob
// accelerator can boot the overlay is hidden. Failures are reported through
// the logger configured with [SetLogger].
//
// # Coordinate System
//
// Pixel coordinates have their origin at the top-left corner with Y growing
// down. Field functions work in unit space [0,1]x[0,1]. Blob shaders work in
// [-1,1] with Y growing up.
package glass

// Version is the current version of the library.
const Version = "0.1.0"
