// Package filter implements the image filter primitives used to evaluate
// declarative filter graphs on the CPU.
//
// This package contains:
//   - Gaussian blur (separable, transparent outside the image)
//   - Color matrix and component transfer (unpremultiplied color space)
//   - Displacement mapping with nearest-pixel sampling
//   - Porter-Duff compositing and separable blending
//   - Drop shadow (blur + offset + colorize)
//
// All primitives operate on [Image], a premultiplied float32 raster, and
// never mutate their inputs.
package filter
