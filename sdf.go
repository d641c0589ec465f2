package glass

// sdfAntialiasWidth controls the smoothstep transition width in pixels.
// A value of 0.7 produces smooth anti-aliasing at standard DPI.
const sdfAntialiasWidth = 0.7

// SDFFilledRRectCoverage computes anti-aliased coverage for a filled rounded
// rectangle using a signed distance field approach.
//
// Parameters:
//   - px, py: pixel center coordinates
//   - cx, cy: rectangle center
//   - halfW, halfH: half-width and half-height of the rectangle
//   - cornerRadius: radius of the rounded corners
//
// Returns a coverage value in [0, 1] where 1 means fully inside.
func SDFFilledRRectCoverage(px, py, cx, cy, halfW, halfH, cornerRadius float64) float64 {
	return smoothstepCoverage(RoundedRectSDF(px-cx, py-cy, halfW, halfH, cornerRadius))
}

// SDFRRectCoverage computes anti-aliased coverage for a stroked rounded
// rectangle outline of the given half stroke width.
func SDFRRectCoverage(px, py, cx, cy, halfW, halfH, cornerRadius, halfStrokeWidth float64) float64 {
	d := RoundedRectSDF(px-cx, py-cy, halfW, halfH, cornerRadius)
	if d < 0 {
		d = -d
	}
	return smoothstepCoverage(d - halfStrokeWidth)
}

// smoothstepCoverage converts a signed distance to an anti-aliased coverage
// value using a Hermite smoothstep function.
//
// sdf < -afwidth => 1.0 (fully inside)
// sdf > +afwidth => 0.0 (fully outside)
// Otherwise       => smooth transition
func smoothstepCoverage(sdf float64) float64 {
	return 1 - Smoothstep(-sdfAntialiasWidth, sdfAntialiasWidth, sdf)
}
