package filter

// ColorMatrix is a 4x5 color transformation matrix in row-major order:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// Colors are unpremultiplied and normalized to [0, 1]; the fifth column is a
// bias in the same units, as in feColorMatrix type="matrix".
type ColorMatrix [20]float32

// IdentityMatrix passes colors through unchanged.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// SaturateMatrix returns the feColorMatrix type="saturate" matrix.
// factor: 0 = grayscale, 1 = unchanged, >1 = oversaturated.
func SaturateMatrix(factor float32) ColorMatrix {
	s := factor
	return ColorMatrix{
		0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s, 0, 0,
		0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s, 0, 0,
		0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ApplyColorMatrix transforms every pixel of src by m and returns a new image.
func ApplyColorMatrix(src *Image, m ColorMatrix) *Image {
	dst := NewImage(src.Width, src.Height)
	for i := 0; i < len(src.Pix); i += 4 {
		r, g, b, a := unpremultiply(src.Pix[i:i+4])

		nr := m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]
		ng := m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]
		nb := m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]
		na := m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]

		premultiply(dst.Pix[i:i+4], clamp01(nr), clamp01(ng), clamp01(nb), clamp01(na))
	}
	return dst
}

// unpremultiply returns the straight color of a premultiplied pixel.
func unpremultiply(px []float32) (r, g, b, a float32) {
	a = px[3]
	if a <= 0 {
		return 0, 0, 0, 0
	}
	return px[0] / a, px[1] / a, px[2] / a, a
}

// premultiply stores a straight color into px in premultiplied form.
func premultiply(px []float32, r, g, b, a float32) {
	px[0] = r * a
	px[1] = g * a
	px[2] = b * a
	px[3] = a
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
