// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import "sync"

// GaussianBlur blurs src with independent horizontal and vertical standard
// deviations and returns a new image. Pixels outside src are treated as
// transparent black, matching feGaussianBlur's default edge mode.
//
// The separable algorithm runs a horizontal pass into a pooled scratch buffer
// followed by a vertical pass, O(w*h*(kx+ky)).
func GaussianBlur(src *Image, stdX, stdY float64) *Image {
	if stdX <= 0 && stdY <= 0 {
		return src.Clone()
	}

	kernelX := CachedGaussianKernel(stdX)
	kernelY := CachedGaussianKernel(stdY)

	temp := getTempBuffer(src.Width, src.Height)
	defer putTempBuffer(temp)

	blurHorizontal(src.Pix, temp, src.Width, src.Height, kernelX)

	dst := NewImage(src.Width, src.Height)
	blurVertical(temp, dst.Pix, src.Width, src.Height, kernelY)
	return dst
}

// blurHorizontal convolves each row of src with kernel into dst.
func blurHorizontal(src, dst []float32, width, height int, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				kx := x + k - half
				if kx < 0 || kx >= width {
					continue
				}
				i := (row + kx) * 4
				r += src[i+0] * weight
				g += src[i+1] * weight
				b += src[i+2] * weight
				a += src[i+3] * weight
			}
			o := (row + x) * 4
			dst[o+0] = r
			dst[o+1] = g
			dst[o+2] = b
			dst[o+3] = a
		}
	}
}

// blurVertical convolves each column of src with kernel into dst.
func blurVertical(src, dst []float32, width, height int, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				ky := y + k - half
				if ky < 0 || ky >= height {
					continue
				}
				i := (ky*width + x) * 4
				r += src[i+0] * weight
				g += src[i+1] * weight
				b += src[i+2] * weight
				a += src[i+3] * weight
			}
			o := (y*width + x) * 4
			dst[o+0] = r
			dst[o+1] = g
			dst[o+2] = b
			dst[o+3] = a
		}
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

var tempBufferPool = sync.Pool{
	New: func() interface{} {
		return &floatBuffer{data: make([]float32, 256*256*4)}
	},
}

// getTempBuffer returns a zeroed buffer of at least width*height*4 elements.
func getTempBuffer(width, height int) []float32 {
	size := width * height * 4
	wrapper := tempBufferPool.Get().(*floatBuffer)
	if len(wrapper.data) < size {
		tempBufferPool.Put(wrapper)
		return make([]float32, size)
	}
	buf := wrapper.data[:size]
	clear(buf)
	return buf
}

// putTempBuffer returns a buffer to the pool.
func putTempBuffer(buf []float32) {
	if cap(buf) <= 16*1024*1024 {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}
