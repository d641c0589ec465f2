// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"math"
	"sync"
)

// GaussianKernel generates a normalized 1D Gaussian kernel for the given
// standard deviation. The kernel spans three deviations on each side,
// 2*ceil(3σ)+1 taps, and its weights sum to 1.
//
// For stdDev <= 0 it returns the identity kernel [1].
func GaussianKernel(stdDev float64) []float32 {
	if stdDev <= 0 {
		return []float32{1.0}
	}

	halfSize := int(math.Ceil(stdDev * 3))
	size := halfSize*2 + 1
	kernel := make([]float32, size)

	twoSigmaSq := 2 * stdDev * stdDev
	sum := float64(0)
	weights := make([]float64, size)
	for i := range weights {
		x := float64(i - halfSize)
		weights[i] = math.Exp(-(x * x) / twoSigmaSq)
		sum += weights[i]
	}
	for i, w := range weights {
		kernel[i] = float32(w / sum)
	}
	return kernel
}

// kernelCache caches Gaussian kernels keyed by stdDev quantized to 0.01.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int][]float32
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[int][]float32),
		maxLen: maxLen,
	}
}

func (c *kernelCache) get(stdDev float64) []float32 {
	key := int(math.Round(stdDev * 100))

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel(float64(key) / 100)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Drop half the entries; kernels are cheap to rebuild.
		n := 0
		for k := range c.cache {
			delete(c.cache, k)
			n++
			if n >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = kernel
	c.mu.Unlock()

	return kernel
}

// CachedGaussianKernel returns a shared Gaussian kernel for stdDev.
// The returned slice must not be modified.
func CachedGaussianKernel(stdDev float64) []float32 {
	return defaultKernelCache.get(stdDev)
}
