package raster

import (
	"math"

	"github.com/gogpu/mapsynth/internal/cache"
)

// GaussianKernel generates a normalized 1D Gaussian kernel with standard
// deviation sigma. The kernel has 2*ceil(3*sigma)+1 taps; sigma <= 0 gives
// the identity kernel [1].
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}

	half := int(math.Ceil(sigma * 3))
	kernel := make([]float64, 2*half+1)
	twoSigmaSq := 2 * sigma * sigma

	var sum float64
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-(x * x) / twoSigmaSq)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// kernels keeps recently used kernels keyed by sigma*100.
var kernels = cache.New[int, []float64](64)

func cachedKernel(sigma float64) []float64 {
	key := int(math.Round(sigma * 100))
	return kernels.GetOrCreate(key, func() []float64 {
		return GaussianKernel(float64(key) / 100)
	})
}

// GaussianBlur returns a separably blurred copy of r. Samples past the edge
// are reflected, as PadReflect does.
func GaussianBlur(r *Raster, sigma float64) *Raster {
	kernel := cachedKernel(sigma)
	if len(kernel) == 1 {
		return r.Clone()
	}
	half := len(kernel) / 2

	// Horizontal pass: r -> tmp.
	tmp := newUnchecked(r.rows, r.cols)
	for i := range r.rows {
		src, dst := r.Row(i), tmp.Row(i)
		for j := range r.cols {
			var acc float64
			for k, w := range kernel {
				acc += w * src[reflectIndex(j+k-half, r.cols)]
			}
			dst[j] = acc
		}
	}

	// Vertical pass: tmp -> out.
	out := newUnchecked(r.rows, r.cols)
	for i := range r.rows {
		dst := out.Row(i)
		for k, w := range kernel {
			src := tmp.Row(reflectIndex(i+k-half, r.rows))
			for j := range dst {
				dst[j] += w * src[j]
			}
		}
	}
	return out
}
