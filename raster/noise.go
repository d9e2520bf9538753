package raster

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// AddExpNoise adds exponentially distributed noise with mean
// |max-min|/modifier to every sample of r, in place. Smaller modifiers give
// stronger noise; a modifier <= 0 or a constant raster leaves r untouched.
// It reports whether any noise was applied.
func AddExpNoise(r *Raster, modifier float64, src rand.Source) bool {
	if modifier <= 0 {
		return false
	}
	lo, hi := r.MinMax()
	scale := math.Abs(hi-lo) / modifier
	if scale == 0 {
		return false
	}

	dist := distuv.Exponential{Rate: 1 / scale, Src: src}
	for i := range r.data {
		r.data[i] += dist.Rand()
	}
	return true
}
