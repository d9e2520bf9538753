package raster

import (
	"fmt"
	"math"
)

// Resize resamples r to rows x cols with bilinear interpolation.
//
// Sample centres sit at half-integer positions, so output cell (i, j) reads
// the source at ((i+0.5)*r.rows/rows - 0.5, (j+0.5)*r.cols/cols - 0.5).
// Coordinates past the edge clamp to the edge sample.
func Resize(r *Raster, rows, cols int) (*Raster, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if rows == r.rows && cols == r.cols {
		return r.Clone(), nil
	}

	out := newUnchecked(rows, cols)
	sy := float64(r.rows) / float64(rows)
	sx := float64(r.cols) / float64(cols)

	// Column taps are shared by every row.
	x0s := make([]int, cols)
	x1s := make([]int, cols)
	txs := make([]float64, cols)
	for j := range cols {
		fx := (float64(j)+0.5)*sx - 0.5
		x0 := int(math.Floor(fx))
		txs[j] = fx - float64(x0)
		x0s[j] = clamp(x0, 0, r.cols-1)
		x1s[j] = clamp(x0+1, 0, r.cols-1)
	}

	for i := range rows {
		fy := (float64(i)+0.5)*sy - 0.5
		y0 := int(math.Floor(fy))
		ty := fy - float64(y0)
		top := r.Row(clamp(y0, 0, r.rows-1))
		bottom := r.Row(clamp(y0+1, 0, r.rows-1))

		dst := out.Row(i)
		for j := range cols {
			a := lerp(top[x0s[j]], top[x1s[j]], txs[j])
			b := lerp(bottom[x0s[j]], bottom[x1s[j]], txs[j])
			dst[j] = lerp(a, b, ty)
		}
	}
	return out, nil
}

// Zoom resizes r by an integer factor in both directions.
func Zoom(r *Raster, factor int) (*Raster, error) {
	return Resize(r, r.rows*factor, r.cols*factor)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
