package raster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MinMax returns the smallest and largest sample.
func (r *Raster) MinMax() (lo, hi float64) {
	return floats.Min(r.data), floats.Max(r.data)
}

// Mean returns the arithmetic mean of all samples.
func (r *Raster) Mean() float64 {
	return floats.Sum(r.data) / float64(len(r.data))
}

// Rescale linearly maps [min, max] onto [0, 1]. A constant raster has no
// range to map and yields all zeros.
func Rescale(r *Raster) *Raster {
	lo, hi := r.MinMax()
	out := newUnchecked(r.rows, r.cols)
	length := hi - lo
	if length == 0 {
		return out
	}
	for i, v := range r.data {
		out.data[i] = (v - lo) / length
	}
	return out
}

// Derivatives returns the forward differences along rows and along columns.
//
//	rowDiff[r, c] = in[r+1, c] - in[r, c]  (0 on the last row)
//	colDiff[r, c] = in[r, c+1] - in[r, c]  (0 on the last column)
//
// Both results have the shape of the input.
func Derivatives(r *Raster) (rowDiff, colDiff *Raster) {
	rowDiff = newUnchecked(r.rows, r.cols)
	colDiff = newUnchecked(r.rows, r.cols)

	for i := 0; i < r.rows-1; i++ {
		cur, next := r.Row(i), r.Row(i+1)
		dst := rowDiff.Row(i)
		for j := range cur {
			dst[j] = next[j] - cur[j]
		}
	}

	for i := range r.rows {
		src := r.Row(i)
		dst := colDiff.Row(i)
		for j := 0; j < r.cols-1; j++ {
			dst[j] = src[j+1] - src[j]
		}
	}

	return rowDiff, colDiff
}

// Cutout copies the h x w region whose top-left corner is (row, col).
func Cutout(r *Raster, row, col, h, w int) (*Raster, error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, h, w)
	}
	if row < 0 || col < 0 || row+h > r.rows || col+w > r.cols {
		return nil, fmt.Errorf("%w: %dx%d at (%d, %d) in %v", ErrOutOfBounds, h, w, row, col, r)
	}
	out := newUnchecked(h, w)
	for i := range h {
		copy(out.Row(i), r.data[(row+i)*r.cols+col:(row+i)*r.cols+col+w])
	}
	return out, nil
}

// ScaleDown box-averages every reduction x reduction block into one sample.
// Both dimensions must be multiples of reduction. A reduction of 1 returns a
// copy of the input.
func ScaleDown(r *Raster, reduction int) (*Raster, error) {
	if reduction <= 0 {
		return nil, fmt.Errorf("%w: reduction %d", ErrInvalidDimensions, reduction)
	}
	if r.rows%reduction != 0 || r.cols%reduction != 0 {
		return nil, fmt.Errorf("%w: %v by %d", ErrNotDivisible, r, reduction)
	}
	if reduction == 1 {
		return r.Clone(), nil
	}

	out := newUnchecked(r.rows/reduction, r.cols/reduction)
	boxMeans(r, 0, 0, reduction, out.rows, out.cols, out.data[:0])
	return out, nil
}

// boxMeans appends to dst the means of a rows x cols grid of
// reduction-sized blocks starting at (top, left). Bounds are the caller's
// responsibility.
func boxMeans(r *Raster, top, left, reduction, rows, cols int, dst []float64) []float64 {
	inv := 1 / float64(reduction*reduction)
	for bi := range rows {
		y0 := top + bi*reduction
		for bj := range cols {
			x0 := left + bj*reduction
			var sum float64
			for y := y0; y < y0+reduction; y++ {
				row := r.data[y*r.cols+x0 : y*r.cols+x0+reduction]
				for _, v := range row {
					sum += v
				}
			}
			dst = append(dst, sum*inv)
		}
	}
	return dst
}
