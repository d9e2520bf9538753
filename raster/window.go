package raster

import "fmt"

// RowBias is the number of samples a window is shifted up from its target
// row. With the shift, the last row of a reduction-1 window is the target
// row itself, so everything below the generation cursor stays out of view.
// For cut 5 this is 2.
func RowBias(cut int) int {
	return cut - 1 - cut/2
}

// Exclude is the number of trailing flattened entries of a reduction-1
// window that sit at or right of the target cell on its row. Dropping them
// leaves only samples that precede the cursor in row-major order. For cut 5
// this is 3.
func Exclude(cut int) int {
	return cut - cut/2
}

// WindowMargin is the padding a raster needs on every side so that a window
// of the given reduction and cut around any unpadded cell stays in bounds.
func WindowMargin(reduction, cut int) int {
	return cut*reduction/2 + RowBias(cut)
}

// Window extracts the cut*reduction square around (row, col), shifted up by
// RowBias(cut), box-downsamples it by reduction and appends the cut*cut
// results to dst in row-major order.
//
// The region must lie inside r; callers pad beforehand. A region that leaves
// the raster means the padding was sized wrong upstream and Window panics.
func (r *Raster) Window(dst []float64, row, col, reduction, cut int) []float64 {
	size := cut * reduction
	top := row - RowBias(cut) - size/2
	left := col - size/2
	if top < 0 || left < 0 || top+size > r.rows || left+size > r.cols {
		panic(fmt.Sprintf("raster: window %dx%d at (%d, %d) leaves %v; padding too small",
			size, size, top, left, r))
	}
	return boxMeans(r, top, left, reduction, cut, cut, dst)
}
