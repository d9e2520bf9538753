package raster

import "fmt"

// PadMode selects how samples outside the source are synthesized.
type PadMode uint8

const (
	// PadEdge repeats the nearest edge sample.
	PadEdge PadMode = iota

	// PadReflect mirrors the source about its edge samples without repeating
	// them (d c b | a b c d | c b a). Pads wider than the source keep
	// reflecting back and forth.
	PadReflect

	// PadZero fills the margin with zeros.
	PadZero
)

// String returns the mode name.
func (m PadMode) String() string {
	switch m {
	case PadEdge:
		return "edge"
	case PadReflect:
		return "reflect"
	case PadZero:
		return "zero"
	default:
		return fmt.Sprintf("PadMode(%d)", uint8(m))
	}
}

// Pad returns a copy of r with n samples added on every side.
func Pad(r *Raster, n int, mode PadMode) *Raster {
	if n <= 0 {
		return r.Clone()
	}
	out := newUnchecked(r.rows+2*n, r.cols+2*n)
	for i := range out.rows {
		si, inside := sourceIndex(i-n, r.rows, mode)
		dst := out.Row(i)
		if !inside {
			continue
		}
		src := r.Row(si)
		for j := range out.cols {
			sj, ok := sourceIndex(j-n, r.cols, mode)
			if ok {
				dst[j] = src[sj]
			}
		}
	}
	return out
}

// Crop removes n samples from every side, undoing Pad.
func Crop(r *Raster, n int) (*Raster, error) {
	return Cutout(r, n, n, r.rows-2*n, r.cols-2*n)
}

// Extend grows r to rows x cols by repeating its last row and column.
// Dimensions smaller than r's are an error.
func Extend(r *Raster, rows, cols int) (*Raster, error) {
	if rows < r.rows || cols < r.cols {
		return nil, fmt.Errorf("%w: cannot extend %v to %dx%d", ErrInvalidDimensions, r, rows, cols)
	}
	out := newUnchecked(rows, cols)
	for i := range rows {
		src := r.Row(min(i, r.rows-1))
		dst := out.Row(i)
		copy(dst, src)
		for j := r.cols; j < cols; j++ {
			dst[j] = src[r.cols-1]
		}
	}
	return out, nil
}

// sourceIndex maps a possibly out-of-range index onto [0, n). The boolean is
// false when the sample has no source (zero padding).
func sourceIndex(i, n int, mode PadMode) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch mode {
	case PadEdge:
		return clamp(i, 0, n-1), true
	case PadReflect:
		return reflectIndex(i, n), true
	default:
		return 0, false
	}
}

// reflectIndex folds i into [0, n) with period 2(n-1).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
