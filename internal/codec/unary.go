package codec

import "math"

// AppendUnary appends the n-slot unary code of v to dst.
//
// The first floor(v) slots (capped at n) are 1, the following slot holds the
// fractional remainder and the rest are 0. Values >= n saturate to all ones;
// negative values saturate to all zeros.
func AppendUnary(dst []float64, v float64, n int) []float64 {
	whole, frac := split(v, n)
	for i := range n {
		switch {
		case i < whole:
			dst = append(dst, 1)
		case i == whole:
			dst = append(dst, frac)
		default:
			dst = append(dst, 0)
		}
	}
	return dst
}

// AppendUnaryReversed appends the inverted unary code of v to dst: leading
// slots are zeroed, the remainder slot holds 1-frac and the tail is all ones.
func AppendUnaryReversed(dst []float64, v float64, n int) []float64 {
	whole, frac := split(v, n)
	for i := range n {
		switch {
		case i < whole:
			dst = append(dst, 0)
		case i == whole:
			dst = append(dst, 1-frac)
		default:
			dst = append(dst, 1)
		}
	}
	return dst
}

// Unary returns the n-slot unary code of v.
func Unary(v float64, n int) []float64 {
	return AppendUnary(make([]float64, 0, n), v, n)
}

// UnaryReversed returns the n-slot reversed unary code of v.
func UnaryReversed(v float64, n int) []float64 {
	return AppendUnaryReversed(make([]float64, 0, n), v, n)
}

// split returns the count of saturated slots and the remainder for v.
// NaN and negative inputs collapse to (0, 0).
func split(v float64, n int) (int, float64) {
	if !(v > 0) {
		return 0, 0
	}
	if v >= float64(n) {
		return n, 0
	}
	whole := math.Floor(v)
	return int(whole), v - whole
}
