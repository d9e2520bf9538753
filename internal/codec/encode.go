package codec

import "math"

// logMagnitude maps v to the unary magnitude -log2|v|. Exact zero maps to n,
// the saturated code, so the encoders never see -Inf.
func logMagnitude(v float64, n int) float64 {
	if v == 0 {
		return float64(n)
	}
	return -math.Log2(math.Abs(v))
}

// negateTail flips the sign of the last n values of dst when neg is set.
func negateTail(dst []float64, n int, neg bool) []float64 {
	if neg {
		tail := dst[len(dst)-n:]
		for i := range tail {
			tail[i] = -tail[i]
		}
	}
	return dst
}

// AppendLog appends the logarithmic unary code of v to dst.
func AppendLog(dst []float64, v float64, n int) []float64 {
	dst = AppendUnary(dst, logMagnitude(v, n), n)
	return negateTail(dst, n, v < 0)
}

// AppendLogReversed appends the reversed logarithmic unary code of v to dst.
func AppendLogReversed(dst []float64, v float64, n int) []float64 {
	dst = AppendUnaryReversed(dst, logMagnitude(v, n), n)
	return negateTail(dst, n, v < 0)
}

// AppendLinear appends the linear unary code of v to dst. v is expected in
// [-1, 1]; larger magnitudes saturate.
func AppendLinear(dst []float64, v float64, n int) []float64 {
	dst = AppendUnary(dst, math.Abs(v*float64(n)), n)
	return negateTail(dst, n, v < 0)
}

// Log returns the logarithmic unary code of v.
func Log(v float64, n int) []float64 {
	return AppendLog(make([]float64, 0, n), v, n)
}

// LogReversed returns the reversed logarithmic unary code of v.
func LogReversed(v float64, n int) []float64 {
	return AppendLogReversed(make([]float64, 0, n), v, n)
}

// Linear returns the linear unary code of v.
func Linear(v float64, n int) []float64 {
	return AppendLinear(make([]float64, 0, n), v, n)
}

// AppendLogArray appends the logarithmic code of every element of vs.
func AppendLogArray(dst, vs []float64, n int) []float64 {
	for _, v := range vs {
		dst = AppendLog(dst, v, n)
	}
	return dst
}

// AppendLogReversedArray appends the reversed logarithmic code of every
// element of vs.
func AppendLogReversedArray(dst, vs []float64, n int) []float64 {
	for _, v := range vs {
		dst = AppendLogReversed(dst, v, n)
	}
	return dst
}

// AppendLinearArray appends the linear code of every element of vs.
func AppendLinearArray(dst, vs []float64, n int) []float64 {
	for _, v := range vs {
		dst = AppendLinear(dst, v, n)
	}
	return dst
}

// LogArray encodes every element of vs and concatenates the codes.
func LogArray(vs []float64, n int) []float64 {
	return AppendLogArray(make([]float64, 0, len(vs)*n), vs, n)
}

// LogReversedArray encodes every element of vs with the reversed
// logarithmic code and concatenates the codes.
func LogReversedArray(vs []float64, n int) []float64 {
	return AppendLogReversedArray(make([]float64, 0, len(vs)*n), vs, n)
}

// LinearArray encodes every element of vs with the linear code and
// concatenates the codes.
func LinearArray(vs []float64, n int) []float64 {
	return AppendLinearArray(make([]float64, 0, len(vs)*n), vs, n)
}
