package codec

import (
	"errors"
	"fmt"
	"math"
)

// ErrLength is returned when a flat code is not a whole number of chunks.
var ErrLength = errors.New("codec: code length is not a multiple of the encoding length")

// LogDecode inverts AppendLog: sign(sum(code)) * 2^-sum|code|.
//
// The round trip is exact up to 2^-n for magnitudes in [2^-n, 1]; smaller
// magnitudes collapse to 2^-n, the value of the saturated code.
func LogDecode(code []float64) float64 {
	var sum, mag float64
	for _, c := range code {
		sum += c
		mag += math.Abs(c)
	}
	return sign(sum) * math.Exp2(-mag)
}

// LogReversedDecode inverts AppendLogReversed. Slot k contributes
// sign(c) * (2^-k - 2^(-k-|c|)), so zeroed slots contribute nothing and a
// fully set slot contributes 2^-(k+1).
func LogReversedDecode(code []float64) float64 {
	var sum float64
	for k, c := range code {
		s := 1.0
		if c < 0 {
			s = -1
		}
		sum += s * (math.Exp2(-float64(k)) - math.Exp2(-float64(k)-math.Abs(c)))
	}
	return sum
}

// LinearDecode inverts AppendLinear: sum(code)/n. A freshly encoded code
// decodes exactly; predictor output may not.
func LinearDecode(code []float64) float64 {
	if len(code) == 0 {
		return 0
	}
	var sum float64
	for _, c := range code {
		sum += c
	}
	return sum / float64(len(code))
}

// LogDecodeArray splits code into chunks of n and decodes each with LogDecode.
func LogDecodeArray(code []float64, n int) ([]float64, error) {
	return decodeChunks(code, n, LogDecode)
}

// LogReversedDecodeArray splits code into chunks of n and decodes each with
// LogReversedDecode.
func LogReversedDecodeArray(code []float64, n int) ([]float64, error) {
	return decodeChunks(code, n, LogReversedDecode)
}

// LinearDecodeArray splits code into chunks of n and decodes each with
// LinearDecode.
func LinearDecodeArray(code []float64, n int) ([]float64, error) {
	return decodeChunks(code, n, LinearDecode)
}

func decodeChunks(code []float64, n int, decode func([]float64) float64) ([]float64, error) {
	if n <= 0 || len(code)%n != 0 {
		return nil, fmt.Errorf("%w: %d values, chunk %d", ErrLength, len(code), n)
	}
	out := make([]float64, 0, len(code)/n)
	for i := 0; i < len(code); i += n {
		out = append(out, decode(code[i:i+n]))
	}
	return out, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
