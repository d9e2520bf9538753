package synth

import (
	"github.com/gogpu/mapsynth/internal/codec"
	"github.com/gogpu/mapsynth/raster"
)

// Sample builds the training pair the predictor would see for cell (row, col)
// of a finished, padded target raster: the input is exactly what Generate or
// GenerateOther feeds at that cell, and the output is what the predictor is
// expected to return so that the loop reproduces the cell's value.
//
// A nil mode selects the primary scheme. Input and output are appended to
// the given buffers.
func Sample(g Geometry, target *raster.Raster, contextFn ContextFunc, mode *OtherMode, row, col int, input, output []float64) ([]float64, []float64) {
	n := g.EncodingLength
	if contextFn != nil {
		input = contextFn(input, row, col)
	}
	window := target.Window(make([]float64, 0, g.Cut*g.Cut), row, col, 1, g.Cut)
	recurrent := window[:g.RecurrentLen()]
	v := target.At(row, col)

	switch {
	case mode == nil:
		abs := codec.Relativize(recurrent)
		input = codec.AppendLogReversedArray(input, recurrent, n)
		input = codec.AppendLinear(input, abs, n)
		output = codec.AppendLogReversed(output, v-abs, n)
	case mode.Encode:
		input = codec.AppendLogArray(input, recurrent, n)
		output = codec.AppendLog(output, v, n)
	default:
		input = append(input, recurrent...)
		output = append(output, v)
	}
	return input, output
}
