package synth

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/mapsynth/internal/codec"
	"github.com/gogpu/mapsynth/predictor"
	"github.com/gogpu/mapsynth/raster"
)

// Config carries the per-run parameters of a generation pass.
type Config struct {
	Geometry Geometry

	// Name labels log records, usually the predictor key.
	Name string

	// Logger receives per-row progress at debug level. Nil disables logging.
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// OtherMode configures GenerateOther.
type OtherMode struct {
	// Encode log-encodes the recurrent window and log-decodes the output.
	// Without it the raw window is fed and the first output value is used.
	Encode bool

	// Round rounds every generated value half to even.
	Round bool
}

// Generate fills the interior of target with the primary, relativized
// scheme used for heights.
//
// For every interior cell, in row-major order, the recurrent window is
// relativized, encoded with the reversed logarithmic code and appended after
// the context vector together with the linear code of its mean. The predictor
// returns one reversed logarithmic code; its decoded value plus the mean is
// written to the cell.
func Generate(ctx context.Context, p predictor.Predictor, target *raster.Raster, contextFn ContextFunc, cfg Config) error {
	g := cfg.Geometry
	n := g.EncodingLength
	return loop(ctx, target, contextFn, cfg, func(input, recurrent []float64) ([]float64, float64, error) {
		abs := codec.Relativize(recurrent)
		input = codec.AppendLogReversedArray(input, recurrent, n)
		input = codec.AppendLinear(input, abs, n)

		out, err := p.Predict(input)
		if err != nil {
			return input, 0, err
		}
		if len(out) != n {
			return input, 0, fmt.Errorf("%w: got %d, want %d", ErrOutputLength, len(out), n)
		}
		return input, codec.LogReversedDecode(out) + abs, nil
	})
}

// GenerateOther fills the interior of target with the secondary scheme used
// for roads, rivers and buildings.
//
// The input is the context vector followed by the recurrent window, encoded
// or raw depending on mode. With mode.Encode the predictor must return one
// logarithmic code; otherwise it must return at least one value and the first
// is used.
func GenerateOther(ctx context.Context, p predictor.Predictor, target *raster.Raster, contextFn ContextFunc, cfg Config, mode OtherMode) error {
	n := cfg.Geometry.EncodingLength
	return loop(ctx, target, contextFn, cfg, func(input, recurrent []float64) ([]float64, float64, error) {
		if mode.Encode {
			input = codec.AppendLogArray(input, recurrent, n)
		} else {
			input = append(input, recurrent...)
		}

		out, err := p.Predict(input)
		if err != nil {
			return input, 0, err
		}

		var v float64
		switch {
		case mode.Encode && len(out) != n:
			return input, 0, fmt.Errorf("%w: got %d, want %d", ErrOutputLength, len(out), n)
		case mode.Encode:
			v = codec.LogDecode(out)
		case len(out) == 0:
			return input, 0, fmt.Errorf("%w: got 0, want at least 1", ErrOutputLength)
		default:
			v = out[0]
		}
		if mode.Round {
			v = math.RoundToEven(v)
		}
		return input, v, nil
	})
}

// cellFunc appends the recurrent part to input, runs the predictor and
// returns the grown input buffer and the value for the cell.
type cellFunc func(input, recurrent []float64) ([]float64, float64, error)

func loop(ctx context.Context, target *raster.Raster, contextFn ContextFunc, cfg Config, cell cellFunc) error {
	g := cfg.Geometry
	if err := g.Validate(); err != nil {
		return fmt.Errorf("synth: %s: %w", cfg.Name, err)
	}
	rows, cols, err := g.interior(target)
	if err != nil {
		return fmt.Errorf("synth: %s: %w", cfg.Name, err)
	}
	log := cfg.logger()
	if contextFn == nil {
		contextFn = func(dst []float64, _, _ int) []float64 { return dst }
	}

	pad, cut := g.Padding, g.Cut
	recLen := g.RecurrentLen()
	window := make([]float64, 0, cut*cut)
	var input []float64

	for r := pad; r < pad+rows; r++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("synth: %s: row %d: %w", cfg.Name, r-pad, err)
		}
		for c := pad; c < pad+cols; c++ {
			input = contextFn(input[:0], r, c)
			window = target.Window(window[:0], r, c, 1, cut)

			var v float64
			input, v, err = cell(input, window[:recLen])
			if err != nil {
				return fmt.Errorf("synth: %s: cell (%d, %d): %w", cfg.Name, r-pad, c-pad, err)
			}
			target.Set(r, c, v)
		}
		log.Debug("row generated", "stage", cfg.Name, "row", r-pad+1, "rows", rows)
	}
	return nil
}
