// Package synth implements the autoregressive generation loop.
//
// A raster is filled cell by cell in row-major order. For every cell the loop
// asks a predictor for a value given two things: a context vector assembled
// from finished, coarser rasters (described by a Layout), and the
// already-generated neighbourhood of the cell itself (the recurrent window).
// Rasters handed to the loop are padded; only the interior is written.
package synth

import (
	"errors"
	"fmt"

	"github.com/gogpu/mapsynth/raster"
)

// Errors returned by the generation loop.
var (
	// ErrPadding is returned when a raster's padding cannot hold the windows
	// a stage reads.
	ErrPadding = errors.New("synth: padding too small")

	// ErrOutputLength is returned when a predictor returns a vector of the
	// wrong length.
	ErrOutputLength = errors.New("synth: predictor output has wrong length")

	// ErrUnboundSource is returned when a layout names a source that was not
	// supplied.
	ErrUnboundSource = errors.New("synth: layout source not bound")

	// ErrInvalidGeometry is returned for non-positive geometry parameters.
	ErrInvalidGeometry = errors.New("synth: invalid geometry")
)

// Geometry holds the window and encoding parameters shared by every stage.
type Geometry struct {
	// Cut is the window side in downsampled cells.
	Cut int

	// EncodingLength is the number of slots per encoded value.
	EncodingLength int

	// Padding is the margin added on every side of a raster before
	// generation.
	Padding int
}

// DefaultGeometry returns cut 5, 8-slot codes and the padding needed by a
// reduction-64 window.
func DefaultGeometry() Geometry {
	return Geometry{
		Cut:            5,
		EncodingLength: 8,
		Padding:        raster.WindowMargin(64, 5),
	}
}

// Validate checks that all parameters are positive and the padding can hold
// at least the recurrent window.
func (g Geometry) Validate() error {
	if g.Cut <= 0 || g.EncodingLength <= 0 {
		return fmt.Errorf("%w: cut %d, encoding length %d", ErrInvalidGeometry, g.Cut, g.EncodingLength)
	}
	if need := g.MinPadding(1); g.Padding < need {
		return fmt.Errorf("%w: %d < %d", ErrPadding, g.Padding, need)
	}
	return nil
}

// MinPadding returns the padding required by windows of the given reduction.
func (g Geometry) MinPadding(reduction int) int {
	return raster.WindowMargin(reduction, g.Cut)
}

// RecurrentLen is the number of window entries that precede the cursor.
func (g Geometry) RecurrentLen() int {
	return g.Cut*g.Cut - raster.Exclude(g.Cut)
}

// interior returns the unpadded dimensions of a padded raster.
func (g Geometry) interior(r *raster.Raster) (rows, cols int, err error) {
	rows = r.Rows() - 2*g.Padding
	cols = r.Cols() - 2*g.Padding
	if rows <= 0 || cols <= 0 {
		return 0, 0, fmt.Errorf("%w: %v has no interior with padding %d", ErrPadding, r, g.Padding)
	}
	return rows, cols, nil
}
