// Package raster provides the real-valued sample grids that mapsynth reads
// context from and writes generated cells into.
//
// A Raster is a fixed rows x cols array of float64 samples stored row-major.
// Operations that derive a new grid (rescaling, padding, resizing,
// downsampling, derivatives) return a fresh Raster and never modify their
// input. The only in-place writes are Set, Fill and the noise helpers, which
// the generation loop and stage setup use on rasters they own.
//
// Thread safety: a Raster is safe for concurrent reads. Writes require
// external synchronization; in practice each raster has exactly one writer.
package raster

import (
	"errors"
	"fmt"
)

// Common errors for raster operations.
var (
	// ErrInvalidDimensions is returned when rows or cols is non-positive.
	ErrInvalidDimensions = errors.New("raster: invalid dimensions")

	// ErrDataSize is returned when a backing slice does not match rows*cols.
	ErrDataSize = errors.New("raster: data length does not match dimensions")

	// ErrOutOfBounds is returned when a requested region leaves the raster.
	ErrOutOfBounds = errors.New("raster: region out of bounds")

	// ErrNotDivisible is returned when dimensions are not a multiple of a reduction.
	ErrNotDivisible = errors.New("raster: dimensions not divisible by reduction")
)

// Raster is a row-major grid of float64 samples.
type Raster struct {
	rows int
	cols int
	data []float64
}

// New creates a zero-filled raster.
func New(rows, cols int) (*Raster, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return &Raster{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromSlice wraps data without copying. len(data) must equal rows*cols.
func FromSlice(rows, cols int, data []float64) (*Raster, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrDataSize, len(data), rows, cols)
	}
	return &Raster{rows: rows, cols: cols, data: data}, nil
}

// Filled creates a raster with every sample set to v.
func Filled(rows, cols int, v float64) (*Raster, error) {
	r, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	r.Fill(v)
	return r, nil
}

// newUnchecked allocates a raster for dimensions already known to be valid.
func newUnchecked(rows, cols int) *Raster {
	return &Raster{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Rows returns the number of rows.
func (r *Raster) Rows() int { return r.rows }

// Cols returns the number of columns.
func (r *Raster) Cols() int { return r.cols }

// Len returns rows*cols.
func (r *Raster) Len() int { return len(r.data) }

// Data returns the backing slice. Writing to it mutates the raster.
func (r *Raster) Data() []float64 { return r.data }

// Row returns the samples of row i as a sub-slice of the backing data.
func (r *Raster) Row(i int) []float64 {
	return r.data[i*r.cols : (i+1)*r.cols]
}

// At returns the sample at (row, col).
func (r *Raster) At(row, col int) float64 {
	return r.data[row*r.cols+col]
}

// Set writes the sample at (row, col).
func (r *Raster) Set(row, col int, v float64) {
	r.data[row*r.cols+col] = v
}

// Fill sets every sample to v.
func (r *Raster) Fill(v float64) {
	for i := range r.data {
		r.data[i] = v
	}
}

// Clone creates a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	data := make([]float64, len(r.data))
	copy(data, r.data)
	return &Raster{rows: r.rows, cols: r.cols, data: data}
}

// SameShape reports whether r and o have identical dimensions.
func (r *Raster) SameShape(o *Raster) bool {
	return r.rows == o.rows && r.cols == o.cols
}

// String returns a short description such as "Raster(20x20)".
func (r *Raster) String() string {
	return fmt.Sprintf("Raster(%dx%d)", r.rows, r.cols)
}
