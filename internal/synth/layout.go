package synth

import (
	"fmt"

	"github.com/gogpu/mapsynth/internal/codec"
	"github.com/gogpu/mapsynth/raster"
)

// Encoding selects how a segment's window is turned into code.
type Encoding uint8

const (
	// Log encodes every window entry with the logarithmic code.
	Log Encoding = iota

	// RelativeReversed subtracts the window mean, encodes the entries with the
	// reversed logarithmic code and appends the linear code of the mean.
	RelativeReversed

	// RelativeLog is RelativeReversed with the forward logarithmic code.
	RelativeLog
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case Log:
		return "log"
	case RelativeReversed:
		return "relative-reversed"
	case RelativeLog:
		return "relative-log"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// Segment is one window of a context vector.
type Segment struct {
	// Source names the raster the window is read from.
	Source string

	// Reduction is the downsampling factor of the window.
	Reduction int

	// Encoding selects the code.
	Encoding Encoding
}

// Len returns the number of values the segment contributes.
func (s Segment) Len(g Geometry) int {
	n := g.Cut * g.Cut * g.EncodingLength
	if s.Encoding != Log {
		n += g.EncodingLength
	}
	return n
}

// Layout is the ordered list of segments making up a stage's context vector.
// Generation and dataset construction build their vectors from the same
// Layout, so the two cannot drift apart.
type Layout struct {
	Name     string
	Segments []Segment
}

// Len returns the context vector length.
func (l Layout) Len(g Geometry) int {
	var n int
	for _, s := range l.Segments {
		n += s.Len(g)
	}
	return n
}

// Sources returns the distinct source names in order of first use.
func (l Layout) Sources() []string {
	var names []string
	seen := make(map[string]bool, len(l.Segments))
	for _, s := range l.Segments {
		if !seen[s.Source] {
			seen[s.Source] = true
			names = append(names, s.Source)
		}
	}
	return names
}

// View is a padded raster bound to a layout source.
//
// Scale maps generation coordinates onto the raster: cell (r, c) of the
// target is read at ((r-pad)*Scale+pad, (c-pad)*Scale+pad). Scale 0 is
// treated as 1. Sketches, which are finer than the first generation grid,
// are bound with a Scale above 1.
type View struct {
	Raster *raster.Raster
	Scale  int
}

func (v View) scale() int {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

// ContextFunc appends the context vector for cell (row, col) to dst. Row and
// col are padded coordinates of the target raster. A ContextFunc keeps
// scratch space and must not be called concurrently.
type ContextFunc func(dst []float64, row, col int) []float64

// Bind resolves the layout's sources and returns the function that builds its
// context vectors for a target of rows x cols interior cells.
//
// Every window the function will read is checked up front; a source too small
// for its reduction yields ErrPadding instead of a panic mid-raster.
func (l Layout) Bind(g Geometry, rows, cols int, sources map[string]View) (ContextFunc, error) {
	type bound struct {
		Segment
		view View
	}
	segs := make([]bound, len(l.Segments))
	for i, s := range l.Segments {
		v, ok := sources[s.Source]
		if !ok || v.Raster == nil {
			return nil, fmt.Errorf("synth: bind %s: %w: %q", l.Name, ErrUnboundSource, s.Source)
		}
		if err := checkWindows(g, v, s.Reduction, rows, cols); err != nil {
			return nil, fmt.Errorf("synth: bind %s: %s@%d: %w", l.Name, s.Source, s.Reduction, err)
		}
		segs[i] = bound{Segment: s, view: v}
	}

	pad, cut, n := g.Padding, g.Cut, g.EncodingLength
	window := make([]float64, 0, cut*cut)
	return func(dst []float64, row, col int) []float64 {
		for _, s := range segs {
			k := s.view.scale()
			window = s.view.Raster.Window(window[:0], (row-pad)*k+pad, (col-pad)*k+pad, s.Reduction, cut)
			switch s.Encoding {
			case Log:
				dst = codec.AppendLogArray(dst, window, n)
			case RelativeReversed:
				abs := codec.Relativize(window)
				dst = codec.AppendLogReversedArray(dst, window, n)
				dst = codec.AppendLinear(dst, abs, n)
			case RelativeLog:
				abs := codec.Relativize(window)
				dst = codec.AppendLogArray(dst, window, n)
				dst = codec.AppendLinear(dst, abs, n)
			}
		}
		return dst
	}, nil
}

// checkWindows verifies that windows at the first and last mapped cells stay
// inside the view's raster.
func checkWindows(g Geometry, v View, reduction, rows, cols int) error {
	if reduction <= 0 {
		return fmt.Errorf("%w: reduction %d", ErrInvalidGeometry, reduction)
	}
	k := v.scale()
	size := g.Cut * reduction
	firstRow, lastRow := g.Padding, g.Padding+(rows-1)*k
	firstCol, lastCol := g.Padding, g.Padding+(cols-1)*k

	top := firstRow - raster.RowBias(g.Cut) - size/2
	bottom := lastRow - raster.RowBias(g.Cut) - size/2 + size
	left := firstCol - size/2
	right := lastCol - size/2 + size
	if top < 0 || left < 0 || bottom > v.Raster.Rows() || right > v.Raster.Cols() {
		return fmt.Errorf("%w: %dx%d grid at scale %d needs rows [%d,%d) cols [%d,%d) of %v",
			ErrPadding, rows, cols, k, top, bottom, left, right, v.Raster)
	}
	return nil
}
