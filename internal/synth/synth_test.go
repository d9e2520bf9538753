package synth

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/mapsynth/internal/codec"
	"github.com/gogpu/mapsynth/predictor"
	"github.com/gogpu/mapsynth/raster"
)

func testGeometry(padding int) Geometry {
	return Geometry{Cut: 5, EncodingLength: 8, Padding: padding}
}

func filled(t *testing.T, rows, cols int, v float64) *raster.Raster {
	t.Helper()
	r, err := raster.Filled(rows, cols, v)
	if err != nil {
		t.Fatalf("Filled() error = %v", err)
	}
	return r
}

// constantOutput returns a predictor that ignores its input.
func constantOutput(out []float64) predictor.Predictor {
	return predictor.Func(func([]float64) ([]float64, error) {
		return out, nil
	})
}

// =============================================================================
// Geometry Tests
// =============================================================================

func TestDefaultGeometry(t *testing.T) {
	g := DefaultGeometry()
	if g.Cut != 5 || g.EncodingLength != 8 || g.Padding != 162 {
		t.Errorf("DefaultGeometry() = %+v, want {5 8 162}", g)
	}
	if got := g.RecurrentLen(); got != 22 {
		t.Errorf("RecurrentLen() = %d, want 22", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Geometry
		wantErr error
	}{
		{"zero cut", Geometry{Cut: 0, EncodingLength: 8, Padding: 10}, ErrInvalidGeometry},
		{"zero encoding", Geometry{Cut: 5, EncodingLength: 0, Padding: 10}, ErrInvalidGeometry},
		{"padding below recurrent margin", Geometry{Cut: 5, EncodingLength: 8, Padding: 3}, ErrPadding},
		{"minimum padding", Geometry{Cut: 5, EncodingLength: 8, Padding: 4}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Layout Tests
// =============================================================================

func TestLayoutLen(t *testing.T) {
	g := testGeometry(162)
	l := Layout{Name: "test", Segments: []Segment{
		{Source: "a", Reduction: 16, Encoding: Log},
		{Source: "b", Reduction: 4, Encoding: RelativeReversed},
		{Source: "a", Reduction: 4, Encoding: RelativeLog},
	}}
	want := 25*8 + (25*8 + 8) + (25*8 + 8)
	if got := l.Len(g); got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if got := l.Sources(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Sources() = %v, want [a b]", got)
	}
}

func TestBindUnboundSource(t *testing.T) {
	g := testGeometry(16)
	l := Layout{Name: "test", Segments: []Segment{{Source: "missing", Reduction: 1}}}
	_, err := l.Bind(g, 4, 4, map[string]View{})
	if !errors.Is(err, ErrUnboundSource) {
		t.Errorf("Bind() error = %v, want %v", err, ErrUnboundSource)
	}
}

func TestBindChecksPadding(t *testing.T) {
	g := testGeometry(16)
	src := raster.Pad(filled(t, 4, 4, 1), 16, raster.PadEdge)

	tests := []struct {
		name      string
		reduction int
		scale     int
		wantErr   error
	}{
		{"fits", 4, 1, nil},
		{"window too large for padding", 16, 1, ErrPadding},
		{"scaled past the edge", 1, 8, ErrPadding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Layout{Name: "test", Segments: []Segment{{Source: "s", Reduction: tt.reduction}}}
			_, err := l.Bind(g, 4, 4, map[string]View{"s": {Raster: src, Scale: tt.scale}})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Bind() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBindEncodings(t *testing.T) {
	g := testGeometry(16)
	src := raster.Pad(filled(t, 4, 4, 0.5), 16, raster.PadEdge)
	views := map[string]View{"s": {Raster: src}}
	n := g.EncodingLength

	t.Run("log", func(t *testing.T) {
		l := Layout{Name: "log", Segments: []Segment{{Source: "s", Reduction: 2, Encoding: Log}}}
		fn, err := l.Bind(g, 4, 4, views)
		if err != nil {
			t.Fatalf("Bind() error = %v", err)
		}
		got := fn(nil, 17, 18)
		if len(got) != l.Len(g) {
			t.Fatalf("len = %d, want %d", len(got), l.Len(g))
		}
		for i := 0; i < len(got); i += n {
			if v := codec.LogDecode(got[i : i+n]); v != 0.5 {
				t.Fatalf("chunk %d decodes to %v, want 0.5", i/n, v)
			}
		}
	})

	t.Run("relative", func(t *testing.T) {
		l := Layout{Name: "rel", Segments: []Segment{{Source: "s", Reduction: 1, Encoding: RelativeReversed}}}
		fn, err := l.Bind(g, 4, 4, views)
		if err != nil {
			t.Fatalf("Bind() error = %v", err)
		}
		got := fn([]float64{42}, 16, 16)
		if got[0] != 42 || len(got) != 1+l.Len(g) {
			t.Fatalf("prefix not preserved or wrong length %d", len(got))
		}
		body := got[1 : 1+25*n]
		for i := range body {
			if body[i] != 0 {
				t.Fatalf("relativized constant window not zero-coded at %d: %v", i, body[i])
			}
		}
		if abs := codec.LinearDecode(got[len(got)-n:]); math.Abs(abs-0.5) > 1e-12 {
			t.Errorf("absolute = %v, want 0.5", abs)
		}
	})
}

func TestBindScaleReadsMappedCell(t *testing.T) {
	g := Geometry{Cut: 1, EncodingLength: 8, Padding: 4}
	fine, _ := raster.New(16, 16)
	for i := range 16 {
		for j := range 16 {
			fine.Set(i, j, 1/float64(int(1)<<(1+(i+j)%4)))
		}
	}
	padded := raster.Pad(fine, 4, raster.PadEdge)
	l := Layout{Name: "scaled", Segments: []Segment{{Source: "s", Reduction: 1, Encoding: Log}}}
	fn, err := l.Bind(g, 4, 4, map[string]View{"s": {Raster: padded, Scale: 4}})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	// Cell (1, 2) of the grid maps to fine (4, 8).
	got := codec.LogDecode(fn(nil, 4+1, 4+2))
	if want := fine.At(4, 8); got != want {
		t.Errorf("scaled read = %v, want %v", got, want)
	}
}

// =============================================================================
// GenerateOther Tests
// =============================================================================

func TestGenerateOtherIdentityPreservesConstant(t *testing.T) {
	const pad = 16
	g := testGeometry(pad)
	cut := g.Cut

	src := filled(t, 20, 20, 0.5)
	target := raster.Pad(src, pad, raster.PadEdge)

	// Context is the raw local window of the raster under generation.
	contextFn := func(dst []float64, row, col int) []float64 {
		return target.Window(dst, row, col, 1, cut)
	}
	identity := predictor.Func(func(in []float64) ([]float64, error) {
		return in[:cut*cut], nil
	})

	err := GenerateOther(context.Background(), identity, target, contextFn, Config{Geometry: g}, OtherMode{})
	if err != nil {
		t.Fatalf("GenerateOther() error = %v", err)
	}

	got, err := raster.Crop(target, pad)
	if err != nil {
		t.Fatalf("Crop() error = %v", err)
	}
	for i, v := range got.Data() {
		if v != 0.5 {
			t.Fatalf("cell %d = %v, want 0.5", i, v)
		}
	}
}

func TestGenerateOtherModes(t *testing.T) {
	n := 8
	tests := []struct {
		name string
		mode OtherMode
		out  []float64
		want float64
	}{
		{"raw first value", OtherMode{}, []float64{0.75, 9, 9}, 0.75},
		{"round half to even", OtherMode{Round: true}, []float64{2.5}, 2},
		{"round up", OtherMode{Round: true}, []float64{0.6}, 1},
		{"encoded", OtherMode{Encode: true}, codec.Log(0.125, n), 0.125},
		{"encoded negative", OtherMode{Encode: true}, codec.Log(-0.5, n), -0.5},
		{"encoded and rounded", OtherMode{Encode: true, Round: true}, codec.Log(0.25, n), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGeometry(4)
			target := raster.Pad(filled(t, 2, 3, 0), 4, raster.PadZero)
			err := GenerateOther(context.Background(), constantOutput(tt.out), target, nil, Config{Geometry: g}, tt.mode)
			if err != nil {
				t.Fatalf("GenerateOther() error = %v", err)
			}
			got, _ := raster.Crop(target, 4)
			for i, v := range got.Data() {
				if math.Abs(v-tt.want) > 1e-12 {
					t.Fatalf("cell %d = %v, want %v", i, v, tt.want)
				}
			}
		})
	}
}

func TestGenerateOtherInputLength(t *testing.T) {
	g := testGeometry(4)
	target := raster.Pad(filled(t, 2, 2, 0), 4, raster.PadZero)
	contextFn := func(dst []float64, _, _ int) []float64 {
		return append(dst, 1, 2, 3)
	}

	for _, encode := range []bool{false, true} {
		want := 3 + g.RecurrentLen()
		if encode {
			want = 3 + g.RecurrentLen()*g.EncodingLength
		}
		p := predictor.Func(func(in []float64) ([]float64, error) {
			if len(in) != want {
				t.Fatalf("encode=%v: input length = %d, want %d", encode, len(in), want)
			}
			return codec.Log(0, g.EncodingLength), nil
		})
		if err := GenerateOther(context.Background(), p, target, contextFn, Config{Geometry: g}, OtherMode{Encode: encode}); err != nil {
			t.Fatalf("GenerateOther() error = %v", err)
		}
	}
}

func TestGenerateOtherRowMajorOrder(t *testing.T) {
	g := testGeometry(4)
	target := raster.Pad(filled(t, 3, 4, 0), 4, raster.PadZero)

	var calls float64
	p := predictor.Func(func([]float64) ([]float64, error) {
		calls++
		return []float64{calls}, nil
	})
	if err := GenerateOther(context.Background(), p, target, nil, Config{Geometry: g}, OtherMode{}); err != nil {
		t.Fatalf("GenerateOther() error = %v", err)
	}

	got, _ := raster.Crop(target, 4)
	for i, v := range got.Data() {
		if v != float64(i+1) {
			t.Fatalf("cell %d = %v, want %v", i, v, i+1)
		}
	}
}

func TestGenerateOtherSeesEarlierCells(t *testing.T) {
	g := testGeometry(4)
	target := raster.Pad(filled(t, 3, 3, 0), 4, raster.PadZero)

	// The last recurrent entry is the left neighbour; count up from it.
	p := predictor.Func(func(in []float64) ([]float64, error) {
		return []float64{in[len(in)-1] + 1}, nil
	})
	if err := GenerateOther(context.Background(), p, target, nil, Config{Geometry: g}, OtherMode{}); err != nil {
		t.Fatalf("GenerateOther() error = %v", err)
	}
	got, _ := raster.Crop(target, 4)
	for i := range 3 {
		for j := range 3 {
			if got.At(i, j) != float64(j+1) {
				t.Fatalf("cell (%d, %d) = %v, want %v", i, j, got.At(i, j), j+1)
			}
		}
	}
}

// =============================================================================
// Generate Tests
// =============================================================================

func TestGenerateZeroDeltaPreservesConstant(t *testing.T) {
	g := testGeometry(8)
	target := raster.Pad(filled(t, 6, 5, 0.375), 8, raster.PadEdge)
	zero := constantOutput(codec.LogReversed(0, g.EncodingLength))

	if err := Generate(context.Background(), zero, target, nil, Config{Geometry: g}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got, _ := raster.Crop(target, 8)
	for i, v := range got.Data() {
		if math.Abs(v-0.375) > 1e-12 {
			t.Fatalf("cell %d = %v, want 0.375", i, v)
		}
	}
}

func TestGenerateAddsDecodedDelta(t *testing.T) {
	g := testGeometry(4)
	target := raster.Pad(filled(t, 2, 2, 0), 4, raster.PadZero)
	code := codec.LogReversed(0.25, g.EncodingLength)
	want := codec.LogReversedDecode(code)
	if math.Abs(want-0.25) > math.Exp2(-8) {
		t.Fatalf("LogReversedDecode() = %v, want about 0.25", want)
	}

	if err := Generate(context.Background(), constantOutput(code), target, nil, Config{Geometry: g}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// The first cell sees only zero padding, so its mean is 0.
	if got := target.At(4, 4); math.Abs(got-want) > 1e-12 {
		t.Errorf("first cell = %v, want %v", got, want)
	}
	for i, v := range target.Data() {
		if v < 0 {
			t.Fatalf("sample %d = %v, want >= 0", i, v)
		}
	}
}

func TestGenerateInputLayout(t *testing.T) {
	g := testGeometry(4)
	n := g.EncodingLength
	target := raster.Pad(filled(t, 1, 1, 0.5), 4, raster.PadEdge)
	contextFn := func(dst []float64, _, _ int) []float64 { return append(dst, -7) }

	p := predictor.Func(func(in []float64) ([]float64, error) {
		want := 1 + g.RecurrentLen()*n + n
		if len(in) != want {
			t.Fatalf("input length = %d, want %d", len(in), want)
		}
		if in[0] != -7 {
			t.Fatalf("context not first: %v", in[0])
		}
		if abs := codec.LinearDecode(in[len(in)-n:]); math.Abs(abs-0.5) > 1e-12 {
			t.Fatalf("absolute = %v, want 0.5", abs)
		}
		return codec.LogReversed(0, n), nil
	})
	if err := Generate(context.Background(), p, target, contextFn, Config{Geometry: g}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

// =============================================================================
// Failure Tests
// =============================================================================

func TestGenerateErrors(t *testing.T) {
	errBoom := errors.New("boom")
	g := testGeometry(4)

	tests := []struct {
		name    string
		p       predictor.Predictor
		g       Geometry
		rows    int
		wantErr error
	}{
		{"short output", constantOutput([]float64{1, 2}), g, 2, ErrOutputLength},
		{"predictor failure", predictor.Func(func([]float64) ([]float64, error) { return nil, errBoom }), g, 2, errBoom},
		{"padding below recurrent margin", constantOutput(codec.LogReversed(0, 8)), testGeometry(2), 2, ErrPadding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := raster.Pad(filled(t, tt.rows, tt.rows, 0), tt.g.Padding, raster.PadZero)
			err := Generate(context.Background(), tt.p, target, nil, Config{Geometry: tt.g, Name: tt.name})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateOtherEncodedWrongLength(t *testing.T) {
	g := testGeometry(4)
	target := raster.Pad(filled(t, 2, 2, 0), 4, raster.PadZero)
	for _, mode := range []OtherMode{{Encode: true}, {}} {
		err := GenerateOther(context.Background(), constantOutput(nil), target, nil, Config{Geometry: g}, mode)
		if !errors.Is(err, ErrOutputLength) {
			t.Errorf("GenerateOther(%+v) error = %v, want %v", mode, err, ErrOutputLength)
		}
	}
}

func TestGenerateNoInterior(t *testing.T) {
	g := testGeometry(4)
	target := filled(t, 8, 8, 0)
	err := GenerateOther(context.Background(), constantOutput([]float64{1}), target, nil, Config{Geometry: g}, OtherMode{})
	if !errors.Is(err, ErrPadding) {
		t.Errorf("GenerateOther() error = %v, want %v", err, ErrPadding)
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := testGeometry(4)
	target := raster.Pad(filled(t, 3, 3, 0), 4, raster.PadZero)
	called := false
	p := predictor.Func(func([]float64) ([]float64, error) {
		called = true
		return []float64{1}, nil
	})
	err := GenerateOther(ctx, p, target, nil, Config{Geometry: g}, OtherMode{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateOther() error = %v, want %v", err, context.Canceled)
	}
	if called {
		t.Error("predictor called after cancellation")
	}
}

// =============================================================================
// Sample Tests
// =============================================================================

func paddedRamp(t *testing.T, pad int) *raster.Raster {
	t.Helper()
	r, err := raster.FromSlice(3, 3, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9})
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	return raster.Pad(r, pad, raster.PadEdge)
}

func TestSampleMatchesGenerateInput(t *testing.T) {
	g := testGeometry(4)
	target := paddedRamp(t, 4)
	contextFn := func(dst []float64, r, c int) []float64 { return append(dst, float64(r), float64(c)) }

	wantIn, out := Sample(g, target, contextFn, nil, 4, 4, nil, nil)
	if len(out) != g.EncodingLength {
		t.Fatalf("output length = %d, want %d", len(out), g.EncodingLength)
	}

	var gotIn []float64
	p := predictor.Func(func(in []float64) ([]float64, error) {
		if gotIn == nil {
			gotIn = append([]float64(nil), in...)
		}
		return out, nil
	})
	if err := Generate(context.Background(), p, target.Clone(), contextFn, Config{Geometry: g}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(gotIn) != len(wantIn) {
		t.Fatalf("input length = %d, want %d", len(gotIn), len(wantIn))
	}
	for i := range wantIn {
		if gotIn[i] != wantIn[i] {
			t.Fatalf("input[%d] = %v, want %v", i, gotIn[i], wantIn[i])
		}
	}
}

func TestSampleOtherModes(t *testing.T) {
	g := testGeometry(4)
	target := paddedRamp(t, 4)
	v := target.At(5, 6)

	in, out := Sample(g, target, nil, &OtherMode{}, 5, 6, nil, nil)
	if len(in) != g.RecurrentLen() {
		t.Errorf("raw input length = %d, want %d", len(in), g.RecurrentLen())
	}
	if len(out) != 1 || out[0] != v {
		t.Errorf("raw output = %v, want [%v]", out, v)
	}

	in, out = Sample(g, target, nil, &OtherMode{Encode: true}, 5, 6, nil, nil)
	if len(in) != g.RecurrentLen()*g.EncodingLength {
		t.Errorf("encoded input length = %d, want %d", len(in), g.RecurrentLen()*g.EncodingLength)
	}
	want := codec.Log(v, g.EncodingLength)
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("encoded output = %v, want %v", out, want)
		}
	}
}
