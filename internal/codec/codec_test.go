package codec

import (
	"errors"
	"math"
	"testing"
)

func equalSlices(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// =============================================================================
// Unary Tests
// =============================================================================

func TestUnary(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		n    int
		want []float64
	}{
		{"fractional", 2.5, 5, []float64{1, 1, 0.5, 0, 0}},
		{"whole", 3, 5, []float64{1, 1, 1, 0, 0}},
		{"zero", 0, 4, []float64{0, 0, 0, 0}},
		{"saturated", 7.25, 4, []float64{1, 1, 1, 1}},
		{"exactly n", 4, 4, []float64{1, 1, 1, 1}},
		{"negative clamps", -1.5, 3, []float64{0, 0, 0}},
		{"below one", 0.25, 3, []float64{0.25, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unary(tt.v, tt.n)
			if !equalSlices(got, tt.want, 0) {
				t.Errorf("Unary(%v, %d) = %v, want %v", tt.v, tt.n, got, tt.want)
			}
		})
	}
}

func TestUnaryReversed(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		n    int
		want []float64
	}{
		{"fractional", 2.5, 5, []float64{0, 0, 0.5, 1, 1}},
		{"zero", 0, 3, []float64{1, 1, 1}},
		{"saturated", 9, 3, []float64{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnaryReversed(tt.v, tt.n)
			if !equalSlices(got, tt.want, 0) {
				t.Errorf("UnaryReversed(%v, %d) = %v, want %v", tt.v, tt.n, got, tt.want)
			}
		})
	}
}

func TestEncodersProduceNValues(t *testing.T) {
	encoders := map[string]func(float64, int) []float64{
		"Unary":         Unary,
		"UnaryReversed": UnaryReversed,
		"Log":           Log,
		"LogReversed":   LogReversed,
		"Linear":        Linear,
	}
	values := []float64{-3, -1, -0.3, 0, 1e-9, 0.4, 1, 12, math.Inf(1)}

	for name, enc := range encoders {
		for _, n := range []int{1, 3, 8} {
			for _, v := range values {
				if got := len(enc(v, n)); got != n {
					t.Errorf("%s(%v, %d) has %d values, want %d", name, v, n, got, n)
				}
			}
		}
	}
}

// =============================================================================
// Logarithmic Family
// =============================================================================

func TestLogZeroIsSaturated(t *testing.T) {
	code := Log(0, 8)
	for i, c := range code {
		if c != 1 {
			t.Fatalf("Log(0, 8)[%d] = %v, want 1", i, c)
		}
	}

	got := LogDecode(code)
	if math.IsNaN(got) || got != math.Exp2(-8) {
		t.Errorf("LogDecode(Log(0, 8)) = %v, want %v", got, math.Exp2(-8))
	}
}

func TestLogRoundTrip(t *testing.T) {
	values := []float64{0.99, 0.75, 0.5, 0.3, 0.01, 1e-5, -0.2, -0.9, -0.004}

	for _, n := range []int{1, 4, 8, 12} {
		tol := math.Exp2(-float64(n))
		for _, v := range values {
			if math.Abs(v) < tol && n < 4 {
				continue
			}
			got := LogDecode(Log(v, n))
			if math.Abs(got-v) > tol {
				t.Errorf("LogDecode(Log(%v, %d)) = %v, want within %v", v, n, got, tol)
			}
			if v != 0 && math.Abs(v) >= tol && math.Signbit(got) != math.Signbit(v) {
				t.Errorf("LogDecode(Log(%v, %d)) lost the sign: %v", v, n, got)
			}
		}
	}
}

func TestLogNegativeNegatesCode(t *testing.T) {
	pos := Log(0.3, 8)
	neg := Log(-0.3, 8)
	for i := range pos {
		if neg[i] != -pos[i] {
			t.Fatalf("Log(-0.3)[%d] = %v, want %v", i, neg[i], -pos[i])
		}
	}
}

func TestLogReversedDyadicRoundTrip(t *testing.T) {
	const n = 8
	tol := math.Exp2(-n)

	for _, v := range []float64{0.5, 0.25, 0.125, 1.0 / 64, -0.5, -0.0625} {
		got := LogReversedDecode(LogReversed(v, n))
		if math.Abs(got-v) > tol {
			t.Errorf("LogReversedDecode(LogReversed(%v)) = %v, want within %v", v, got, tol)
		}
	}
}

func TestLogReversedZero(t *testing.T) {
	code := LogReversed(0, 8)
	for i, c := range code {
		if c != 0 {
			t.Fatalf("LogReversed(0, 8)[%d] = %v, want 0", i, c)
		}
	}
	if got := LogReversedDecode(code); got != 0 {
		t.Errorf("LogReversedDecode(zero code) = %v, want 0", got)
	}
}

func TestLogReversedDecodeMonotonic(t *testing.T) {
	const n = 8
	prev := -1.0
	for i := 1; i <= 100; i++ {
		v := float64(i) / 101
		got := LogReversedDecode(LogReversed(v, n))
		if got < prev {
			t.Fatalf("decode not monotonic at %v: %v < %v", v, got, prev)
		}
		prev = got
	}
}

// =============================================================================
// Linear Family
// =============================================================================

func TestLinearRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 8, 16} {
		tol := 1 / float64(n)
		for v := -1.0; v <= 1.0; v += 0.0625 {
			got := LinearDecode(Linear(v, n))
			if math.Abs(got-v) > tol {
				t.Errorf("LinearDecode(Linear(%v, %d)) = %v, want within %v", v, n, got, tol)
			}
		}
	}
}

func TestLinearSaturates(t *testing.T) {
	got := Linear(3, 4)
	want := []float64{1, 1, 1, 1}
	if !equalSlices(got, want, 0) {
		t.Errorf("Linear(3, 4) = %v, want %v", got, want)
	}
}

// =============================================================================
// Arrays
// =============================================================================

func TestArrayRoundTrip(t *testing.T) {
	const n = 8
	vs := []float64{0.5, -0.25, 0.125, 0.7}

	code := LogArray(vs, n)
	if len(code) != len(vs)*n {
		t.Fatalf("len(LogArray) = %d, want %d", len(code), len(vs)*n)
	}
	got, err := LogDecodeArray(code, n)
	if err != nil {
		t.Fatalf("LogDecodeArray() error = %v", err)
	}
	if !equalSlices(got, vs, math.Exp2(-n)) {
		t.Errorf("LogDecodeArray() = %v, want %v", got, vs)
	}

	lin, err := LinearDecodeArray(LinearArray(vs, n), n)
	if err != nil {
		t.Fatalf("LinearDecodeArray() error = %v", err)
	}
	if !equalSlices(lin, vs, 1.0/n) {
		t.Errorf("LinearDecodeArray() = %v, want %v", lin, vs)
	}

	rev, err := LogReversedDecodeArray(LogReversedArray([]float64{0.5, 0}, n), n)
	if err != nil {
		t.Fatalf("LogReversedDecodeArray() error = %v", err)
	}
	if !equalSlices(rev, []float64{0.5, 0}, math.Exp2(-n)) {
		t.Errorf("LogReversedDecodeArray() = %v", rev)
	}
}

func TestDecodeArrayLength(t *testing.T) {
	tests := []struct {
		name string
		code []float64
		n    int
	}{
		{"not a multiple", make([]float64, 7), 8},
		{"zero chunk", make([]float64, 8), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LogDecodeArray(tt.code, tt.n)
			if !errors.Is(err, ErrLength) {
				t.Errorf("LogDecodeArray() error = %v, want %v", err, ErrLength)
			}
		})
	}
}

func TestAppendReusesBuffer(t *testing.T) {
	buf := make([]float64, 0, 32)
	buf = AppendLog(buf, 0.5, 8)
	buf = AppendLinear(buf, -0.5, 8)
	if len(buf) != 16 {
		t.Fatalf("len = %d, want 16", len(buf))
	}
	if cap(buf) != 32 {
		t.Errorf("cap = %d, want 32 (no reallocation)", cap(buf))
	}
	if LinearDecode(buf[8:]) != -0.5 {
		t.Errorf("LinearDecode(tail) = %v, want -0.5", LinearDecode(buf[8:]))
	}
}

// =============================================================================
// Relativize
// =============================================================================

func TestRelativize(t *testing.T) {
	vs := []float64{1, 2, 3, 6}
	abs := Relativize(vs)
	if abs != 3 {
		t.Errorf("Relativize() = %v, want 3", abs)
	}
	want := []float64{-2, -1, 0, 3}
	if !equalSlices(vs, want, 1e-12) {
		t.Errorf("centred = %v, want %v", vs, want)
	}

	if got := Relativize(nil); got != 0 {
		t.Errorf("Relativize(nil) = %v, want 0", got)
	}
}
