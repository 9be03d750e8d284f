package easing

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEndpoints(t *testing.T) {
	names := []Name{
		Linear, EaseIn, EaseInQuad, EaseOut, EaseOutQuad,
		EaseInOut, EaseInCubic, EaseOutCubic, Bounce, Elastic,
	}

	for _, name := range names {
		fn := For(name)
		if got := fn(0); !almostEqual(got, 0) {
			t.Errorf("%s(0) = %v, want 0", name, got)
		}
		if got := fn(1); !almostEqual(got, 1) {
			t.Errorf("%s(1) = %v, want 1", name, got)
		}
	}
}

func TestLinear(t *testing.T) {
	for _, v := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		if got := LinearFunc(v); got != v {
			t.Errorf("LinearFunc(%v) = %v, want %v", v, got, v)
		}
	}
}

func TestQuad(t *testing.T) {
	tests := []struct {
		fn   Func
		name string
		t    float64
		want float64
	}{
		{QuadIn, "QuadIn", 0.5, 0.25},
		{QuadIn, "QuadIn", 0.25, 0.0625},
		{QuadOut, "QuadOut", 0.5, 0.75},
		{QuadOut, "QuadOut", 0.75, 0.9375},
		{QuadInOut, "QuadInOut", 0.25, 0.125},
		{QuadInOut, "QuadInOut", 0.5, 0.5},
		{QuadInOut, "QuadInOut", 0.75, 0.875},
	}

	for _, tt := range tests {
		if got := tt.fn(tt.t); !almostEqual(got, tt.want) {
			t.Errorf("%s(%v) = %v, want %v", tt.name, tt.t, got, tt.want)
		}
	}
}

func TestCubic(t *testing.T) {
	if got := CubicIn(0.5); !almostEqual(got, 0.125) {
		t.Errorf("CubicIn(0.5) = %v, want 0.125", got)
	}
	if got := CubicOut(0.5); !almostEqual(got, 0.875) {
		t.Errorf("CubicOut(0.5) = %v, want 0.875", got)
	}
}

func TestAliases(t *testing.T) {
	for _, v := range []float64{0, 0.2, 0.5, 0.8, 1} {
		if For(EaseIn)(v) != For(EaseInQuad)(v) {
			t.Errorf("ease-in and ease-in-quad differ at %v", v)
		}
		if For(EaseOut)(v) != For(EaseOutQuad)(v) {
			t.Errorf("ease-out and ease-out-quad differ at %v", v)
		}
	}
}

func TestBounceBounds(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		v := float64(i) / 1000
		got := BounceOut(v)
		if got < 0 || got > 1.0000001 {
			t.Fatalf("BounceOut(%v) = %v, out of [0,1]", v, got)
		}
	}
}

func TestBounceSegmentBoundaries(t *testing.T) {
	// The piecewise segments meet near 0.75, 0.9375 and 0.984375.
	if got := BounceOut(1 / 2.75); !almostEqual(got, 7.5625/(2.75*2.75)) {
		t.Errorf("BounceOut at first threshold = %v", got)
	}
	if got := BounceOut(1); !almostEqual(got, 1) {
		t.Errorf("BounceOut(1) = %v, want 1", got)
	}
}

func TestElasticEndpoints(t *testing.T) {
	if got := ElasticFunc(0); got != 0 {
		t.Errorf("ElasticFunc(0) = %v, want exactly 0", got)
	}
	if got := ElasticFunc(1); got != 1 {
		t.Errorf("ElasticFunc(1) = %v, want exactly 1", got)
	}
	// Amplitude is bounded by 2^(10t-10) for interior points.
	for i := 1; i < 1000; i++ {
		v := float64(i) / 1000
		bound := math.Pow(2, 10*v-10) + 1e-9
		if math.Abs(ElasticFunc(v)) > bound {
			t.Fatalf("ElasticFunc(%v) exceeds amplitude bound %v", v, bound)
		}
	}
}

func TestForUnknownFallsBackToLinear(t *testing.T) {
	fn := For(Name("wobble"))
	if got := fn(0.3); got != 0.3 {
		t.Errorf("unknown easing should be linear, got %v", got)
	}
}
