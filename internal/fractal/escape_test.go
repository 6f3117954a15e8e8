package fractal

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func mandelbrot(maxIter uint32) Params {
	return Params{MaxIterations: maxIter, BailoutSquared: DefaultBailoutSquared}
}

func TestEscape_OriginIsInside(t *testing.T) {
	for _, n := range []uint32{1, 2, 10, 100, 5000} {
		if got := mandelbrot(n).Evaluate(0); got != 1 {
			t.Errorf("Evaluate(0) with %d iterations = %v, want 1", n, got)
		}
	}
}

func TestEscape_KnownInteriorPoints(t *testing.T) {
	// Centre of the period-2 bulb and a point in the main cardioid.
	for _, c := range []complex128{-1, -0.5 + 0.5i, 0.25} {
		if got := mandelbrot(500).Evaluate(c); got != 1 {
			t.Errorf("Evaluate(%v) = %v, want 1", c, got)
		}
	}
}

func TestEscape_OutsideRadiusTwoEscapes(t *testing.T) {
	points := []complex128{2.0001, -2.5, 3i, 1.5 + 1.5i, cmplx.Rect(2.01, 1), cmplx.Rect(100, -2)}
	for _, c := range points {
		got := mandelbrot(100).Evaluate(c)
		if !(got < 1) {
			t.Errorf("Evaluate(%v) = %v, want < 1", c, got)
		}
		if got < 0 {
			t.Errorf("Evaluate(%v) = %v, want >= 0", c, got)
		}
	}
}

func TestEscape_BoundedRange(t *testing.T) {
	p := mandelbrot(64)
	for re := -2.5; re <= 1.5; re += 0.05 {
		for im := -1.5; im <= 1.5; im += 0.05 {
			v := p.Evaluate(complex(re, im))
			if v < 0 || v > 1 || math.IsNaN(float64(v)) {
				t.Fatalf("Evaluate(%v, %v) = %v outside [0, 1]", re, im, v)
			}
		}
	}
}

func TestEscape_SmoothAlongRay(t *testing.T) {
	// Moving away from the set along the positive real axis escapes sooner.
	// The smoothed count may step up by a fraction of one iteration where
	// the integer escape count drops, never by more.
	const maxIter = 1000
	p := mandelbrot(maxIter)
	prev := p.Evaluate(0.26)
	for x := 0.27; x < 4; x += 0.01 {
		v := p.Evaluate(complex(x, 0))
		if v > prev+0.5/maxIter {
			t.Fatalf("Evaluate(%v) = %v rose above %v", x, v, prev)
		}
		prev = v
	}
	if first, last := p.Evaluate(0.26), p.Evaluate(3.9); !(last < first) {
		t.Errorf("Evaluate(3.9) = %v, want below Evaluate(0.26) = %v", last, first)
	}
}

func TestEscape_HighIterationsStayBelowOne(t *testing.T) {
	// A point just outside the cardioid cusp escapes after many iterations.
	v := Escape(0.2501, 0, math.MaxUint32>>8, DefaultBailoutSquared)
	if !(v < 1) {
		t.Errorf("Escape() = %v, want < 1", v)
	}
}

func TestEscape_Julia(t *testing.T) {
	// For c = 0 the Julia set is the unit circle.
	p := Params{MaxIterations: 200, BailoutSquared: 4, Kind: Julia, Constant: 0}
	if got := p.Evaluate(0.5); got != 1 {
		t.Errorf("inside unit disc: got %v, want 1", got)
	}
	if got := p.Evaluate(1.5i); !(got < 1) {
		t.Errorf("outside unit disc: got %v, want < 1", got)
	}
}

func TestEscape_ZeroIterations(t *testing.T) {
	if got := Escape(10, 0, 0, 4); got != 1 {
		t.Errorf("Escape with zero iterations = %v, want 1", got)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		ok   bool
	}{
		{"default", mandelbrot(100), true},
		{"julia", Params{MaxIterations: 1, BailoutSquared: 4, Kind: Julia, Constant: -0.8 + 0.156i}, true},
		{"zero iterations", Params{BailoutSquared: 4}, false},
		{"zero bailout", Params{MaxIterations: 10}, false},
		{"nan bailout", Params{MaxIterations: 10, BailoutSquared: math.NaN()}, false},
		{"inf bailout", Params{MaxIterations: 10, BailoutSquared: math.Inf(1)}, false},
		{"unknown kind", Params{MaxIterations: 10, BailoutSquared: 4, Kind: 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrParams) {
				t.Errorf("Validate() = %v, want ErrParams", err)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if Mandelbrot.String() != "mandelbrot" || Julia.String() != "julia" {
		t.Errorf("unexpected names %q %q", Mandelbrot, Julia)
	}
}

func BenchmarkEscape(b *testing.B) {
	p := mandelbrot(1000)
	for b.Loop() {
		p.Evaluate(-0.7435 + 0.1314i)
	}
}

func TestParams_Orbit(t *testing.T) {
	p := Params{MaxIterations: 50, BailoutSquared: DefaultBailoutSquared}

	if got := p.Orbit(0); len(got) != 50 {
		t.Errorf("origin orbit has %d points, want 50", len(got))
	}
	// c = -1 cycles 0, -1, 0, -1.
	for i, z := range p.Orbit(-1) {
		want := complex(-1, 0)
		if i%2 == 1 {
			want = 0
		}
		if z != want {
			t.Fatalf("orbit[%d] = %v, want %v", i, z, want)
		}
	}
	esc := p.Orbit(1)
	// 1, 2, 5: the third iterate leaves radius 2.
	if len(esc) != 3 || esc[2] != 5 {
		t.Errorf("orbit of 1 = %v, want [1 2 5]", esc)
	}

	j := Params{MaxIterations: 10, BailoutSquared: DefaultBailoutSquared, Kind: Julia, Constant: 0}
	if got := j.Orbit(0.5); got[0] != 0.25 || got[1] != 0.0625 {
		t.Errorf("julia orbit = %v", got[:2])
	}
}
