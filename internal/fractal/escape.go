package fractal

import (
	"errors"
	"fmt"
	"math"
)

var ErrParams = errors.New("fractal: invalid escape parameters")

// Kind selects which value plays the role of the added constant.
type Kind int

const (
	// Mandelbrot iterates from z0 = 0 with c set to the sample point.
	Mandelbrot Kind = iota
	// Julia iterates from z0 set to the sample point with a fixed c.
	Julia
)

func (k Kind) String() string {
	switch k {
	case Mandelbrot:
		return "mandelbrot"
	case Julia:
		return "julia"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultBailoutSquared is the squared escape radius 2^2.
const DefaultBailoutSquared = 4.0

// Params are the per-pass iteration parameters.
type Params struct {
	MaxIterations  uint32
	BailoutSquared float64
	Kind           Kind
	// Constant is the added constant of the Julia iteration. Ignored for Mandelbrot.
	Constant complex128
}

// Validate reports whether p can drive a render pass.
func (p Params) Validate() error {
	if p.MaxIterations == 0 {
		return fmt.Errorf("%w: max iterations must be positive", ErrParams)
	}
	if !(p.BailoutSquared > 0) || math.IsInf(p.BailoutSquared, 0) {
		return fmt.Errorf("%w: bailout %v", ErrParams, p.BailoutSquared)
	}
	if p.Kind != Mandelbrot && p.Kind != Julia {
		return fmt.Errorf("%w: unknown kind %v", ErrParams, p.Kind)
	}
	return nil
}

// Evaluate returns the normalized escape value of the sample point under p.
func (p Params) Evaluate(point complex128) float32 {
	if p.Kind == Julia {
		return Escape(p.Constant, point, p.MaxIterations, p.BailoutSquared)
	}
	return Escape(point, 0, p.MaxIterations, p.BailoutSquared)
}

// Escape iterates z = z*z + c from z0 and returns a continuous escape value
// in [0, 1]. Points that do not leave the bailout radius within maxIter
// iterations return exactly 1. Escaping points return a smoothed count
// i - log2(log2(|z|^2)) normalized by maxIter, which is strictly below 1.
func Escape(c, z0 complex128, maxIter uint32, bailoutSq float64) float32 {
	if maxIter == 0 {
		return 1
	}

	zr, zi := real(z0), imag(z0)
	cr, ci := real(c), imag(c)
	for i := uint32(0); i < maxIter; i++ {
		mag := zr*zr + zi*zi
		if mag > bailoutSq {
			return smooth(i, mag, maxIter)
		}
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
	}
	return 1
}

func smooth(i uint32, mag float64, maxIter uint32) float32 {
	// max(mag, e) keeps the inner log2 above 1 so the outer log2 is positive.
	v := float64(i) - math.Log2(math.Log2(math.Max(mag, math.E)))
	v = math.Max(0, math.Min(v, float64(maxIter)))
	f := float32(v / float64(maxIter))
	if f >= 1 {
		// float32 rounding must not make an escaping point look inside.
		f = math.Nextafter32(1, 0)
	}
	return f
}

// Orbit returns the iterates z1, z2, ... of the sample point under p, up to
// and including the first one outside the bailout radius, and at most
// MaxIterations of them.
func (p Params) Orbit(point complex128) []complex128 {
	c, z := point, complex128(0)
	if p.Kind == Julia {
		c, z = p.Constant, point
	}
	var out []complex128
	for range p.MaxIterations {
		z = z*z + c
		out = append(out, z)
		if real(z)*real(z)+imag(z)*imag(z) > p.BailoutSquared {
			break
		}
	}
	return out
}
