package fractal

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
)

// MaxStops is the largest number of stops a Gradient accepts.
const MaxStops = 12

var (
	ErrNoStops      = errors.New("fractal: gradient has no stops")
	ErrTooManyStops = errors.New("fractal: gradient has too many stops")
	ErrThreshold    = errors.New("fractal: invalid gradient threshold")
)

// RGBA is a colour with float32 channels in [0, 1].
type RGBA struct {
	R, G, B, A float32
}

// Scale multiplies every channel, alpha included, by s.
func (c RGBA) Scale(s float32) RGBA {
	return RGBA{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Add returns the component-wise sum of c and o.
func (c RGBA) Add(o RGBA) RGBA {
	return RGBA{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

// RGBA8 rounds every channel to the nearest byte.
func (c RGBA) RGBA8() color.RGBA {
	return color.RGBA{R: toByte(c.R), G: toByte(c.G), B: toByte(c.B), A: toByte(c.A)}
}

func toByte(v float32) uint8 {
	// NaN fails both comparisons and lands on 0.
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Stop is a gradient colour anchored at a threshold in (0, 1].
type Stop struct {
	Threshold float32
	Color     RGBA
}

// Gradient maps a normalized scalar to a colour by interpolating linearly
// between ordered stops. A Gradient is immutable and safe for concurrent use.
type Gradient struct {
	thresholds []float32
	colors     []RGBA
}

// NewGradient validates stops and builds a Gradient from a copy of them.
// Thresholds must lie in (0, 1] and be strictly increasing.
func NewGradient(stops []Stop) (*Gradient, error) {
	if len(stops) == 0 {
		return nil, ErrNoStops
	}
	if len(stops) > MaxStops {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyStops, len(stops), MaxStops)
	}

	g := &Gradient{
		thresholds: make([]float32, len(stops)),
		colors:     make([]RGBA, len(stops)),
	}
	for i, s := range stops {
		if !(s.Threshold > 0 && s.Threshold <= 1) {
			return nil, fmt.Errorf("%w: stop %d at %v outside (0, 1]", ErrThreshold, i, s.Threshold)
		}
		if i > 0 && s.Threshold <= stops[i-1].Threshold {
			return nil, fmt.Errorf("%w: stop %d at %v not above %v", ErrThreshold, i, s.Threshold, stops[i-1].Threshold)
		}
		g.thresholds[i] = s.Threshold
		g.colors[i] = s.Color
	}
	return g, nil
}

// MustGradient is like NewGradient but panics on invalid stops.
// It is intended for package-level presets.
func MustGradient(stops []Stop) *Gradient {
	g, err := NewGradient(stops)
	if err != nil {
		panic(err)
	}
	return g
}

// Len returns the number of stops.
func (g *Gradient) Len() int { return len(g.thresholds) }

// Stops returns a copy of the gradient stops.
func (g *Gradient) Stops() []Stop {
	out := make([]Stop, len(g.thresholds))
	for i := range g.thresholds {
		out[i] = Stop{Threshold: g.thresholds[i], Color: g.colors[i]}
	}
	return out
}

// At returns the colour for x. Values at or below the first threshold get
// the first colour, values at or above the last threshold (and NaN) get the
// last colour.
func (g *Gradient) At(x float32) RGBA {
	if x <= g.thresholds[0] {
		return g.colors[0]
	}

	// Smallest i with thresholds[i] > x. The branch above guarantees i >= 1.
	i := sort.Search(len(g.thresholds), func(i int) bool {
		return g.thresholds[i] > x
	})
	if i >= len(g.thresholds) {
		return g.colors[len(g.colors)-1]
	}

	t := (g.thresholds[i] - x) / (g.thresholds[i] - g.thresholds[i-1])
	return g.colors[i].Scale(1 - t).Add(g.colors[i-1].Scale(t))
}

// DefaultGradient returns the eight-stop fire palette: black through deep
// blue, pale yellow, orange and red back to black.
func DefaultGradient() *Gradient {
	return MustGradient([]Stop{
		{0.03, RGBA{0, 0, 0, 1}},
		{0.05, RGBA{0.016, 0.137, 0.231, 1}},
		{0.08, RGBA{0.145, 0.514, 0.8, 1}},
		{0.1, RGBA{0.886, 0.91, 0.557, 1}},
		{0.13, RGBA{0.82, 0.502, 0.165, 1}},
		{0.18, RGBA{0.839, 0.059, 0.059, 1}},
		{0.25, RGBA{0.549, 0.024, 0.024, 1}},
		{1, RGBA{0, 0, 0, 1}},
	})
}

// GrayGradient returns a two-stop black to white ramp.
func GrayGradient() *Gradient {
	return MustGradient([]Stop{
		{0.03, RGBA{0, 0, 0, 1}},
		{1, RGBA{1, 1, 1, 1}},
	})
}

// HueGradient returns n stops evenly spaced around the hue circle, at full
// saturation and value. n is clamped to [2, MaxStops].
func HueGradient(n int) *Gradient {
	n = max(2, min(n, MaxStops))
	stops := make([]Stop, n)
	for i := range stops {
		r, g, b := hsvToRGB(float64(i)*360/float64(n), 1, 1)
		stops[i] = Stop{
			Threshold: float32(i+1) / float32(n),
			Color:     RGBA{float32(r), float32(g), float32(b), 1},
		}
	}
	return MustGradient(stops)
}

// hsvToRGB converts HSV (hue 0-360, saturation and value 0-1) to RGB in [0, 1].
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
