// Package sonify turns escape orbits into sound. The left channel follows
// the real part of each iterate and the right channel the imaginary part,
// so bounded orbits produce a periodic tone and escaping ones a short burst.
package sonify

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
)

const (
	SampleRate = beep.SampleRate(44100)

	// Hold is how many samples each iterate lasts. 100 samples per point
	// puts a period-2 orbit at about 220 Hz.
	Hold = 100

	// radius maps the bailout circle onto the full sample range.
	radius = 2.0
)

var ErrEmptyOrbit = errors.New("sonify: empty orbit")

// Streamer plays an orbit on a loop for a fixed number of samples.
type Streamer struct {
	points []complex128
	hold   int
	left   int
	pos    int
}

// NewStreamer plays orbit for d at sample rate sr, holding each iterate for
// hold samples and interpolating linearly towards the next.
func NewStreamer(orbit []complex128, hold int, sr beep.SampleRate, d time.Duration) (*Streamer, error) {
	if len(orbit) == 0 {
		return nil, ErrEmptyOrbit
	}
	if hold < 1 {
		hold = 1
	}
	return &Streamer{points: orbit, hold: hold, left: sr.N(d)}, nil
}

// ForPoint builds a streamer for the orbit of point under p.
func ForPoint(p fractal.Params, point complex128, d time.Duration) (*Streamer, error) {
	s, err := NewStreamer(p.Orbit(point), Hold, SampleRate, d)
	if err != nil {
		return nil, fmt.Errorf("orbit of %v: %w", point, err)
	}
	return s, nil
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.left <= 0 {
		return 0, false
	}
	period := len(s.points) * s.hold
	for n < len(samples) && s.left > 0 {
		i, frac := s.pos/s.hold, float64(s.pos%s.hold)/float64(s.hold)
		a, b := s.points[i], s.points[(i+1)%len(s.points)]
		z := a + complex(frac, 0)*(b-a)
		samples[n] = [2]float64{level(real(z)), level(imag(z))}
		n++
		s.left--
		s.pos = (s.pos + 1) % period
	}
	return n, true
}

func (s *Streamer) Err() error { return nil }

// Len is the number of samples left to play.
func (s *Streamer) Len() int { return s.left }

func level(v float64) float64 {
	v /= radius
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// WriteWAV drains s into a 16-bit stereo WAV file.
func WriteWAV(path string, s beep.Streamer, sr beep.SampleRate) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, s, format); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
