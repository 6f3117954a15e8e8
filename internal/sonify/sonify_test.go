package sonify

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep/wav"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
)

func drain(s *Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 64)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

func TestStreamer_PlaysForDuration(t *testing.T) {
	s, err := NewStreamer([]complex128{-1, 0}, 4, 1000, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	got := drain(s)
	if len(got) != 50 {
		t.Fatalf("played %d samples, want 50", len(got))
	}
	// Held point, then the ramp towards the next one.
	if got[0] != [2]float64{-0.5, 0} || got[2] != [2]float64{-0.25, 0} || got[4] != [2]float64{0, 0} {
		t.Errorf("samples = %v", got[:8])
	}
	// The orbit loops back to its start.
	if got[8] != got[0] {
		t.Errorf("sample 8 = %v, want loop to %v", got[8], got[0])
	}
	if n, ok := s.Stream(make([][2]float64, 4)); n != 0 || ok {
		t.Errorf("drained streamer returned %d, %v", n, ok)
	}
}

func TestStreamer_ClampsToUnitRange(t *testing.T) {
	s, err := NewStreamer([]complex128{complex(100, -100)}, 1, 100, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range drain(s) {
		if v != [2]float64{1, -1} {
			t.Fatalf("sample %v outside [-1, 1]", v)
		}
	}
}

func TestNewStreamer_RejectsEmptyOrbit(t *testing.T) {
	if _, err := NewStreamer(nil, 1, 100, time.Second); !errors.Is(err, ErrEmptyOrbit) {
		t.Errorf("NewStreamer(nil) = %v", err)
	}
	p := fractal.Params{MaxIterations: 0, BailoutSquared: 4}
	if _, err := ForPoint(p, 0, time.Second); !errors.Is(err, ErrEmptyOrbit) {
		t.Errorf("ForPoint with no iterations = %v", err)
	}
}

func TestWriteWAV(t *testing.T) {
	p := fractal.Params{MaxIterations: 100, BailoutSquared: fractal.DefaultBailoutSquared}
	s, err := ForPoint(p, -0.75+0.1i, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "orbit.wav")
	if err := WriteWAV(path, s, SampleRate); err != nil {
		t.Fatalf("WriteWAV() = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, format, err := wav.Decode(f)
	if err != nil {
		t.Fatalf("wav.Decode() = %v", err)
	}
	defer dec.Close()
	if format.SampleRate != SampleRate || format.NumChannels != 2 {
		t.Errorf("format = %+v", format)
	}
	if want := SampleRate.N(100 * time.Millisecond); dec.Len() != want {
		t.Errorf("decoded %d samples, want %d", dec.Len(), want)
	}
}
