package game

import (
	"sync"

	"github.com/faiface/beep"
)

// orbitTap wraps the orbit streamer handed to the speaker and keeps the most
// recently played samples so Draw can trace them over the fractal.
type orbitTap struct {
	src beep.Streamer

	mu   sync.RWMutex
	ring [][2]float64
	next int
	full bool
	done bool
}

func newOrbitTap(src beep.Streamer, size int) *orbitTap {
	return &orbitTap{src: src, ring: make([][2]float64, size)}
}

func (t *orbitTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.src.Stream(samples)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range samples[:n] {
		t.ring[t.next] = s
		t.next++
		if t.next == len(t.ring) {
			t.next, t.full = 0, true
		}
	}
	if !ok {
		t.done = true
	}
	return n, ok
}

func (t *orbitTap) Err() error { return t.src.Err() }

// playing reports whether the speaker is still pulling samples.
func (t *orbitTap) playing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.done
}

// recent returns up to n of the latest samples, oldest first.
func (t *orbitTap) recent(n int) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	have := t.next
	if t.full {
		have = len(t.ring)
	}
	n = min(n, have)
	out := make([][2]float64, 0, n)
	start := t.next - n
	if start < 0 {
		out = append(out, t.ring[len(t.ring)+start:]...)
		start = 0
	}
	return append(out, t.ring[start:t.next]...)
}
