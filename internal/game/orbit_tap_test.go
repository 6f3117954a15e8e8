package game

import (
	"testing"

	"github.com/faiface/beep"
)

type countStreamer struct{ n, total int }

func (c *countStreamer) Stream(samples [][2]float64) (int, bool) {
	if c.n >= c.total {
		return 0, false
	}
	k := min(len(samples), c.total-c.n)
	for i := range k {
		samples[i] = [2]float64{float64(c.n + i), 0}
	}
	c.n += k
	return k, true
}

func (c *countStreamer) Err() error { return nil }

var _ beep.Streamer = (*orbitTap)(nil)

func TestOrbitTap_RecentWrapsInOrder(t *testing.T) {
	tap := newOrbitTap(&countStreamer{total: 11}, 4)
	buf := make([][2]float64, 3)

	if got := tap.recent(10); len(got) != 0 {
		t.Fatalf("empty tap returned %v", got)
	}
	tap.Stream(buf)
	if got := tap.recent(10); len(got) != 3 || got[0][0] != 0 || got[2][0] != 2 {
		t.Errorf("recent after 3 = %v", got)
	}
	tap.Stream(buf)
	tap.Stream(buf)
	got := tap.recent(4)
	want := []float64{5, 6, 7, 8}
	for i := range want {
		if got[i][0] != want[i] {
			t.Fatalf("recent = %v, want %v", got, want)
		}
	}
	if got := tap.recent(2); got[0][0] != 7 || got[1][0] != 8 {
		t.Errorf("recent(2) = %v", got)
	}

	tap.Stream(buf)
	if !tap.playing() {
		t.Error("tap stopped early")
	}
	if _, ok := tap.Stream(buf); ok || tap.playing() {
		t.Error("drained tap still playing")
	}
}
