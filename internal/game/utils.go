package game

import (
	"fmt"
	"time"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
)

func pixel(x, y int) fractal.Vec {
	return fractal.Vec{X: float64(x), Y: float64(y)}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// formatElapsed formats a render time as milliseconds with one decimal.
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}
