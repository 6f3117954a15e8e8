package stream

import (
	"errors"
	"fmt"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
)

var ErrUnknownEvent = errors.New("stream: unknown event type")

// Event is a client intent message.
//
//	{"type": "wheel", "delta": 1, "x": 320, "y": 200}
//	{"type": "press"} / {"type": "release"}
//	{"type": "drag", "dx": 4, "dy": -2}
//	{"type": "resize", "width": 800, "height": 600}
//	{"type": "julia", "x": 100, "y": 80} or {"type": "julia", "c": [-0.8, 0.156]}
//	{"type": "mandelbrot"} / {"type": "reset"}
//	{"type": "substeps", "n": 4}
type Event struct {
	Type   string      `json:"type"`
	Delta  float64     `json:"delta,omitempty"`
	X      float64     `json:"x,omitempty"`
	Y      float64     `json:"y,omitempty"`
	DX     float64     `json:"dx,omitempty"`
	DY     float64     `json:"dy,omitempty"`
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
	C      *[2]float64 `json:"c,omitempty"`
	N      int         `json:"n,omitempty"`
}

// Apply forwards e to ctrl.
func (e Event) Apply(ctrl *fractal.Controller) error {
	switch e.Type {
	case "wheel":
		ctrl.Wheel(e.Delta, fractal.Vec{X: e.X, Y: e.Y})
	case "press":
		ctrl.Press()
	case "release":
		ctrl.Release()
	case "drag":
		ctrl.Drag(fractal.Vec{X: e.DX, Y: e.DY})
	case "resize":
		return ctrl.Resize(e.Width, e.Height)
	case "julia":
		if e.C != nil {
			ctrl.SetJulia(complex(e.C[0], e.C[1]))
		} else {
			ctrl.SetJuliaAt(fractal.Vec{X: e.X, Y: e.Y})
		}
	case "mandelbrot":
		ctrl.SetMandelbrot()
	case "reset":
		ctrl.Reset()
	case "substeps":
		return ctrl.SetSubsteps(e.N)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
	return nil
}

// errorMessage is sent as a text frame when an event or pass is rejected.
type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
