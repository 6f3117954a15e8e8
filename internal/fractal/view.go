package fractal

import (
	"errors"
	"fmt"
	"math"
)

var ErrDegenerateView = errors.New("fractal: degenerate viewport")

// Vec is a 2D vector, used both for pixel positions and complex-plane points.
type Vec struct {
	X, Y float64
}

// Complex returns v as a complex number X + Yi.
func (v Vec) Complex() complex128 { return complex(v.X, v.Y) }

func positive(f float64) bool { return f > 0 && !math.IsInf(f, 1) }

// View maps pixels to the complex plane. Center is the point under the
// middle of the screen, Extent the visible width (X) and height (Y).
type View struct {
	Center Vec
	Extent Vec
}

// NewView returns a view centred at center, extentY high, with the width
// derived from the screen aspect.
func NewView(center Vec, extentY float64, screen Vec) (View, error) {
	v := View{Center: center, Extent: Vec{X: extentY, Y: extentY}}
	if err := v.Resize(screen); err != nil {
		return View{}, err
	}
	return v, v.Validate()
}

// Validate rejects non-positive or non-finite extents and non-finite centres.
func (v View) Validate() error {
	if !positive(v.Extent.X) || !positive(v.Extent.Y) {
		return fmt.Errorf("%w: extent %vx%v", ErrDegenerateView, v.Extent.X, v.Extent.Y)
	}
	if math.IsNaN(v.Center.X) || math.IsNaN(v.Center.Y) ||
		math.IsInf(v.Center.X, 0) || math.IsInf(v.Center.Y, 0) {
		return fmt.Errorf("%w: center %v", ErrDegenerateView, v.Center)
	}
	return nil
}

func validScreen(screen Vec) error {
	if !positive(screen.X) || !positive(screen.Y) {
		return fmt.Errorf("%w: screen %vx%v", ErrDegenerateView, screen.X, screen.Y)
	}
	return nil
}

// ScreenToComplex maps a pixel position to the complex plane. Screen y
// grows downward while the imaginary axis grows upward.
func (v View) ScreenToComplex(px, screen Vec) Vec {
	return Vec{
		X: (px.X-screen.X/2)/screen.X*v.Extent.X + v.Center.X,
		Y: (screen.Y/2-px.Y)/screen.Y*v.Extent.Y + v.Center.Y,
	}
}

// ComplexToScreen is the inverse of ScreenToComplex.
func (v View) ComplexToScreen(p, screen Vec) Vec {
	return Vec{
		X: (p.X-v.Center.X)/v.Extent.X*screen.X + screen.X/2,
		Y: screen.Y/2 - (p.Y-v.Center.Y)/v.Extent.Y*screen.Y,
	}
}

// Zoom scales the extent around the centre. f < 1 zooms in. A zoom that
// would leave the normal float64 range on either axis is ignored.
func (v *View) Zoom(f float64) {
	x, y := v.Extent.X*f, v.Extent.Y*f
	if !normal(x) || !normal(y) {
		return
	}
	v.Extent.X, v.Extent.Y = x, y
}

// minNormal is the smallest positive normal float64.
const minNormal = 0x1p-1022

func normal(f float64) bool { return f >= minNormal && !math.IsInf(f, 1) }

// ZoomAt scales the extent by f keeping the point under cursor fixed.
func (v *View) ZoomAt(f float64, cursor, screen Vec) {
	before := v.ScreenToComplex(cursor, screen)
	v.Zoom(f)
	after := v.ScreenToComplex(cursor, screen)
	v.Center.X += before.X - after.X
	v.Center.Y += before.Y - after.Y
}

// Pan moves the view by a pixel delta so that content follows the cursor.
func (v *View) Pan(delta, screen Vec) {
	v.Center.X -= delta.X / screen.X * v.Extent.X
	v.Center.Y += delta.Y / screen.Y * v.Extent.Y
}

// Resize restores the aspect invariant for a new screen size. The height
// is authoritative: only Extent.X changes.
func (v *View) Resize(screen Vec) error {
	if err := validScreen(screen); err != nil {
		return err
	}
	v.Extent.X = v.Extent.Y * screen.X / screen.Y
	return nil
}

// Scale returns the complex-plane height of one pixel row.
func (v View) Scale(screen Vec) float64 {
	return v.Extent.Y / screen.Y
}

// PrecisionExhausted reports whether neighbouring pixels can no longer be
// distinguished in float64 around the current centre.
func (v View) PrecisionExhausted(screen Vec) bool {
	step := math.Min(v.Extent.X/screen.X, v.Extent.Y/screen.Y)
	mag := math.Max(math.Max(math.Abs(v.Center.X), math.Abs(v.Center.Y)), 1)
	return step < mag*64*epsilon64
}

// epsilon64 is the gap between 1 and the next float64.
var epsilon64 = math.Nextafter(1, 2) - 1
