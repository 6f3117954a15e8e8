package fractal

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/cmplx"
	"sync"
	"time"
)

// ErrNoFrame is returned by Present when no pass has succeeded yet.
var ErrNoFrame = errors.New("fractal: no frame rendered")

// ControllerOption configures a Controller.
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	step        uint32
	floor       uint32
	zoomIn      float64
	zoomOut     float64
	centerZoom  bool
	maxPixels   int
	maxSubsteps int
}

func defaultControllerOptions() controllerOptions {
	return controllerOptions{
		step:        3,
		floor:       100,
		zoomIn:      0.9,
		zoomOut:     1.1,
		maxPixels:   DefaultMaxPixels,
		maxSubsteps: DefaultMaxSubsteps,
	}
}

const (
	// DefaultMaxPixels bounds the buffer a Controller allocates (8192x8192).
	DefaultMaxPixels = 1 << 26
	// DefaultMaxSubsteps bounds the supersampling factor of a Controller.
	DefaultMaxSubsteps = 64
)

// WithMaxPixels sets the largest width*height Resize accepts.
func WithMaxPixels(n int) ControllerOption {
	return func(o *controllerOptions) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

// WithMaxSubsteps sets the largest supersampling factor SetSubsteps accepts.
func WithMaxSubsteps(n int) ControllerOption {
	return func(o *controllerOptions) {
		if n > 0 {
			o.maxSubsteps = n
		}
	}
}

// WithIterationStep sets how many iterations one wheel notch adds or removes.
func WithIterationStep(n uint32) ControllerOption {
	return func(o *controllerOptions) { o.step = n }
}

// WithIterationFloor sets the lower bound zooming out can bring the
// iteration count down to.
func WithIterationFloor(n uint32) ControllerOption {
	return func(o *controllerOptions) { o.floor = n }
}

// WithZoomFactors sets the extent multipliers applied per wheel notch.
func WithZoomFactors(in, out float64) ControllerOption {
	return func(o *controllerOptions) {
		if in > 0 && in < 1 {
			o.zoomIn = in
		}
		if out > 1 {
			o.zoomOut = out
		}
	}
}

// WithCenterZoom zooms around the view centre instead of the cursor.
func WithCenterZoom() ControllerOption {
	return func(o *controllerOptions) { o.centerZoom = true }
}

// Stats describes the most recent render pass.
type Stats struct {
	Passes  uint64
	Elapsed time.Duration
	Width   int
	Height  int
	Err     error
}

// Controller turns intent events into scene mutations and renders them.
//
// Intent methods only touch the pending scene and never wait for a pass,
// so events arriving while a pass runs are coalesced into the next one.
// Present renders the pending scene if it changed and then lends the buffer
// to the caller. Controller is safe for concurrent use.
type Controller struct {
	renderer *Renderer
	opts     controllerOptions

	mu      sync.Mutex // guards the fields below
	initial Scene
	pending Scene
	width   int
	height  int
	dirty   bool
	pressed bool
	pulse   float64
	warned  bool
	stats   Stats

	passMu sync.Mutex // held for a pass and its presentation
	buf    *image.RGBA
}

// NewController validates s against a width x height screen. The view
// extent is adjusted to the screen aspect before validation.
func NewController(r *Renderer, s Scene, width, height int, opts ...ControllerOption) (*Controller, error) {
	if r == nil {
		r = NewRenderer()
	}
	o := defaultControllerOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := s.View.Resize(Vec{X: float64(width), Y: float64(height)}); err != nil {
		return nil, err
	}
	if err := o.checkSize(width, height); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Substeps > o.maxSubsteps {
		return nil, fmt.Errorf("%w: %d above %d", ErrSubsteps, s.Substeps, o.maxSubsteps)
	}
	return &Controller{
		renderer: r,
		opts:     o,
		initial:  s,
		pending:  s,
		width:    width,
		height:   height,
		dirty:    true,
	}, nil
}

// checkSize assumes a positive width and height.
func (o controllerOptions) checkSize(width, height int) error {
	if width > o.maxPixels/height {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrBufferSize, width, height, o.maxPixels)
	}
	return nil
}

func (c *Controller) screen() Vec {
	return Vec{X: float64(c.width), Y: float64(c.height)}
}

// Wheel zooms in for deltaY > 0 and out otherwise, adjusting the iteration
// budget with the zoom depth.
func (c *Controller) Wheel(deltaY float64, cursor Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &c.pending.Params
	f := c.opts.zoomOut
	if deltaY > 0 {
		f = c.opts.zoomIn
		if p.MaxIterations > math.MaxUint32-c.opts.step {
			p.MaxIterations = math.MaxUint32
		} else {
			p.MaxIterations += c.opts.step
		}
	} else if p.MaxIterations > c.opts.floor {
		if p.MaxIterations-c.opts.floor < c.opts.step {
			p.MaxIterations = c.opts.floor
		} else {
			p.MaxIterations -= c.opts.step
		}
	}

	if c.opts.centerZoom {
		c.pending.View.Zoom(f)
	} else {
		c.pending.View.ZoomAt(f, cursor, c.screen())
	}
	c.checkPrecision()
	c.dirty = true
}

func (c *Controller) checkPrecision() {
	exhausted := c.pending.View.PrecisionExhausted(c.screen())
	if exhausted && !c.warned {
		Logger().Warn("float64 precision exhausted, image will pixelate",
			"scale", c.pending.View.Scale(c.screen()))
	}
	c.warned = exhausted
}

// Press records that the primary pointer button is held.
func (c *Controller) Press() {
	c.mu.Lock()
	c.pressed = true
	c.mu.Unlock()
}

// Release records that the primary pointer button was released.
func (c *Controller) Release() {
	c.mu.Lock()
	c.pressed = false
	c.mu.Unlock()
}

// Pressed reports whether the primary pointer button is held.
func (c *Controller) Pressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pressed
}

// Drag pans by a pixel delta while the primary button is held.
func (c *Controller) Drag(delta Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pressed || delta == (Vec{}) {
		return
	}
	c.pending.View.Pan(delta, c.screen())
	c.dirty = true
}

// Resize adapts the view and the buffer to a new screen size.
func (c *Controller) Resize(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width == c.width && height == c.height {
		return nil
	}
	v := c.pending.View
	if err := v.Resize(Vec{X: float64(width), Y: float64(height)}); err != nil {
		return err
	}
	if err := c.opts.checkSize(width, height); err != nil {
		return err
	}
	c.pending.View = v
	c.width, c.height = width, height
	c.dirty = true
	Logger().Info("viewport resized", "width", width, "height", height)
	return nil
}

// SetJulia switches to the Julia iteration with the given constant.
func (c *Controller) SetJulia(k complex128) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Params.Kind = Julia
	c.pending.Params.Constant = k
	c.dirty = true
	Logger().Info("julia mode", "constant", k)
}

// SetJuliaAt switches to the Julia iteration using the point under cursor
// as the constant.
func (c *Controller) SetJuliaAt(cursor Vec) {
	c.SetJulia(c.PointAt(cursor).Complex())
}

// SetMandelbrot switches to the Mandelbrot iteration.
func (c *Controller) SetMandelbrot() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending.Params.Kind == Mandelbrot {
		return
	}
	c.pending.Params.Kind = Mandelbrot
	c.dirty = true
	Logger().Info("mandelbrot mode")
}

// SetSubsteps changes the supersampling factor, which must lie between 1
// and the configured maximum.
func (c *Controller) SetSubsteps(n int) error {
	if n < 1 || n > c.opts.maxSubsteps {
		return fmt.Errorf("%w: %d outside [1, %d]", ErrSubsteps, n, c.opts.maxSubsteps)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending.Substeps != n {
		c.pending.Substeps = n
		c.dirty = true
	}
	return nil
}

// SetAnimation rotates the Julia constant at pulse radians per second on
// every Tick. Zero stops the animation.
func (c *Controller) SetAnimation(pulse float64) {
	c.mu.Lock()
	c.pulse = pulse
	c.mu.Unlock()
}

// Animating reports whether Tick changes the scene.
func (c *Controller) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulse != 0 && c.pending.Params.Kind == Julia
}

// Tick advances the animation by dt.
func (c *Controller) Tick(dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pulse == 0 || c.pending.Params.Kind != Julia || dt <= 0 {
		return
	}
	c.pending.Params.Constant *= cmplx.Rect(1, c.pulse*dt.Seconds())
	c.dirty = true
}

// Reset restores the scene the controller was created with, keeping the
// current screen size.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = c.initial
	// The initial view was valid for a positive screen, so this cannot fail.
	_ = c.pending.View.Resize(c.screen())
	c.warned = false
	c.dirty = true
	Logger().Info("view reset")
}

// PointAt maps a pixel position to the complex plane using the pending view.
func (c *Controller) PointAt(cursor Vec) Vec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.View.ScreenToComplex(cursor, c.screen())
}

// Scene returns a snapshot of the pending scene.
func (c *Controller) Scene() Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Size returns the current screen size.
func (c *Controller) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Dirty reports whether a change is waiting for the next pass.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Stats returns the statistics of the most recent pass.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Present renders pending changes, if any, and calls fn with exclusive
// access to the finished buffer. fn must not retain the buffer. If the pass
// is rejected fn is not called, the previous buffer is kept intact and the
// scene stays dirty so the next Present tries again.
func (c *Controller) Present(fn func(*image.RGBA) error) error {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	c.mu.Lock()
	dirty := c.dirty
	s, w, h := c.pending, c.width, c.height
	c.dirty = false
	c.mu.Unlock()

	if dirty {
		if err := c.render(s, w, h); err != nil {
			return err
		}
	}
	if c.buf == nil {
		return ErrNoFrame
	}
	if fn == nil {
		return nil
	}
	return fn(c.buf)
}

func (c *Controller) render(s Scene, w, h int) error {
	buf := c.buf
	if buf == nil || buf.Rect.Dx() != w || buf.Rect.Dy() != h {
		buf = NewBuffer(w, h)
	}

	start := time.Now()
	err := c.renderer.Render(buf, s)
	elapsed := time.Since(start)

	c.mu.Lock()
	prev := c.stats.Err
	c.stats.Err = err
	if err != nil {
		c.dirty = true
	} else {
		c.stats.Passes++
		c.stats.Elapsed = elapsed
		c.stats.Width, c.stats.Height = w, h
	}
	c.mu.Unlock()

	if err != nil {
		if prev == nil {
			Logger().Warn("render pass rejected", "err", err)
		}
		return err
	}
	c.buf = buf
	return nil
}
