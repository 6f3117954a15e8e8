package fractal

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrBufferSize = errors.New("fractal: pixel buffer does not match its declared size")
	ErrSubsteps   = errors.New("fractal: substeps must be at least 1")
	ErrGradient   = errors.New("fractal: scene has no gradient")
)

// Scene is the immutable snapshot a render pass reads.
type Scene struct {
	View     View
	Gradient *Gradient
	Params   Params
	// Substeps is the number of jittered samples per pixel. 1 disables supersampling.
	Substeps int
}

// Validate checks every precondition of a render pass that does not
// depend on the target buffer.
func (s Scene) Validate() error {
	if err := s.View.Validate(); err != nil {
		return err
	}
	if s.Gradient == nil || s.Gradient.Len() == 0 {
		return ErrGradient
	}
	if err := s.Params.Validate(); err != nil {
		return err
	}
	if s.Substeps < 1 {
		return fmt.Errorf("%w: got %d", ErrSubsteps, s.Substeps)
	}
	return nil
}

// NewBuffer allocates a zeroed RGBA8 buffer of the given size.
func NewBuffer(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWorkers bounds the number of chunks rendered concurrently.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Renderer) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		r.workers = n
	}
}

// WithRowsPerChunk sets how many rows a single work item covers.
func WithRowsPerChunk(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.rowsPerChunk = n
		}
	}
}

// WithSeed fixes the supersampling jitter sequence.
func WithSeed(seed uint64) Option {
	return func(r *Renderer) {
		r.seed = seed
	}
}

// Renderer fills pixel buffers from scenes. A Renderer holds no per-pass
// state and may be shared, though each buffer must have one writer at a time.
type Renderer struct {
	workers      int
	rowsPerChunk int
	seed         uint64
}

// NewRenderer returns a renderer using GOMAXPROCS workers and 8-row chunks.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		workers:      runtime.GOMAXPROCS(0),
		rowsPerChunk: 8,
		seed:         0x9e3779b97f4a7c15,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Workers returns the concurrency bound of the renderer.
func (r *Renderer) Workers() int { return r.workers }

func checkBuffer(dst *image.RGBA) error {
	if dst == nil {
		return fmt.Errorf("%w: nil buffer", ErrBufferSize)
	}
	b := dst.Rect
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: screen %dx%d", ErrDegenerateView, b.Dx(), b.Dy())
	}
	if b.Min != (image.Point{}) {
		return fmt.Errorf("%w: origin at %v", ErrBufferSize, b.Min)
	}
	w, h := b.Dx(), b.Dy()
	if dst.Stride != 4*w || len(dst.Pix) != 4*w*h {
		return fmt.Errorf("%w: %d bytes with stride %d for %dx%d", ErrBufferSize, len(dst.Pix), dst.Stride, w, h)
	}
	return nil
}

// Render fills dst with the scene. All preconditions are checked before the
// first byte is written; on error dst is left unmodified.
func (r *Renderer) Render(dst *image.RGBA, s Scene) error {
	if err := checkBuffer(dst); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	start := time.Now()
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	screen := Vec{X: float64(w), Y: float64(h)}

	var g errgroup.Group
	g.SetLimit(r.workers)

	chunks := 0
	for y0 := 0; y0 < h; y0 += r.rowsPerChunk {
		y1 := min(y0+r.rowsPerChunk, h)
		rows := dst.Pix[y0*dst.Stride : y1*dst.Stride]
		chunk := uint64(chunks)
		g.Go(func() error {
			r.renderRows(rows, dst.Stride, y0, y1, w, screen, &s, chunk)
			return nil
		})
		chunks++
	}
	// Chunk workers are pure arithmetic and never fail.
	_ = g.Wait()

	Logger().Debug("render pass",
		"width", w, "height", h,
		"chunks", chunks, "substeps", s.Substeps,
		"iterations", s.Params.MaxIterations,
		"elapsed", time.Since(start))
	return nil
}

// renderRows writes rows [y0, y1) into pix, which starts at row y0.
func (r *Renderer) renderRows(pix []byte, stride, y0, y1, w int, screen Vec, s *Scene, chunk uint64) {
	var rng *rand.Rand
	if s.Substeps > 1 {
		rng = rand.New(rand.NewPCG(r.seed, chunk))
	}
	inv := 1 / float32(s.Substeps)

	for y := y0; y < y1; y++ {
		row := pix[(y-y0)*stride : (y-y0+1)*stride]
		for x := 0; x < w; x++ {
			var c RGBA
			if rng == nil {
				c = sample(s, float64(x)+0.5, float64(y)+0.5, screen)
			} else {
				for range s.Substeps {
					c = c.Add(sample(s, float64(x)+rng.Float64(), float64(y)+rng.Float64(), screen))
				}
				c = c.Scale(inv)
			}
			px := c.RGBA8()
			i := 4 * x
			row[i+0] = px.R
			row[i+1] = px.G
			row[i+2] = px.B
			row[i+3] = px.A
		}
	}
}

func sample(s *Scene, px, py float64, screen Vec) RGBA {
	p := s.View.ScreenToComplex(Vec{X: px, Y: py}, screen)
	return s.Gradient.At(s.Params.Evaluate(p.Complex()))
}
