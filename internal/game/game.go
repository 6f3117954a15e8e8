// Package game hosts a fractal Controller in an ebiten window.
package game

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/ncruces/zenity"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
	"github.com/iburimskiy/fractal-explorer/internal/imageio"
	"github.com/iburimskiy/fractal-explorer/internal/sonify"
)

const (
	orbitDuration = 2 * time.Second
	orbitTrail    = 2048
)

const help = "Wheel: zoom  Drag: pan  R: reset  J: julia at cursor  M: mandelbrot  " +
	"A: animate  [ ]: substeps  O: play orbit  S: save  H: hide  Esc/Q: quit"

// Option configures a Game.
type Option func(*Game)

// WithInput replaces the ebiten input source.
func WithInput(in Input) Option { return func(g *Game) { g.in = in } }

// WithPulse sets the Julia animation speed toggled by A, in radians per second.
func WithPulse(pulse float64) Option { return func(g *Game) { g.pulse = pulse } }

// WithMaxSubsteps caps the supersampling factor reachable with ].
func WithMaxSubsteps(n int) Option { return func(g *Game) { g.maxSubsteps = max(1, n) } }

// WithSaveDialog replaces the native file dialog. The function returns the
// chosen path or zenity.ErrCanceled.
func WithSaveDialog(fn func() (string, error)) Option { return func(g *Game) { g.askPath = fn } }

// WithPlayer replaces the speaker used for orbit playback.
func WithPlayer(p Player) Option { return func(g *Game) { g.player = p } }

// Game implements ebiten.Game around a Controller.
type Game struct {
	ctrl *fractal.Controller
	in   Input

	pulse       float64
	maxSubsteps int
	tick        time.Duration
	askPath     func() (string, error)
	player      Player
	printer     *message.Printer

	frame    *ebiten.Image
	cursor   image.Point
	dragging bool
	tap      *orbitTap
	hideHUD  bool
	lastErr  error
}

// New returns a Game driving ctrl.
func New(ctrl *fractal.Controller, opts ...Option) *Game {
	g := &Game{
		ctrl:        ctrl,
		in:          ebitenInput{},
		pulse:       0.1,
		maxSubsteps: 64,
		tick:        time.Second / 60,
		askPath:     askSavePath,
		player:      &speakerPlayer{},
		printer:     message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Update() error {
	x, y := g.in.CursorPosition()
	cursor := pixel(x, y)

	if _, dy := g.in.Wheel(); dy != 0 {
		g.ctrl.Wheel(dy, cursor)
	}

	if g.in.MouseJustPressed() {
		g.ctrl.Press()
		g.dragging = true
	} else if g.dragging {
		g.ctrl.Drag(pixel(x-g.cursor.X, y-g.cursor.Y))
	}
	if g.in.MouseJustReleased() {
		g.ctrl.Release()
		g.dragging = false
	}
	g.cursor = image.Pt(x, y)

	switch {
	case g.in.KeyJustPressed(ebiten.KeyEscape), g.in.KeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case g.in.KeyJustPressed(ebiten.KeyR):
		g.ctrl.Reset()
	case g.in.KeyJustPressed(ebiten.KeyJ):
		g.ctrl.SetJuliaAt(cursor)
	case g.in.KeyJustPressed(ebiten.KeyM):
		g.ctrl.SetMandelbrot()
	case g.in.KeyJustPressed(ebiten.KeyA):
		if g.ctrl.Animating() {
			g.ctrl.SetAnimation(0)
		} else {
			g.ctrl.SetAnimation(g.pulse)
		}
	case g.in.KeyJustPressed(ebiten.KeyBracketLeft):
		g.stepSubsteps(-1)
	case g.in.KeyJustPressed(ebiten.KeyBracketRight):
		g.stepSubsteps(1)
	case g.in.KeyJustPressed(ebiten.KeyH):
		g.hideHUD = !g.hideHUD
	case g.in.KeyJustPressed(ebiten.KeyO):
		g.setErr(g.playOrbit(cursor))
	case g.in.KeyJustPressed(ebiten.KeyS):
		g.setErr(g.saveSnapshot())
	}

	g.ctrl.Tick(g.tick)
	return nil
}

// setErr records the outcome of a user action for the status line.
func (g *Game) setErr(err error) { g.lastErr = err }

func (g *Game) stepSubsteps(d int) {
	n := clamp(g.ctrl.Scene().Substeps+d, 1, g.maxSubsteps)
	g.setErr(g.ctrl.SetSubsteps(n))
}

func (g *Game) playOrbit(cursor fractal.Vec) error {
	s := g.ctrl.Scene()
	stream, err := sonify.ForPoint(s.Params, g.ctrl.PointAt(cursor).Complex(), orbitDuration)
	if err != nil {
		return err
	}
	tap := newOrbitTap(stream, orbitTrail)
	if err := g.player.Play(tap); err != nil {
		return fmt.Errorf("play orbit: %w", err)
	}
	g.tap = tap
	return nil
}

func askSavePath() (string, error) {
	return zenity.SelectFileSave(
		zenity.Title("Save Snapshot"),
		zenity.Filename("fractal.png"),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{{
			Name:     "Images",
			Patterns: []string{"*.png", "*.tif", "*.tiff"},
		}},
	)
}

func (g *Game) saveSnapshot() error {
	path, err := g.askPath()
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil
		}
		return err
	}
	if err := g.ctrl.Present(func(img *image.RGBA) error {
		return imageio.Save(path, img)
	}); err != nil {
		return err
	}
	fractal.Logger().Info("snapshot saved", "path", path)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	err := g.ctrl.Present(func(img *image.RGBA) error {
		w, h := img.Rect.Dx(), img.Rect.Dy()
		if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
			if g.frame != nil {
				g.frame.Deallocate()
			}
			g.frame = ebiten.NewImage(w, h)
		}
		g.frame.WritePixels(img.Pix)
		return nil
	})
	if err != nil && !errors.Is(err, fractal.ErrNoFrame) {
		fractal.Logger().Debug("present failed", "err", err)
	}
	if g.frame != nil {
		screen.DrawImage(g.frame, nil)
	}

	g.drawOrbit(screen)
	if !g.hideHUD {
		g.drawHUD(screen)
	}
}

var trailColor = color.RGBA{0x40, 0xe0, 0xff, 0xff}

// drawOrbit traces the samples the speaker played last back onto the plane.
func (g *Game) drawOrbit(screen *ebiten.Image) {
	if g.tap == nil {
		return
	}
	if !g.tap.playing() {
		g.tap = nil
		return
	}
	s := g.ctrl.Scene()
	w, h := g.ctrl.Size()
	size := fractal.Vec{X: float64(w), Y: float64(h)}
	pts := g.tap.recent(orbitTrail)
	for i := sonify.Hold; i < len(pts); i += sonify.Hold {
		a := s.View.ComplexToScreen(sampleToPlane(pts[i-sonify.Hold]), size)
		b := s.View.ComplexToScreen(sampleToPlane(pts[i]), size)
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), 1, trailColor, true)
	}
}

func sampleToPlane(s [2]float64) fractal.Vec {
	return fractal.Vec{X: 2 * s[0], Y: 2 * s[1]}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	s := g.ctrl.Scene()
	st := g.ctrl.Stats()
	w, h := g.ctrl.Size()

	status := g.printer.Sprintf("%s  iterations %d  substeps %d  %.3g/px",
		s.Params.Kind, s.Params.MaxIterations, s.Substeps,
		s.View.Scale(fractal.Vec{X: float64(w), Y: float64(h)}))
	if s.Params.Kind == fractal.Julia {
		status += fmt.Sprintf("  c=%.6g", s.Params.Constant)
	}
	status += g.printer.Sprintf("\nrender %s  passes %d  %dx%d", formatElapsed(st.Elapsed), st.Passes, w, h)
	if st.Err != nil {
		status += "\nRender rejected: " + st.Err.Error()
	}
	if g.lastErr != nil {
		status += "\nError: " + g.lastErr.Error()
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)
	ebitenutil.DebugPrintAt(screen, help, 12, h-20)
}

// Layout tracks the window size so the fractal is rendered at native resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if err := g.ctrl.Resize(outsideWidth, outsideHeight); err != nil {
		g.lastErr = err
		return g.ctrl.Size()
	}
	return outsideWidth, outsideHeight
}
