package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
)

const (
	WindowWidth  = 1280
	WindowHeight = 720

	// View defaults: the whole Mandelbrot set, two units high.
	CenterX = -0.5
	CenterY = 0.0
	ExtentY = 2.0

	MaxIterations  = 100
	MinIterations  = 100
	IterationStep  = 3
	BailoutSquared = fractal.DefaultBailoutSquared

	Substeps    = 1
	MaxSubsteps = fractal.DefaultMaxSubsteps

	// MaxPixels bounds the window or client size a Controller accepts.
	MaxPixels = 1 << 24

	// Pulse is the Julia animation speed in radians per second.
	Pulse = 0.1
)

// Color is a colour written as "#rrggbb" or "#rrggbbaa" in JSON.
type Color fractal.RGBA

func (c Color) MarshalJSON() ([]byte, error) {
	v := fractal.RGBA(c).RGBA8()
	return json.Marshal(fmt.Sprintf("#%02x%02x%02x%02x", v.R, v.G, v.B, v.A))
}

func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("config: colour %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("config: colour %q: %w", s, err)
	}
	ch := func(shift uint) float32 { return float32((v>>shift)&0xff) / 255 }
	return Color{R: ch(24), G: ch(16), B: ch(8), A: ch(0)}, nil
}

// Stop is a gradient stop in a config file.
type Stop struct {
	Threshold float32 `json:"threshold"`
	Color     Color   `json:"color"`
}

// Gradient selects a preset by name or lists stops explicitly.
// Stops take precedence over Preset.
type Gradient struct {
	Preset string `json:"preset,omitempty"`
	Stops  []Stop `json:"stops,omitempty"`
}

// Config is the construction-time configuration of a renderer and viewer.
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Center  [2]float64 `json:"center"`
	ExtentY float64    `json:"extent_y"`

	MaxIterations  uint32  `json:"max_iterations"`
	MinIterations  uint32  `json:"min_iterations"`
	IterationStep  uint32  `json:"iteration_step"`
	BailoutSquared float64 `json:"bailout_squared"`

	// Julia selects the Julia iteration with this constant when set.
	Julia *[2]float64 `json:"julia,omitempty"`

	Substeps int     `json:"substeps"`
	Workers  int     `json:"workers"`
	Seed     uint64  `json:"seed,omitempty"`
	Pulse    float64 `json:"pulse"`

	Gradient Gradient `json:"gradient"`
	LogLevel string   `json:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Width:          WindowWidth,
		Height:         WindowHeight,
		Center:         [2]float64{CenterX, CenterY},
		ExtentY:        ExtentY,
		MaxIterations:  MaxIterations,
		MinIterations:  MinIterations,
		IterationStep:  IterationStep,
		BailoutSquared: BailoutSquared,
		Substeps:       Substeps,
		Pulse:          Pulse,
		Gradient:       Gradient{Preset: "fire"},
		LogLevel:       "info",
	}
}

// Load reads a JSON config file on top of the defaults. Fields missing from
// the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

var errInvalid = errors.New("invalid config")

// Validate checks the config without building a scene.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", errInvalid, c.Width, c.Height)
	case c.Substeps < 1 || c.Substeps > MaxSubsteps:
		return fmt.Errorf("%w: substeps %d outside [1, %d]", errInvalid, c.Substeps, MaxSubsteps)
	case c.IterationStep == 0:
		return fmt.Errorf("%w: iteration step must be positive", errInvalid)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	_, err := c.Scene()
	return err
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", errInvalid, c.LogLevel)
	}
	return l, nil
}

// BuildGradient resolves the configured gradient.
func (c Config) BuildGradient() (*fractal.Gradient, error) {
	if len(c.Gradient.Stops) > 0 {
		stops := make([]fractal.Stop, len(c.Gradient.Stops))
		for i, s := range c.Gradient.Stops {
			stops[i] = fractal.Stop{Threshold: s.Threshold, Color: fractal.RGBA(s.Color)}
		}
		return fractal.NewGradient(stops)
	}
	return Preset(c.Gradient.Preset)
}

// Preset returns a named gradient: "fire" (the default), "gray" or
// "hue-N" for an N-stop rainbow.
func Preset(name string) (*fractal.Gradient, error) {
	switch name {
	case "", "fire":
		return fractal.DefaultGradient(), nil
	case "gray", "grey":
		return fractal.GrayGradient(), nil
	}
	if n, ok := strings.CutPrefix(name, "hue-"); ok {
		stops, err := strconv.Atoi(n)
		if err == nil && stops >= 2 && stops <= fractal.MaxStops {
			return fractal.HueGradient(stops), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown gradient preset %q", errInvalid, name)
}

// Params returns the escape parameters.
func (c Config) Params() fractal.Params {
	p := fractal.Params{
		MaxIterations:  c.MaxIterations,
		BailoutSquared: c.BailoutSquared,
	}
	if c.Julia != nil {
		p.Kind = fractal.Julia
		p.Constant = complex(c.Julia[0], c.Julia[1])
	}
	return p
}

// Scene builds and validates the initial render scene.
func (c Config) Scene() (fractal.Scene, error) {
	g, err := c.BuildGradient()
	if err != nil {
		return fractal.Scene{}, err
	}
	v, err := fractal.NewView(
		fractal.Vec{X: c.Center[0], Y: c.Center[1]},
		c.ExtentY,
		fractal.Vec{X: float64(c.Width), Y: float64(c.Height)},
	)
	if err != nil {
		return fractal.Scene{}, err
	}
	s := fractal.Scene{View: v, Gradient: g, Params: c.Params(), Substeps: c.Substeps}
	return s, s.Validate()
}

// RendererOptions returns the renderer options implied by the config.
func (c Config) RendererOptions() []fractal.Option {
	opts := []fractal.Option{fractal.WithWorkers(c.Workers)}
	if c.Seed != 0 {
		opts = append(opts, fractal.WithSeed(c.Seed))
	}
	return opts
}

// ControllerOptions returns the controller options implied by the config.
func (c Config) ControllerOptions() []fractal.ControllerOption {
	return []fractal.ControllerOption{
		fractal.WithIterationStep(c.IterationStep),
		fractal.WithIterationFloor(c.MinIterations),
		fractal.WithMaxSubsteps(MaxSubsteps),
		fractal.WithMaxPixels(MaxPixels),
	}
}

// ParsePair parses "re,im" into two floats.
func ParsePair(s string) ([2]float64, error) {
	re, im, ok := strings.Cut(s, ",")
	if !ok {
		return [2]float64{}, fmt.Errorf("%w: %q is not re,im", errInvalid, s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(re), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("%w: %q: %v", errInvalid, s, err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(im), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("%w: %q: %v", errInvalid, s, err)
	}
	return [2]float64{a, b}, nil
}
