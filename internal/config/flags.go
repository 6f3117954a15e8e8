package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
)

// Overrides holds command-line settings applied on top of a config file.
// Zero values leave the file or default setting in place.
type Overrides struct {
	Path     string
	Width    int
	Height   int
	Iter     uint
	Substeps int
	Extent   float64
	Julia    string
	Center   string
	LogLevel string
}

// RegisterFlags binds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{}
	fs.StringVar(&o.Path, "config", "", "JSON config `file`")
	fs.IntVar(&o.Width, "w", 0, "image width in pixels")
	fs.IntVar(&o.Height, "h", 0, "image height in pixels")
	fs.UintVar(&o.Iter, "iter", 0, "maximum iterations")
	fs.IntVar(&o.Substeps, "substeps", 0, "random samples per pixel")
	fs.Float64Var(&o.Extent, "height", 0, "visible height of the complex plane")
	fs.StringVar(&o.Julia, "julia", "", "render the Julia set of `re,im`")
	fs.StringVar(&o.Center, "center", "", "view centre as `re,im`")
	fs.StringVar(&o.LogLevel, "log", "", "log level (debug, info, warn, error)")
	return o
}

// Resolve loads the config file, if any, and applies the overrides.
func (o *Overrides) Resolve() (Config, error) {
	cfg := Default()
	if o.Path != "" {
		var err error
		if cfg, err = Load(o.Path); err != nil {
			return Config{}, err
		}
	}
	if o.Width != 0 {
		cfg.Width = o.Width
	}
	if o.Height != 0 {
		cfg.Height = o.Height
	}
	if o.Iter != 0 {
		cfg.MaxIterations = uint32(min(o.Iter, 1<<32-1))
	}
	if o.Substeps != 0 {
		cfg.Substeps = o.Substeps
	}
	if o.Extent != 0 {
		cfg.ExtentY = o.Extent
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Julia != "" {
		k, err := ParsePair(o.Julia)
		if err != nil {
			return Config{}, fmt.Errorf("-julia: %w", err)
		}
		cfg.Julia = &k
	}
	if o.Center != "" {
		c, err := ParsePair(o.Center)
		if err != nil {
			return Config{}, fmt.Errorf("-center: %w", err)
		}
		cfg.Center = c
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
