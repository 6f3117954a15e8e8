// Command fractalrender renders a single frame to a PNG or TIFF file, and
// optionally the orbit of one point to a WAV file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iburimskiy/fractal-explorer/internal/config"
	"github.com/iburimskiy/fractal-explorer/internal/fractal"
	"github.com/iburimskiy/fractal-explorer/internal/imageio"
	"github.com/iburimskiy/fractal-explorer/internal/sonify"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("fractalrender: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("fractalrender", flag.ContinueOnError)
	overrides := config.RegisterFlags(fs)
	out := fs.String("o", "fractal.png", "output `file` (.png, .tif or .tiff)")
	scale := fs.Int("scale", 1, "render at `n` times the size and downsample")
	orbitWAV := fs.String("orbit-wav", "", "also write the orbit of -orbit to this WAV `file`")
	orbitAt := fs.String("orbit", "", "orbit start point as `re,im` (default: view centre)")
	orbitLen := fs.Duration("orbit-length", 3*time.Second, "orbit audio length")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := overrides.Resolve()
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	fractal.SetLogger(logger)

	if _, err := imageio.FormatFor(*out); err != nil {
		return err
	}
	n := *scale
	if n < 1 {
		return fmt.Errorf("-scale must be at least 1, got %d", n)
	}

	w, h := cfg.Width, cfg.Height
	cfg.Width, cfg.Height = w*n, h*n
	scene, err := cfg.Scene()
	if err != nil {
		return err
	}

	buf := fractal.NewBuffer(cfg.Width, cfg.Height)
	start := time.Now()
	if err := fractal.NewRenderer(cfg.RendererOptions()...).Render(buf, scene); err != nil {
		return err
	}
	logger.Info("rendered", "kind", scene.Params.Kind, "width", cfg.Width, "height", cfg.Height,
		"iterations", scene.Params.MaxIterations, "substeps", scene.Substeps, "elapsed", time.Since(start))

	img := buf
	if n > 1 {
		img = imageio.Downsample(buf, w, h)
	}
	if err := imageio.Save(*out, img); err != nil {
		return err
	}
	logger.Info("wrote image", "path", *out)

	if *orbitWAV == "" {
		return nil
	}
	point := scene.View.Center.Complex()
	if *orbitAt != "" {
		p, err := config.ParsePair(*orbitAt)
		if err != nil {
			return fmt.Errorf("-orbit: %w", err)
		}
		point = complex(p[0], p[1])
	}
	s, err := sonify.ForPoint(scene.Params, point, *orbitLen)
	if err != nil {
		return err
	}
	if err := sonify.WriteWAV(*orbitWAV, s, sonify.SampleRate); err != nil {
		return err
	}
	logger.Info("wrote orbit", "path", *orbitWAV, "point", point)
	return nil
}
