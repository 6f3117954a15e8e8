package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/fractal-explorer/internal/config"
	"github.com/iburimskiy/fractal-explorer/internal/fractal"
	"github.com/iburimskiy/fractal-explorer/internal/game"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fractal-explorer: %v", err)
	}
}

func run() error {
	overrides := config.RegisterFlags(flag.CommandLine)
	centerZoom := flag.Bool("center-zoom", false, "zoom around the window centre instead of the cursor")
	flag.Parse()

	cfg, err := overrides.Resolve()
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	fractal.SetLogger(logger)

	scene, err := cfg.Scene()
	if err != nil {
		return err
	}
	opts := cfg.ControllerOptions()
	if *centerZoom {
		opts = append(opts, fractal.WithCenterZoom())
	}
	r := fractal.NewRenderer(cfg.RendererOptions()...)
	ctrl, err := fractal.NewController(r, scene, cfg.Width, cfg.Height, opts...)
	if err != nil {
		return err
	}
	logger.Info("starting viewer", "size", []int{cfg.Width, cfg.Height}, "kind", scene.Params.Kind, "workers", r.Workers())

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("Fractal Explorer - wheel: zoom, drag: pan, J: julia, S: save, Esc/Q: quit")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := game.New(ctrl,
		game.WithPulse(cfg.Pulse),
		game.WithMaxSubsteps(config.MaxSubsteps),
	)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
