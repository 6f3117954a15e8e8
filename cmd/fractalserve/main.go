// Command fractalserve streams an interactive fractal to browsers over a
// websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iburimskiy/fractal-explorer/internal/config"
	"github.com/iburimskiy/fractal-explorer/internal/fractal"
	"github.com/iburimskiy/fractal-explorer/internal/stream"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fractalserve: %v", err)
	}
}

func run() error {
	overrides := config.RegisterFlags(flag.CommandLine)
	addr := flag.String("addr", ":8080", "listen `address`")
	origins := flag.String("origins", "", "comma-separated origin patterns allowed to connect")
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
	opts := []stream.Option{stream.WithControllerOptions(cfg.ControllerOptions()...)}
	if *origins != "" {
		opts = append(opts, stream.WithOriginPatterns(strings.Split(*origins, ",")...))
	}
	s, err := stream.NewServer(fractal.NewRenderer(cfg.RendererOptions()...), scene, cfg.Width, cfg.Height, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
