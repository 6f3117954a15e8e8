// Package stream serves an interactive fractal over a websocket. Each
// connection owns a Controller: the client sends intent events as JSON text
// messages and receives every finished pass as a binary PNG message.
package stream

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"image"
	"image/png"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/iburimskiy/fractal-explorer/internal/fractal"
)

//go:embed index.html
var indexHTML []byte

const readLimit = 4 << 10

// Option configures a Server.
type Option func(*Server)

// WithOriginPatterns sets the origins allowed to open a websocket. By
// default only same-origin requests are accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.origins = patterns }
}

// WithControllerOptions passes options to every connection's Controller.
func WithControllerOptions(opts ...fractal.ControllerOption) Option {
	return func(s *Server) { s.ctrlOpts = opts }
}

// Server hands out one Controller per websocket connection. All connections
// share the renderer and start from the same scene.
type Server struct {
	renderer *fractal.Renderer
	scene    fractal.Scene
	width    int
	height   int
	origins  []string
	ctrlOpts []fractal.ControllerOption
}

// NewServer validates the initial scene for a width x height client.
func NewServer(r *fractal.Renderer, scene fractal.Scene, width, height int, opts ...Option) (*Server, error) {
	if _, err := fractal.NewController(r, scene, width, height); err != nil {
		return nil, err
	}
	s := &Server{renderer: r, scene: scene, width: width, height: height}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler serves the websocket on /ws, a liveness probe on /healthz and a
// minimal browser client on /.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		fractal.Logger().Warn("websocket accept", "err", err)
		return
	}
	defer c.CloseNow()
	c.SetReadLimit(readLimit)

	log := fractal.Logger().With("remote", r.RemoteAddr)
	log.Info("client connected")
	err = s.serve(r.Context(), c)
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		log.Info("client disconnected")
		c.Close(websocket.StatusNormalClosure, "")
	case errors.Is(err, context.Canceled):
		log.Info("connection closed")
	default:
		log.Warn("connection failed", "err", err)
		c.Close(websocket.StatusInternalError, "internal error")
	}
}

func (s *Server) serve(ctx context.Context, c *websocket.Conn) error {
	ctrl, err := fractal.NewController(s.renderer, s.scene, s.width, s.height, s.ctrlOpts...)
	if err != nil {
		return err
	}

	// kick holds at most one wake-up: events arriving faster than passes
	// complete are coalesced by the controller.
	kick := make(chan struct{}, 1)
	kick <- struct{}{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			var ev Event
			if err := wsjson.Read(ctx, c, &ev); err != nil {
				return err
			}
			if err := ev.Apply(ctrl); err != nil {
				if err := sendError(ctx, c, err); err != nil {
					return err
				}
				continue
			}
			select {
			case kick <- struct{}{}:
			default:
			}
		}
	})
	g.Go(func() error {
		var buf bytes.Buffer
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-kick:
			}
			if !ctrl.Dirty() {
				continue
			}
			buf.Reset()
			err := ctrl.Present(func(img *image.RGBA) error {
				return png.Encode(&buf, img)
			})
			if err != nil {
				if err := sendError(ctx, c, err); err != nil {
					return err
				}
				continue
			}
			if err := c.Write(ctx, websocket.MessageBinary, buf.Bytes()); err != nil {
				return err
			}
		}
	})
	return g.Wait()
}

func sendError(ctx context.Context, c *websocket.Conn, err error) error {
	fractal.Logger().Debug("rejected client event", "err", err)
	return wsjson.Write(ctx, c, errorMessage{Type: "error", Error: err.Error()})
}
