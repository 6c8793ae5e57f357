// Package devserver exposes the dev mode HTTP API and serves build output
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/lineasoftware/boredom/internal/build"
	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// Builder is what the API needs from the build pipeline
type Builder interface {
	Build(ctx context.Context, opts build.Options) (*build.Result, error)
	Status() build.Status
	Analyze() (*types.Analysis, error)
}

// Options configure a Server
type Options struct {
	Name      string // project name, used as API title
	Version   string
	OutputDir string // served at the root
	Adapter   string // adapter used by POST /api/build when none is given
	Logger    *slog.Logger
}

// Server is the dev mode HTTP server
type Server struct {
	opts    Options
	builder Builder
	mux     *http.ServeMux
	api     huma.API
}

// New registers the API routes and the static handler
func New(builder Builder, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "Boredom Engine"
	}
	if opts.Version == "" {
		opts.Version = "0.0.0"
	}

	mux := http.NewServeMux()
	cfg := huma.DefaultConfig(opts.Name+" Dev API", opts.Version)
	cfg.Info.Description = "Development API for building and inspecting userscripts"
	api := humago.New(mux, cfg)

	s := &Server{opts: opts, builder: builder, mux: mux, api: api}
	s.registerRoutes()

	if opts.OutputDir != "" {
		mux.Handle("/", StaticHandler(opts.OutputDir, StaticConfig{}))
	}
	return s
}

// NewAPI returns the API description without a backing builder
func NewAPI(name, version string) huma.API {
	return New(nil, Options{Name: name, Version: version}).api
}

// API returns the huma API
func (s *Server) API() huma.API {
	return s.api
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	if s.opts.Logger != nil {
		s.opts.Logger.Info("🌐 Dev server listening", slog.String("url", "http://"+ln.Addr().String()))
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dev server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
