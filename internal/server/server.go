package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rickgao/lotto-engine/internal/auth"
	"github.com/rickgao/lotto-engine/internal/drawsync"
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/progress"
	"github.com/rickgao/lotto-engine/internal/recommend"
	"github.com/rickgao/lotto-engine/internal/store"
)

// Recommender generates and lists sets.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	History(ctx context.Context, userID string, page, size int) (*recommend.Page, error)
}

// SyncController drives the draw synchronizer.
type SyncController interface {
	HasData(ctx context.Context) (bool, error)
	Sync(ctx context.Context) (*drawsync.Report, error)
	Cancel() bool
	Status(ctx context.Context) (drawsync.Status, error)
}

// PatternSource returns pattern stats per window.
type PatternSource interface {
	Get(ctx context.Context, window int) (model.PatternStats, error)
}

// Config holds HTTP settings.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration // per-request limit on /api routes
	DefaultCount   int
	MaxCount       int
	DefaultWindow  int
	CORSOrigins    []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		RequestTimeout: 30 * time.Second,
		DefaultCount:   5,
		MaxCount:       50,
		DefaultWindow:  model.DefaultWindow,
	}
}

// Deps are the services behind the routes. A nil Verifier leaves the admin
// routes unmounted.
type Deps struct {
	Recommender Recommender
	Draws       store.DrawStore
	Patterns    PatternSource
	Sync        SyncController
	Hub         *progress.Hub
	Verifier    *auth.Verifier
}

// Server is the HTTP API.
type Server struct {
	cfg      Config
	deps     Deps
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger

	httpServer *http.Server

	// background admin syncs run on ctx and are awaited by Stop
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Server with its routes mounted.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = DefaultConfig().DefaultCount
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = DefaultConfig().MaxCount
	}
	if !model.ValidWindow(cfg.DefaultWindow) {
		cfg.DefaultWindow = model.DefaultWindow
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With("component", "server"),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on cfg.Addr and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "err", err)
		}
	}()

	s.logger.Info("http server started", "addr", ln.Addr().String())
	return nil
}

// Stop shuts the listener down, cancels background syncs and waits for
// in-flight work.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()

	var shutdownErr error
	if s.httpServer != nil {
		shutdownErr = s.httpServer.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("http server stopped")
		return shutdownErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
