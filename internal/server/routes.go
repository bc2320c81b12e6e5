package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rickgao/lotto-engine/internal/auth"
	"github.com/rickgao/lotto-engine/internal/server/response"
)

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(s.cfg.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}

		r.Get("/strategies", s.handleStrategies)
		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/", s.handleRecommend)
			r.Get("/", s.handleHistory)
		})
		r.Route("/draws", func(r chi.Router) {
			r.Get("/latest", s.handleLatestDraw)
			r.Get("/{drawNo}", s.handleDraw)
		})
		r.Get("/stats/patterns", s.handlePatternStats)
	})

	if s.deps.Verifier == nil {
		s.logger.Warn("admin credentials not configured, admin routes disabled")
		return
	}
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(requireSignature(s.deps.Verifier, s.logger))
		r.Route("/sync", func(r chi.Router) {
			r.Post("/", s.handleSync)
			r.Post("/cancel", s.handleSyncCancel)
			r.Get("/status", s.handleSyncStatus)
			r.Get("/stream", s.handleSyncStream)
		})
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// requireSignature rejects requests without a valid admin signature.
func requireSignature(v *auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := v.Verify(r); err != nil {
				logger.Warn("admin request rejected", "path", r.URL.Path, "remote", r.RemoteAddr, "err", err)
				response.Unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
