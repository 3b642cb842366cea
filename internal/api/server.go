// Package api serves the search engine over HTTP.
//
// Routes:
//
//	GET  /             service info
//	GET  /health       readiness and corpus size
//	POST /search       hybrid or semantic search
//	GET  /player/{id}  full player record
//	GET  /player/{id}/profile  text the player was indexed with
//	GET  /metrics      Prometheus exposition (when metrics are enabled)
//	GET  /stats        query analytics (when telemetry is enabled)
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Aman-CERP/scoutsearch/internal/metrics"
	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/telemetry"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second
	idleTimeout  = 60 * time.Second

	maxBodyBytes = 1 << 20
)

// shutdownTimeout is a var so tests can shorten it.
var shutdownTimeout = 10 * time.Second

// Server is the HTTP front end.
type Server struct {
	searcher    search.Searcher
	metrics     *metrics.Manager
	telemetry   *telemetry.QueryMetrics
	logger      *slog.Logger
	defaultTopK int
	maxTopK     int
	defaultMode search.Mode
	version     string
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and exposes GET /metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTelemetry records every search and exposes GET /stats.
func WithTelemetry(t *telemetry.QueryMetrics) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTopKLimits sets the default and maximum top_k. Requests above the
// maximum are clamped.
func WithTopKLimits(defaultTopK, maxTopK int) Option {
	return func(s *Server) {
		if defaultTopK > 0 {
			s.defaultTopK = defaultTopK
		}
		if maxTopK > 0 {
			s.maxTopK = maxTopK
		}
	}
}

// WithDefaultMode sets the mode used when a request omits search_type.
func WithDefaultMode(m search.Mode) Option {
	return func(s *Server) {
		if m != "" {
			s.defaultMode = m
		}
	}
}

// WithVersion sets the version reported by GET /.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a server over searcher.
func NewServer(searcher search.Searcher, opts ...Option) *Server {
	s := &Server{
		searcher:    searcher,
		logger:      slog.Default(),
		defaultTopK: search.DefaultTopK,
		maxTopK:     100,
		defaultMode: search.ModeHybrid,
		version:     "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /player/{id}", s.handlePlayer)
	mux.HandleFunc("GET /player/{id}/profile", s.handleProfile)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.telemetry != nil {
		mux.HandleFunc("GET /stats", s.handleStats)
	}
	return s.requestLogger(corsMiddleware(recoverMiddleware(mux)))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_server_started", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("http_server_stopped")
	return nil
}
