// Package server provides the HTTP API for kioku.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/resilience"
	"github.com/hyperjump/kioku/internal/retrieval"
	"github.com/hyperjump/kioku/internal/storage"
)

// IndexSizer reports the number of vectors in the index.
type IndexSizer interface {
	Size() int
}

// Server is the HTTP server for the kioku API.
type Server struct {
	retriever *retrieval.Retriever
	indexer   *indexer.Indexer
	storage   storage.Storage
	index     IndexSizer
	config    *config.Config
	limiter   *rate.Limiter
	gatherer  prometheus.Gatherer
	executor  *resilience.Executor
	logger    *zap.Logger
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves metrics from g on /metrics. Without it /metrics uses the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithExecutor reports the executor's circuit breaker states on /api/v1/status.
func WithExecutor(e *resilience.Executor) Option {
	return func(s *Server) { s.executor = e }
}

// NewServer creates a server with the given dependencies. A zero search_rate_limit disables limiting.
func NewServer(
	retriever *retrieval.Retriever,
	idx *indexer.Indexer,
	store storage.Storage,
	index IndexSizer,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		retriever: retriever,
		indexer:   idx,
		storage:   store,
		index:     index,
		config:    cfg,
		gatherer:  prometheus.DefaultGatherer,
		logger:    logger,
	}
	if cfg.Server.SearchRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.SearchRateLimit), cfg.Server.SearchRateBurst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.rateLimit).Post("/search", s.handleSearch)
		r.Post("/parse", s.handleParse)
		r.Get("/profiles", s.handleProfiles)
		r.Get("/status", s.handleStatus)

		r.Post("/memories", s.handleAddMemory)
		r.Route("/memories/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetMemory)
			r.Post("/pin", s.handlePin)
			r.Delete("/pin", s.handleUnpin)
			r.Patch("/metadata", s.handleUpdateMetadata)
		})
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.respondError(w, http.StatusTooManyRequests, "search rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
