// Package server provides the HTTP API for apiquery.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/apiquery/internal/config"
	"github.com/hyperjump/apiquery/internal/index"
	"github.com/hyperjump/apiquery/internal/indexer"
	"github.com/hyperjump/apiquery/internal/metrics"
	"github.com/hyperjump/apiquery/internal/querygen"
	"github.com/hyperjump/apiquery/internal/storage"
	"go.uber.org/zap"
)

// WatchService manages the watched spec directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the apiquery API.
type Server struct {
	generator *querygen.Generator
	indexer   *indexer.Indexer
	index     *index.Index
	docs      storage.DocumentStore
	config    *config.ServerConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
	version   string
	started   time.Time

	watch       WatchService
	configPath  string
	appConfig   *config.Config
	appConfigMu sync.Mutex

	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics instruments requests and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithWatch enables the watch directory endpoints. When configPath is set, directory
// changes are persisted to it through appConfig.
func WithWatch(w WatchService, configPath string, appConfig *config.Config) Option {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
		s.appConfig = appConfig
	}
}

// WithAppConfig exposes appConfig in the status endpoint.
func WithAppConfig(appConfig *config.Config) Option {
	return func(s *Server) { s.appConfig = appConfig }
}

// WithVersion sets the version reported by the status endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	generator *querygen.Generator,
	idx *indexer.Indexer,
	x *index.Index,
	docs storage.DocumentStore,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		generator: generator,
		indexer:   idx,
		index:     x,
		docs:      docs,
		config:    cfg,
		logger:    logger,
		version:   "dev",
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	if s.metrics != nil {
		r.Use(s.instrument)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/query", func(r chi.Router) {
			r.Post("/generate", s.handleGenerate)
			r.Post("/explain", s.handleExplain)
			r.Get("/examples", s.handleExamples)
			r.Get("/health", s.handleQueryHealth)
		})
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleListDocuments)
			r.Get("/{id}", s.handleGetDocument)
			r.Get("/{id}/chunks", s.handleDocumentChunks)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
		r.Get("/status", s.handleStatus)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// instrument records request counts and latency by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(r.Method, route, status, time.Since(start))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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
