// Package portal serves the theme API: extract a site's theme on demand,
// read and delete stored themes, and render them as CSS custom properties
// for embedding in the support portal.
package portal

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"themeforge/internal/sitefetch"
	"themeforge/internal/themestore"
)

const defaultCacheTTL = time.Hour

// Config describes server wiring and runtime behaviour.
type Config struct {
	Logger       *zap.Logger
	Clock        func() time.Time
	Store        *themestore.Store
	Fetcher      *sitefetch.Fetcher
	OverridesDir string
	CacheTTL     time.Duration
}

// Server exposes the HTTP handlers of the theme API. Without a Store it
// still serves extractions from the in-memory cache.
type Server struct {
	cfg       Config
	mux       *http.ServeMux
	handler   http.Handler
	logger    *zap.Logger
	store     *themestore.Store
	fetcher   *sitefetch.Fetcher
	cache     *themeCache
	overrides *overrideStore
	clock     func() time.Time
}

// New wires a server with the provided configuration.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = sitefetch.New(sitefetch.Config{Logger: cfg.Logger})
	}
	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		logger:    cfg.Logger,
		store:     cfg.Store,
		fetcher:   cfg.Fetcher,
		cache:     newThemeCache(cfg.Clock, cfg.CacheTTL),
		overrides: newOverrideStore(cfg.OverridesDir),
		clock:     cfg.Clock,
	}
	s.registerRoutes()
	s.handler = Chain(s.mux,
		RecoveryMiddleware(s.logger),
		RequestIDMiddleware,
		LoggingMiddleware(s.logger, []string{"/healthz", "/metrics"}),
		RateLimitMiddleware(50, 100, []string{"/healthz", "/metrics"}),
	)
	return s
}

// Handler exposes the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler { return s }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("POST /api/v1/themes/extract", s.handleExtract)
	s.mux.HandleFunc("GET /api/v1/themes", s.handleList)
	s.mux.HandleFunc("GET /api/v1/themes/{site}", s.handleGet)
	s.mux.HandleFunc("DELETE /api/v1/themes/{site}", s.handleDelete)
	s.mux.HandleFunc("GET /api/v1/themes/{site}/variables", s.handleVariables)
}
