// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes the match engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/neighborfit/internal/cache"
	"github.com/pdiddy/neighborfit/internal/catalog"
	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/internal/match"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// Version is reported by the service info endpoint.
var Version = "dev"

// Discoverer rebuilds the live catalog. *catalog.Discoverer satisfies it.
type Discoverer interface {
	Discover(ctx context.Context, cities []types.CityCentre) ([]types.Candidate, error)
}

// Deps are the collaborators behind the handlers. Any of them may be nil;
// the matching endpoints then answer 503.
type Deps struct {
	Matcher *match.Matcher

	// Static backs static matches and the catalog listing.
	Static *catalog.Catalog

	// Live backs realtime matches. When empty, realtime requests use the
	// static pool.
	Live *catalog.Catalog

	Discoverer Discoverer
	Cities     []types.CityCentre

	Store *cache.Store

	// Breakers reports upstream circuit breaker states.
	Breakers func() map[string]string
}

// Server routes requests to handlers.
type Server struct {
	deps    Deps
	cfg     types.ServerConfig
	log     zerolog.Logger
	now     func() time.Time
	handler http.Handler
}

// New builds the router. Zero rate limit settings fall back to 100
// requests per minute per client IP.
func New(deps Deps, cfg types.ServerConfig) *Server {
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if deps.Static == nil {
		deps.Static = catalog.New(nil)
	}
	if deps.Live == nil {
		deps.Live = catalog.New(nil)
	}

	s := &Server{
		deps: deps,
		cfg:  cfg,
		log:  logging.Component("api"),
		now:  time.Now,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow))

		r.Get("/", s.handleInfo)
		r.Post("/match", s.handleMatch)
		r.Get("/neighborhoods", s.handleNeighborhoods)
		r.Get("/api/status", s.handleStatus)
		r.Post("/api/refresh-neighborhoods", s.handleRefreshNeighborhoods)
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
	})
	return r
}
