// Package http exposes the content API over HTTP. Routes are registered
// from the contract table and served by Huma on a chi router.
package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/storage"
)

const (
	apiTitle         = "Portfolio API"
	apiVersion       = "1.0.0"
	defaultClientTTL = 10 * time.Minute
	corsMaxAge       = 300
)

// Options configures the HTTP server wiring.
type Options struct {
	Store              storage.Store
	Logger             *logrus.Logger
	SentryHub          *sentry.Hub
	RateLimiter        RateLimiterSettings
	CORSAllowedOrigins []string
	// TrustProxyHeaders keys rate limiting on X-Forwarded-For and X-Real-IP.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
// A zero Burst or RequestsPerSecond disables limiting.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the content routes into a Huma API.
type Server struct {
	api         huma.API
	router      chi.Router
	store       storage.Store
	logger      *logrus.Logger
	sentry      *sentry.Hub
	rateLimiter *RateLimiter
	trustProxy  bool
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, eris.New("store is required")
	}

	settings := opts.RateLimiter
	if settings.Burst < 0 {
		return nil, eris.New("rate limiter burst must not be negative")
	}
	if settings.RequestsPerSecond < 0 {
		return nil, eris.New("rate limiter requests per second must not be negative")
	}

	router := chi.NewRouter()
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader, "Retry-After"},
			MaxAge:         corsMaxAge,
		}))
	}

	config := huma.DefaultConfig(apiTitle, apiVersion)
	// Bodies must match the documented shapes exactly, so no $schema links.
	config.CreateHooks = nil
	config.Transformers = nil

	api := humachi.New(router, config)

	srv := &Server{
		api:    api,
		router: router,
		store:  opts.Store,
		logger: opts.Logger,
		sentry: opts.SentryHub,

		trustProxy: opts.TrustProxyHeaders,
	}

	if settings.Burst > 0 && settings.RequestsPerSecond > 0 {
		ttl := settings.ClientTTL
		if ttl <= 0 {
			ttl = defaultClientTTL
		}
		srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, ttl)
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.router
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.router.ServeHTTP(w, r)
}
