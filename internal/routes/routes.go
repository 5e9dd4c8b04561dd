// Package routes assembles the chi router: the global middleware chain and
// the site, API and operational route groups.
package routes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/armstrong/internal/handler"
	"github.com/dukerupert/armstrong/internal/middleware"
	"github.com/dukerupert/armstrong/internal/telemetry"
)

// Middleware wraps an http.Handler
type Middleware = func(http.Handler) http.Handler

// New builds the application handler.
func New(opts Options) (http.Handler, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rateLimit, err := middleware.RateLimit(opts.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if !opts.Secure {
		securityConfig.HSTSMaxAge = 0
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recovery,
		middleware.RequestID,
		middleware.WithRequestLogger(opts.Logger),
		telemetry.SentryMiddleware(),
		middleware.SecurityHeaders(securityConfig),
	)
	if opts.OpsDeps.Metrics != nil {
		r.Use(opts.OpsDeps.Metrics.Middleware)
	}
	r.Use(
		middleware.WithSite(opts.Site),
		middleware.WithRequestInfo(opts.RateLimit.TrustForwardHeader),
	)

	r.NotFound(handler.NotFoundResponse)

	// Submissions are bounded in size and time and rate limited per IP.
	post := []Middleware{
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		rateLimit,
		middleware.Timeout(middleware.DefaultTimeout),
	}

	RegisterOpsRoutes(r, opts.OpsDeps)
	RegisterAPIRoutes(r, opts.APIDeps, post...)
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(opts.Secure)))
		RegisterSiteRoutes(r, opts.SiteDeps, post...)
	})

	return r, nil
}

// RegisterOpsRoutes registers health and metrics endpoints.
// /metrics should be firewalled in production.
func RegisterOpsRoutes(r chi.Router, deps OpsDeps) {
	if deps.Health != nil {
		r.Method(http.MethodGet, "/health", deps.Health)
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
}
