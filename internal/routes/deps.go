package routes

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/handler/site"
	"github.com/dukerupert/armstrong/internal/middleware"
)

// SiteDeps contains dependencies for the public website routes
type SiteDeps struct {
	// Home page, contact forms and confirmation page
	ContactHandler *site.ContactHandler
}

// APIDeps contains dependencies for API routes
type APIDeps struct {
	Handler *site.APIHandler

	// AllowedOrigins may call the API from a browser. Empty means
	// same-origin only.
	AllowedOrigins []string
}

// OpsDeps contains dependencies for operational endpoints
type OpsDeps struct {
	Metrics *middleware.Metrics
	Health  http.Handler
}

// Options configures the application router.
type Options struct {
	Logger *slog.Logger
	Site   domain.Site

	// Secure enables HSTS and HTTPS-only cookies.
	Secure bool

	// RateLimit applies to every POST route, per client IP.
	RateLimit middleware.RateLimiterConfig

	SiteDeps SiteDeps
	APIDeps  APIDeps
	OpsDeps  OpsDeps
}
