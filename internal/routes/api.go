package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterAPIRoutes registers the JSON contact API under /api. Browsers on
// the configured origins may call it cross-origin; it carries no cookies
// and is exempt from CSRF checks.
func RegisterAPIRoutes(r chi.Router, deps APIDeps, post ...Middleware) {
	if deps.Handler == nil {
		return
	}

	r.Route("/api", func(r chi.Router) {
		if len(deps.AllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: deps.AllowedOrigins,
				AllowedMethods: []string{http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining"},
				MaxAge:         300,
			}))
		}

		r.With(post...).Post("/contact/{variant}", deps.Handler.Submit)
	})
}
