package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/dukerupert/armstrong/internal/domain"
)

// WithSite stores the site serving this deployment in every request context.
func WithSite(site domain.Site) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(domain.NewContextWithSite(r.Context(), site)))
		})
	}
}

// WithRequestInfo captures request metadata used to enrich contact emails.
// Place it after RequestID. Proxy headers are only consulted when
// trustForwardHeader is set, matching the rate limiter.
func WithRequestInfo(trustForwardHeader bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := domain.RequestInfo{
				RequestID:  GetRequestID(r.Context()),
				RemoteAddr: GetClientIP(r, trustForwardHeader),
				UserAgent:  r.UserAgent(),
				Referer:    r.Referer(),
			}
			next.ServeHTTP(w, r.WithContext(domain.NewContextWithRequestInfo(r.Context(), info)))
		})
	}
}

// GetClientIP extracts the client IP from the request.
// With trustForwardHeader set, X-Forwarded-For (first entry) and X-Real-IP
// win over the peer address. Only enable it behind a reverse proxy that
// overwrites these headers.
func GetClientIP(r *http.Request, trustForwardHeader bool) string {
	if trustForwardHeader {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
