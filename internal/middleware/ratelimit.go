package middleware

import (
	"fmt"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig configures the rate limiter
type RateLimiterConfig struct {
	// Rate uses the limiter format "<limit>-<period>", e.g. "5-M" or "100-H".
	Rate string

	// TrustForwardHeader keys clients by X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that sets these headers.
	TrustForwardHeader bool
}

// DefaultRateLimiterConfig allows five contact submissions per minute per IP.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{Rate: "5-M"}
}

// RateLimit creates a per-IP rate limiting middleware backed by an
// in-memory store. Rejected requests get 429 with the standard
// X-RateLimit-* headers.
func RateLimit(config RateLimiterConfig) (func(http.Handler) http.Handler, error) {
	if config.Rate == "" {
		config.Rate = DefaultRateLimiterConfig().Rate
	}

	rate, err := limiter.NewRateFromFormatted(config.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", config.Rate, err)
	}

	instance := limiter.New(memory.NewStore(), rate,
		limiter.WithTrustForwardHeader(config.TrustForwardHeader),
	)

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(respondTooManyRequests),
	)
	return mw.Handler, nil
}
