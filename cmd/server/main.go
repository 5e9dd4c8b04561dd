package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/armstrong/internal"
	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/handler"
	"github.com/dukerupert/armstrong/internal/handler/site"
	"github.com/dukerupert/armstrong/internal/middleware"
	"github.com/dukerupert/armstrong/internal/provider"
	"github.com/dukerupert/armstrong/internal/routes"
	"github.com/dukerupert/armstrong/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	// ==========================================================================
	// Initialize the contact pipeline
	// ==========================================================================

	sender, err := provider.NewEmailSender(ctx, cfg.EmailProvider(), logger)
	if err != nil {
		return fmt.Errorf("email provider initialization failed: %w", err)
	}
	logger.Info("Email transport configured", "provider", sender.Name())

	registry := prometheus.DefaultRegisterer
	contactMetrics := telemetry.NewContactMetrics("armstrong", registry)

	composer, err := contact.NewComposer(cfg.ContactComposer(), sender, logger, contactMetrics)
	if err != nil {
		return fmt.Errorf("contact composer initialization failed: %w", err)
	}

	renderer, err := handler.NewRenderer(handler.DefaultTemplates())
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r, err := routes.New(routes.Options{
		Logger: logger,
		Site:   cfg.Site,
		Secure: cfg.IsProduction(),
		RateLimit: middleware.RateLimiterConfig{
			Rate:               cfg.RateLimit.Rate,
			TrustForwardHeader: cfg.RateLimit.TrustForwardHeader,
		},
		SiteDeps: routes.SiteDeps{
			ContactHandler: site.NewContactHandler(composer, renderer, cfg.Contact.FailSilently),
		},
		APIDeps: routes.APIDeps{
			Handler:        site.NewAPIHandler(composer, cfg.Contact.FailSilently),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
		OpsDeps: routes.OpsDeps{
			Metrics: middleware.NewMetrics("armstrong", registry),
			Health:  site.NewHealthHandler(composer.Transport()),
		},
	})
	if err != nil {
		return fmt.Errorf("router initialization failed: %w", err)
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env, "site", cfg.Site.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
