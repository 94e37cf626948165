// Package api serves the poller's optional HTTP status endpoint.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/homepanel/homepanel/internal/api/handler"
	"github.com/homepanel/homepanel/internal/api/middleware"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	Providers handler.ProviderHealthSource
	AQI       handler.AQISource
	Jobs      []handler.JobMetricsSource

	// RateLimit defaults to middleware.StatusRateLimit.
	RateLimit *middleware.RateLimitConfig
}

// NewRouter creates a chi router serving /health and /status.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	rateLimit := middleware.StatusRateLimit
	if cfg.RateLimit != nil {
		rateLimit = *cfg.RateLimit
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RateLimitByIP(rateLimit))

	statusHandler := handler.NewStatusHandler(handler.StatusHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Providers: cfg.Providers,
		AQI:       cfg.AQI,
		Jobs:      cfg.Jobs,
	})

	r.Get("/health", statusHandler.HealthCheck)
	r.Get("/status", statusHandler.Status)
	r.NotFound(statusHandler.NotFound)

	return r
}
