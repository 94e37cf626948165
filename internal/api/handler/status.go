// Package handler serves the panel's health and status endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/homepanel/homepanel/internal/airquality"
	"github.com/homepanel/homepanel/internal/api/models"
	"github.com/homepanel/homepanel/internal/api/response"
	"github.com/homepanel/homepanel/internal/provider/resilience"
)

// ProviderHealthSource lists upstream provider health.
type ProviderHealthSource interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// AQISource exposes the most recently rendered AQI.
type AQISource interface {
	LastResult() (*airquality.Result, time.Time)
}

// JobMetricsSource exposes a job runner's counters.
type JobMetricsSource interface {
	MetricsSnapshot() map[string]interface{}
}

// StatusHandlerConfig holds dependencies for the status handler.
type StatusHandlerConfig struct {
	Version   string
	BuildTime string
	Providers ProviderHealthSource
	AQI       AQISource
	Jobs      []JobMetricsSource
}

// StatusHandler handles GET /health and GET /status.
type StatusHandler struct {
	version   string
	buildTime string
	providers ProviderHealthSource
	aqi       AQISource
	jobs      []JobMetricsSource
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(cfg StatusHandlerConfig) *StatusHandler {
	return &StatusHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		providers: cfg.Providers,
		aqi:       cfg.AQI,
		jobs:      cfg.Jobs,
	}
}

// HealthCheck handles GET /health - liveness check.
func (h *StatusHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Time:      time.Now().UTC(),
		Version:   h.version,
		BuildTime: h.buildTime,
	})
}

// Status handles GET /status - provider health and the last AQI.
// The overall status is the worst provider status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := models.Status{
		Status:    models.HealthStatusOK,
		Time:      time.Now().UTC(),
		Providers: []models.ProviderStatus{},
	}

	if h.providers != nil {
		for _, ph := range h.providers.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider:      ph.Name,
				Status:        models.HealthStatus(ph.Status()),
				CircuitState:  ph.CircuitState.String(),
				LastSuccessAt: ph.LastSuccessAt,
				LastFailureAt: ph.LastFailureAt,
				LastError:     ph.LastError,
			}
			status.Status = worst(status.Status, ps.Status)
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.aqi != nil {
		if result, at := h.aqi.LastResult(); result != nil {
			status.AirQuality = &models.AirQualityStatus{
				Index:      result.Index,
				Category:   string(result.Category),
				Pollutant:  string(result.Pollutant),
				ComputedAt: at.UTC(),
			}
		}
	}

	for _, job := range h.jobs {
		status.Jobs = append(status.Jobs, job.MetricsSnapshot())
	}

	response.JSON(w, r, http.StatusOK, status)
}

// NotFound handles unknown routes.
func (h *StatusHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, r, "no such endpoint")
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusDown:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
