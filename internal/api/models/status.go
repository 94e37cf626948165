package models

import "time"

// HealthStatus summarizes a component.
type HealthStatus string

// Health statuses.
const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusDown     HealthStatus = "DOWN"
)

// Health is the liveness response.
type Health struct {
	Status    HealthStatus `json:"status"`
	Time      time.Time    `json:"time"`
	Version   string       `json:"version"`
	BuildTime string       `json:"buildTime,omitempty"`
}

// Status is the detailed status response.
type Status struct {
	Status     HealthStatus      `json:"status"`
	Time       time.Time         `json:"time"`
	Providers  []ProviderStatus  `json:"providers"`
	AirQuality *AirQualityStatus `json:"airQuality,omitempty"`
	Jobs       []map[string]any  `json:"jobs,omitempty"`
}

// ProviderStatus is the health of one upstream API.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *time.Time   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time   `json:"lastFailureAt,omitempty"`
	LastError     string       `json:"lastError,omitempty"`
}

// AirQualityStatus is the most recently rendered AQI.
type AirQualityStatus struct {
	Index      int       `json:"index"`
	Category   string    `json:"category"`
	Pollutant  string    `json:"pollutant"`
	ComputedAt time.Time `json:"computedAt"`
}
