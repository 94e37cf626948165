package airquality

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homepanel/homepanel/internal/artifact"
)

// Rendered fragments written to the AQI artifact.
const (
	htmlPrefix = "Indoor AQI:<br>"
	htmlNoData = htmlPrefix + "-- No Data --"
)

// ReadingProvider defines the interface for device data providers.
type ReadingProvider interface {
	// Name identifies the provider in logs and health reports.
	Name() string

	// LatestReading fetches the most recent upload of a device.
	// Returns ErrNoData if the device has not uploaded anything yet.
	LatestReading(ctx context.Context, deviceID string) (*Reading, error)
}

// HealthRecorder receives the outcome of each provider call.
type HealthRecorder interface {
	RecordSuccess(name string)
	RecordFailure(name string, err error)
}

// PollerConfig holds configuration for the AQI poller.
type PollerConfig struct {
	// Provider supplies device readings.
	Provider ReadingProvider

	// DeviceID is the serial of the monitoring device.
	DeviceID string

	// Output is the path of the rendered HTML fragment (default: aqi.html).
	Output string

	// Logger for poller operations.
	Logger zerolog.Logger

	// Health is optional; when set it tracks provider outcomes.
	Health HealthRecorder

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Poller fetches the latest device reading and renders the AQI fragment.
// It implements worker.Job; each Run is one polling iteration.
type Poller struct {
	provider ReadingProvider
	deviceID string
	output   string
	logger   zerolog.Logger
	health   HealthRecorder
	now      func() time.Time

	mu         sync.RWMutex
	lastResult *Result
	lastAt     time.Time
}

// NewPoller creates a new AQI poller.
func NewPoller(cfg PollerConfig) *Poller {
	output := cfg.Output
	if output == "" {
		output = "aqi.html"
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Poller{
		provider: cfg.Provider,
		deviceID: cfg.DeviceID,
		output:   output,
		logger:   cfg.Logger.With().Str("device_id", cfg.DeviceID).Logger(),
		health:   cfg.Health,
		now:      now,
	}
}

// Name returns the job name.
func (p *Poller) Name() string {
	return "aqi-poller"
}

// Run performs one polling iteration.
func (p *Poller) Run(ctx context.Context) error {
	reading, err := p.provider.LatestReading(ctx, p.deviceID)
	if errors.Is(err, ErrNoData) {
		p.recordSuccess()
		p.logger.Info().Msg("device hasn't uploaded any data yet")
		return nil
	}
	if err != nil {
		p.recordFailure(err)
		p.logger.Error().Err(err).Msg("failed to get data")
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	p.recordSuccess()

	p.logReading(reading)

	result, err := Calculate(reading.Sample)
	switch {
	case errors.Is(err, ErrMissingField):
		p.logger.Warn().Err(err).Msg("reading lacks a pollutant, rendering placeholder")
		return p.write(htmlNoData, nil)
	case err != nil:
		p.logger.Error().Err(err).Msg("cannot compute AQI from reading")
		return err
	}

	p.logger.Info().
		Int("aqi", result.Index).
		Str("category", string(result.Category)).
		Str("pollutant", string(result.Pollutant)).
		Msg("AQI computed")

	return p.write(RenderHTML(result), &result)
}

// LastResult returns the most recently rendered result and when it was
// rendered. It returns nil if no index has been rendered yet.
func (p *Poller) LastResult() (*Result, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastResult, p.lastAt
}

// RenderHTML formats a result as the AQI display fragment.
func RenderHTML(r Result) string {
	return fmt.Sprintf("%s%d (%s)", htmlPrefix, r.Index, r.Category)
}

func (p *Poller) write(fragment string, result *Result) error {
	if err := artifact.WriteFile(p.output, []byte(fragment)); err != nil {
		p.logger.Error().Err(err).Str("output", p.output).Msg("failed to write AQI fragment")
		return err
	}

	p.mu.Lock()
	p.lastResult = result
	p.lastAt = p.now()
	p.mu.Unlock()

	return nil
}

func (p *Poller) logReading(r *Reading) {
	if e := p.logger.Debug(); e.Enabled() {
		values := zerolog.Dict()
		for k, v := range r.Sample {
			values.Float64(string(k), v)
		}
		e.Dur("age", r.Age(p.now())).
			Dict("data", values).
			Msg("reading received")
	}
}

func (p *Poller) recordSuccess() {
	if p.health != nil {
		p.health.RecordSuccess(p.provider.Name())
	}
}

func (p *Poller) recordFailure(err error) {
	if p.health != nil {
		p.health.RecordFailure(p.provider.Name(), err)
	}
}
