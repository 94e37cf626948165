// Package worker runs the panel's periodic jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/homepanel/homepanel/internal/telemetry"
)

const instrumentationName = "github.com/homepanel/homepanel/internal/worker"

// ErrJobPanicked is returned when a job iteration panics.
var ErrJobPanicked = errors.New("job panicked")

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// RunnerConfig holds configuration for a Runner.
type RunnerConfig struct {
	// Job to run.
	Job Job

	// Interval between the start of consecutive iterations.
	// Zero runs the job once.
	Interval time.Duration

	// Timeout bounds a single iteration. Zero means no timeout.
	Timeout time.Duration

	// Logger for iteration outcomes.
	Logger zerolog.Logger

	// Meter and Tracer default to the global providers.
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Metrics tracks runner statistics.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration

	LastError string
}

// Runner runs a job immediately and then once per interval until its
// context is canceled. A failed or panicking iteration is logged and the
// loop continues.
type Runner struct {
	job      Job
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer

	runs     metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram

	metrics *Metrics
}

// NewRunner creates a new job runner.
func NewRunner(cfg RunnerConfig) *Runner {
	meter := cfg.Meter
	if meter == nil {
		meter = telemetry.Meter(instrumentationName)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(instrumentationName)
	}

	r := &Runner{
		job:      cfg.Job,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger.With().Str("job", cfg.Job.Name()).Logger(),
		tracer:   tracer,
		metrics:  &Metrics{},
	}

	var err error
	if r.runs, err = meter.Int64Counter("homepanel.job.runs",
		metric.WithDescription("Job iterations started")); err != nil {
		r.logger.Warn().Err(err).Msg("failed to create runs counter")
	}
	if r.failures, err = meter.Int64Counter("homepanel.job.failures",
		metric.WithDescription("Job iterations that returned an error")); err != nil {
		r.logger.Warn().Err(err).Msg("failed to create failures counter")
	}
	if r.duration, err = meter.Float64Histogram("homepanel.job.duration",
		metric.WithDescription("Job iteration duration"),
		metric.WithUnit("s")); err != nil {
		r.logger.Warn().Err(err).Msg("failed to create duration histogram")
	}

	return r
}

// Start runs the loop and blocks until ctx is canceled.
// With a zero interval it runs a single iteration and returns its error.
func (r *Runner) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return r.RunOnce(ctx)
	}

	r.logger.Info().Dur("interval", r.interval).Msg("starting job loop")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		_ = r.RunOnce(ctx) //nolint:errcheck // logged by RunOnce

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}

		// A tick that races with cancellation must not start another run.
		if ctx.Err() != nil {
			r.logger.Info().Msg("job loop stopped")
			return nil
		}
	}
}

// RunOnce runs a single iteration, recovering from panics.
func (r *Runner) RunOnce(ctx context.Context) (err error) {
	runID := uuid.NewString()
	logger := r.logger.With().Str("run_id", runID).Logger()
	attrs := metric.WithAttributes(attribute.String("job", r.job.Name()))

	ctx, span := r.tracer.Start(ctx, r.job.Name(),
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	if r.runs != nil {
		r.runs.Add(ctx, 1, attrs)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, rec)
		}

		elapsed := time.Since(start)
		if r.duration != nil {
			r.duration.Record(ctx, elapsed.Seconds(), attrs)
		}
		r.updateMetrics(start, elapsed, err)

		if err != nil {
			if r.failures != nil {
				r.failures.Add(ctx, 1, attrs)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error().Err(err).Dur("duration", elapsed).Msg("job failed")
			return
		}
		logger.Debug().Dur("duration", elapsed).Msg("job completed")
	}()

	return r.job.Run(ctx)
}

func (r *Runner) updateMetrics(start time.Time, elapsed time.Duration, err error) {
	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()

	r.metrics.TotalRuns++
	if err != nil {
		r.metrics.FailedRuns++
		r.metrics.LastError = err.Error()
	} else {
		r.metrics.SuccessfulRuns++
	}
	r.metrics.LastRunAt = start
	r.metrics.LastRunDuration = elapsed
	r.metrics.TotalDuration += elapsed
}

// GetMetrics returns a copy of the current metrics.
func (r *Runner) GetMetrics() Metrics {
	r.metrics.mu.RLock()
	defer r.metrics.mu.RUnlock()

	return Metrics{
		TotalRuns:       r.metrics.TotalRuns,
		SuccessfulRuns:  r.metrics.SuccessfulRuns,
		FailedRuns:      r.metrics.FailedRuns,
		LastRunAt:       r.metrics.LastRunAt,
		LastRunDuration: r.metrics.LastRunDuration,
		TotalDuration:   r.metrics.TotalDuration,
		LastError:       r.metrics.LastError,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (r *Runner) MetricsSnapshot() map[string]interface{} {
	m := r.GetMetrics()
	return map[string]interface{}{
		"job":               r.job.Name(),
		"total_runs":        m.TotalRuns,
		"successful_runs":   m.SuccessfulRuns,
		"failed_runs":       m.FailedRuns,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
		"last_error":        m.LastError,
	}
}

// Once runs job a single time with the same logging and recovery as a Runner.
func Once(ctx context.Context, job Job, logger zerolog.Logger) error {
	return NewRunner(RunnerConfig{Job: job, Logger: logger}).RunOnce(ctx)
}
