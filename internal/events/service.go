package events

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/homepanel/homepanel/internal/artifact"
)

// statusTimeLayout prefixes every line of the status log.
const statusTimeLayout = "January 02, 2006 15:04:05"

// Source defines the interface for event listing providers.
type Source interface {
	// Name identifies the provider in logs and health reports.
	Name() string

	// SearchVenue returns up to pageSize upcoming events at a venue, ordered by date.
	SearchVenue(ctx context.Context, venueID string, pageSize int) ([]Event, error)
}

// HealthRecorder receives the outcome of each provider call.
type HealthRecorder interface {
	RecordSuccess(name string)
	RecordFailure(name string, err error)
}

// BuilderConfig holds configuration for the digest builder.
type BuilderConfig struct {
	// Source supplies event listings.
	Source Source

	// Venues are searched in order; their events are concatenated.
	Venues []string

	// PageSize is the number of events requested per venue (default: 10).
	PageSize int

	// LineBudget caps the rendered digest (default: DefaultLineBudget).
	LineBudget int

	// Output is the rendered HTML path (default: events.html).
	Output string

	// StatusLog is the append-only run log (default: get_events.log).
	StatusLog string

	// Logger for builder operations.
	Logger zerolog.Logger

	// Health is optional; when set it tracks provider outcomes.
	Health HealthRecorder

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Builder fetches venue events and writes the digest fragment.
// It implements worker.Job.
type Builder struct {
	source     Source
	venues     []string
	pageSize   int
	lineBudget int
	output     string
	statusLog  string
	logger     zerolog.Logger
	health     HealthRecorder
	now        func() time.Time
}

// NewBuilder creates a new digest builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	b := &Builder{
		source:     cfg.Source,
		venues:     cfg.Venues,
		pageSize:   cfg.PageSize,
		lineBudget: cfg.LineBudget,
		output:     cfg.Output,
		statusLog:  cfg.StatusLog,
		logger:     cfg.Logger,
		health:     cfg.Health,
		now:        cfg.Now,
	}

	if b.pageSize <= 0 {
		b.pageSize = 10
	}
	if b.lineBudget <= 0 {
		b.lineBudget = DefaultLineBudget
	}
	if b.output == "" {
		b.output = "events.html"
	}
	if b.statusLog == "" {
		b.statusLog = "get_events.log"
	}
	if b.now == nil {
		b.now = time.Now
	}

	return b
}

// Name returns the job name.
func (b *Builder) Name() string {
	return "event-digest"
}

// Run fetches all venues, writes the digest and appends a status line.
// Any failure is recorded in the status log and returned.
func (b *Builder) Run(ctx context.Context) error {
	err := b.build(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("event digest failed")
		return errors.Join(err, b.appendStatus("FAILURE: "+err.Error()))
	}

	b.logger.Info().Str("output", b.output).Msg("created events digest")
	return b.appendStatus(fmt.Sprintf("Grabbed events and wrote to %s", filepath.Base(b.output)))
}

func (b *Builder) build(ctx context.Context) error {
	events, err := b.collect(ctx)
	if err != nil {
		return err
	}

	html, err := Digest(events, b.lineBudget)
	if err != nil {
		return err
	}

	return artifact.WriteFile(b.output, []byte(html))
}

// collect merges the events of every venue, preserving venue order.
func (b *Builder) collect(ctx context.Context) ([]Event, error) {
	var all []Event
	for _, venue := range b.venues {
		events, err := b.source.SearchVenue(ctx, venue, b.pageSize)
		if err != nil {
			b.recordFailure(err)
			return nil, fmt.Errorf("%w: venue %s: %w", ErrProviderUnavailable, venue, err)
		}
		b.recordSuccess()

		b.logger.Debug().
			Str("venue_id", venue).
			Int("events", len(events)).
			Msg("fetched venue events")

		all = append(all, events...)
	}
	return all, nil
}

func (b *Builder) appendStatus(msg string) error {
	line := b.now().Format(statusTimeLayout) + " " + msg
	if err := artifact.AppendLine(b.statusLog, line); err != nil {
		b.logger.Error().Err(err).Str("status_log", b.statusLog).Msg("failed to append status line")
		return err
	}
	return nil
}

func (b *Builder) recordSuccess() {
	if b.health != nil {
		b.health.RecordSuccess(b.source.Name())
	}
}

func (b *Builder) recordFailure(err error) {
	if b.health != nil {
		b.health.RecordFailure(b.source.Name(), err)
	}
}
