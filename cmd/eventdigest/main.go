// Package main provides the entrypoint for the events digest builder.
// By default it builds the digest once and exits, for use from cron.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/homepanel/homepanel/internal/config"
	"github.com/homepanel/homepanel/internal/events"
	"github.com/homepanel/homepanel/internal/events/eventful"
	"github.com/homepanel/homepanel/internal/logging"
	"github.com/homepanel/homepanel/internal/provider/resilience"
	"github.com/homepanel/homepanel/internal/telemetry"
	"github.com/homepanel/homepanel/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	const serviceName = "eventdigest"

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(os.Stderr, logging.Options{Service: serviceName, Version: Version})
		bootLog.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	log := logging.New(os.Stdout, logging.Options{
		Service: serviceName,
		Version: Version,
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
	})

	if err := cfg.ValidateEvents(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	log.Info().
		Str("build_time", BuildTime).
		Strs("venues", cfg.Events.Venues).
		Msg("starting events digest")

	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ExportInterval: cfg.Telemetry.ExportInterval,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize telemetry")
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	registry := resilience.NewRegistry()

	source := eventful.NewClient(eventful.ClientConfig{
		BaseURL:  cfg.Events.BaseURL,
		AppKey:   cfg.Events.AppKey,
		Registry: registry,
		Logger:   log,
	})

	builder := events.NewBuilder(events.BuilderConfig{
		Source:     source,
		Venues:     cfg.Events.Venues,
		PageSize:   cfg.Events.PageSize,
		LineBudget: cfg.Events.LineBudget,
		Output:     cfg.Events.Output,
		StatusLog:  cfg.Events.StatusLog,
		Logger:     log,
		Health:     registry,
	})

	if cfg.Events.Interval == 0 {
		if err := worker.Once(ctx, builder, log); err != nil {
			return 1
		}
		return 0
	}

	runner := worker.NewRunner(worker.RunnerConfig{
		Job:      builder,
		Interval: cfg.Events.Interval,
		Logger:   log,
		Meter:    tp.Meter,
		Tracer:   tp.Tracer,
	})

	if err := runner.Start(ctx); err != nil {
		log.Error().Err(err).Msg("runner exited")
		return 1
	}
	return 0
}
