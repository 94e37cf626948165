// Package main provides the entrypoint for the indoor AQI poller.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/homepanel/homepanel/internal/airquality"
	"github.com/homepanel/homepanel/internal/airquality/kaiterra"
	"github.com/homepanel/homepanel/internal/api"
	"github.com/homepanel/homepanel/internal/api/handler"
	"github.com/homepanel/homepanel/internal/config"
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
	const serviceName = "aqipoller"

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(os.Stderr, logging.Options{Service: serviceName, Version: Version})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(os.Stdout, logging.Options{
		Service: serviceName,
		Version: Version,
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
	})

	if err := cfg.ValidateAirQuality(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("device_id", cfg.AirQuality.DeviceID).
		Dur("interval", cfg.AirQuality.Interval).
		Msg("starting AQI poller")

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
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	registry := resilience.NewRegistry()

	client := kaiterra.NewClient(kaiterra.ClientConfig{
		BaseURL:  cfg.AirQuality.BaseURL,
		APIKey:   cfg.AirQuality.APIKey,
		Registry: registry,
		Logger:   log,
	})

	poller := airquality.NewPoller(airquality.PollerConfig{
		Provider: client,
		DeviceID: cfg.AirQuality.DeviceID,
		Output:   cfg.AirQuality.Output,
		Logger:   log,
		Health:   registry,
	})

	runner := worker.NewRunner(worker.RunnerConfig{
		Job:      poller,
		Interval: cfg.AirQuality.Interval,
		Timeout:  cfg.AirQuality.Interval,
		Logger:   log,
		Meter:    tp.Meter,
		Tracer:   tp.Tracer,
	})

	var server *http.Server
	if cfg.AirQuality.StatusAddr != "" {
		router := api.NewRouter(api.RouterConfig{
			Version:   Version,
			BuildTime: BuildTime,
			Logger:    log,
			Providers: registry,
			AQI:       poller,
			Jobs:      []handler.JobMetricsSource{runner},
		})

		server = &http.Server{
			Addr:         cfg.AirQuality.StatusAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info().Str("addr", server.Addr).Msg("status endpoint listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status endpoint error")
			}
		}()
	}

	if err := runner.Start(ctx); err != nil {
		log.Error().Err(err).Msg("runner exited")
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status endpoint forced to shutdown")
		}
	}

	log.Info().Msg("poller stopped")
}
