// Package main provides the entrypoint for the presence-triggered screen waker.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/homepanel/homepanel/internal/config"
	"github.com/homepanel/homepanel/internal/display"
	"github.com/homepanel/homepanel/internal/gpio"
	"github.com/homepanel/homepanel/internal/logging"
	"github.com/homepanel/homepanel/internal/telemetry"
	"github.com/homepanel/homepanel/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const startupBlink = time.Second

func main() {
	const serviceName = "screenwaker"

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

	if err := cfg.ValidateWaker(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Int("sensor_line", cfg.Waker.SensorLine).
		Int("led_line", cfg.Waker.LEDLine).
		Msg("starting screen waker")

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

	sensor, err := gpio.Open(gpio.PinConfig{
		Chip:      cfg.Waker.GPIOChip,
		Line:      cfg.Waker.SensorLine,
		Direction: gpio.In,
		Consumer:  serviceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open presence sensor")
	}
	defer closePin(log, sensor)

	led, err := gpio.Open(gpio.PinConfig{
		Chip:      cfg.Waker.GPIOChip,
		Line:      cfg.Waker.LEDLine,
		Direction: gpio.Out,
		Consumer:  serviceName,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to open indicator LED")
		return
	}
	defer closePin(log, led)

	screen := display.NewXSet(display.XSetConfig{
		Display:     cfg.Waker.Display,
		IdleTimeout: cfg.Waker.DPMSTimeout,
	})

	waker := display.NewWaker(display.WakerConfig{
		Sensor:  sensor,
		LED:     led,
		Display: screen,
		Logger:  log,
	})

	if err := waker.Start(); err != nil {
		log.Error().Err(err).Msg("failed to reset indicator")
		return
	}

	if screen.Available() {
		if err := waker.Blink(ctx, startupBlink); err != nil {
			log.Warn().Err(err).Msg("startup blink interrupted")
		}
		if err := screen.SetIdleTimeout(ctx); err != nil {
			log.Error().Err(err).Msg("failed to set display idle timeout")
		}
	} else {
		log.Error().Err(display.ErrNoDisplay).Msg("display commands will fail")
	}

	runner := worker.NewRunner(worker.RunnerConfig{
		Job:      waker,
		Interval: cfg.Waker.Tick,
		Logger:   log,
		Meter:    tp.Meter,
		Tracer:   tp.Tracer,
	})

	if err := waker.Serve(ctx, runner); err != nil {
		log.Error().Err(err).Msg("screen waker stopped with errors")
	}
}

func closePin(log zerolog.Logger, pin *gpio.Pin) {
	if err := pin.Close(); err != nil {
		log.Warn().Err(err).Int("line", pin.Line()).Msg("failed to release gpio line")
	}
}
