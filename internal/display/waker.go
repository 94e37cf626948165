// Package display wakes the panel's screen when someone walks up to it.
package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// InputPin is a digital input, such as the presence sensor.
type InputPin interface {
	Read() (bool, error)
}

// OutputPin is a digital output, such as the indicator LED.
type OutputPin interface {
	Write(high bool) error
}

// Display can be forced out of power saving.
type Display interface {
	Wake(ctx context.Context) error
}

// State of the waker.
type State int

// Waker states.
const (
	Idle State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// WakerConfig holds configuration for the waker.
type WakerConfig struct {
	Sensor  InputPin
	LED     OutputPin
	Display Display
	Logger  zerolog.Logger
}

// Waker mirrors the presence sensor onto the LED and wakes the display
// when presence is first detected. It implements worker.Job, one tick per Run.
type Waker struct {
	sensor  InputPin
	led     OutputPin
	display Display
	logger  zerolog.Logger
	state   State
}

// NewWaker creates a waker in the Idle state.
func NewWaker(cfg WakerConfig) *Waker {
	return &Waker{
		sensor:  cfg.Sensor,
		led:     cfg.LED,
		display: cfg.Display,
		logger:  cfg.Logger,
		state:   Idle,
	}
}

// Name returns the job name.
func (w *Waker) Name() string {
	return "screen-waker"
}

// State returns the current state.
func (w *Waker) State() State {
	return w.state
}

// Run performs one tick.
func (w *Waker) Run(ctx context.Context) error {
	return w.Step(ctx)
}

// Step reads the sensor once and writes the LED once. The display is woken
// only on the Idle to Active transition.
func (w *Waker) Step(ctx context.Context) error {
	present, err := w.sensor.Read()
	if err != nil {
		return fmt.Errorf("read presence sensor: %w", err)
	}

	if err := w.led.Write(present); err != nil {
		return fmt.Errorf("write indicator: %w", err)
	}

	switch {
	case present && w.state == Idle:
		w.state = Active
		w.logger.Debug().Msg("presence detected, waking display")
		// Stays Active on failure; the wake is not retried until presence clears.
		if err := w.display.Wake(ctx); err != nil {
			return fmt.Errorf("wake display: %w", err)
		}
	case !present && w.state == Active:
		w.state = Idle
		w.logger.Debug().Msg("presence cleared")
	}

	return nil
}

// Start turns the LED off before the first tick.
func (w *Waker) Start() error {
	if err := w.led.Write(false); err != nil {
		return fmt.Errorf("write indicator: %w", err)
	}
	w.logger.Info().Str("state", w.state.String()).Msg("started")
	return nil
}

// Blink lights the LED for d.
func (w *Waker) Blink(ctx context.Context, d time.Duration) error {
	if err := w.led.Write(true); err != nil {
		return fmt.Errorf("write indicator: %w", err)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	if err := w.led.Write(false); err != nil {
		return fmt.Errorf("write indicator: %w", err)
	}
	return ctx.Err()
}

// Loop repeats ticks until its context is canceled. worker.Runner implements it.
type Loop interface {
	Start(ctx context.Context) error
}

// Serve runs loop until ctx is canceled, then turns the LED off, whatever
// state the last tick left it in.
func (w *Waker) Serve(ctx context.Context, loop Loop) error {
	loopErr := loop.Start(ctx)
	if loopErr != nil {
		loopErr = fmt.Errorf("tick loop: %w", loopErr)
	}
	return errors.Join(loopErr, w.Shutdown())
}

// Shutdown turns the LED off. Call it once the tick loop has stopped.
func (w *Waker) Shutdown() error {
	w.state = Idle
	if err := w.led.Write(false); err != nil {
		return fmt.Errorf("write indicator: %w", err)
	}
	w.logger.Info().Msg("bye")
	return nil
}
