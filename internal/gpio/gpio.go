// Package gpio drives digital lines through the Linux GPIO character device.
package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the Raspberry Pi header's GPIO chip.
const DefaultChip = "gpiochip0"

// Default BCM lines: board pin 8 is the presence sensor, board pin 10 the LED.
const (
	DefaultSensorLine = 14
	DefaultLEDLine    = 15
)

// DefaultConsumer labels requested lines in the kernel.
const DefaultConsumer = "homepanel"

// Direction of a pin.
type Direction string

// Pin directions.
const (
	In  Direction = "in"
	Out Direction = "out"
)

// Pin errors.
var (
	// ErrNotOutput is returned when writing to an input pin.
	ErrNotOutput = errors.New("pin is not an output")

	// ErrClosed is returned when using a pin after Close.
	ErrClosed = errors.New("pin is closed")
)

// Line is a requested GPIO line. *gpiocdev.Line implements it.
type Line interface {
	Value() (int, error)
	SetValue(value int) error
	Close() error
}

// Requester requests a single line from a chip.
type Requester func(chip string, offset int, dir Direction, consumer string) (Line, error)

// PinConfig holds configuration for a pin.
type PinConfig struct {
	// Chip is the GPIO chip name or /dev path (default: DefaultChip).
	Chip string

	// Line is the line offset on the chip, which is the BCM number on a Pi.
	Line int

	// Direction of the pin.
	Direction Direction

	// Consumer labels the line in the kernel (default: DefaultConsumer).
	Consumer string

	// Requester overrides line requests, for tests (default: RequestLine).
	Requester Requester
}

// Pin is a single requested GPIO line.
type Pin struct {
	chip      string
	line      int
	direction Direction
	handle    Line
}

// Open requests the line with the configured direction. Output lines start low.
func Open(cfg PinConfig) (*Pin, error) {
	if cfg.Line < 0 {
		return nil, fmt.Errorf("invalid gpio line %d", cfg.Line)
	}
	if cfg.Direction != In && cfg.Direction != Out {
		return nil, fmt.Errorf("invalid gpio direction %q", cfg.Direction)
	}

	chip := cfg.Chip
	if chip == "" {
		chip = DefaultChip
	}
	consumer := cfg.Consumer
	if consumer == "" {
		consumer = DefaultConsumer
	}
	request := cfg.Requester
	if request == nil {
		request = RequestLine
	}

	handle, err := request(chip, cfg.Line, cfg.Direction, consumer)
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, cfg.Line, err)
	}

	return &Pin{
		chip:      chip,
		line:      cfg.Line,
		direction: cfg.Direction,
		handle:    handle,
	}, nil
}

// RequestLine requests a line from the character device.
func RequestLine(chip string, offset int, dir Direction, consumer string) (Line, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(consumer)}
	if dir == Out {
		opts = append(opts, gpiocdev.AsOutput(0))
	} else {
		opts = append(opts, gpiocdev.AsInput)
	}

	line, err := gpiocdev.RequestLine(chip, offset, opts...)
	if err != nil {
		return nil, err
	}
	return line, nil
}

// Line returns the line offset.
func (p *Pin) Line() int {
	return p.line
}

// Read returns true when the line is high.
func (p *Pin) Read() (bool, error) {
	if p.handle == nil {
		return false, fmt.Errorf("read %s line %d: %w", p.chip, p.line, ErrClosed)
	}
	v, err := p.handle.Value()
	if err != nil {
		return false, fmt.Errorf("read %s line %d: %w", p.chip, p.line, err)
	}
	return v != 0, nil
}

// Write drives an output line high or low.
func (p *Pin) Write(high bool) error {
	if p.direction != Out {
		return fmt.Errorf("write %s line %d: %w", p.chip, p.line, ErrNotOutput)
	}
	if p.handle == nil {
		return fmt.Errorf("write %s line %d: %w", p.chip, p.line, ErrClosed)
	}

	value := 0
	if high {
		value = 1
	}
	if err := p.handle.SetValue(value); err != nil {
		return fmt.Errorf("write %s line %d: %w", p.chip, p.line, err)
	}
	return nil
}

// Close releases the line. Closing twice is a no-op.
func (p *Pin) Close() error {
	if p.handle == nil {
		return nil
	}
	err := p.handle.Close()
	p.handle = nil
	if err != nil {
		return fmt.Errorf("release %s line %d: %w", p.chip, p.line, err)
	}
	return nil
}
