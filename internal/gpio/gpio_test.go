package gpio_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepanel/homepanel/internal/gpio"
)

type fakeLine struct {
	value    int
	readErr  error
	writes   []int
	closed   int
	closeErr error
}

func (l *fakeLine) Value() (int, error) { return l.value, l.readErr }

func (l *fakeLine) SetValue(v int) error {
	l.writes = append(l.writes, v)
	l.value = v
	return nil
}

func (l *fakeLine) Close() error {
	l.closed++
	return l.closeErr
}

type request struct {
	chip     string
	offset   int
	dir      gpio.Direction
	consumer string
}

// fakeChip hands out fakeLines and records each request.
type fakeChip struct {
	lines    map[int]*fakeLine
	requests []request
	err      error
}

func newFakeChip() *fakeChip {
	return &fakeChip{lines: make(map[int]*fakeLine)}
}

func (c *fakeChip) request(chip string, offset int, dir gpio.Direction, consumer string) (gpio.Line, error) {
	c.requests = append(c.requests, request{chip, offset, dir, consumer})
	if c.err != nil {
		return nil, c.err
	}
	line := &fakeLine{}
	c.lines[offset] = line
	return line, nil
}

func TestOpen_Defaults(t *testing.T) {
	chip := newFakeChip()

	pin, err := gpio.Open(gpio.PinConfig{Line: gpio.DefaultSensorLine, Direction: gpio.In, Requester: chip.request})
	require.NoError(t, err)

	require.Len(t, chip.requests, 1)
	assert.Equal(t, request{"gpiochip0", 14, gpio.In, "homepanel"}, chip.requests[0])
	assert.Equal(t, 14, pin.Line())
}

func TestOpen_Configured(t *testing.T) {
	chip := newFakeChip()

	_, err := gpio.Open(gpio.PinConfig{
		Chip:      "/dev/gpiochip4",
		Line:      gpio.DefaultLEDLine,
		Direction: gpio.Out,
		Consumer:  "screenwaker",
		Requester: chip.request,
	})
	require.NoError(t, err)
	assert.Equal(t, request{"/dev/gpiochip4", 15, gpio.Out, "screenwaker"}, chip.requests[0])
}

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  gpio.PinConfig
	}{
		{"negative line", gpio.PinConfig{Line: -1, Direction: gpio.In}},
		{"missing direction", gpio.PinConfig{Line: 14}},
		{"unknown direction", gpio.PinConfig{Line: 14, Direction: "both"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip := newFakeChip()
			tt.cfg.Requester = chip.request

			pin, err := gpio.Open(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, pin)
			assert.Empty(t, chip.requests, "nothing is requested for an invalid config")
		})
	}
}

func TestOpen_RequestFailureHoldsNothing(t *testing.T) {
	chip := newFakeChip()
	chip.err = errors.New("device or resource busy")

	pin, err := gpio.Open(gpio.PinConfig{Line: 14, Direction: gpio.In, Requester: chip.request})
	require.Error(t, err)
	assert.Nil(t, pin)
	assert.Contains(t, err.Error(), "request gpiochip0 line 14")
	assert.Empty(t, chip.lines)
}

func TestOpen_MissingChip(t *testing.T) {
	_, err := gpio.Open(gpio.PinConfig{Chip: "/dev/gpiochip-does-not-exist", Line: 14, Direction: gpio.In})
	assert.Error(t, err)
}

func TestPin_Read(t *testing.T) {
	tests := []struct {
		value    int
		expected bool
	}{
		{1, true},
		{0, false},
	}

	for _, tt := range tests {
		chip := newFakeChip()
		pin, err := gpio.Open(gpio.PinConfig{Line: 14, Direction: gpio.In, Requester: chip.request})
		require.NoError(t, err)
		chip.lines[14].value = tt.value

		got, err := pin.Read()
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestPin_ReadError(t *testing.T) {
	chip := newFakeChip()
	pin, err := gpio.Open(gpio.PinConfig{Line: 14, Direction: gpio.In, Requester: chip.request})
	require.NoError(t, err)
	chip.lines[14].readErr = assert.AnError

	_, err = pin.Read()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPin_Write(t *testing.T) {
	chip := newFakeChip()
	pin, err := gpio.Open(gpio.PinConfig{Line: 15, Direction: gpio.Out, Requester: chip.request})
	require.NoError(t, err)

	require.NoError(t, pin.Write(true))
	require.NoError(t, pin.Write(false))

	assert.Equal(t, []int{1, 0}, chip.lines[15].writes)
}

func TestPin_WriteInputFails(t *testing.T) {
	chip := newFakeChip()
	pin, err := gpio.Open(gpio.PinConfig{Line: 14, Direction: gpio.In, Requester: chip.request})
	require.NoError(t, err)

	assert.ErrorIs(t, pin.Write(true), gpio.ErrNotOutput)
	assert.Empty(t, chip.lines[14].writes)
}

func TestPin_Close(t *testing.T) {
	chip := newFakeChip()
	pin, err := gpio.Open(gpio.PinConfig{Line: 15, Direction: gpio.Out, Requester: chip.request})
	require.NoError(t, err)

	require.NoError(t, pin.Close())
	require.NoError(t, pin.Close())
	assert.Equal(t, 1, chip.lines[15].closed)

	assert.ErrorIs(t, pin.Write(true), gpio.ErrClosed)
	_, err = pin.Read()
	assert.ErrorIs(t, err, gpio.ErrClosed)
}

func TestPin_CloseError(t *testing.T) {
	chip := newFakeChip()
	pin, err := gpio.Open(gpio.PinConfig{Line: 15, Direction: gpio.Out, Requester: chip.request})
	require.NoError(t, err)
	chip.lines[15].closeErr = assert.AnError

	assert.ErrorIs(t, pin.Close(), assert.AnError)
}
