package display_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepanel/homepanel/internal/display"
)

type recordedCommand struct {
	env  []string
	line string
}

func recorder(calls *[]recordedCommand, err error) display.CommandRunner {
	return func(_ context.Context, env []string, name string, args ...string) error {
		*calls = append(*calls, recordedCommand{
			env:  env,
			line: name + " " + strings.Join(args, " "),
		})
		return err
	}
}

func TestXSet_Wake(t *testing.T) {
	var calls []recordedCommand
	x := display.NewXSet(display.XSetConfig{Display: ":0", Runner: recorder(&calls, nil)})

	require.NoError(t, x.Wake(context.Background()))

	require.Len(t, calls, 1)
	assert.Equal(t, "xset dpms force on", calls[0].line)
	assert.Equal(t, []string{"DISPLAY=:0"}, calls[0].env)
}

func TestXSet_SetIdleTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		expected string
	}{
		{"default", 0, "xset dpms 120 120 120"},
		{"custom", 5 * time.Minute, "xset dpms 300 300 300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []recordedCommand
			x := display.NewXSet(display.XSetConfig{
				Display:     ":0",
				IdleTimeout: tt.timeout,
				Runner:      recorder(&calls, nil),
			})

			require.NoError(t, x.SetIdleTimeout(context.Background()))
			require.Len(t, calls, 1)
			assert.Equal(t, tt.expected, calls[0].line)
		})
	}
}

func TestXSet_NoDisplay(t *testing.T) {
	var calls []recordedCommand
	x := display.NewXSet(display.XSetConfig{Runner: recorder(&calls, nil)})

	assert.False(t, x.Available())
	assert.ErrorIs(t, x.Wake(context.Background()), display.ErrNoDisplay)
	assert.ErrorIs(t, x.SetIdleTimeout(context.Background()), display.ErrNoDisplay)
	assert.Empty(t, calls)
}

func TestXSet_CommandFailure(t *testing.T) {
	var calls []recordedCommand
	x := display.NewXSet(display.XSetConfig{Display: ":0", Runner: recorder(&calls, errors.New("exit status 1"))})

	err := x.Wake(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xset dpms force on")
	assert.Contains(t, err.Error(), "exit status 1")
}
