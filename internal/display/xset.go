package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultIdleTimeout is the DPMS standby, suspend and off timeout.
const DefaultIdleTimeout = 120 * time.Second

// ErrNoDisplay is returned when no X display is configured.
var ErrNoDisplay = errors.New("DISPLAY is not set")

// CommandRunner executes an external command with extra environment entries.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) error

// XSetConfig holds configuration for the xset display controller.
type XSetConfig struct {
	// Display is the X display, e.g. ":0".
	Display string

	// IdleTimeout is applied by SetIdleTimeout (default: DefaultIdleTimeout).
	IdleTimeout time.Duration

	// Runner overrides command execution, for tests.
	Runner CommandRunner
}

// XSet controls X11 display power management through the xset command.
type XSet struct {
	display     string
	idleTimeout time.Duration
	run         CommandRunner
}

// NewXSet creates an xset controller.
func NewXSet(cfg XSetConfig) *XSet {
	x := &XSet{
		display:     cfg.Display,
		idleTimeout: cfg.IdleTimeout,
		run:         cfg.Runner,
	}
	if x.idleTimeout <= 0 {
		x.idleTimeout = DefaultIdleTimeout
	}
	if x.run == nil {
		x.run = execCommand
	}
	return x
}

// Available reports whether a display is configured.
func (x *XSet) Available() bool {
	return x.display != ""
}

// Wake forces the display on.
func (x *XSet) Wake(ctx context.Context) error {
	return x.xset(ctx, "dpms", "force", "on")
}

// SetIdleTimeout makes the display sleep after the configured idle period.
func (x *XSet) SetIdleTimeout(ctx context.Context) error {
	secs := strconv.Itoa(int(x.idleTimeout / time.Second))
	return x.xset(ctx, "dpms", secs, secs, secs)
}

func (x *XSet) xset(ctx context.Context, args ...string) error {
	if !x.Available() {
		return ErrNoDisplay
	}
	if err := x.run(ctx, []string{"DISPLAY=" + x.display}, "xset", args...); err != nil {
		return fmt.Errorf("xset %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

func execCommand(ctx context.Context, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
