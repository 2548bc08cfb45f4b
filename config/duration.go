package config

import (
	"fmt"
	"time"
)

// maxTimeout caps poll_timeout. The session only checks for cancellation
// between waits, so a longer wait would make Ctrl-C feel ignored.
const maxTimeout = time.Minute

// Duration is a non-negative setting written as a Go duration string
// ("200ms", "1s"). Zero is allowed: a tap_delay of zero releases the button
// right after pressing it.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := parseDuration(text)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Timeout is a wait bound. Unlike Duration it must be positive, since a zero
// poll timeout turns the session loop into a busy spin.
type Timeout struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timeout) UnmarshalText(text []byte) error {
	v, err := parseDuration(text)
	if err != nil {
		return err
	}
	if v == 0 {
		return fmt.Errorf("timeout %q must be positive", text)
	}
	if v > maxTimeout {
		return fmt.Errorf("timeout %q is longer than %s", text, maxTimeout)
	}
	t.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Timeout) MarshalText() ([]byte, error) {
	return []byte(t.Duration.String()), nil
}

func parseDuration(text []byte) (time.Duration, error) {
	if len(text) == 0 {
		return 0, fmt.Errorf("empty duration")
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative duration %q", text)
	}
	return v, nil
}
