package supervisor

import (
	"errors"
	"fmt"
)

// ErrNotRunning is returned when writing to an emulator that was never started.
var ErrNotRunning = errors.New("emulator is not running")

// SpawnError reports that the emulator process could not be created.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start emulator %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// WriteError reports a failed write to the events pipe or the child's
// standard input, typically because the child has exited.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
