// Package teletype provides the local keyboard as a pollable source.
//
// Full receives keys from gocui and signals each one by writing a byte to a
// wake-up pipe; Simple reads the raw terminal directly. Either way the
// multiplexer only watches a descriptor, and the board controller takes the
// key with ReadKey once told one is waiting.
package teletype

import (
	"mbsim/board"
)

// Keyboard is a key source the multiplexer can poll.
type Keyboard interface {
	board.Keyboard
	// Fd is the descriptor that becomes readable when a key is waiting.
	Fd() int
	// Err reports why the key source stopped, io.EOF once it is exhausted.
	// While it returns nil the descriptor is worth polling.
	Err() error
	Close() error
}

var (
	_ Keyboard = (*Full)(nil)
	_ Keyboard = (*Simple)(nil)
)
