package teletype

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"mbsim/board"
	"mbsim/sidechannel"
)

// escapes are the terminal sequences following ESC that map to one key.
var escapes = map[string]board.Key{
	"[A":  board.KeyUp,
	"[B":  board.KeyDown,
	"OA":  board.KeyUp,
	"OB":  board.KeyDown,
	"[3~": board.KeyDelete,
}

// Simple reads keys straight from a terminal (or any stdin) in raw mode.
type Simple struct {
	in    io.Reader
	fd    int
	state *term.State
	err   error
}

// NewSimple puts f in raw, non-blocking mode when it is a terminal and
// non-blocking mode otherwise. Close restores it.
func NewSimple(f *os.File) (*Simple, error) {
	fd := int(f.Fd())
	t := &Simple{in: sidechannel.Reader(fd), fd: fd}
	if isatty.IsTerminal(f.Fd()) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("set terminal raw mode: %w", err)
		}
		t.state = state
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		t.Close()
		return nil, fmt.Errorf("set keyboard non-blocking: %w", err)
	}
	return t, nil
}

// ReadKey reads one key. Escape sequences for the arrow and delete keys are
// collapsed into a single key; a lone ESC is returned as KeyEsc.
func (t *Simple) ReadKey() (board.Key, bool) {
	c, ok := t.readByte()
	if !ok {
		return 0, false
	}
	if board.Key(c) != board.KeyEsc {
		return board.Key(c), true
	}

	var seq string
	for {
		c, ok := t.readByte()
		if !ok {
			break
		}
		seq += string(rune(c))
		if k, ok := escapes[seq]; ok {
			return k, true
		}
		if !escapePrefix(seq) {
			break
		}
	}
	return board.KeyEsc, true
}

func escapePrefix(s string) bool {
	for seq := range escapes {
		if strings.HasPrefix(seq, s) {
			return true
		}
	}
	return false
}

func (t *Simple) readByte() (byte, bool) {
	if t.err != nil {
		return 0, false
	}
	var b [1]byte
	n, err := t.in.Read(b[:])
	if n == 1 {
		return b[0], true
	}
	if err != nil {
		t.err = err
	}
	return 0, false
}

// Err returns io.EOF once stdin is closed, or the read error that stopped it.
func (t *Simple) Err() error {
	return t.err
}

// Fd returns the terminal descriptor.
func (t *Simple) Fd() int {
	return t.fd
}

// Close puts the terminal back the way NewSimple found it.
func (t *Simple) Close() error {
	unix.SetNonblock(t.fd, false)
	if t.state != nil {
		return term.Restore(t.fd, t.state)
	}
	return nil
}
