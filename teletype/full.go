package teletype

import (
	"fmt"
	"io"
	"log"

	"github.com/jroimartin/gocui"
	"golang.org/x/sys/unix"

	"mbsim/board"
	"mbsim/sidechannel"
)

// keyBacklog is how many keystrokes may wait for the session loop before
// new ones are dropped.
const keyBacklog = 64

// Full is the keyboard of the gocui front end. gocui's main loop pushes keys
// through Editor; the session loop reads them back with ReadKey.
type Full struct {
	keystrokes chan board.Key
	wake       sidechannel.Reader
	signal     int
	err        error
	log        *log.Logger
}

// New returns a keyboard with an empty backlog.
func New(logger *log.Logger) (*Full, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, fmt.Errorf("create keyboard pipe: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Full{
		keystrokes: make(chan board.Key, keyBacklog),
		wake:       sidechannel.Reader(fds[0]),
		signal:     fds[1],
		log:        logger,
	}, nil
}

// Editor returns the gocui editor to install on every focusable view; it
// forwards all keys that are not bound globally.
func (t *Full) Editor() gocui.Editor {
	return gocui.EditorFunc(func(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
		if k, ok := translate(key, ch); ok {
			t.Push(k)
		}
	})
}

// Push queues k and wakes the poller. It never blocks: when the backlog is
// full the key is dropped.
func (t *Full) Push(k board.Key) {
	select {
	case t.keystrokes <- k:
	default:
		t.log.Printf("keyboard backlog full, dropping key %#x", rune(k))
		return
	}
	if err := sidechannel.WriteByte(t.signal, 0); err != nil {
		t.log.Printf("keyboard wake-up: %v", err)
	}
}

// ReadKey takes the oldest waiting key, if any.
func (t *Full) ReadKey() (board.Key, bool) {
	var b [1]byte
	n, err := t.wake.Read(b[:])
	if err != nil {
		t.err = err
	}
	if n == 0 {
		return 0, false
	}
	select {
	case k := <-t.keystrokes:
		return k, true
	default:
		return 0, false
	}
}

// Err returns the error that broke the wake-up pipe, if any.
func (t *Full) Err() error {
	return t.err
}

// Fd returns the read end of the wake-up pipe.
func (t *Full) Fd() int {
	return t.wake.Fd()
}

// Close releases the wake-up pipe.
func (t *Full) Close() error {
	unix.Close(t.signal)
	return unix.Close(t.wake.Fd())
}

// translate maps a gocui key event to a board key.
func translate(key gocui.Key, ch rune) (board.Key, bool) {
	if ch != 0 {
		return board.Key(ch), true
	}
	switch key {
	case gocui.KeyArrowUp:
		return board.KeyUp, true
	case gocui.KeyArrowDown:
		return board.KeyDown, true
	case gocui.KeyDelete:
		return board.KeyDelete, true
	}
	if key <= gocui.KeyBackspace2 {
		return board.Key(key), true
	}
	return 0, false
}
