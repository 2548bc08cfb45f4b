// Package system runs one front-end session: it starts the emulator, feeds
// the multiplexed updates to the board controller and makes sure the child
// is killed however the session ends.
package system

import (
	"context"
	"io"
	"log"
	"time"

	"mbsim/board"
	"mbsim/mux"
	"mbsim/supervisor"
	"mbsim/teletype"
	"mbsim/update"
)

// drainLimit bounds how many leftover updates are shown after the child exits.
const drainLimit = 256

// Config holds the session settings.
type Config struct {
	Supervisor  supervisor.Config
	PollTimeout time.Duration
	ReadChunk   int
	TapDelay    time.Duration
}

// System is one session with one emulator child.
type System struct {
	cfg Config
	log *log.Logger

	sup  *supervisor.Supervisor
	mux  *mux.Multiplexer
	ctrl *board.Controller
	kb   teletype.Keyboard
	r    board.Renderer

	kbDropped bool
}

// New prepares a session drawing on r and reading keys from kb. Nothing is
// started until Run.
func New(cfg Config, r board.Renderer, kb teletype.Keyboard, logger *log.Logger) *System {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &System{
		cfg: cfg,
		log: logger,
		sup: supervisor.New(cfg.Supervisor, logger),
		kb:  kb,
		r:   r,
	}
}

// Supervisor exposes the child handle, mainly for reporting its exit.
func (sys *System) Supervisor() *supervisor.Supervisor {
	return sys.sup
}

// Run starts the emulator and loops until it exits, the user quits or ctx
// is cancelled. A spawn failure is returned before the loop is entered.
// The child is killed on every return path.
func (sys *System) Run(ctx context.Context) error {
	defer sys.shutdown()

	if err := sys.sup.Start(); err != nil {
		return err
	}
	sys.mux = mux.New(
		mux.NewFdPoller(sys.sup.Updates().Fd(), sys.sup.Stdout().Fd(), sys.kb.Fd()),
		sys.sup.Updates(),
		sys.sup.Stdout(),
		sys.cfg.ReadChunk,
		sys.log,
	)
	sys.ctrl = board.NewController(sys.r, sys.kb, sys.sup, sys.cfg.TapDelay, sys.log)
	sys.ctrl.Init()

	for sys.sup.Running() {
		if ctx.Err() != nil {
			sys.log.Printf("session cancelled: %v", context.Cause(ctx))
			return nil
		}
		more, err := sys.step(sys.cfg.PollTimeout)
		if err != nil {
			return err
		}
		if !more {
			sys.log.Printf("quit requested")
			return nil
		}
	}
	sys.drain()
	return nil
}

// step handles at most one update. It returns false once the user quits.
func (sys *System) step(timeout time.Duration) (bool, error) {
	u, err := sys.mux.Next(timeout)
	if err != nil || u == nil {
		return true, err
	}
	more := sys.ctrl.Handle(u)
	if _, err := sys.mux.Pop(); err != nil {
		return false, err
	}
	if u.Kind() == update.KindInput {
		sys.checkKeyboard()
	}
	return more, nil
}

// checkKeyboard stops polling a keyboard that can no longer produce keys,
// such as stdin redirected from a file that has been read to the end.
func (sys *System) checkKeyboard() {
	if sys.kbDropped {
		return
	}
	if err := sys.kb.Err(); err != nil {
		sys.kbDropped = true
		sys.mux.Drop(mux.Keyboard, err)
	}
}

// drain shows whatever the child wrote just before exiting.
func (sys *System) drain() {
	for i := 0; i < drainLimit; i++ {
		if sys.mux.Len() == 0 {
			u, err := sys.mux.Next(0)
			if err != nil || u == nil {
				return
			}
		}
		if more, err := sys.step(0); err != nil || !more {
			return
		}
	}
}

func (sys *System) shutdown() {
	sys.sup.Terminate()
	sys.sup.Close()
}
