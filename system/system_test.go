package system

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbsim/board"
	"mbsim/sidechannel"
	"mbsim/supervisor"
	"mbsim/teletype"
	"mbsim/update"
)

// screen records what the session draws; Run may be on another goroutine.
type screen struct {
	mu      sync.Mutex
	leds    [][update.Pixels]int
	buttons [][2]bool
	console strings.Builder
}

func (s *screen) DrawLEDs(b [update.Pixels]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leds = append(s.leds, b)
}

func (s *screen) DrawButtons(p [2]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons = append(s.buttons, p)
}

func (s *screen) SetFocus(board.Focus) {}

func (s *screen) WriteConsole(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.console.WriteString(text)
}

func (s *screen) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.console.String()
}

type session struct {
	sys  *System
	scr  *screen
	kb   *teletype.Full
	logs *bytes.Buffer
}

func newSession(t *testing.T, script string) *session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emulator.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))

	kb, err := teletype.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { kb.Close() })

	s := &session{scr: &screen{}, kb: kb, logs: &bytes.Buffer{}}
	s.sys = New(Config{
		Supervisor: supervisor.Config{
			Emulator: "/bin/sh",
			Program:  path,
			Env:      sidechannel.EnvNames{Events: "GROK_CLIENT_PIPE", Updates: "GROK_UPDATES_PIPE"},
		},
		PollTimeout: 50 * time.Millisecond,
	}, s.scr, kb, log.New(s.logs, "", 0))
	return s
}

func (s *session) awaitExit(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return !s.sys.Supervisor().Running() },
		5*time.Second, 10*time.Millisecond, "emulator still running")
}

func TestRun_ShowsOutputOfShortProgram(t *testing.T) {
	leds := `[{"type":"microbit_leds","data":{"b":[9` + strings.Repeat(",0", 24) + `]}}]`
	s := newSession(t, "printf '%s\\n' '"+leds+"' >&4\nprintf 'hello\\n'\n")

	require.NoError(t, s.sys.Run(context.Background()))
	assert.Contains(t, s.scr.text(), "micro:bit simulator")
	assert.True(t, strings.HasSuffix(s.scr.text(), "hello\n"), "got %q", s.scr.text())

	require.Len(t, s.scr.leds, 2, "initial frame plus the update")
	assert.Equal(t, 9, s.scr.leds[1][0])
	assert.Equal(t, supervisor.Exited, s.sys.Supervisor().State())
}

func TestRun_QuitKillsEmulator(t *testing.T) {
	s := newSession(t, "exec sleep 30\n")
	s.kb.Push(board.KeyCtrlQ)

	require.NoError(t, s.sys.Run(context.Background()))
	s.awaitExit(t)
	assert.Contains(t, s.logs.String(), "quit requested")
}

func TestRun_CancelledContext(t *testing.T) {
	s := newSession(t, "exec sleep 30\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.sys.Run(ctx))
	s.awaitExit(t)
}

func TestRun_SpawnFailureSkipsLoop(t *testing.T) {
	s := newSession(t, "")
	s.sys = New(Config{
		Supervisor:  supervisor.Config{Emulator: filepath.Join(t.TempDir(), "missing")},
		PollTimeout: 50 * time.Millisecond,
	}, s.scr, s.kb, nil)

	err := s.sys.Run(context.Background())
	var spawn *supervisor.SpawnError
	require.True(t, errors.As(err, &spawn), "got %v", err)
	assert.Empty(t, s.scr.text())
	assert.Equal(t, supervisor.NotStarted, s.sys.Supervisor().State())
}

func TestRun_ButtonEventReachesEmulator(t *testing.T) {
	s := newSession(t, "read line <&3\nprintf '%s\\n' \"$line\" >&4\nprintf '%s\\n' \"$line\"\nexec sleep 30\n")
	s.kb.Push(board.KeyCtrlA)

	done := make(chan error, 1)
	go func() { done <- s.sys.Run(context.Background()) }()

	want := `[{"type":"microbit_button","data":{"id":0,"state":1}}]`
	require.Eventually(t, func() bool { return strings.Contains(s.scr.text(), want) },
		5*time.Second, 10*time.Millisecond)

	s.kb.Push(board.KeyEsc)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	s.awaitExit(t)

	assert.Contains(t, s.logs.String(), "ignoring microbit_button update")
	s.scr.mu.Lock()
	defer s.scr.mu.Unlock()
	assert.Equal(t, [2]bool{true, false}, s.scr.buttons[len(s.scr.buttons)-1])
}

func TestRun_SkipsMalformedUpdates(t *testing.T) {
	s := newSession(t, "printf '[{bad\\n[]\\n' >&4\nprintf 'still here\\n'\n")

	require.NoError(t, s.sys.Run(context.Background()))
	assert.Contains(t, s.scr.text(), "still here\n")
	assert.Contains(t, s.logs.String(), "invalid json")
}

// countingKeyboard counts how often the session asks for a key.
type countingKeyboard struct {
	teletype.Keyboard
	reads int
}

func (k *countingKeyboard) ReadKey() (board.Key, bool) {
	k.reads++
	return k.Keyboard.ReadKey()
}

func TestRun_ClosedStdinStopsPolling(t *testing.T) {
	s := newSession(t, "sleep 0.5\n")

	null, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { null.Close() })
	simple, err := teletype.NewSimple(null)
	require.NoError(t, err)
	t.Cleanup(func() { simple.Close() })

	kb := &countingKeyboard{Keyboard: simple}
	s.sys = New(Config{
		Supervisor: supervisor.Config{
			Emulator: "/bin/sh",
			Program:  s.sys.cfg.Supervisor.Program,
			Env:      s.sys.cfg.Supervisor.Env,
		},
		PollTimeout: 50 * time.Millisecond,
	}, s.scr, kb, log.New(s.logs, "", 0))

	require.NoError(t, s.sys.Run(context.Background()))
	assert.Equal(t, 1, kb.reads, "keyboard polled after end of input")
	assert.Equal(t, 1, strings.Count(s.logs.String(), "keyboard: end of stream"))
}
