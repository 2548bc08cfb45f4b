package supervisor

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbsim/sidechannel"
)

var testEnv = sidechannel.EnvNames{Events: "GROK_CLIENT_PIPE", Updates: "GROK_UPDATES_PIPE"}

// startScript runs script under /bin/sh as the emulator's "program".
func startScript(t *testing.T, script string) *Supervisor {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emulator.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))

	s := New(Config{Emulator: "/bin/sh", Program: path, Env: testEnv}, nil)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		s.Terminate()
		s.Close()
	})
	return s
}

// readUntil collects output from r until it contains want.
func readUntil(t *testing.T, r io.Reader, want string) string {
	t.Helper()
	var got strings.Builder
	buf := make([]byte, 512)
	require.Eventually(t, func() bool {
		n, err := r.Read(buf)
		got.Write(buf[:n])
		return err == nil && strings.Contains(got.String(), want)
	}, 5*time.Second, 5*time.Millisecond, "waiting for %q", want)
	return got.String()
}

func TestSupervisor_Args(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"repl", Config{}, nil},
		{"program", Config{Program: "main.py"}, []string{"main.py"}},
		{"program then repl", Config{Program: "main.py", Interactive: true}, []string{"-i", "main.py"}},
		{"interactive without program", Config{Interactive: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.cfg, nil).Args())
		})
	}
}

func TestSupervisor_SpawnFailure(t *testing.T) {
	s := New(Config{Emulator: filepath.Join(t.TempDir(), "missing")}, nil)
	err := s.Start()

	var spawn *SpawnError
	require.True(t, errors.As(err, &spawn), "got %v", err)
	assert.Equal(t, NotStarted, s.State())
	assert.False(t, s.Running())

	s.Terminate()
	assert.Equal(t, NotStarted, s.State())
	assert.ErrorIs(t, s.Event(sidechannel.Button(0, 1)), ErrNotRunning)
	assert.ErrorIs(t, s.SendInput('x'), ErrNotRunning)
}

func TestSupervisor_TerminateIsIdempotent(t *testing.T) {
	s := startScript(t, "exec sleep 30\n")
	require.True(t, s.Running())
	require.Error(t, s.Start(), "second start is rejected")

	s.Terminate()
	require.Eventually(t, func() bool { return !s.Running() }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, Exited, s.State())

	ws, ok := s.ExitStatus()
	require.True(t, ok)
	assert.True(t, ws.Signaled())

	s.Terminate()
	assert.Equal(t, Exited, s.State())
}

func TestSupervisor_NaturalExit(t *testing.T) {
	s := startScript(t, "exit 3\n")
	require.Eventually(t, func() bool { return !s.Running() }, 5*time.Second, 10*time.Millisecond)

	ws, ok := s.ExitStatus()
	require.True(t, ok)
	assert.Equal(t, 3, ws.ExitStatus())

	var werr *WriteError
	assert.True(t, errors.As(s.Event(sidechannel.Button(0, 1)), &werr), "event to a dead child is reported")
}

func TestSupervisor_Stdout(t *testing.T) {
	s := startScript(t, "printf 'hello\\n'\nexec sleep 30\n")
	assert.Equal(t, "hello\n", readUntil(t, s.Stdout(), "hello\n"))
}

func TestSupervisor_EnvironmentCarriesDescriptors(t *testing.T) {
	s := startScript(t, `printf '%s %s\n' "$GROK_CLIENT_PIPE" "$GROK_UPDATES_PIPE"`+"\nexec sleep 30\n")
	assert.Equal(t, "3 4\n", readUntil(t, s.Stdout(), "\n"))
}

func TestSupervisor_SideChannelEcho(t *testing.T) {
	s := startScript(t, "read line <&3\nprintf '%s\\n' \"$line\" >&4\nexec sleep 30\n")
	require.NoError(t, s.Event(sidechannel.Button(0, 1)))

	got := readUntil(t, s.Updates(), "\n")
	assert.Equal(t, `[{"type":"microbit_button","data":{"id":0,"state":1}}]`+"\n", got)
}

func TestSupervisor_SendInput(t *testing.T) {
	s := startScript(t, "read -r c\nprintf '[%s]' \"$c\"\nexec sleep 30\n")
	for _, c := range []byte("x\n") {
		require.NoError(t, s.SendInput(c))
	}
	assert.Equal(t, "[x]", readUntil(t, s.Stdout(), "]"))
}
