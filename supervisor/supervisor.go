// Package supervisor owns the emulator child process: it spawns it with the
// side channel wired through inherited descriptors, polls it for liveness
// and kills it on shutdown.
package supervisor

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"mbsim/sidechannel"
)

// State of the child process handle.
type State int

const (
	NotStarted State = iota
	Running
	Exited
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Exited:
		return "exited"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config describes how to launch the emulator.
type Config struct {
	Emulator    string // binary path, looked up in PATH if not absolute
	Program     string // optional program for the emulator to run
	Interactive bool   // drop to the REPL once Program finishes
	Env         sidechannel.EnvNames
	InheritEnv  bool     // pass the caller's environment through as well
	Stderr      *os.File // child stderr; nil discards it
}

// Supervisor is the handle of one emulator child and the pipes it shares
// with the caller. It is not safe for concurrent use.
type Supervisor struct {
	cfg Config
	log *log.Logger

	state  State
	cmd    *exec.Cmd
	status unix.WaitStatus

	pipes  *sidechannel.Pipes
	stdin  int
	stdout int
}

// New returns a supervisor in the NotStarted state.
func New(cfg Config, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Supervisor{cfg: cfg, log: logger, stdin: -1, stdout: -1}
}

// Args returns the emulator's argument list for the configured mode.
func (s *Supervisor) Args() []string {
	var args []string
	if s.cfg.Program != "" {
		if s.cfg.Interactive {
			args = append(args, "-i")
		}
		args = append(args, s.cfg.Program)
	}
	return args
}

// Start spawns the emulator. On failure the handle stays NotStarted and
// every descriptor created for the attempt is released.
func (s *Supervisor) Start() (err error) {
	if s.state != NotStarted {
		return fmt.Errorf("start emulator: already %s", s.state)
	}
	spawnErr := func(err error) error {
		return &SpawnError{Path: s.cfg.Emulator, Err: err}
	}

	pipes, err := sidechannel.Open()
	if err != nil {
		return spawnErr(err)
	}
	childIn, stdin, err := stdioPipe(true)
	if err != nil {
		pipes.Close()
		return spawnErr(err)
	}
	childOut, stdout, err := stdioPipe(false)
	if err != nil {
		pipes.Close()
		childIn.Close()
		unix.Close(stdin)
		return spawnErr(err)
	}
	defer func() {
		// the child holds its own copies from here on
		childIn.Close()
		childOut.Close()
		pipes.CloseChildEnds()
		if err != nil {
			pipes.Close()
			unix.Close(stdin)
			unix.Close(stdout)
		}
	}()

	cmd := exec.Command(s.cfg.Emulator, s.Args()...)
	var env []string
	if s.cfg.InheritEnv {
		env = os.Environ()
	}
	cmd.Env = append(env, pipes.Environ(s.cfg.Env)...)
	cmd.Stdin = childIn
	cmd.Stdout = childOut
	if s.cfg.Stderr != nil {
		cmd.Stderr = s.cfg.Stderr
	}
	cmd.ExtraFiles = pipes.ChildFiles()

	if err := cmd.Start(); err != nil {
		return spawnErr(err)
	}

	s.cmd = cmd
	s.pipes = pipes
	s.stdin = stdin
	s.stdout = stdout
	s.state = Running
	s.log.Printf("emulator %s started (pid %d, args %q)", s.cfg.Emulator, cmd.Process.Pid, cmd.Args[1:])
	return nil
}

// stdioPipe creates a pipe for one of the child's standard streams. The
// child's end is returned as a file; the caller keeps the other end as a
// raw non-blocking descriptor. callerWrites selects stdin over stdout.
func stdioPipe(callerWrites bool) (*os.File, int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, -1, err
	}
	child, caller := fds[1], fds[0]
	name := "stdout"
	if callerWrites {
		child, caller = fds[0], fds[1]
		name = "stdin"
	}
	if err := unix.SetNonblock(caller, true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, -1, err
	}
	return os.NewFile(uintptr(child), name), caller, nil
}
