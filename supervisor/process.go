package supervisor

import (
	"strconv"

	"golang.org/x/sys/unix"

	"mbsim/sidechannel"
)

// State returns the handle's current state without polling the child.
func (s *Supervisor) State() State {
	return s.state
}

// Running reports whether the child is still alive. It never blocks: an
// exited child is reaped on the spot and the handle moves to Exited.
func (s *Supervisor) Running() bool {
	if s.state != Running {
		return false
	}
	var ws unix.WaitStatus
	pid, err := unix.Wait4(s.cmd.Process.Pid, &ws, unix.WNOHANG, nil)
	switch {
	case err == unix.EINTR:
		return true
	case err != nil:
		s.log.Printf("emulator pid %d: wait: %v", s.cmd.Process.Pid, err)
	case pid == 0:
		return true
	default:
		s.status = ws
		s.log.Printf("emulator pid %d exited: %s", pid, describe(ws))
	}
	s.state = Exited
	s.cmd.Process.Release()
	return false
}

func describe(ws unix.WaitStatus) string {
	if ws.Signaled() {
		return "killed by " + ws.Signal().String()
	}
	return "status " + strconv.Itoa(ws.ExitStatus())
}

// ExitStatus returns the child's wait status once it has exited.
func (s *Supervisor) ExitStatus() (unix.WaitStatus, bool) {
	return s.status, s.state == Exited
}

// Terminate kills the child if it is still running. It does not wait for
// the exit to be confirmed; Running reports that later. Calling it on a
// handle that never started or already exited does nothing.
func (s *Supervisor) Terminate() {
	if !s.Running() {
		return
	}
	if err := s.cmd.Process.Kill(); err != nil {
		s.log.Printf("kill emulator pid %d: %v", s.cmd.Process.Pid, err)
		return
	}
	s.log.Printf("emulator pid %d killed", s.cmd.Process.Pid)
}

// Event sends e to the emulator over the side channel.
func (s *Supervisor) Event(e sidechannel.Event) error {
	if s.pipes == nil {
		return &WriteError{Op: "send " + e.Type, Err: ErrNotRunning}
	}
	if err := s.pipes.Send(e); err != nil {
		return &WriteError{Op: "send " + e.Type, Err: err}
	}
	return nil
}

// SendInput writes one raw byte to the child's standard input, unbuffered.
func (s *Supervisor) SendInput(c byte) error {
	if s.stdin < 0 {
		return &WriteError{Op: "write stdin", Err: ErrNotRunning}
	}
	if err := sidechannel.WriteByte(s.stdin, c); err != nil {
		return &WriteError{Op: "write stdin", Err: err}
	}
	return nil
}

// Updates returns a non-blocking reader over the updates-in pipe.
func (s *Supervisor) Updates() sidechannel.Reader {
	if s.pipes == nil {
		return sidechannel.Reader(-1)
	}
	return s.pipes.Updates()
}

// Stdout returns a non-blocking reader over the child's standard output.
func (s *Supervisor) Stdout() sidechannel.Reader {
	return sidechannel.Reader(s.stdout)
}

// Close releases the caller's ends of every pipe. It does not touch the
// child; call Terminate first.
func (s *Supervisor) Close() {
	if s.pipes != nil {
		s.pipes.Close()
		s.pipes = nil
	}
	for _, fd := range []*int{&s.stdin, &s.stdout} {
		if *fd >= 0 {
			unix.Close(*fd)
			*fd = -1
		}
	}
}
