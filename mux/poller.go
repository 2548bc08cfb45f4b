package mux

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Source is one of the three inputs the multiplexer watches.
type Source int

const (
	Updates Source = iota
	Stdout
	Keyboard
	numSources
)

func (s Source) String() string {
	switch s {
	case Updates:
		return "updates"
	case Stdout:
		return "stdout"
	case Keyboard:
		return "keyboard"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Ready is the set of sources that have data (or EOF) pending.
type Ready uint8

// ReadyOf builds a Ready set.
func ReadyOf(sources ...Source) Ready {
	var r Ready
	for _, s := range sources {
		r |= 1 << s
	}
	return r
}

// Has reports whether s is in the set.
func (r Ready) Has(s Source) bool {
	return r&(1<<s) != 0
}

// Poller waits, for at most timeout, until at least one source is ready.
// An empty set with a nil error means the wait timed out.
type Poller interface {
	Wait(timeout time.Duration) (Ready, error)
	// Drop stops watching a source that has reached end of file.
	Drop(s Source)
}

// FdPoller is a Poller over raw file descriptors using poll(2).
type FdPoller struct {
	fds [numSources]unix.PollFd
}

// NewFdPoller watches the given descriptors. A negative descriptor is
// never reported ready.
func NewFdPoller(updates, stdout, keyboard int) *FdPoller {
	p := &FdPoller{}
	for s, fd := range [numSources]int{updates, stdout, keyboard} {
		p.fds[s] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}
	return p
}

const readyEvents = unix.POLLIN | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL

// Wait blocks in poll(2) for at most timeout. An interrupted wait counts as
// a timeout.
func (p *FdPoller) Wait(timeout time.Duration) (Ready, error) {
	for i := range p.fds {
		p.fds[i].Revents = 0
	}
	n, err := unix.Poll(p.fds[:], int(timeout.Milliseconds()))
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("poll: %w", err)
	}
	var r Ready
	if n == 0 {
		return r, nil
	}
	for s, fd := range p.fds {
		if fd.Fd >= 0 && fd.Revents&readyEvents != 0 {
			r |= 1 << s
		}
	}
	return r, nil
}

// Drop removes s from the readiness set.
func (p *FdPoller) Drop(s Source) {
	p.fds[s].Fd = -1
}
