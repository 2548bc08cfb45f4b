// Package sidechannel implements the private pipes used to exchange JSON
// events and updates with the emulator, independent of its standard streams.
//
// Outbound events are single-element JSON arrays, one per line. Inbound
// updates arrive as JSON arrays of {type, data} objects, one batch per line.
package sidechannel

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Descriptor numbers of the side-channel ends in the child, given that
// ChildFiles is passed as the first extra files (fd 3 onwards).
const (
	ChildEventsFd  = 3
	ChildUpdatesFd = 4
)

// DefaultChunk is the maximum number of bytes read from the updates pipe in
// one readiness cycle.
const DefaultChunk = 20000

// EnvNames are the environment variables that tell the child which
// descriptors carry the side channel.
type EnvNames struct {
	Events  string
	Updates string
}

// Pipes is the events-out / updates-in pipe pair for one emulator child.
type Pipes struct {
	events  int // write end, events-out
	updates int // read end, updates-in

	childEvents  *os.File
	childUpdates *os.File
}

// Open creates both pipes. The caller's ends are non-blocking and
// close-on-exec; the child's ends are inherited through ChildFiles.
func Open() (*Pipes, error) {
	var ev, up [2]int
	if err := unix.Pipe2(ev[:], unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("create events pipe: %w", err)
	}
	if err := unix.Pipe2(up[:], unix.O_CLOEXEC); err != nil {
		unix.Close(ev[0])
		unix.Close(ev[1])
		return nil, fmt.Errorf("create updates pipe: %w", err)
	}
	p := &Pipes{
		events:       ev[1],
		updates:      up[0],
		childEvents:  os.NewFile(uintptr(ev[0]), "events-out"),
		childUpdates: os.NewFile(uintptr(up[1]), "updates-in"),
	}
	for _, fd := range []int{p.events, p.updates} {
		if err := unix.SetNonblock(fd, true); err != nil {
			p.Close()
			return nil, fmt.Errorf("set side channel non-blocking: %w", err)
		}
	}
	return p, nil
}

// ChildFiles returns the ends destined for the child, in the order matching
// ChildEventsFd and ChildUpdatesFd.
func (p *Pipes) ChildFiles() []*os.File {
	return []*os.File{p.childEvents, p.childUpdates}
}

// Environ returns the NAME=fd entries describing the side channel to the child.
func (p *Pipes) Environ(names EnvNames) []string {
	return []string{
		names.Events + "=" + strconv.Itoa(ChildEventsFd),
		names.Updates + "=" + strconv.Itoa(ChildUpdatesFd),
	}
}

// CloseChildEnds releases the parent's copies of the child's ends, once the
// child holds its own. Without this, EOF on updates-in is never seen.
func (p *Pipes) CloseChildEnds() {
	if p.childEvents != nil {
		p.childEvents.Close()
		p.childEvents = nil
	}
	if p.childUpdates != nil {
		p.childUpdates.Close()
		p.childUpdates = nil
	}
}

// Send writes e to the events-out pipe. Failures are returned, not retried.
func (p *Pipes) Send(e Event) error {
	b, err := Encode(e)
	if err != nil {
		return err
	}
	if p.events < 0 {
		return os.ErrClosed
	}
	return writeAll(p.events, b)
}

// Updates returns a non-blocking reader over the updates-in pipe.
func (p *Pipes) Updates() Reader {
	return Reader(p.updates)
}

// Close releases every end still held by the parent.
func (p *Pipes) Close() {
	p.CloseChildEnds()
	if p.events >= 0 {
		unix.Close(p.events)
		p.events = -1
	}
	if p.updates >= 0 {
		unix.Close(p.updates)
		p.updates = -1
	}
}
