// Package mux merges the emulator's side-channel updates, its standard
// output and local keyboard activity into one ordered queue of updates.
//
// A consumer loops on Next, handles the update it returns and only then
// calls Pop. Next blocks for at most its timeout, in a single readiness wait
// across all three sources; that wait is the loop's only suspension point.
package mux

import (
	"errors"
	"io"
	"log"
	"time"
	"unicode/utf8"

	"mbsim/sidechannel"
	"mbsim/update"
)

// ErrEmptyQueue is returned by Pop when there is nothing to remove.
var ErrEmptyQueue = errors.New("update queue is empty")

// maxStdout bounds how much child output is collected in one cycle so a
// chatty child cannot starve the other sources.
const maxStdout = 64 << 10

// Multiplexer owns the update queue. It is not safe for concurrent use.
type Multiplexer struct {
	poller  Poller
	updates io.Reader
	stdout  io.Reader
	log     *log.Logger

	queue   Queue
	lines   sidechannel.LineBuffer
	chunk   []byte
	outBuf  []byte
	pending []byte // incomplete UTF-8 sequence from the last stdout read

	decodeFailures int
}

// New returns a multiplexer reading side-channel batches from updates (at
// most chunk bytes per cycle) and console output from stdout. Both readers
// must be non-blocking: no data is 0 bytes and a nil error.
func New(p Poller, updates, stdout io.Reader, chunk int, logger *log.Logger) *Multiplexer {
	if chunk <= 0 {
		chunk = sidechannel.DefaultChunk
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Multiplexer{
		poller:  p,
		updates: updates,
		stdout:  stdout,
		log:     logger,
		chunk:   make([]byte, chunk),
		outBuf:  make([]byte, 4096),
	}
}

// Next returns the front of the queue without removing it. If the queue is
// empty it runs one readiness cycle first; if that yields nothing before
// timeout, Next returns a nil update and a nil error.
func (m *Multiplexer) Next(timeout time.Duration) (update.Update, error) {
	if u, ok := m.queue.Peek(); ok {
		return u, nil
	}

	ready, err := m.poller.Wait(timeout)
	if err != nil {
		return nil, err
	}
	if ready.Has(Updates) {
		m.readUpdates()
	}
	if ready.Has(Stdout) {
		m.readStdout()
	}
	if ready.Has(Keyboard) {
		m.queue.Push(update.Input{})
	}

	u, _ := m.queue.Peek()
	return u, nil
}

// Pop removes and returns the front of the queue.
func (m *Multiplexer) Pop() (update.Update, error) {
	u, ok := m.queue.Pop()
	if !ok {
		return nil, ErrEmptyQueue
	}
	return u, nil
}

// Len returns the number of queued updates.
func (m *Multiplexer) Len() int {
	return m.queue.Len()
}

// DecodeFailures returns how many side-channel lines or elements have been
// discarded as undecodable.
func (m *Multiplexer) DecodeFailures() int {
	return m.decodeFailures
}

func (m *Multiplexer) readUpdates() {
	n, err := m.updates.Read(m.chunk)
	if n > 0 {
		lines, lerr := m.lines.Feed(m.chunk[:n])
		if lerr != nil {
			m.decodeFailures++
			m.log.Printf("updates: %v", lerr)
		}
		for _, line := range lines {
			batch, errs := update.DecodeBatch(line)
			for _, err := range errs {
				m.decodeFailures++
				m.log.Printf("updates: %v", err)
			}
			m.queue.Push(batch...)
		}
	}
	if err != nil {
		m.drop(Updates, err)
		if p := m.lines.Pending(); p > 0 {
			m.log.Printf("updates: discarding %d bytes of unterminated line", p)
		}
	}
}

func (m *Multiplexer) readStdout() {
	text := m.pending
	m.pending = nil
	var err error
	for len(text) < maxStdout {
		var n int
		n, err = m.stdout.Read(m.outBuf)
		text = append(text, m.outBuf[:n]...)
		if n == 0 || err != nil {
			break
		}
	}
	if err == nil {
		text, m.pending = splitRune(text)
	} else {
		m.drop(Stdout, err)
	}
	if len(text) > 0 {
		m.queue.Push(update.Stdout{Text: string(text)})
	}
}

// Drop stops watching s, for a source whose reader has failed or reached
// end of stream outside the multiplexer. err is only logged.
func (m *Multiplexer) Drop(s Source, err error) {
	m.drop(s, err)
}

func (m *Multiplexer) drop(s Source, err error) {
	m.poller.Drop(s)
	if err == io.EOF {
		m.log.Printf("%s: end of stream", s)
		return
	}
	m.log.Printf("%s: %v", s, err)
}

// splitRune splits off a trailing incomplete UTF-8 sequence so it can be
// completed by the next read.
func splitRune(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i], append([]byte(nil), b[i:]...)
		}
		break
	}
	return b, nil
}
