package sidechannel

import (
	"bytes"
	"errors"
)

// MaxLine bounds how much unterminated data a LineBuffer keeps.
const MaxLine = 1 << 20

// ErrLineTooLong is returned by Feed when an unterminated line grew past
// MaxLine. The line is discarded up to and including its newline.
var ErrLineTooLong = errors.New("side-channel line exceeds maximum length")

// LineBuffer splits a byte stream into newline-terminated lines, keeping an
// incomplete trailing line until the rest of it arrives.
type LineBuffer struct {
	partial    []byte
	discarding bool
}

// Feed appends p to the buffered data and returns every line completed by
// it, without the newline. Empty lines are skipped. The returned slices do
// not alias p.
func (lb *LineBuffer) Feed(p []byte) ([][]byte, error) {
	data := append(lb.partial, p...)
	lb.partial = nil

	var lines [][]byte
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := data[:i]
		data = data[i+1:]
		if lb.discarding {
			lb.discarding = false
			continue
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}

	if lb.discarding {
		return lines, nil
	}
	if len(data) > MaxLine {
		lb.discarding = true
		return lines, ErrLineTooLong
	}
	if len(data) > 0 {
		lb.partial = append([]byte(nil), data...)
	}
	return lines, nil
}

// Pending returns the number of buffered bytes still waiting for a newline.
func (lb *LineBuffer) Pending() int {
	return len(lb.partial)
}
