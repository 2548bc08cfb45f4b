package sidechannel

import (
	"io"

	"golang.org/x/sys/unix"
)

// Reader reads from a raw non-blocking file descriptor. A read that would
// block returns 0 bytes and no error; end of file returns io.EOF.
type Reader int

func (fd Reader) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(int(fd), p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, nil
		case err != nil:
			return 0, err
		case n == 0 && len(p) > 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

// Fd returns the descriptor number, for registering in a readiness set.
func (fd Reader) Fd() int {
	return int(fd)
}

// writeAll writes b to a non-blocking descriptor in one go. Lines shorter
// than PIPE_BUF are written atomically; a full pipe is reported as EAGAIN.
func writeAll(fd int, b []byte) error {
	for {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n < len(b) {
			return io.ErrShortWrite
		}
		return nil
	}
}

// WriteByte writes a single byte to a non-blocking descriptor.
func WriteByte(fd int, c byte) error {
	return writeAll(fd, []byte{c})
}
