// Package logger sets up the diagnostic log. The terminal belongs to the
// user interface, so diagnostics normally go to a file.
package logger

import (
	"log"
	"os"
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

// New returns a logger appending to the file at path, together with the
// file itself so the emulator's stderr can be sent there too. An empty path
// logs to stderr.
func New(path string) (*log.Logger, *os.File, error) {
	if len(path) == 0 {
		return log.New(os.Stderr, "mbsim ", flags), os.Stderr, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return nil, nil, err
	}
	l := log.New(f, "mbsim ", flags)
	l.Printf("opened %s", path)
	return l, f, nil
}
