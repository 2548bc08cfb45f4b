package console

import (
	"fmt"
	"io"
	"strings"

	"mbsim/board"
	"mbsim/update"
)

// Simple renders to a plain writer: the board is reprinted as text on every
// change and console output is passed through untouched, so the real
// terminal interprets it.
type Simple struct {
	w    io.Writer
	crlf bool

	leds    [update.Pixels]int
	pressed [2]bool
}

// NewSimple writes to w. With crlf set (a terminal in raw mode) every line
// feed is sent as CR LF.
func NewSimple(w io.Writer, crlf bool) *Simple {
	return &Simple{w: w, crlf: crlf}
}

// DrawLEDs prints the board with new brightness values.
func (c *Simple) DrawLEDs(brightness [update.Pixels]int) {
	c.leds = brightness
	c.drawBoard()
}

// DrawButtons prints the board with new button states.
func (c *Simple) DrawButtons(pressed [2]bool) {
	if pressed == c.pressed {
		return
	}
	c.pressed = pressed
	c.drawBoard()
}

// SetFocus announces which pane receives keys.
func (c *Simple) SetFocus(f board.Focus) {
	c.write(fmt.Sprintf("\n-- keys go to the %s (Ctrl-O to switch) --\n", f))
}

// WriteConsole passes console output through.
func (c *Simple) WriteConsole(s string) {
	c.write(s)
}

func (c *Simple) drawBoard() {
	c.write("\n" + strings.Join(boardLines(c.leds, c.pressed, false), "\n") + "\n")
}

func (c *Simple) write(s string) {
	if c.crlf {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	io.WriteString(c.w, s)
}
