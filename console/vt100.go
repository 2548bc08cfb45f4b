package console

import (
	"strings"
)

// maxColumn bounds the cursor. Longer lines are still kept when written
// character by character, but a cursor move cannot go past it.
const maxColumn = 1024

// VT100 is the console pane's scrollback. It understands just enough of a
// terminal to show a REPL: CR, LF, BS, TAB, erase-to-end-of-line and
// horizontal cursor moves. Other escape sequences are dropped.
// The cursor always sits on the last line.
type VT100 struct {
	lines    [][]rune
	x        int
	maxLines int

	esc   []rune // escape sequence being collected
	inEsc bool
}

// NewVT100 returns a scrollback keeping at most maxLines lines.
func NewVT100(maxLines int) *VT100 {
	if maxLines < 1 {
		maxLines = 1
	}
	return &VT100{lines: [][]rune{nil}, maxLines: maxLines}
}

// WriteString feeds console output to the terminal.
func (t *VT100) WriteString(s string) {
	for _, r := range s {
		if t.inEsc {
			t.escape(r)
			continue
		}
		switch {
		case r == '\x1b':
			t.inEsc = true
			t.esc = t.esc[:0]
		case r == '\n':
			t.newline()
		case r == '\r':
			t.x = 0
		case r == '\b':
			if t.x > 0 {
				t.x--
			}
		case r == '\t':
			t.put(' ')
			for t.x%8 != 0 {
				t.put(' ')
			}
		case r < ' ' || r == 0x7f:
			// bell and friends
		default:
			t.put(r)
		}
	}
}

func (t *VT100) put(r rune) {
	line := t.lines[len(t.lines)-1]
	for len(line) < t.x {
		line = append(line, ' ')
	}
	if t.x < len(line) {
		line[t.x] = r
	} else {
		line = append(line, r)
	}
	t.lines[len(t.lines)-1] = line
	t.x++
}

func (t *VT100) newline() {
	t.lines = append(t.lines, nil)
	t.x = 0
	if over := len(t.lines) - t.maxLines; over > 0 {
		t.lines = t.lines[over:]
	}
}

// escape collects the bytes after ESC. CSI sequences (ESC [ params final)
// are applied; other escape sequences are consumed and dropped.
func (t *VT100) escape(r rune) {
	t.esc = append(t.esc, r)
	if t.esc[0] != '[' {
		// ESC intermediates... final
		if r < 0x20 || r > 0x2f {
			t.inEsc = false
		}
		return
	}
	if len(t.esc) == 1 {
		return
	}
	if r < 0x40 || r > 0x7e {
		if len(t.esc) > 16 {
			t.inEsc = false
		}
		return
	}
	t.inEsc = false

	n := csiCount(t.esc[1 : len(t.esc)-1])
	line := t.lines[len(t.lines)-1]
	switch r {
	case 'K':
		if t.x < len(line) {
			t.lines[len(t.lines)-1] = line[:t.x]
		}
	case 'D':
		t.x = max(0, t.x-n)
	case 'C':
		t.x = min(maxColumn, t.x+n)
	}
}

// csiCount reads a single numeric CSI parameter. Anything but plain digits
// (signs, several parameters, private markers) gives the default of 1.
func csiCount(params []rune) int {
	n := 0
	for _, r := range params {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
		if n > maxColumn {
			return maxColumn
		}
	}
	return max(1, n)
}

// Lines returns the scrollback, oldest first.
func (t *VT100) Lines() []string {
	out := make([]string, len(t.lines))
	for i, l := range t.lines {
		out[i] = string(l)
	}
	return out
}

func (t *VT100) String() string {
	return strings.Join(t.Lines(), "\n")
}

// Cursor returns the cursor column on the last line.
func (t *VT100) Cursor() int {
	return t.x
}
