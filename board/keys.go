package board

import "unicode"

// Key is one keystroke: a character or control code, or one of the special
// keys below, which lie outside the Unicode range.
type Key rune

// Control codes.
const (
	KeyCtrlA          Key = 0x01
	KeyCtrlB          Key = 0x02
	KeyCtrlC          Key = 0x03
	KeyBackspace      Key = 0x08
	KeyLF             Key = 0x0A
	KeyCR             Key = 0x0D
	KeyCtrlN          Key = 0x0E
	KeyCtrlO          Key = 0x0F
	KeyCtrlP          Key = 0x10
	KeyCtrlQ          Key = 0x11
	KeyEsc            Key = 0x1B
	KeyCtrlUnderscore Key = 0x1F
	KeyDEL            Key = 0x7F
)

// Special keys without a byte of their own.
const (
	KeyUp Key = unicode.MaxRune + 1 + iota
	KeyDown
	KeyDelete
)

// Focus is the pane receiving keystrokes.
type Focus int

const (
	FocusBoard Focus = iota
	FocusConsole
)

func (f Focus) String() string {
	if f == FocusConsole {
		return "console"
	}
	return "board"
}

// Action is what a keystroke resolves to.
type Action int

const (
	ActNone   Action = iota
	ActQuit          // leave the main loop
	ActSend          // forward Byte to the emulator's stdin
	ActEcho          // echo Byte on the console, then forward it
	ActToggle        // flip Button
	ActTap           // press Button, release it after the tap delay
	ActFocus         // move focus to Focus
	ActHelp          // print the shortcut list
)

// Command is a resolved keystroke.
type Command struct {
	Action Action
	Byte   byte
	Button int
	Focus  Focus
}

// Button ids as the emulator numbers them.
const (
	ButtonA = 0
	ButtonB = 1
)

// Resolve maps a keystroke to a command, given the focused pane.
func Resolve(k Key, focus Focus) Command {
	switch k {
	case KeyEsc, KeyCtrlQ:
		return Command{Action: ActQuit}
	case KeyCtrlC:
		// always forwarded, it interrupts the running program
		return Command{Action: ActSend, Byte: byte(KeyCtrlC)}
	case KeyCtrlUnderscore:
		return Command{Action: ActHelp}
	}

	if focus == FocusBoard {
		switch k {
		case KeyCtrlO:
			return Command{Action: ActFocus, Focus: FocusConsole}
		case KeyCtrlA:
			return Command{Action: ActToggle, Button: ButtonA}
		case KeyCtrlB:
			return Command{Action: ActToggle, Button: ButtonB}
		case 'a':
			return Command{Action: ActTap, Button: ButtonA}
		case 'b':
			return Command{Action: ActTap, Button: ButtonB}
		}
		return Command{}
	}

	switch {
	case k == KeyCtrlO:
		return Command{Action: ActFocus, Focus: FocusBoard}
	case k == KeyBackspace, k == KeyDEL, k == KeyDelete:
		return Command{Action: ActSend, Byte: byte(KeyBackspace)}
	case k == KeyUp:
		// history back
		return Command{Action: ActSend, Byte: byte(KeyCtrlP)}
	case k == KeyDown:
		return Command{Action: ActSend, Byte: byte(KeyCtrlN)}
	case k == KeyLF, k == KeyCR, k >= ' ' && k <= '~':
		return Command{Action: ActEcho, Byte: byte(k)}
	case k >= 0 && k <= 0xFF:
		return Command{Action: ActSend, Byte: byte(k)}
	}
	return Command{}
}
