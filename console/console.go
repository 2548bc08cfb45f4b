// Package console draws the device and its serial console. Gui renders into
// gocui views; Simple writes plain text to a terminal or pipe. Both satisfy
// board.Renderer.
package console

import (
	"strings"

	"mbsim/board"
	"mbsim/update"
)

// View names used by the gocui layout.
const (
	BoardView   = "microbit"
	ConsoleView = "console"
)

// Board geometry, in cells, including the frame.
const (
	BoardWidth  = 34
	BoardHeight = 16
)

var (
	_ board.Renderer = (*Gui)(nil)
	_ board.Renderer = (*Simple)(nil)
)

// lit reports whether a pixel of the given brightness is drawn on.
func lit(brightness int) bool {
	return brightness >= 5
}

// ANSI cells understood by gocui's output parser.
const (
	cellOn      = "\x1b[41m  \x1b[0m"
	cellOff     = "\x1b[47m  \x1b[0m"
	buttonPress = "\x1b[44m"
	attrReset   = "\x1b[0m"
)

// boardLines renders the device face. With color off, pixels are printed as
// their brightness digit ('.' for 0) and a held button is bracketed.
func boardLines(leds [update.Pixels]int, pressed [2]bool, color bool) []string {
	lines := make([]string, 0, BoardHeight-2)
	lines = append(lines, "           micro:bit", "")
	for y := 0; y < 5; y++ {
		var row strings.Builder
		switch y {
		case 2:
			row.WriteString("  " + button("A", pressed[0], color) + "   ")
		default:
			row.WriteString("        ")
		}
		for x := 0; x < 5; x++ {
			b := leds[y*5+x]
			switch {
			case color && lit(b):
				row.WriteString(cellOn)
			case color:
				row.WriteString(cellOff)
			case b == 0:
				row.WriteString(" .")
			default:
				row.WriteString(" " + string(rune('0'+b)))
			}
			row.WriteString(" ")
		}
		if y == 2 {
			row.WriteString("   " + button("B", pressed[1], color))
		}
		lines = append(lines, row.String(), "")
	}
	lines = append(lines,
		" 0     1      2      3V    GND",
		"_[]____[]_____[]_____[]____[]_",
	)
	return lines
}

func button(name string, pressed, color bool) string {
	switch {
	case pressed && color:
		return buttonPress + " " + name + " " + attrReset
	case pressed:
		return "[" + name + "]"
	}
	return " " + name + " "
}
