package main

import (
	"github.com/jroimartin/gocui"

	"mbsim/console"
)

// layout places the board centred at the top and the console below it.
// Both views take keys through editor so every keystroke reaches the
// session loop; focus is moved by the board controller.
func layout(editor gocui.Editor) func(*gocui.Gui) error {
	return func(g *gocui.Gui) error {
		maxX, maxY := g.Size()

		x0 := (maxX - console.BoardWidth) / 2
		if x0 < 0 {
			x0 = 0
		}
		if v, err := g.SetView(console.BoardView, x0, 0, x0+console.BoardWidth-1, console.BoardHeight-1); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "micro:bit"
			v.Editable = true
			v.Editor = editor
			if _, err := g.SetCurrentView(console.BoardView); err != nil {
				return err
			}
		}

		bottom := maxY - 1
		if bottom <= console.BoardHeight {
			bottom = console.BoardHeight + 1
		}
		if v, err := g.SetView(console.ConsoleView, 0, console.BoardHeight, maxX-1, bottom); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "Console"
			v.Editable = true
			v.Editor = editor
			v.Wrap = true
			v.Autoscroll = true
		}
		return nil
	}
}
