package console

import (
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"

	"mbsim/board"
	"mbsim/update"
)

// scrollback is how many console lines the gui keeps.
const scrollback = 1000

// Gui renders into the gocui views created by the layout. Every method only
// queues work with gocui.Gui.Update, so it may be called from the session
// goroutine; the state below is touched on gocui's goroutine only.
type Gui struct {
	g *gocui.Gui

	leds    [update.Pixels]int
	pressed [2]bool
	term    *VT100
}

// NewGui returns a renderer for g.
func NewGui(g *gocui.Gui) *Gui {
	return &Gui{g: g, term: NewVT100(scrollback)}
}

// DrawLEDs redraws the board with new brightness values.
func (c *Gui) DrawLEDs(brightness [update.Pixels]int) {
	c.g.Update(func(g *gocui.Gui) error {
		c.leds = brightness
		return c.drawBoard(g)
	})
}

// DrawButtons redraws the board with new button states.
func (c *Gui) DrawButtons(pressed [2]bool) {
	c.g.Update(func(g *gocui.Gui) error {
		c.pressed = pressed
		return c.drawBoard(g)
	})
}

// SetFocus highlights the focused pane.
func (c *Gui) SetFocus(f board.Focus) {
	name := BoardView
	if f == board.FocusConsole {
		name = ConsoleView
	}
	c.g.Update(func(g *gocui.Gui) error {
		_, err := g.SetCurrentView(name)
		return err
	})
}

// WriteConsole appends serial output (or local echo) to the console pane.
func (c *Gui) WriteConsole(s string) {
	c.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(ConsoleView)
		if err != nil {
			return err
		}
		c.term.WriteString(s)
		v.Clear()
		fmt.Fprint(v, c.term.String())
		return nil
	})
}

func (c *Gui) drawBoard(g *gocui.Gui) error {
	v, err := g.View(BoardView)
	if err != nil {
		return err
	}
	v.Clear()
	fmt.Fprint(v, strings.Join(boardLines(c.leds, c.pressed, true), "\n"))
	return nil
}
