// Package board holds the front end's view of the device (LEDs, buttons,
// focused pane) and turns updates and keystrokes into drawing calls and
// messages for the emulator.
package board

import (
	"io"
	"log"
	"time"

	"mbsim/sidechannel"
	"mbsim/update"
)

// Renderer draws the device and the serial console.
type Renderer interface {
	DrawLEDs(brightness [update.Pixels]int)
	DrawButtons(pressed [2]bool)
	SetFocus(f Focus)
	WriteConsole(s string)
}

// Keyboard hands out keystrokes that the multiplexer has signalled.
type Keyboard interface {
	ReadKey() (Key, bool)
}

// Emulator is the subset of the supervisor the controller talks to.
type Emulator interface {
	Event(e sidechannel.Event) error
	SendInput(c byte) error
}

// Controller applies updates to the display state. It is driven from the
// session loop only.
type Controller struct {
	r   Renderer
	kb  Keyboard
	emu Emulator
	log *log.Logger

	leds    [update.Pixels]int
	buttons [2]int
	focus   Focus

	tapDelay time.Duration
	sleep    func(time.Duration)
}

// NewController returns a controller with all LEDs off, both buttons
// released and the board focused.
func NewController(r Renderer, kb Keyboard, emu Emulator, tapDelay time.Duration, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Controller{
		r:        r,
		kb:       kb,
		emu:      emu,
		log:      logger,
		tapDelay: tapDelay,
		sleep:    time.Sleep,
	}
}

// Init draws the initial state and the greeting.
func (c *Controller) Init() {
	c.r.DrawButtons(c.pressed())
	c.r.DrawLEDs(c.leds)
	c.r.SetFocus(c.focus)
	c.r.WriteConsole("micro:bit simulator\n")
	c.r.WriteConsole("Press Ctrl-? for help.\n\n")
}

// Handle applies one update. It returns false when the user asked to quit.
func (c *Controller) Handle(u update.Update) bool {
	switch u := u.(type) {
	case update.LEDs:
		c.leds = u.Brightness
		c.r.DrawLEDs(c.leds)
	case update.Stdout:
		c.r.WriteConsole(u.Text)
	case update.Input:
		k, ok := c.kb.ReadKey()
		if !ok {
			return true
		}
		return c.HandleKey(k)
	case update.Pins, update.RadioTx, update.Ack:
		// nothing on screen for these yet
	case update.Unknown:
		c.log.Printf("ignoring %s update", u.Type)
	}
	return true
}

// HandleKey acts on one keystroke. It returns false for quit.
func (c *Controller) HandleKey(k Key) bool {
	cmd := Resolve(k, c.focus)
	switch cmd.Action {
	case ActQuit:
		return false
	case ActSend:
		c.send(cmd.Byte)
	case ActEcho:
		echo := string(rune(cmd.Byte))
		if cmd.Byte == byte(KeyCR) {
			echo = "\n"
		}
		c.r.WriteConsole(echo)
		c.send(cmd.Byte)
	case ActToggle:
		c.toggle(cmd.Button)
	case ActTap:
		c.toggle(cmd.Button)
		c.sleep(c.tapDelay)
		c.toggle(cmd.Button)
	case ActFocus:
		c.focus = cmd.Focus
		c.r.SetFocus(c.focus)
	case ActHelp:
		c.r.WriteConsole(helpText)
	}
	return true
}

func (c *Controller) send(b byte) {
	if err := c.emu.SendInput(b); err != nil {
		c.log.Printf("forward key 0x%02x: %v", b, err)
	}
}

func (c *Controller) toggle(button int) {
	c.buttons[button] = 1 - c.buttons[button]
	if err := c.emu.Event(sidechannel.Button(button, c.buttons[button])); err != nil {
		c.log.Printf("button %d: %v", button, err)
	}
	c.r.DrawButtons(c.pressed())
}

func (c *Controller) pressed() [2]bool {
	return [2]bool{c.buttons[ButtonA] == 1, c.buttons[ButtonB] == 1}
}

// LEDs returns the brightness values currently displayed.
func (c *Controller) LEDs() [update.Pixels]int { return c.leds }

// Buttons returns which buttons are currently held down.
func (c *Controller) Buttons() [2]bool { return c.pressed() }

// Focus returns the focused pane.
func (c *Controller) Focus() Focus { return c.focus }

const helpText = `
Keyboard shortcuts:
  Ctrl-O  Toggle focus between micro:bit and console.
  Ctrl-Q  Quit simulator.
  Ctrl-C  Stop current micro:bit program.
Shortcuts when micro:bit has focus:
  A  Tap A button.
  B  Tap B button.
  Ctrl-A  Toggle A button.
  Ctrl-B  Toggle B button.

`
