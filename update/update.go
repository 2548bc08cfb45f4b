// Package update defines the records the front end consumes: state changes
// decoded from the emulator's side channel, plus the synthetic stdout and
// input records produced locally.
//
// Update is a closed set of types. Consumers switch on the concrete type;
// a tag this package does not know becomes Unknown rather than being lost.
package update

import "fmt"

// Kind identifies the concrete type of an Update.
type Kind int

const (
	KindUnknown Kind = iota
	KindLEDs
	KindPins
	KindRadioTx
	KindAck
	KindStdout
	KindInput
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindLEDs:    "leds",
	KindPins:    "pins",
	KindRadioTx: "radio_tx",
	KindAck:     "ack",
	KindStdout:  "stdout",
	KindInput:   "input",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Type tags used on the wire by the emulator.
const (
	TypeLEDs    = "microbit_leds"
	TypePins    = "microbit_pins"
	TypeRadioTx = "microbit_radio_tx"
	TypeAck     = "microbit_ack"
)

// Display geometry.
const (
	Pixels        = 25
	MaxBrightness = 9
)

// Update is one observable change. Values are immutable once built.
type Update interface {
	Kind() Kind
	isUpdate()
}

// LEDs carries the brightness (0-9) of all 25 pixels, row by row.
type LEDs struct {
	Brightness [Pixels]int
}

// Pins carries pin state, mode and PWM settings as raw JSON.
type Pins struct {
	Data string
}

// RadioTx carries a radio packet sent by the device, as raw JSON.
type RadioTx struct {
	Data string
}

// Ack acknowledges an event (e.g. a button press), as raw JSON.
type Ack struct {
	Data string
}

// Stdout is a chunk of serial console output read from the child.
type Stdout struct {
	Text string
}

// Input signals that a keystroke is waiting. It carries no key: the
// consumer reads the keyboard itself.
type Input struct{}

// Unknown preserves a side-channel record with an unrecognised tag.
type Unknown struct {
	Type string
	Data string
}

func (LEDs) Kind() Kind    { return KindLEDs }
func (Pins) Kind() Kind    { return KindPins }
func (RadioTx) Kind() Kind { return KindRadioTx }
func (Ack) Kind() Kind     { return KindAck }
func (Stdout) Kind() Kind  { return KindStdout }
func (Input) Kind() Kind   { return KindInput }
func (Unknown) Kind() Kind { return KindUnknown }

func (LEDs) isUpdate()    {}
func (Pins) isUpdate()    {}
func (RadioTx) isUpdate() {}
func (Ack) isUpdate()     {}
func (Stdout) isUpdate()  {}
func (Input) isUpdate()   {}
func (Unknown) isUpdate() {}
