package sidechannel

import (
	"encoding/json"
	"fmt"
)

// ButtonEvent is the event type the emulator expects for button changes.
const ButtonEvent = "microbit_button"

// Event is one record sent from the front end to the emulator.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ButtonState is the payload of a ButtonEvent.
type ButtonState struct {
	ID    int `json:"id"`
	State int `json:"state"`
}

// Button returns the event reporting button id as pressed (1) or released (0).
func Button(id, state int) Event {
	return Event{Type: ButtonEvent, Data: ButtonState{ID: id, State: state}}
}

// Encode frames e as a single-element JSON array terminated by a newline.
func Encode(e Event) ([]byte, error) {
	if e.Type == "" {
		return nil, fmt.Errorf("encode event: empty type")
	}
	b, err := json.Marshal([]Event{e})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return append(b, '\n'), nil
}
