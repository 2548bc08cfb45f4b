package update

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	errNotJSON    = errors.New("invalid json")
	errNotArray   = errors.New("batch is not a json array")
	errNotObject  = errors.New("update is not a json object")
	errNoType     = errors.New("update has no string type")
	errBadLEDData = errors.New("led data is not 25 brightness values in 0..9")
)

// DecodeError reports a side-channel line, or one element of it, that could
// not be decoded. Index is -1 when the whole line was rejected.
type DecodeError struct {
	Line  string
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	line := e.Line
	if len(line) > 80 {
		line = line[:77] + "..."
	}
	if e.Index < 0 {
		return fmt.Sprintf("decode %q: %v", line, e.Err)
	}
	return fmt.Sprintf("decode %q element %d: %v", line, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeBatch decodes one side-channel line, a JSON array of {type, data}
// objects, into updates in array order. An invalid line yields no updates
// and a single error. A bad element is skipped and reported; its siblings
// are still returned.
func DecodeBatch(line []byte) ([]Update, []error) {
	if !gjson.ValidBytes(line) {
		return nil, []error{&DecodeError{Line: string(line), Index: -1, Err: errNotJSON}}
	}
	batch := gjson.ParseBytes(line)
	if !batch.IsArray() {
		return nil, []error{&DecodeError{Line: string(line), Index: -1, Err: errNotArray}}
	}

	var (
		updates []Update
		errs    []error
		i       int
	)
	batch.ForEach(func(_, v gjson.Result) bool {
		u, err := decodeOne(v)
		if err != nil {
			errs = append(errs, &DecodeError{Line: string(line), Index: i, Err: err})
		} else {
			updates = append(updates, u)
		}
		i++
		return true
	})
	return updates, errs
}

func decodeOne(v gjson.Result) (Update, error) {
	if !v.IsObject() {
		return nil, errNotObject
	}
	tag := v.Get("type")
	if tag.Type != gjson.String {
		return nil, errNoType
	}
	data := v.Get("data")

	switch tag.Str {
	case TypeLEDs:
		return decodeLEDs(data)
	case TypePins:
		return Pins{Data: data.Raw}, nil
	case TypeRadioTx:
		return RadioTx{Data: data.Raw}, nil
	case TypeAck:
		return Ack{Data: data.Raw}, nil
	}
	// stdout and input are produced locally, never by the emulator, so they
	// land here too if they ever show up on the wire.
	return Unknown{Type: tag.Str, Data: data.Raw}, nil
}

func decodeLEDs(data gjson.Result) (Update, error) {
	b := data.Get("b")
	if !b.IsArray() {
		return nil, errBadLEDData
	}
	values := b.Array()
	if len(values) != Pixels {
		return nil, errBadLEDData
	}
	var leds LEDs
	for i, px := range values {
		if px.Type != gjson.Number {
			return nil, errBadLEDData
		}
		n := px.Int()
		if float64(n) != px.Num || n < 0 || n > MaxBrightness {
			return nil, errBadLEDData
		}
		leds.Brightness[i] = int(n)
	}
	return leds, nil
}
