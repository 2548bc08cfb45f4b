package update

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledLine(first string) string {
	px := make([]string, Pixels)
	for i := range px {
		px[i] = "0"
	}
	px[0] = first
	return `[{"type":"microbit_leds","data":{"b":[` + strings.Join(px, ",") + `]}}]`
}

func TestDecodeBatch_LEDs(t *testing.T) {
	updates, errs := DecodeBatch([]byte(ledLine("9")))
	require.Empty(t, errs)
	require.Len(t, updates, 1)

	leds, ok := updates[0].(LEDs)
	require.True(t, ok, "got %T", updates[0])
	assert.Equal(t, KindLEDs, leds.Kind())
	assert.Equal(t, 9, leds.Brightness[0])
	assert.Len(t, leds.Brightness, 25)
	assert.Zero(t, leds.Brightness[24])
}

func TestDecodeBatch_OrderPreserved(t *testing.T) {
	line := `[{"type":"microbit_ack","data":{"id":1}},` +
		`{"type":"microbit_pins","data":{"p":[0,1]}},` +
		`{"type":"microbit_radio_tx","data":{"s":"hi"}},` +
		`{"type":"microbit_accel","data":{"x":3}}]`
	updates, errs := DecodeBatch([]byte(line))
	require.Empty(t, errs)
	require.Len(t, updates, 4)

	assert.Equal(t, Ack{Data: `{"id":1}`}, updates[0])
	assert.Equal(t, Pins{Data: `{"p":[0,1]}`}, updates[1])
	assert.Equal(t, RadioTx{Data: `{"s":"hi"}`}, updates[2])
	assert.Equal(t, Unknown{Type: "microbit_accel", Data: `{"x":3}`}, updates[3])
}

func TestDecodeBatch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantCount int
		wantErrs  int
		wantIndex int
		wantCause error
	}{
		{"not json", `[{"type":`, 0, 1, -1, errNotJSON},
		{"not an array", `{"type":"microbit_ack"}`, 0, 1, -1, errNotArray},
		{"element not object", `[1,{"type":"microbit_ack"}]`, 1, 1, 0, errNotObject},
		{"missing type", `[{"data":{}},{"type":"microbit_ack"}]`, 1, 1, 0, errNoType},
		{"short led array", `[{"type":"microbit_ack"},{"type":"microbit_leds","data":{"b":[1,2]}}]`, 1, 1, 1, errBadLEDData},
		{"led out of range", ledLine("10"), 0, 1, 0, errBadLEDData},
		{"led not integer", ledLine("1.5"), 0, 1, 0, errBadLEDData},
		{"led negative", ledLine("-1"), 0, 1, 0, errBadLEDData},
		{"empty batch", `[]`, 0, 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates, errs := DecodeBatch([]byte(tt.line))
			assert.Len(t, updates, tt.wantCount)
			require.Len(t, errs, tt.wantErrs)
			if tt.wantErrs == 0 {
				return
			}
			var de *DecodeError
			require.True(t, errors.As(errs[0], &de))
			assert.Equal(t, tt.wantIndex, de.Index)
			assert.ErrorIs(t, errs[0], tt.wantCause)
		})
	}
}

func TestDecodeError_TruncatesLongLines(t *testing.T) {
	err := &DecodeError{Line: strings.Repeat("x", 200), Index: -1, Err: errNotJSON}
	assert.Less(t, len(err.Error()), 120)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "leds", KindLEDs.String())
	assert.Equal(t, "input", Input{}.Kind().String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
