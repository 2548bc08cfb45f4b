package sidechannel

import (
	"bufio"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipes_SendReachesChildEnd(t *testing.T) {
	p, err := Open()
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Send(Button(0, 1)))
	line, err := bufio.NewReader(p.ChildFiles()[0]).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"microbit_button","data":{"id":0,"state":1}}]`+"\n", line)
}

func TestPipes_UpdatesNonBlocking(t *testing.T) {
	p, err := Open()
	require.NoError(t, err)
	defer p.Close()

	buf := make([]byte, DefaultChunk)
	n, err := p.Updates().Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "empty pipe must not block")

	_, err = p.ChildFiles()[1].Write([]byte("[]\n"))
	require.NoError(t, err)
	n, err = p.Updates().Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(buf[:n]))

	p.CloseChildEnds()
	_, err = p.Updates().Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPipes_SendAfterChildGone(t *testing.T) {
	p, err := Open()
	require.NoError(t, err)
	defer p.Close()

	p.CloseChildEnds()
	assert.Error(t, p.Send(Button(1, 1)), "broken pipe is reported")
}

func TestPipes_Environ(t *testing.T) {
	p, err := Open()
	require.NoError(t, err)
	defer p.Close()

	env := p.Environ(EnvNames{Events: "GROK_CLIENT_PIPE", Updates: "GROK_UPDATES_PIPE"})
	assert.Equal(t, []string{"GROK_CLIENT_PIPE=3", "GROK_UPDATES_PIPE=4"}, env)
	assert.Len(t, p.ChildFiles(), 2)
}
