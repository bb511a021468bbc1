package message

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendragon/nimo-go/pkg/value"
)

func TestReadFrameConsumesExactlyOneMessage(t *testing.T) {
	first, err := Encode(value.NewInteger(42))
	require.NoError(t, err)
	second, err := Encode(value.NewString("trailing"))
	require.NoError(t, err)

	br := bufio.NewReader(bytes.NewReader(append(append([]byte{}, first...), second...)))

	frame, err := ReadFrame(br)
	require.NoError(t, err)
	assert.Equal(t, first, frame)

	v, err := Decode(frame)
	require.NoError(t, err)
	assert.True(t, v.Equal(value.NewInteger(42)))

	frame2, err := ReadFrame(br)
	require.NoError(t, err)
	assert.Equal(t, second, frame2)
}

func TestReadFrameReturnsErrorOnTruncatedStream(t *testing.T) {
	full, err := Encode(value.NewString("hello"))
	require.NoError(t, err)
	br := bufio.NewReader(bytes.NewReader(full[:len(full)-1]))

	_, err = ReadFrame(br)
	assert.Error(t, err)
}
