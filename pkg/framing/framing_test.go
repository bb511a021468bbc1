package framing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageEndsWithSentinel(t *testing.T) {
	s := Package([]byte("hello world"))
	assert.True(t, strings.HasSuffix(s, "\n"+EndOfMessage))
}

func TestRoundTrip(t *testing.T) {
	body := make([]byte, 300)
	for i := range body {
		body[i] = byte(i)
	}
	packaged := Package(body)
	out, err := Unpackage(packaged)
	require.NoError(t, err)
	assert.Equal(t, body, out)
}

func TestUnpackageRejectsMissingSentinel(t *testing.T) {
	_, err := Unpackage("not-a-valid-frame")
	assert.Error(t, err)
}

func TestSeparatorMatcherRecognizesSentinel(t *testing.T) {
	var m SeparatorMatcher
	assert.False(t, m.Feed("some line of data"))
	assert.True(t, m.Feed(EndOfMessage))
	assert.True(t, m.Feed(EndOfMessage+"\r"))
}
