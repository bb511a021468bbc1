package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendragon/nimo-go/pkg/value"
)

func TestIntegerZeroEnvelopeMatchesWorkedExample(t *testing.T) {
	// spec §8 S1: Integer 0 -> [0x00]; enveloped -> [0x1C, 0x00, 0x2C].
	frame, err := Encode(value.NewInteger(0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1C, 0x00, 0x2C}, frame)

	v, err := Decode(frame)
	require.NoError(t, err)
	require.False(t, value.IsFlaw(v))
	assert.EqualValues(t, 0, v.(*value.Integer).V)
}

func TestRoundTripScalars(t *testing.T) {
	cases := []value.Value{
		value.NewInteger(-1),
		value.NewInteger(1000),
		value.NewInteger(-70000),
		value.NewDouble(3.5),
		value.NewString("hello, world"),
		value.NewString(""),
		value.NewBlob([]byte{0xDE, 0xAD, 0xBE, 0xEF}),
		value.NewLogical(true),
		value.NewLogical(false),
		value.NewAddress(10, 0, 0, 1),
		value.NewDate(2026, 7, 29),
		value.NewTime(23, 59, 59, 999),
	}
	for _, in := range cases {
		frame, err := Encode(in)
		require.NoError(t, err)
		out, err := Decode(frame)
		require.NoError(t, err)
		require.False(t, value.IsFlaw(out))
		assert.True(t, in.Equal(out), "round-trip mismatch for %v", in)
	}
}

func TestRoundTripStringLongForm(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	in := value.NewString(string(long))
	frame, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(frame)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
}

func TestRoundTripArrayWithPackedDoubleRun(t *testing.T) {
	in := value.NewArray(
		value.NewInteger(1),
		value.NewDouble(1.5),
		value.NewDouble(2.5),
		value.NewDouble(3.5),
		value.NewString("tail"),
	)
	frame, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(frame)
	require.NoError(t, err)
	require.False(t, value.IsFlaw(out))
	assert.True(t, in.Equal(out))
}

func TestRoundTripNestedContainers(t *testing.T) {
	m := value.NewMap()
	m.Add(value.NewInteger(1), value.NewString("one"))
	m.Add(value.NewInteger(2), value.NewArray(value.NewLogical(true), value.NewLogical(false)))

	frame, err := Encode(m)
	require.NoError(t, err)
	out, err := Decode(frame)
	require.NoError(t, err)
	require.False(t, value.IsFlaw(out))
	assert.True(t, m.Equal(out))
}

func TestRoundTripSet(t *testing.T) {
	s := value.NewSet()
	s.Add(value.NewInteger(3))
	s.Add(value.NewInteger(1))
	s.Add(value.NewInteger(2))

	frame, err := Encode(s)
	require.NoError(t, err)
	out, err := Decode(frame)
	require.NoError(t, err)
	require.False(t, value.IsFlaw(out))
	assert.True(t, s.Equal(out))
}

func TestEmptyMessageRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Open()
	require.NoError(t, w.Close())
	frame := w.Bytes()
	require.Len(t, frame, 2)

	v, err := Decode(frame)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDecodeFlawsOnUnrecognizedLeadByte(t *testing.T) {
	// 0xE0 is not registered by any extractor.
	frame := []byte{value.TagEnvelopeStart | 0x07, 0xE0, value.TagEnvelopeEnd | 0x07}
	v, err := Decode(frame)
	require.NoError(t, err)
	assert.True(t, value.IsFlaw(v))
}

func TestDecodeFlawsOnEnvelopeMismatch(t *testing.T) {
	frame, err := Encode(value.NewInteger(42))
	require.NoError(t, err)
	frame[len(frame)-1] = value.TagEnvelopeEnd | 0x01 // claim Logical instead of Integer
	v, err := Decode(frame)
	require.NoError(t, err)
	assert.True(t, value.IsFlaw(v))
}

func TestReaderRejectsOpenWithoutAllowClosed(t *testing.T) {
	frame, err := Encode(value.NewInteger(1))
	require.NoError(t, err)
	r := NewReader(frame)
	_, err = r.GetValue(false)
	assert.Error(t, err)
}

func TestReaderExplicitOpenAllowsGetValueWithoutAllowClosed(t *testing.T) {
	frame, err := Encode(value.NewInteger(1))
	require.NoError(t, err)
	r := NewReader(nil)
	r.Open(frame)
	v, err := r.GetValue(false)
	require.NoError(t, err)
	assert.True(t, v.Equal(value.NewInteger(1)))
}

func TestWriterSetValueRequiresOpen(t *testing.T) {
	w := NewWriter()
	err := w.SetValue(value.NewInteger(1))
	assert.Error(t, err)
}
