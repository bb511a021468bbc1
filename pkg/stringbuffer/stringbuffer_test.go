package stringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendragon/nimo-go/pkg/value"
)

func parseOne(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := NewReader([]byte(s)).ReadValue()
	require.NoError(t, err)
	return v
}

func TestRoundTripThroughWriterAndReader(t *testing.T) {
	cases := []value.Value{
		value.NewInteger(-42),
		value.NewDouble(3.5),
		value.NewString("hello"),
		value.NewBlob([]byte{0xDE, 0xAD}),
		value.NewLogical(true),
		value.NewAddress(127, 0, 0, 1),
		value.NewDate(2026, 7, 29),
		value.NewTime(9, 30, 0, 250),
		value.NewArray(value.NewInteger(1), value.NewInteger(2)),
	}
	for _, in := range cases {
		w := NewWriter()
		require.NoError(t, w.WriteValue(in, false))
		out := parseOne(t, w.String())
		assert.True(t, in.Equal(out), "round-trip mismatch for %v (text %q)", in, w.String())
	}
}

func TestLogicalRejectsTrailingGarbage(t *testing.T) {
	v, err := NewReader([]byte("trueX")).ReadValue()
	require.NoError(t, err)
	assert.True(t, value.IsFlaw(v))
}

func TestLogicalAcceptsContainerTerminator(t *testing.T) {
	v := parseOne(t, "true)")
	assert.True(t, v.Equal(value.NewLogical(true)))
}

func TestArrayGrammar(t *testing.T) {
	v := parseOne(t, "(1 2 3)")
	arr, ok := v.(*value.Array)
	require.True(t, ok)
	assert.Equal(t, 3, arr.Len())
}

func TestMapGrammar(t *testing.T) {
	v := parseOne(t, `{1->"one" 2->"two"}`)
	m, ok := v.(*value.Map)
	require.True(t, ok)
	assert.Equal(t, 2, m.Len())
	got, ok := m.Get(value.NewInteger(1))
	require.True(t, ok)
	assert.Equal(t, "one", got.(*value.String).S)
}

func TestSetGrammar(t *testing.T) {
	v := parseOne(t, "[1 2 2 3]")
	s, ok := v.(*value.Set)
	require.True(t, ok)
	assert.Equal(t, 3, s.Len())
}

func TestBlobGrammar(t *testing.T) {
	v := parseOne(t, "%2%DEAD%")
	b, ok := v.(*value.Blob)
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD}, b.Data)
}

func TestStringEscapes(t *testing.T) {
	v := parseOne(t, `"line1\nline2\t\"quoted\""`)
	s, ok := v.(*value.String)
	require.True(t, ok)
	assert.Equal(t, "line1\nline2\t\"quoted\"", s.S)
}

func TestStringShortestQuoteSelection(t *testing.T) {
	s := value.NewString(`has "double" quotes`)
	w := NewWriter()
	require.NoError(t, w.WriteValue(s, false))
	assert.True(t, w.String()[0] == '\'')
}

func TestCommentsAndWhitespaceSkipped(t *testing.T) {
	v := parseOne(t, "  // a leading comment\n  42")
	assert.True(t, v.Equal(value.NewInteger(42)))
}

func TestNestedContainers(t *testing.T) {
	v := parseOne(t, "(1 {2->[3 4]} 5)")
	arr, ok := v.(*value.Array)
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())
	m, ok := arr.Elements[1].(*value.Map)
	require.True(t, ok)
	inner, ok := m.Get(value.NewInteger(2))
	require.True(t, ok)
	set, ok := inner.(*value.Set)
	require.True(t, ok)
	assert.Equal(t, 2, set.Len())
}

func TestUnterminatedArrayYieldsFlaw(t *testing.T) {
	v, err := NewReader([]byte("(1 2")).ReadValue()
	require.NoError(t, err)
	assert.True(t, value.IsFlaw(v))
}
