package value

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWriter satisfies both BinaryWriter and TextWriter over a bytes.Buffer,
// standing in for pkg/message's and pkg/stringbuffer's concrete writers.
type testWriter struct {
	bytes.Buffer
}

func (w *testWriter) WriteBytes(b []byte) error {
	_, err := w.Write(b)
	return err
}

func (w *testWriter) WriteString(s string) error {
	_, err := w.Buffer.WriteString(s)
	return err
}

func binaryOf(t *testing.T, v Value) []byte {
	t.Helper()
	w := &testWriter{}
	require.NoError(t, v.WriteBinary(w))
	return w.Bytes()
}

func textOf(t *testing.T, v Value) string {
	t.Helper()
	w := &testWriter{}
	require.NoError(t, v.PrintText(w, false))
	return w.String()
}

func jsonOf(t *testing.T, v Value) string {
	t.Helper()
	w := &testWriter{}
	require.NoError(t, v.PrintJSON(w, false, false))
	return w.String()
}

func TestLogicalOrderingAndBinary(t *testing.T) {
	f, tr := NewLogical(false), NewLogical(true)
	assert.True(t, f.Compare(tr).Valid)
	assert.True(t, f.Compare(tr).Less)
	assert.Equal(t, []byte{TagLogical}, binaryOf(t, f))
	assert.Equal(t, []byte{TagLogical | 0x01}, binaryOf(t, tr))
	assert.Equal(t, "true", textOf(t, tr))
	assert.Equal(t, "false", textOf(t, f))
}

func TestIntegerShortAndLongForm(t *testing.T) {
	small := NewInteger(-1)
	assert.Equal(t, []byte{TagIntegerShort | 0x0F}, binaryOf(t, small))

	big := NewInteger(1000)
	b := binaryOf(t, big)
	require.Len(t, b, 3)
	assert.Equal(t, TagIntegerLong|byte(1), b[0])
	assert.EqualValues(t, 1000, int64(b[1])<<8|int64(b[2]))
}

func TestIntegerDoubleCrossComparison(t *testing.T) {
	i := NewInteger(3)
	d := NewDouble(3.0)
	assert.True(t, i.Equal(d))
	c := i.Compare(d)
	require.True(t, c.Valid)
	assert.True(t, c.Equal)
}

func TestIntegerZeroShortFormPayload(t *testing.T) {
	// spec S1's payload half: Integer 0 encodes as the single short-form
	// byte (value in the low nibble); the enveloped frame is checked in
	// pkg/message.
	zero := NewInteger(0)
	assert.Equal(t, []byte{TagIntegerShort}, binaryOf(t, zero))
}

func TestStringQuoteSelection(t *testing.T) {
	plain := NewString("hello")
	assert.Equal(t, `"hello"`, textOf(t, plain))

	hasDouble := NewString(`has "quotes"`)
	out := textOf(t, hasDouble)
	assert.NotEqual(t, byte('"'), out[0])
}

func TestBlobTextualForm(t *testing.T) {
	b := NewBlob([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.Equal(t, "%4%DEADBEEF%", textOf(t, b))
}

func TestBlobCopyIsIndependent(t *testing.T) {
	orig := NewBlob([]byte{1, 2, 3})
	cp := orig.Copy().(*Blob)
	cp.Data[0] = 0xFF
	assert.Equal(t, byte(1), orig.Data[0])
}

func TestAddressTextAndBinary(t *testing.T) {
	a := NewAddress(192, 168, 1, 1)
	assert.Equal(t, "@192.168.1.1", textOf(t, a))
	assert.Equal(t, []byte{TagAddress, 192, 168, 1, 1}, binaryOf(t, a))
}

func TestDateOrdering(t *testing.T) {
	d1 := NewDate(2024, 1, 1)
	d2 := NewDate(2024, 6, 15)
	c := d1.Compare(d2)
	require.True(t, c.Valid)
	assert.True(t, c.Less)
}

func TestTimeOrdering(t *testing.T) {
	t1 := NewTime(9, 0, 0, 0)
	t2 := NewTime(9, 0, 0, 500)
	c := t1.Compare(t2)
	require.True(t, c.Valid)
	assert.True(t, c.Less)
	assert.Equal(t, "09:00:00.000", textOf(t, t1))
}

func TestFlawCompareIsAlwaysInvalid(t *testing.T) {
	fl := NewFlaw("bad byte", 4)
	other := NewFlaw("bad byte", 4)
	assert.False(t, fl.Compare(other).Valid)
	assert.True(t, fl.Equal(other))
	assert.True(t, IsFlaw(fl))
	assert.False(t, IsFlaw(NewInteger(1)))
}

func TestArrayDeepCopyAndClear(t *testing.T) {
	a := NewArray(NewInteger(1), NewString("x"))
	cp := a.Copy().(*Array)
	cp.Elements[0].(*Integer).V = 99
	assert.EqualValues(t, 1, a.Elements[0].(*Integer).V)

	a.Clear()
	assert.Equal(t, 0, a.Len())
}

func TestArrayPackedDoubleRun(t *testing.T) {
	arr := NewArray(NewDouble(1.0), NewDouble(2.0), NewDouble(3.0))
	b := binaryOf(t, arr)
	// container header (1 byte) + packed-double count header (1 byte) + 3*8 bytes payload.
	assert.Equal(t, 1+1+3*8, len(b))
}

func TestArrayOrderingLexicographic(t *testing.T) {
	a := NewArray(NewInteger(1), NewInteger(2))
	b := NewArray(NewInteger(1), NewInteger(3))
	c := a.Compare(b)
	require.True(t, c.Valid)
	assert.True(t, c.Less)
}

func TestMapEnforcesSingleKeyKind(t *testing.T) {
	m := NewMap()
	assert.True(t, m.Add(NewInteger(1), NewString("one")))
	assert.True(t, m.Add(NewInteger(2), NewString("two")))
	assert.False(t, m.Add(NewString("nope"), NewString("three")))
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get(NewInteger(1))
	require.True(t, ok)
	assert.Equal(t, "one", v.(*String).S)
}

func TestMapRefusesNonEnumerableKey(t *testing.T) {
	m := NewMap()
	assert.False(t, m.Add(NewArray(), NewInteger(1)))
	assert.Equal(t, 0, m.Len())
}

func TestMapReplaceExistingKey(t *testing.T) {
	m := NewMap()
	m.Add(NewInteger(1), NewString("one"))
	m.Add(NewInteger(1), NewString("uno"))
	assert.Equal(t, 1, m.Len())
	v, _ := m.Get(NewInteger(1))
	assert.Equal(t, "uno", v.(*String).S)
}

func TestSetUniqueMembership(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Add(NewInteger(5)))
	assert.False(t, s.Add(NewInteger(5)))
	assert.True(t, s.Add(NewInteger(1)))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(NewInteger(1)))
	assert.False(t, s.Contains(NewInteger(99)))
	// sorted ascending
	assert.EqualValues(t, 1, s.Elements()[0].(*Integer).V)
}

func TestSetRefusesKindMismatch(t *testing.T) {
	s := NewSet()
	s.Add(NewInteger(1))
	assert.False(t, s.Add(NewLogical(true)))
}

func TestContainerEqualityIgnoresIdentity(t *testing.T) {
	a := NewArray(NewInteger(1), NewMap())
	b := NewArray(NewInteger(1), NewMap())
	assert.True(t, a.Equal(b))
}

func TestJSONMapKeyAlwaysQuoted(t *testing.T) {
	m := NewMap()
	m.Add(NewInteger(7), NewLogical(true))
	out := jsonOf(t, m)
	assert.Equal(t, `{"7":true}`, out)
}
