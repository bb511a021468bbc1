package buffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLen(t *testing.T) {
	b := New(WithChunkSize(8))
	b.Append([]byte("abcd"))
	require.Equal(t, 4, b.Len())
	b.Append([]byte("efgh"))
	require.Equal(t, 8, b.Len())
	require.Equal(t, 1, b.NumChunks(), "exactly fills the first chunk")

	b.Append([]byte("i"))
	require.Equal(t, 9, b.Len())
	require.Equal(t, 2, b.NumChunks())
}

func TestBytesZeroCopyFastPath(t *testing.T) {
	b := New(WithChunkSize(64))
	b.Append([]byte("hello"))
	out := b.Bytes()
	require.Equal(t, 1, b.NumChunks())
	assert.True(t, bytes.Equal(out, []byte("hello")))
}

func TestBytesMultiChunk(t *testing.T) {
	b := New(WithChunkSize(4))
	b.Append([]byte("0123456789"))
	require.Equal(t, 10, b.Len())
	require.Greater(t, b.NumChunks(), 1)
	assert.Equal(t, []byte("0123456789"), b.Bytes())
}

func TestByteAt(t *testing.T) {
	b := New(WithChunkSize(4))
	b.Append([]byte("abcdef"))
	v, atEnd := b.ByteAt(0)
	require.False(t, atEnd)
	require.Equal(t, byte('a'), v)

	v, atEnd = b.ByteAt(5)
	require.False(t, atEnd)
	require.Equal(t, byte('f'), v)

	_, atEnd = b.ByteAt(6)
	require.True(t, atEnd)

	_, atEnd = b.ByteAt(-1)
	require.True(t, atEnd)
}

func TestReset(t *testing.T) {
	b := New(WithChunkSize(4))
	b.Append([]byte("0123456789"))
	require.Greater(t, b.NumChunks(), 1)

	b.Reset()
	require.Equal(t, 0, b.Len())
	require.Equal(t, 1, b.NumChunks())

	b.Append([]byte("xy"))
	require.Equal(t, []byte("xy"), b.Bytes())
}

func TestCacheInvalidatedOnAppend(t *testing.T) {
	b := New(WithChunkSize(64))
	b.Append([]byte("abc"))
	first := b.Bytes()
	require.Equal(t, []byte("abc"), first)

	b.Append([]byte("def"))
	second := b.Bytes()
	require.Equal(t, []byte("abcdef"), second)
}

func TestNullPadReservesTrailingByte(t *testing.T) {
	b := New(WithChunkSize(4), WithNullPad(true))
	// usable capacity per chunk is 3 with a 4-byte chunk and null padding
	b.Append([]byte("abc"))
	require.Equal(t, 1, b.NumChunks())
	b.Append([]byte("d"))
	require.Equal(t, 2, b.NumChunks(), "null padding should reserve the 4th byte")
}
