// Package stringbuffer implements the textual codec: a human-editable
// printed form of the value algebra that round-trips through the binary
// Message codec, designed for log output and hand-authored test fixtures.
package stringbuffer

import (
	"github.com/opendragon/nimo-go/internal/buffer"
	"github.com/opendragon/nimo-go/pkg/value"
)

// Writer accumulates the textual form of one or more Values. It wraps
// internal/buffer in null-pad mode so the result can always be viewed as a
// NUL-terminated byte sequence without a reallocation.
type Writer struct {
	buf *buffer.Chunked
}

// NewWriter constructs an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: buffer.New(buffer.WithNullPad(true))}
}

func (w *Writer) WriteByte(b byte) error {
	w.buf.Append([]byte{b})
	return nil
}

func (w *Writer) WriteString(s string) error {
	w.buf.Append([]byte(s))
	return nil
}

// WriteValue prints v's textual form into the buffer.
func (w *Writer) WriteValue(v value.Value, squished bool) error {
	return v.PrintText(w, squished)
}

// Bytes returns the accumulated textual form.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) String() string {
	return string(w.Bytes())
}

// Reset empties the Writer for reuse.
func (w *Writer) Reset() *Writer {
	w.buf.Reset()
	return w
}
