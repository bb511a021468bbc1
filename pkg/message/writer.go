// Package message implements the binary Message codec: a self-framed byte
// sequence carrying exactly one top-level Value, bracketed by an envelope
// that names the payload's expected kind so a reader can reject a frame
// whose payload doesn't match what the sender promised.
package message

import (
	"fmt"

	"github.com/opendragon/nimo-go/internal/buffer"
	"github.com/opendragon/nimo-go/pkg/value"
)

// chunkedBinaryWriter adapts *buffer.Chunked to value.BinaryWriter; Chunked's
// Append never fails, so both methods always return a nil error.
type chunkedBinaryWriter struct {
	buf *buffer.Chunked
}

func (w chunkedBinaryWriter) WriteByte(b byte) error {
	w.buf.Append([]byte{b})
	return nil
}

func (w chunkedBinaryWriter) WriteBytes(b []byte) error {
	w.buf.Append(b)
	return nil
}

// Writer assembles a single framed Message. The zero value is not usable;
// construct with NewWriter and call Open before SetValue/AppendBytes/Close.
type Writer struct {
	payload  *buffer.Chunked
	sink     chunkedBinaryWriter
	typeTag  value.EnvelopeKind
	hasValue bool
	open     bool
	frame    []byte
}

// NewWriter constructs an unopened Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Open resets the Writer to an empty, write-ready state.
func (w *Writer) Open() {
	w.payload = buffer.New()
	w.sink = chunkedBinaryWriter{buf: w.payload}
	w.typeTag = value.EnvelopeOther
	w.hasValue = false
	w.open = true
	w.frame = nil
}

// SetValue encodes v into the message payload. The envelope's expected-kind
// tag is fixed from the first Value written; later calls extend the same
// payload (used e.g. to append further container elements) without changing
// the envelope.
func (w *Writer) SetValue(v value.Value) error {
	if !w.open {
		return fmt.Errorf("message: Writer is not open")
	}
	if !w.hasValue {
		w.typeTag = v.TypeTag()
		w.hasValue = true
	}
	return v.WriteBinary(w.sink)
}

// AppendBytes appends already-encoded bytes directly to the payload, for
// callers that assembled a fragment themselves (e.g. a precomputed packed
// Double run shared across messages).
func (w *Writer) AppendBytes(b []byte) error {
	if !w.open {
		return fmt.Errorf("message: Writer is not open")
	}
	w.payload.Append(b)
	return nil
}

// Close finalizes the frame: header, payload, trailer. After Close, Bytes
// returns the complete wire form.
func (w *Writer) Close() error {
	if !w.open {
		return fmt.Errorf("message: Writer is not open")
	}
	out := buffer.New()
	sink := chunkedBinaryWriter{buf: out}
	body := w.payload.Bytes()
	if len(body) == 0 {
		if err := sink.WriteByte(value.TagEnvelopeEmpty | byte(w.typeTag)); err != nil {
			return err
		}
		if err := sink.WriteByte(value.TagEnvelopeEmpty | byte(w.typeTag)); err != nil {
			return err
		}
	} else {
		if err := sink.WriteByte(value.TagEnvelopeStart | byte(w.typeTag)); err != nil {
			return err
		}
		if err := sink.WriteBytes(body); err != nil {
			return err
		}
		if err := sink.WriteByte(value.TagEnvelopeEnd | byte(w.typeTag)); err != nil {
			return err
		}
	}
	w.frame = out.Bytes()
	w.open = false
	return nil
}

// Bytes returns the finished frame. Only valid after Close.
func (w *Writer) Bytes() []byte {
	return w.frame
}

// Encode is a convenience wrapper that opens a Writer, writes a single
// value, closes it, and returns the frame.
func Encode(v value.Value) ([]byte, error) {
	w := NewWriter()
	w.Open()
	if err := w.SetValue(v); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
