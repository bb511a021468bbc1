package value

import (
	"bytes"
	"fmt"
)

// Blob is an opaque byte-sequence value. Equality is content-equality;
// ordering is lexicographic over bytes with length as a tie-break.
type Blob struct {
	Data []byte
}

// NewBlob constructs a Blob value, copying the provided bytes.
func NewBlob(data []byte) *Blob {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Blob{Data: cp}
}

func (v *Blob) Kind() Kind { return KindBlob }

func (v *Blob) EnumerationType() EnumKind { return NotEnumerable }

func (v *Blob) TypeTag() EnvelopeKind { return EnvelopeStringOrBlob }

func (v *Blob) Describe() string { return "Blob" }

func (v *Blob) Copy() Value { return NewBlob(v.Data) }

func (v *Blob) Equal(other Value) bool {
	o, ok := other.(*Blob)
	return ok && bytes.Equal(o.Data, v.Data)
}

func (v *Blob) Compare(other Value) Comparison {
	o, ok := other.(*Blob)
	if !ok {
		// Comparisons against String, or any non-Blob, are invalid.
		return invalidComparison
	}
	c := bytes.Compare(v.Data, o.Data)
	switch {
	case c < 0:
		return Comparison{Valid: true, Less: true}
	case c > 0:
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Blob) PrintText(w TextWriter, squished bool) error {
	if err := w.WriteString(fmt.Sprintf("%%%d%%", len(v.Data))); err != nil {
		return err
	}
	for _, b := range v.Data {
		if err := w.WriteString(fmt.Sprintf("%02X", b)); err != nil {
			return err
		}
	}
	return w.WriteByte('%')
}

func (v *Blob) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	var buf bytes.Buffer
	if err := v.PrintText(stringSliceWriter{&buf}, squished); err != nil {
		return err
	}
	return writeQuotedJSON(w, buf.String())
}

func (v *Blob) WriteBinary(w BinaryWriter) error {
	return writeLengthTagged(w, TagBlobShort, TagBlobLong, v.Data)
}

func (v *Blob) String() string {
	return fmt.Sprintf("Blob(%d bytes)", len(v.Data))
}

// stringSliceWriter adapts a *bytes.Buffer to the TextWriter interface so
// Blob can reuse its own textual form when embedding into JSON.
type stringSliceWriter struct{ buf *bytes.Buffer }

func (s stringSliceWriter) WriteByte(b byte) error     { return s.buf.WriteByte(b) }
func (s stringSliceWriter) WriteString(v string) error { _, err := s.buf.WriteString(v); return err }
