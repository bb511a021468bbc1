package value

import (
	"bytes"
	"fmt"
)

// String is a byte-sequence value whose printable form uses the shortest
// quoting (see pkg/stringbuffer for the escape rules).
type String struct {
	S string
}

// NewString constructs a String value.
func NewString(s string) *String { return &String{S: s} }

func (v *String) Kind() Kind { return KindString }

func (v *String) EnumerationType() EnumKind { return NotEnumerable }

func (v *String) TypeTag() EnvelopeKind { return EnvelopeStringOrBlob }

func (v *String) Describe() string { return "String" }

func (v *String) Copy() Value { return &String{S: v.S} }

func (v *String) Equal(other Value) bool {
	o, ok := other.(*String)
	return ok && o.S == v.S
}

func (v *String) Compare(other Value) Comparison {
	o, ok := other.(*String)
	if !ok {
		// Comparisons against Blob, or any non-String, are invalid.
		return invalidComparison
	}
	switch {
	case v.S < o.S:
		return Comparison{Valid: true, Less: true}
	case v.S > o.S:
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *String) PrintText(w TextWriter, squished bool) error {
	return writeQuotedText(w, v.S)
}

func (v *String) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	return writeQuotedJSON(w, v.S)
}

func (v *String) WriteBinary(w BinaryWriter) error {
	data := []byte(v.S)
	return writeLengthTagged(w, TagStringShort, TagStringLong, data)
}

func writeLengthTagged(w BinaryWriter, shortTag, longTag byte, data []byte) error {
	n := len(data)
	if n <= 7 {
		// The short form's low nibble is "0lll": only the bottom 3 bits carry
		// the length, the 4th bit is reserved to distinguish it from the
		// long form's "1nnn".
		if err := w.WriteByte(shortTag | byte(n)); err != nil {
			return err
		}
		return w.WriteBytes(data)
	}
	widthBytes := minimalUnsignedBytes(uint64(n))
	if err := w.WriteByte(longTag | byte(widthBytes-1)); err != nil {
		return err
	}
	if err := w.WriteBytes(unsignedBigEndian(uint64(n), widthBytes)); err != nil {
		return err
	}
	return w.WriteBytes(data)
}

func (v *String) String() string {
	return fmt.Sprintf("String(%q)", v.S)
}

// writeQuotedText and writeQuotedJSON are defined in pkg/value so String
// and Blob can share the escaping rules without pkg/stringbuffer importing
// back into pkg/value. This is the writer half of the escape grammar;
// pkg/stringbuffer's Reader.readEscape is the reader half.
func writeQuotedText(w TextWriter, s string) error {
	quote := byte('"')
	if bytes.IndexByte([]byte(s), '"') >= 0 && bytes.IndexByte([]byte(s), '\'') < 0 {
		quote = '\''
	}
	if err := w.WriteByte(quote); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if err := writeEscapedByte(w, c, quote); err != nil {
			return err
		}
	}
	return w.WriteByte(quote)
}

func writeEscapedByte(w TextWriter, c byte, quote byte) error {
	switch {
	case c == quote || c == '\\':
		return w.WriteString(string([]byte{'\\', c}))
	case c == '\a':
		return w.WriteString(`\a`)
	case c == '\b':
		return w.WriteString(`\b`)
	case c == '\t':
		return w.WriteString(`\t`)
	case c == '\n':
		return w.WriteString(`\n`)
	case c == '\v':
		return w.WriteString(`\v`)
	case c == '\f':
		return w.WriteString(`\f`)
	case c == '\r':
		return w.WriteString(`\r`)
	case c == 0x1b:
		return w.WriteString(`\e`)
	case c == 0xA0:
		return w.WriteString(`\240`)
	case c == 0xFF:
		return w.WriteString(`\377`)
	case c < 0x20 || c == 0x7f:
		return w.WriteString(fmt.Sprintf(`\C-%c`, c+0x40))
	case c >= 0x80:
		return w.WriteString(fmt.Sprintf(`\M-%c`, c&0x7f))
	default:
		return w.WriteByte(c)
	}
}

func writeQuotedJSON(w TextWriter, s string) error {
	if err := w.WriteByte('"'); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			if err := w.WriteString(string([]byte{'\\', c})); err != nil {
				return err
			}
		case '\n':
			if err := w.WriteString(`\n`); err != nil {
				return err
			}
		case '\t':
			if err := w.WriteString(`\t`); err != nil {
				return err
			}
		case '\r':
			if err := w.WriteString(`\r`); err != nil {
				return err
			}
		default:
			if c < 0x20 {
				if err := w.WriteString(fmt.Sprintf(`\u%04x`, c)); err != nil {
					return err
				}
			} else if err := w.WriteByte(c); err != nil {
				return err
			}
		}
	}
	return w.WriteByte('"')
}
