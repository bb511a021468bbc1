package value

import "fmt"

// tag nibbles for the scalar kinds, per spec §4.3.
const (
	TagIntegerShort byte = 0x00 // 0000 ssss
	TagIntegerLong  byte = 0x10 // 0001 nnnn
	TagDoubleShort  byte = 0x20 // 0010 cccc
	TagDoubleLong   byte = 0x30 // 0011 nnnn
	TagStringShort  byte = 0x40 // 0100 0lll
	TagStringLong   byte = 0x48 // 0100 1nnn
	TagBlobShort    byte = 0x50 // 0101 0lll
	TagBlobLong     byte = 0x58 // 0101 1nnn
	TagArrayShort   byte = 0x60 // 0110 0ccc
	TagArrayLong    byte = 0x68 // 0110 1nnn
	TagMapShort     byte = 0x70 // 0111 0ccc
	TagMapLong      byte = 0x78 // 0111 1nnn
	TagSetShort     byte = 0x80 // 1000 0ccc
	TagSetLong      byte = 0x88 // 1000 1nnn
	TagLogical      byte = 0x90 // 1001 000v
	TagAddress      byte = 0xA0 // 1010 0000
	TagDate         byte = 0xB0 // 1011 0000
	TagTime         byte = 0xC0 // 1100 0000
	TagInvalid      byte = 0xD0 // 1101 0000

	// Envelope markers (pkg/message owns interpretation; defined here so
	// the tag space is documented in one place).
	TagEnvelopeStart byte = 0x10
	TagEnvelopeEnd   byte = 0x20
	TagEnvelopeEmpty byte = 0x30
)

// Logical is the boolean variant of the value algebra.
type Logical struct {
	B bool
}

// NewLogical constructs a Logical value.
func NewLogical(b bool) *Logical { return &Logical{B: b} }

func (v *Logical) Kind() Kind { return KindLogical }

func (v *Logical) EnumerationType() EnumKind { return EnumLogical }

func (v *Logical) TypeTag() EnvelopeKind { return EnvelopeLogical }

func (v *Logical) Describe() string { return "Logical" }

func (v *Logical) Copy() Value { return &Logical{B: v.B} }

func (v *Logical) Equal(other Value) bool {
	o, ok := other.(*Logical)
	return ok && o.B == v.B
}

func (v *Logical) Compare(other Value) Comparison {
	o, ok := other.(*Logical)
	if !ok {
		return invalidComparison
	}
	if v.B == o.B {
		return Comparison{Valid: true, Equal: true}
	}
	// false < true
	return Comparison{Valid: true, Less: !v.B}
}

func (v *Logical) PrintText(w TextWriter, squished bool) error {
	if v.B {
		return w.WriteString("true")
	}
	return w.WriteString("false")
}

func (v *Logical) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	if asKey {
		return v.PrintText(w, squished)
	}
	return v.PrintText(w, squished)
}

func (v *Logical) WriteBinary(w BinaryWriter) error {
	b := TagLogical
	if v.B {
		b |= 0x01
	}
	return w.WriteByte(b)
}

func (v *Logical) String() string {
	return fmt.Sprintf("Logical(%v)", v.B)
}
