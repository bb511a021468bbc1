package value

import "fmt"

// Address is an IPv4 address stored as a 32-bit big-endian value.
type Address struct {
	V uint32
}

// NewAddress constructs an Address from four octets.
func NewAddress(a, b, c, d byte) *Address {
	return &Address{V: uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)}
}

func (v *Address) Octets() (a, b, c, d byte) {
	return byte(v.V >> 24), byte(v.V >> 16), byte(v.V >> 8), byte(v.V)
}

func (v *Address) Kind() Kind { return KindAddress }

func (v *Address) EnumerationType() EnumKind { return EnumAddress }

func (v *Address) TypeTag() EnvelopeKind { return EnvelopeOther }

func (v *Address) Describe() string { return "Address" }

func (v *Address) Copy() Value { return &Address{V: v.V} }

func (v *Address) Equal(other Value) bool {
	o, ok := other.(*Address)
	return ok && o.V == v.V
}

func (v *Address) Compare(other Value) Comparison {
	o, ok := other.(*Address)
	if !ok {
		return invalidComparison
	}
	switch {
	case v.V < o.V:
		return Comparison{Valid: true, Less: true}
	case v.V > o.V:
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Address) PrintText(w TextWriter, squished bool) error {
	a, b, c, d := v.Octets()
	return w.WriteString(fmt.Sprintf("@%d.%d.%d.%d", a, b, c, d))
}

func (v *Address) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	a, b, c, d := v.Octets()
	return writeQuotedJSON(w, fmt.Sprintf("%d.%d.%d.%d", a, b, c, d))
}

func (v *Address) WriteBinary(w BinaryWriter) error {
	if err := w.WriteByte(TagAddress); err != nil {
		return err
	}
	a, b, c, d := v.Octets()
	return w.WriteBytes([]byte{a, b, c, d})
}

func (v *Address) String() string {
	a, b, c, d := v.Octets()
	return fmt.Sprintf("Address(%d.%d.%d.%d)", a, b, c, d)
}
