// Package value implements the nImO value algebra: a closed, tagged union
// of scalar and container kinds shared by the binary Message codec
// (pkg/message) and the textual StringBuffer codec (pkg/stringbuffer).
//
// Value itself never imports either codec package; WriteBinary and
// PrintText/PrintJSON accept small writer interfaces that the codec
// packages' buffer types satisfy structurally, the same way io.Writer
// decouples callers from concrete sinks.
package value

// Kind discriminates the concrete variant of a Value.
type Kind int

const (
	KindLogical Kind = iota
	KindInteger
	KindDouble
	KindString
	KindBlob
	KindAddress
	KindDate
	KindTime
	KindArray
	KindMap
	KindSet
	KindFlaw
)

func (k Kind) String() string {
	switch k {
	case KindLogical:
		return "Logical"
	case KindInteger:
		return "Integer"
	case KindDouble:
		return "Double"
	case KindString:
		return "String"
	case KindBlob:
		return "Blob"
	case KindAddress:
		return "Address"
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindSet:
		return "Set"
	case KindFlaw:
		return "Flaw"
	default:
		return "Unknown"
	}
}

// EnumKind is the subset of kinds permitted as Map keys and Set elements.
// A Map's key-kind and a Set's element-kind are fixed at first insertion.
type EnumKind int

const (
	NotEnumerable EnumKind = iota
	EnumLogical
	EnumInteger
	EnumAddress
	EnumDate
	EnumTime
)

// Comparison is the tri-valued result of ordering two Values. Valid is
// false when the two operands' kinds cannot be ordered against each other
// (e.g. Logical vs String, or any scalar vs a container); callers must not
// read Less/Equal when Valid is false.
type Comparison struct {
	Valid bool
	Less  bool
	Equal bool
}

// Greater reports whether the comparison determined a strictly-greater
// relationship. Only meaningful when Valid is true.
func (c Comparison) Greater() bool {
	return c.Valid && !c.Less && !c.Equal
}

var invalidComparison = Comparison{}

// EnvelopeKind is the 4-bit discriminator Message envelopes use to tag the
// expected payload type, drawn from the six groups in spec §4.3.
type EnvelopeKind byte

const (
	EnvelopeLogical      EnvelopeKind = 0x1
	EnvelopeDouble       EnvelopeKind = 0x2
	EnvelopeStringOrBlob EnvelopeKind = 0x5
	EnvelopeContainer    EnvelopeKind = 0x6
	EnvelopeOther        EnvelopeKind = 0x7
	EnvelopeInteger      EnvelopeKind = 0xC
)

// BinaryWriter is the minimal sink a Value needs to serialize itself into
// the binary Message format. pkg/message's Writer implements it.
type BinaryWriter interface {
	WriteByte(b byte) error
	WriteBytes(b []byte) error
}

// TextWriter is the minimal sink a Value needs to serialize itself into
// the textual form. pkg/stringbuffer's Writer implements it.
type TextWriter interface {
	WriteByte(b byte) error
	WriteString(s string) error
}

// Value is the common interface implemented by every variant in the
// algebra, including the out-of-band Flaw sentinel.
type Value interface {
	Kind() Kind
	Equal(other Value) bool
	Compare(other Value) Comparison
	EnumerationType() EnumKind
	Describe() string
	TypeTag() EnvelopeKind
	PrintText(w TextWriter, squished bool) error
	PrintJSON(w TextWriter, asKey bool, squished bool) error
	WriteBinary(w BinaryWriter) error
	Copy() Value
}

// IsFlaw reports whether v is the out-of-band error sentinel.
func IsFlaw(v Value) bool {
	_, ok := v.(*Flaw)
	return ok
}
