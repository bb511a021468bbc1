package value

import "fmt"

// Time is a packed hour/minute/second/millisecond value. Hour ranges
// 0..23, minute/second 0..59, millisecond 0..999.
type Time struct {
	Hour        uint8
	Minute      uint8
	Second      uint8
	Millisecond uint16
}

// NewTime constructs a Time value.
func NewTime(hour, minute, second uint8, millisecond uint16) *Time {
	return &Time{Hour: hour, Minute: minute, Second: second, Millisecond: millisecond}
}

// key returns a single comparable/equatable integer encoding all four
// fields; millisecond needs 10 bits so it is kept in its own low field.
func (v *Time) key() uint64 {
	return uint64(v.Hour)<<26 | uint64(v.Minute)<<20 | uint64(v.Second)<<14 | uint64(v.Millisecond)
}

func (v *Time) Kind() Kind { return KindTime }

func (v *Time) EnumerationType() EnumKind { return EnumTime }

func (v *Time) TypeTag() EnvelopeKind { return EnvelopeOther }

func (v *Time) Describe() string { return "Time" }

func (v *Time) Copy() Value {
	return &Time{Hour: v.Hour, Minute: v.Minute, Second: v.Second, Millisecond: v.Millisecond}
}

func (v *Time) Equal(other Value) bool {
	o, ok := other.(*Time)
	return ok && o.key() == v.key()
}

func (v *Time) Compare(other Value) Comparison {
	o, ok := other.(*Time)
	if !ok {
		return invalidComparison
	}
	switch {
	case v.key() < o.key():
		return Comparison{Valid: true, Less: true}
	case v.key() > o.key():
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Time) PrintText(w TextWriter, squished bool) error {
	return w.WriteString(fmt.Sprintf("%02d:%02d:%02d.%03d", v.Hour, v.Minute, v.Second, v.Millisecond))
}

func (v *Time) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	return writeQuotedJSON(w, fmt.Sprintf("%02d:%02d:%02d.%03d", v.Hour, v.Minute, v.Second, v.Millisecond))
}

func (v *Time) WriteBinary(w BinaryWriter) error {
	if err := w.WriteByte(TagTime); err != nil {
		return err
	}
	return w.WriteBytes([]byte{
		v.Hour, v.Minute, v.Second,
		byte(v.Millisecond >> 8), byte(v.Millisecond),
	})
}

func (v *Time) String() string {
	return fmt.Sprintf("Time(%02d:%02d:%02d.%03d)", v.Hour, v.Minute, v.Second, v.Millisecond)
}
