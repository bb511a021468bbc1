package value

import "fmt"

// Date is a packed year/month/day value. Year ranges 0..9999, month 1..12,
// day 1..31.
type Date struct {
	Year  uint16
	Month uint8
	Day   uint8
}

// NewDate constructs a Date value.
func NewDate(year uint16, month, day uint8) *Date {
	return &Date{Year: year, Month: month, Day: day}
}

func (v *Date) packed() uint32 {
	return uint32(v.Year)<<16 | uint32(v.Month)<<8 | uint32(v.Day)
}

func (v *Date) Kind() Kind { return KindDate }

func (v *Date) EnumerationType() EnumKind { return EnumDate }

func (v *Date) TypeTag() EnvelopeKind { return EnvelopeOther }

func (v *Date) Describe() string { return "Date" }

func (v *Date) Copy() Value { return &Date{Year: v.Year, Month: v.Month, Day: v.Day} }

func (v *Date) Equal(other Value) bool {
	o, ok := other.(*Date)
	return ok && o.packed() == v.packed()
}

func (v *Date) Compare(other Value) Comparison {
	o, ok := other.(*Date)
	if !ok {
		return invalidComparison
	}
	switch {
	case v.packed() < o.packed():
		return Comparison{Valid: true, Less: true}
	case v.packed() > o.packed():
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Date) PrintText(w TextWriter, squished bool) error {
	return w.WriteString(fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day))
}

func (v *Date) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	return writeQuotedJSON(w, fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day))
}

func (v *Date) WriteBinary(w BinaryWriter) error {
	if err := w.WriteByte(TagDate); err != nil {
		return err
	}
	p := v.packed()
	return w.WriteBytes([]byte{byte(p >> 24), byte(p >> 16), byte(p >> 8), byte(p)})
}

func (v *Date) String() string {
	return fmt.Sprintf("Date(%04d-%02d-%02d)", v.Year, v.Month, v.Day)
}
