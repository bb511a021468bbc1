package value

import (
	"fmt"
	"math"
)

// Double is the IEEE 754 binary64 variant.
type Double struct {
	V float64
}

// NewDouble constructs a Double value.
func NewDouble(v float64) *Double { return &Double{V: v} }

func (v *Double) Kind() Kind { return KindDouble }

func (v *Double) EnumerationType() EnumKind { return NotEnumerable }

func (v *Double) TypeTag() EnvelopeKind { return EnvelopeDouble }

func (v *Double) Describe() string { return "Double" }

func (v *Double) Copy() Value { return &Double{V: v.V} }

func (v *Double) Equal(other Value) bool {
	switch o := other.(type) {
	case *Double:
		return o.V == v.V
	case *Integer:
		return v.V == float64(o.V)
	default:
		return false
	}
}

func (v *Double) Compare(other Value) Comparison {
	var otherVal float64
	switch o := other.(type) {
	case *Double:
		otherVal = o.V
	case *Integer:
		otherVal = float64(o.V)
	default:
		return invalidComparison
	}
	switch {
	case v.V < otherVal:
		return Comparison{Valid: true, Less: true}
	case v.V > otherVal:
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Double) PrintText(w TextWriter, squished bool) error {
	return w.WriteString(formatDouble(v.V))
}

func formatDouble(f float64) string {
	s := fmt.Sprintf("%g", f)
	// Ensure the textual form round-trips as a float, not an integer literal.
	hasDotOrExp := false
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			hasDotOrExp = true
			break
		}
	}
	if !hasDotOrExp && !math.IsInf(f, 0) && !math.IsNaN(f) {
		s += ".0"
	}
	return s
}

func (v *Double) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	if asKey {
		if err := w.WriteByte('"'); err != nil {
			return err
		}
		if err := w.WriteString(formatDouble(v.V)); err != nil {
			return err
		}
		return w.WriteByte('"')
	}
	return v.PrintText(w, squished)
}

func float64Bits(f float64) []byte {
	bits := math.Float64bits(f)
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(bits)
		bits >>= 8
	}
	return out
}

func (v *Double) WriteBinary(w BinaryWriter) error {
	// A standalone Double always uses the short-count form with count=1;
	// runs of doubles packed under one header are written by
	// Array.WriteBinary, not by a single Double value itself.
	if err := w.WriteByte(TagDoubleShort); err != nil {
		return err
	}
	return w.WriteBytes(float64Bits(v.V))
}

func (v *Double) String() string {
	return fmt.Sprintf("Double(%v)", v.V)
}
