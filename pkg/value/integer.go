package value

import "fmt"

// Integer is the signed 64-bit variant.
type Integer struct {
	V int64
}

// NewInteger constructs an Integer value.
func NewInteger(v int64) *Integer { return &Integer{V: v} }

func (v *Integer) Kind() Kind { return KindInteger }

func (v *Integer) EnumerationType() EnumKind { return EnumInteger }

func (v *Integer) TypeTag() EnvelopeKind { return EnvelopeInteger }

func (v *Integer) Describe() string { return "Integer" }

func (v *Integer) Copy() Value { return &Integer{V: v.V} }

func (v *Integer) Equal(other Value) bool {
	switch o := other.(type) {
	case *Integer:
		return o.V == v.V
	case *Double:
		return float64(v.V) == o.V
	default:
		return false
	}
}

func (v *Integer) Compare(other Value) Comparison {
	var otherVal float64
	switch o := other.(type) {
	case *Integer:
		otherVal = float64(o.V)
	case *Double:
		otherVal = o.V
	default:
		return invalidComparison
	}
	self := float64(v.V)
	switch {
	case self < otherVal:
		return Comparison{Valid: true, Less: true}
	case self > otherVal:
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Integer) PrintText(w TextWriter, squished bool) error {
	return w.WriteString(fmt.Sprintf("%d", v.V))
}

func (v *Integer) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	if asKey {
		if err := w.WriteByte('"'); err != nil {
			return err
		}
		if err := w.WriteString(fmt.Sprintf("%d", v.V)); err != nil {
			return err
		}
		return w.WriteByte('"')
	}
	return v.PrintText(w, squished)
}

// minimalSignedBytes returns the fewest big-endian bytes (1..8) needed to
// represent v as a two's-complement signed integer.
func minimalSignedBytes(v int64) int {
	for n := 1; n <= 8; n++ {
		bits := uint(n * 8)
		if bits >= 64 {
			return n
		}
		lo := -(int64(1) << (bits - 1))
		hi := (int64(1) << (bits - 1)) - 1
		if v >= lo && v <= hi {
			return n
		}
	}
	return 8
}

func appendSignedBigEndian(v int64, n int) []byte {
	out := make([]byte, n)
	uv := uint64(v)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(uv)
		uv >>= 8
	}
	return out
}

func (v *Integer) WriteBinary(w BinaryWriter) error {
	if v.V >= -8 && v.V <= 7 {
		// 0000 ssss, ssss is the 4-bit two's complement value.
		return w.WriteByte(TagIntegerShort | byte(v.V&0x0F))
	}
	n := minimalSignedBytes(v.V)
	if err := w.WriteByte(TagIntegerLong | byte(n-1)); err != nil {
		return err
	}
	return w.WriteBytes(appendSignedBigEndian(v.V, n))
}

func (v *Integer) String() string {
	return fmt.Sprintf("Integer(%d)", v.V)
}
