package value

import (
	"fmt"
	"strings"
)

// Array is an ordered, heterogeneous sequence of Values. It owns its
// children exclusively; Copy performs a deep copy.
type Array struct {
	Elements []Value
}

// NewArray constructs an Array from the given elements (taking ownership).
func NewArray(elements ...Value) *Array {
	return &Array{Elements: elements}
}

func (v *Array) Kind() Kind { return KindArray }

func (v *Array) EnumerationType() EnumKind { return NotEnumerable }

func (v *Array) TypeTag() EnvelopeKind { return EnvelopeContainer }

func (v *Array) Describe() string { return "Array" }

// Len reports the number of elements.
func (v *Array) Len() int { return len(v.Elements) }

// Add appends an element; Arrays place no kind restriction on elements.
func (v *Array) Add(val Value) {
	v.Elements = append(v.Elements, val)
}

func (v *Array) Copy() Value {
	out := make([]Value, len(v.Elements))
	for i, e := range v.Elements {
		out[i] = e.Copy()
	}
	return &Array{Elements: out}
}

// Clear empties the Array in place, used to model move-out semantics on a
// donor value (see DESIGN.md's Open Question decision on move).
func (v *Array) Clear() {
	v.Elements = nil
}

func (v *Array) Equal(other Value) bool {
	o, ok := other.(*Array)
	if !ok || len(o.Elements) != len(v.Elements) {
		return false
	}
	for i, e := range v.Elements {
		if !e.Equal(o.Elements[i]) {
			return false
		}
	}
	return true
}

func (v *Array) Compare(other Value) Comparison {
	o, ok := other.(*Array)
	if !ok {
		return invalidComparison
	}
	n := len(v.Elements)
	if len(o.Elements) < n {
		n = len(o.Elements)
	}
	for i := 0; i < n; i++ {
		c := v.Elements[i].Compare(o.Elements[i])
		if !c.Valid {
			return invalidComparison
		}
		if !c.Equal {
			return c
		}
	}
	switch {
	case len(v.Elements) < len(o.Elements):
		return Comparison{Valid: true, Less: true}
	case len(v.Elements) > len(o.Elements):
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Array) PrintText(w TextWriter, squished bool) error {
	if err := w.WriteByte('('); err != nil {
		return err
	}
	for i, e := range v.Elements {
		if i > 0 && !squished {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
		}
		if err := e.PrintText(w, squished); err != nil {
			return err
		}
	}
	return w.WriteByte(')')
}

func (v *Array) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	if err := w.WriteByte('['); err != nil {
		return err
	}
	for i, e := range v.Elements {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := e.PrintJSON(w, false, squished); err != nil {
			return err
		}
	}
	return w.WriteByte(']')
}

// WriteBinary emits the container header followed by each element. Runs of
// consecutive Double elements are packed under one shared count header
// (spec §4.3's "a Double sequence... uses one count header plus the
// payloads"), matching write_values_to_message in the original.
func (v *Array) WriteBinary(w BinaryWriter) error {
	if err := writeContainerHeader(w, TagArrayShort, TagArrayLong, len(v.Elements)); err != nil {
		return err
	}
	for i := 0; i < len(v.Elements); {
		if d, ok := v.Elements[i].(*Double); ok {
			run := []float64{d.V}
			j := i + 1
			for j < len(v.Elements) {
				nd, ok := v.Elements[j].(*Double)
				if !ok {
					break
				}
				run = append(run, nd.V)
				j++
			}
			if err := writePackedDoubles(w, run); err != nil {
				return err
			}
			i = j
			continue
		}
		if err := v.Elements[i].WriteBinary(w); err != nil {
			return err
		}
		i++
	}
	return nil
}

func writePackedDoubles(w BinaryWriter, values []float64) error {
	n := len(values)
	if n <= 16 {
		if err := w.WriteByte(TagDoubleShort | byte(n-1)); err != nil {
			return err
		}
	} else {
		widthBytes := minimalUnsignedBytes(uint64(n))
		if err := w.WriteByte(TagDoubleLong | byte(widthBytes-1)); err != nil {
			return err
		}
		if err := w.WriteBytes(unsignedBigEndian(uint64(n), widthBytes)); err != nil {
			return err
		}
	}
	for _, f := range values {
		if err := w.WriteBytes(float64Bits(f)); err != nil {
			return err
		}
	}
	return nil
}

func writeContainerHeader(w BinaryWriter, shortTag, longTag byte, count int) error {
	if count <= 7 {
		return w.WriteByte(shortTag | byte(count))
	}
	widthBytes := minimalUnsignedBytes(uint64(count))
	if err := w.WriteByte(longTag | byte(widthBytes-1)); err != nil {
		return err
	}
	return w.WriteBytes(unsignedBigEndian(uint64(count), widthBytes))
}

func (v *Array) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = fmt.Sprintf("%v", e)
	}
	return fmt.Sprintf("Array[%s]", strings.Join(parts, ", "))
}
