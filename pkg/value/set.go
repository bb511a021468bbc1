package value

import (
	"fmt"
	"sort"
	"strings"
)

// Set is an ordered collection of unique Values. All elements share one
// enumeration-compatible kind, fixed at first insertion.
type Set struct {
	elemKind EnumKind
	elements []Value
}

// NewSet constructs an empty Set.
func NewSet() *Set {
	return &Set{elemKind: NotEnumerable}
}

func (v *Set) Kind() Kind { return KindSet }

func (v *Set) EnumerationType() EnumKind { return NotEnumerable }

func (v *Set) TypeTag() EnvelopeKind { return EnvelopeContainer }

func (v *Set) Describe() string { return "Set" }

// Len reports the number of elements.
func (v *Set) Len() int { return len(v.elements) }

// Elements returns the members in sorted order. Must not be mutated.
func (v *Set) Elements() []Value { return v.elements }

// ElementKind reports the enumeration kind fixed by the first insertion.
func (v *Set) ElementKind() EnumKind { return v.elemKind }

func (v *Set) findIndex(val Value) (int, bool) {
	i := sort.Search(len(v.elements), func(i int) bool {
		c := v.elements[i].Compare(val)
		return c.Valid && !c.Less
	})
	if i < len(v.elements) {
		c := v.elements[i].Compare(val)
		if c.Valid && c.Equal {
			return i, true
		}
	}
	return i, false
}

// Add inserts a new element. It returns inserted=false when the value is
// already present, or when its EnumerationType is not enumerable or
// conflicts with the kind fixed by a prior insertion.
func (v *Set) Add(val Value) (inserted bool) {
	kind := val.EnumerationType()
	if kind == NotEnumerable {
		return false
	}
	if len(v.elements) == 0 {
		v.elemKind = kind
	} else if v.elemKind != kind {
		return false
	}
	idx, exists := v.findIndex(val)
	if exists {
		return false
	}
	v.elements = append(v.elements, nil)
	copy(v.elements[idx+1:], v.elements[idx:])
	v.elements[idx] = val
	return true
}

// Contains reports whether val is a member.
func (v *Set) Contains(val Value) bool {
	_, ok := v.findIndex(val)
	return ok
}

func (v *Set) Copy() Value {
	out := &Set{elemKind: v.elemKind, elements: make([]Value, len(v.elements))}
	for i, e := range v.elements {
		out.elements[i] = e.Copy()
	}
	return out
}

// Clear empties the Set in place (donor side of a move).
func (v *Set) Clear() {
	v.elements = nil
	v.elemKind = NotEnumerable
}

func (v *Set) Equal(other Value) bool {
	o, ok := other.(*Set)
	if !ok || len(o.elements) != len(v.elements) {
		return false
	}
	for i, e := range v.elements {
		if !e.Equal(o.elements[i]) {
			return false
		}
	}
	return true
}

func (v *Set) Compare(other Value) Comparison {
	o, ok := other.(*Set)
	if !ok {
		return invalidComparison
	}
	n := len(v.elements)
	if len(o.elements) < n {
		n = len(o.elements)
	}
	for i := 0; i < n; i++ {
		c := v.elements[i].Compare(o.elements[i])
		if !c.Valid {
			return invalidComparison
		}
		if !c.Equal {
			return c
		}
	}
	switch {
	case len(v.elements) < len(o.elements):
		return Comparison{Valid: true, Less: true}
	case len(v.elements) > len(o.elements):
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Set) PrintText(w TextWriter, squished bool) error {
	if err := w.WriteByte('['); err != nil {
		return err
	}
	for i, e := range v.elements {
		if i > 0 && !squished {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
		}
		if err := e.PrintText(w, squished); err != nil {
			return err
		}
	}
	return w.WriteByte(']')
}

func (v *Set) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	if err := w.WriteByte('['); err != nil {
		return err
	}
	for i, e := range v.elements {
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

func (v *Set) WriteBinary(w BinaryWriter) error {
	if err := writeContainerHeader(w, TagSetShort, TagSetLong, len(v.elements)); err != nil {
		return err
	}
	for _, e := range v.elements {
		if err := e.WriteBinary(w); err != nil {
			return err
		}
	}
	return nil
}

func (v *Set) String() string {
	parts := make([]string, len(v.elements))
	for i, e := range v.elements {
		parts[i] = fmt.Sprintf("%v", e)
	}
	return fmt.Sprintf("Set[%s]", strings.Join(parts, ", "))
}
