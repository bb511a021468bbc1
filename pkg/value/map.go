package value

import (
	"fmt"
	"sort"
	"strings"
)

// MapPair is one key/value entry of a Map.
type MapPair struct {
	Key   Value
	Value Value
}

// Map is an ordered mapping from Value to Value. All keys share one
// enumeration-compatible kind, fixed at first insertion; inserting a key
// whose EnumerationType differs is silently refused.
type Map struct {
	keyKind EnumKind
	pairs   []MapPair
}

// NewMap constructs an empty Map.
func NewMap() *Map {
	return &Map{keyKind: NotEnumerable}
}

func (v *Map) Kind() Kind { return KindMap }

func (v *Map) EnumerationType() EnumKind { return NotEnumerable }

func (v *Map) TypeTag() EnvelopeKind { return EnvelopeContainer }

func (v *Map) Describe() string { return "Map" }

// Len reports the number of key/value pairs.
func (v *Map) Len() int { return len(v.pairs) }

// Pairs returns the entries in key order. The slice must not be mutated.
func (v *Map) Pairs() []MapPair { return v.pairs }

// KeyKind reports the enumeration kind fixed by the first insertion, or
// NotEnumerable if the Map is empty.
func (v *Map) KeyKind() EnumKind { return v.keyKind }

func (v *Map) findIndex(key Value) (int, bool) {
	i := sort.Search(len(v.pairs), func(i int) bool {
		c := v.pairs[i].Key.Compare(key)
		return c.Valid && !c.Less
	})
	if i < len(v.pairs) {
		c := v.pairs[i].Key.Compare(key)
		if c.Valid && c.Equal {
			return i, true
		}
	}
	return i, false
}

// Add inserts or replaces a key/value pair. It returns inserted=false,
// without modifying the Map, when key's EnumerationType is not enumerable
// or conflicts with the kind fixed by a prior insertion (spec §9's Open
// Question, resolved to always signal refusal via the boolean rather than
// silently dropping or panicking).
func (v *Map) Add(key, val Value) (inserted bool) {
	kind := key.EnumerationType()
	if kind == NotEnumerable {
		return false
	}
	if len(v.pairs) == 0 {
		v.keyKind = kind
	} else if v.keyKind != kind {
		return false
	}
	idx, exists := v.findIndex(key)
	if exists {
		v.pairs[idx].Value = val
		return true
	}
	v.pairs = append(v.pairs, MapPair{})
	copy(v.pairs[idx+1:], v.pairs[idx:])
	v.pairs[idx] = MapPair{Key: key, Value: val}
	return true
}

// Get looks up the value for a key.
func (v *Map) Get(key Value) (Value, bool) {
	idx, exists := v.findIndex(key)
	if !exists {
		return nil, false
	}
	return v.pairs[idx].Value, true
}

func (v *Map) Copy() Value {
	out := &Map{keyKind: v.keyKind, pairs: make([]MapPair, len(v.pairs))}
	for i, p := range v.pairs {
		out.pairs[i] = MapPair{Key: p.Key.Copy(), Value: p.Value.Copy()}
	}
	return out
}

// Clear empties the Map in place (donor side of a move).
func (v *Map) Clear() {
	v.pairs = nil
	v.keyKind = NotEnumerable
}

func (v *Map) Equal(other Value) bool {
	o, ok := other.(*Map)
	if !ok || len(o.pairs) != len(v.pairs) {
		return false
	}
	for i, p := range v.pairs {
		op := o.pairs[i]
		if !p.Key.Equal(op.Key) || !p.Value.Equal(op.Value) {
			return false
		}
	}
	return true
}

func (v *Map) Compare(other Value) Comparison {
	o, ok := other.(*Map)
	if !ok {
		return invalidComparison
	}
	n := len(v.pairs)
	if len(o.pairs) < n {
		n = len(o.pairs)
	}
	for i := 0; i < n; i++ {
		kc := v.pairs[i].Key.Compare(o.pairs[i].Key)
		if !kc.Valid {
			return invalidComparison
		}
		if !kc.Equal {
			return kc
		}
		vc := v.pairs[i].Value.Compare(o.pairs[i].Value)
		if !vc.Valid {
			return invalidComparison
		}
		if !vc.Equal {
			return vc
		}
	}
	switch {
	case len(v.pairs) < len(o.pairs):
		return Comparison{Valid: true, Less: true}
	case len(v.pairs) > len(o.pairs):
		return Comparison{Valid: true}
	default:
		return Comparison{Valid: true, Equal: true}
	}
}

func (v *Map) PrintText(w TextWriter, squished bool) error {
	if err := w.WriteByte('{'); err != nil {
		return err
	}
	for i, p := range v.pairs {
		if i > 0 && !squished {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
		}
		if err := p.Key.PrintText(w, squished); err != nil {
			return err
		}
		if err := w.WriteString("->"); err != nil {
			return err
		}
		if err := p.Value.PrintText(w, squished); err != nil {
			return err
		}
	}
	return w.WriteByte('}')
}

func (v *Map) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	if err := w.WriteByte('{'); err != nil {
		return err
	}
	for i, p := range v.pairs {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := p.Key.PrintJSON(w, true, squished); err != nil {
			return err
		}
		if err := w.WriteByte(':'); err != nil {
			return err
		}
		if err := p.Value.PrintJSON(w, false, squished); err != nil {
			return err
		}
	}
	return w.WriteByte('}')
}

func (v *Map) WriteBinary(w BinaryWriter) error {
	if err := writeContainerHeader(w, TagMapShort, TagMapLong, len(v.pairs)); err != nil {
		return err
	}
	for _, p := range v.pairs {
		if err := p.Key.WriteBinary(w); err != nil {
			return err
		}
		if err := p.Value.WriteBinary(w); err != nil {
			return err
		}
	}
	return nil
}

func (v *Map) String() string {
	parts := make([]string, len(v.pairs))
	for i, p := range v.pairs {
		parts[i] = fmt.Sprintf("%v->%v", p.Key, p.Value)
	}
	return fmt.Sprintf("Map{%s}", strings.Join(parts, ", "))
}
