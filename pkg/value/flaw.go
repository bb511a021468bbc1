package value

import "fmt"

// Flaw is the out-of-band sentinel decoders return for ill-formed input.
// It is never valid inside a well-formed Message or container; callers
// that unwrap a Flaw must not propagate it into a container.
type Flaw struct {
	Reason   string
	Position int
}

// NewFlaw constructs a Flaw carrying a human-readable reason and the byte
// offset (if known; -1 otherwise) of the offending input.
func NewFlaw(reason string, position int) *Flaw {
	return &Flaw{Reason: reason, Position: position}
}

func (v *Flaw) Kind() Kind { return KindFlaw }

func (v *Flaw) EnumerationType() EnumKind { return NotEnumerable }

func (v *Flaw) TypeTag() EnvelopeKind { return EnvelopeOther }

func (v *Flaw) Describe() string { return "Flaw" }

func (v *Flaw) Copy() Value { return &Flaw{Reason: v.Reason, Position: v.Position} }

func (v *Flaw) Equal(other Value) bool {
	o, ok := other.(*Flaw)
	return ok && o.Reason == v.Reason && o.Position == v.Position
}

func (v *Flaw) Compare(other Value) Comparison {
	return invalidComparison
}

func (v *Flaw) PrintText(w TextWriter, squished bool) error {
	return w.WriteString(fmt.Sprintf("<Flaw: %s>", v.Reason))
}

func (v *Flaw) PrintJSON(w TextWriter, asKey bool, squished bool) error {
	return writeQuotedJSON(w, fmt.Sprintf("<Flaw: %s>", v.Reason))
}

func (v *Flaw) WriteBinary(w BinaryWriter) error {
	return w.WriteByte(TagInvalid)
}

func (v *Flaw) String() string {
	return fmt.Sprintf("Flaw(%q @%d)", v.Reason, v.Position)
}
