package message

import (
	"fmt"

	"github.com/opendragon/nimo-go/pkg/value"
)

type readerState int

const (
	stateUnopened readerState = iota
	stateOpen
	stateClosed
)

// Reader decodes a single framed Message. A Reader constructed with
// NewReader(data) starts in the "closed" state, mirroring a just-received
// frame nobody has explicitly opened yet; GetValue requires allowClosed in
// that state. Open transitions to the "open" state, after which GetValue may
// be called with allowClosed=false.
type Reader struct {
	data  []byte
	state readerState
}

// NewReader wraps a complete frame for decoding.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, state: stateClosed}
}

// Open (re)positions the Reader at the start of its data in the "open"
// state, the symmetric counterpart of Writer.Open.
func (r *Reader) Open(data []byte) {
	r.data = data
	r.state = stateOpen
}

// GetValue decodes the envelope and its payload. Reading from a Reader that
// is in the closed state is only permitted when allowClosed is true; any
// other disallowed state yields an error rather than a Value, per spec
// §4.3's "Message is not open for reading or is not closed".
func (r *Reader) GetValue(allowClosed bool) (value.Value, error) {
	switch {
	case r.state == stateOpen:
	case r.state == stateClosed && allowClosed:
	default:
		return nil, fmt.Errorf("message: Reader is not open for reading or is not closed")
	}

	c := &cursor{data: r.data}
	header, err := c.readByte()
	if err != nil {
		return nil, err
	}
	expected := value.EnvelopeKind(header & 0x0F)
	marker := header & 0xF0

	empty := marker == value.TagEnvelopeEmpty
	var result value.Value
	if !empty {
		if marker != value.TagEnvelopeStart {
			return value.NewFlaw(fmt.Sprintf("unrecognized envelope start byte 0x%02X", header), 0), nil
		}
		result, err = decodeValue(c)
		if err != nil {
			return nil, err
		}
	}

	trailer, err := c.readByte()
	if err != nil {
		return nil, err
	}
	trailerExpected := value.EnvelopeKind(trailer & 0x0F)
	trailerMarker := trailer & 0xF0
	wantTrailerMarker := value.TagEnvelopeEnd
	if empty {
		wantTrailerMarker = value.TagEnvelopeEmpty
	}
	if trailerMarker != wantTrailerMarker || trailerExpected != expected {
		return value.NewFlaw("envelope start/end mismatch", c.pos), nil
	}

	r.state = stateClosed

	if empty {
		// The empty-Message form carries no Value (spec's GLOSSARY entry for
		// Message); nil, nil distinguishes it from a decode failure (Flaw).
		return nil, nil
	}
	if !value.IsFlaw(result) && result.TypeTag() != expected {
		return value.NewFlaw("payload kind does not match envelope's expected type", 0), nil
	}
	return result, nil
}

// Decode is a convenience wrapper around NewReader+GetValue(allowClosed=true)
// for the common case of decoding a frame in one call.
func Decode(frame []byte) (value.Value, error) {
	return NewReader(frame).GetValue(true)
}
