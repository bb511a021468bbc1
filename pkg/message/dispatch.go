package message

import (
	"fmt"
	"math"

	"github.com/opendragon/nimo-go/pkg/value"
)

// extractorFunc decodes one Value given its already-consumed lead byte.
type extractorFunc func(c *cursor, lead byte) (value.Value, error)

type extractorRegistration struct {
	mask    byte
	matched byte
	fn      extractorFunc
}

var registrations []extractorRegistration

// dispatchTable maps every possible lead byte directly to its extractor,
// built once at init() from the (mask, matched) registrations below so
// decoding a lead byte is an O(1) array index instead of a per-byte mask
// scan (spec §4.3's "table-driven" extractor, grounded in the original's
// addToExtractionMap byte/mask fill loop).
var dispatchTable [256]extractorFunc

func registerExtractor(matched, mask byte, fn extractorFunc) {
	registrations = append(registrations, extractorRegistration{mask: mask, matched: matched, fn: fn})
}

func init() {
	registerExtractor(value.TagIntegerShort, 0xF0, extractIntegerShort)
	registerExtractor(value.TagIntegerLong, 0xF0, extractIntegerLong)
	registerExtractor(value.TagDoubleShort, 0xF0, extractDoubleShort)
	registerExtractor(value.TagDoubleLong, 0xF0, extractDoubleLong)
	registerExtractor(value.TagStringShort, 0xF8, extractStringShort)
	registerExtractor(value.TagStringLong, 0xF8, extractStringLong)
	registerExtractor(value.TagBlobShort, 0xF8, extractBlobShort)
	registerExtractor(value.TagBlobLong, 0xF8, extractBlobLong)
	registerExtractor(value.TagArrayShort, 0xF8, extractArrayShort)
	registerExtractor(value.TagArrayLong, 0xF8, extractArrayLong)
	registerExtractor(value.TagMapShort, 0xF8, extractMapShort)
	registerExtractor(value.TagMapLong, 0xF8, extractMapLong)
	registerExtractor(value.TagSetShort, 0xF8, extractSetShort)
	registerExtractor(value.TagSetLong, 0xF8, extractSetLong)
	registerExtractor(value.TagLogical, 0xFE, extractLogical)
	registerExtractor(value.TagAddress, 0xFF, extractAddress)
	registerExtractor(value.TagDate, 0xFF, extractDate)
	registerExtractor(value.TagTime, 0xFF, extractTime)
	registerExtractor(value.TagInvalid, 0xFF, extractInvalid)

	for b := 0; b < 256; b++ {
		lead := byte(b)
		for _, reg := range registrations {
			if lead&reg.mask == reg.matched {
				dispatchTable[b] = reg.fn
				break
			}
		}
	}
}

// decodeValue reads one lead byte and dispatches to its extractor. Used both
// at the top level and recursively by container extractors.
func decodeValue(c *cursor) (value.Value, error) {
	offset := c.pos
	lead, err := c.readByte()
	if err != nil {
		return nil, err
	}
	fn := dispatchTable[lead]
	if fn == nil {
		return value.NewFlaw(fmt.Sprintf("unrecognized lead byte 0x%02X", lead), offset), nil
	}
	return fn(c, lead)
}

func extractIntegerShort(c *cursor, lead byte) (value.Value, error) {
	nibble := lead & 0x0F
	v := int64(int8(nibble << 4)) >> 4 // sign-extend the low 4 bits
	return value.NewInteger(v), nil
}

func extractIntegerLong(c *cursor, lead byte) (value.Value, error) {
	n := int(lead&0x0F) + 1
	v, err := c.readSignedBigEndian(n)
	if err != nil {
		return nil, err
	}
	return value.NewInteger(v), nil
}

func extractDoubleShort(c *cursor, lead byte) (value.Value, error) {
	count := int(lead&0x0F) + 1
	return decodeDoubleRun(c, count)
}

func extractDoubleLong(c *cursor, lead byte) (value.Value, error) {
	widthBytes := int(lead&0x0F) + 1
	count64, err := c.readUnsignedBigEndian(widthBytes)
	if err != nil {
		return nil, err
	}
	return decodeDoubleRun(c, int(count64))
}

// decodeDoubleRun reads `count` consecutive IEEE-754 doubles. When count==1
// this is an ordinary standalone Double; when count>1 it is a packed run
// (spec §4.3) and the caller (a container extractor) is responsible for
// splitting it back into individual elements.
func decodeDoubleRun(c *cursor, count int) (value.Value, error) {
	if count == 1 {
		b, err := c.readBytes(8)
		if err != nil {
			return nil, err
		}
		return value.NewDouble(bytesToFloat64(b)), nil
	}
	arr := value.NewArray()
	for i := 0; i < count; i++ {
		b, err := c.readBytes(8)
		if err != nil {
			return nil, err
		}
		arr.Add(value.NewDouble(bytesToFloat64(b)))
	}
	return arr, nil
}

func bytesToFloat64(b []byte) float64 {
	var bits uint64
	for _, by := range b {
		bits = bits<<8 | uint64(by)
	}
	return math.Float64frombits(bits)
}

func readLengthTagged(c *cursor, lead byte) ([]byte, error) {
	if lead&0x08 == 0 {
		n := int(lead & 0x07)
		return c.readBytes(n)
	}
	widthBytes := int(lead&0x07) + 1
	n64, err := c.readUnsignedBigEndian(widthBytes)
	if err != nil {
		return nil, err
	}
	return c.readBytes(int(n64))
}

func extractStringShort(c *cursor, lead byte) (value.Value, error) {
	b, err := readLengthTagged(c, lead)
	if err != nil {
		return nil, err
	}
	return value.NewString(string(b)), nil
}

func extractStringLong(c *cursor, lead byte) (value.Value, error) {
	return extractStringShort(c, lead)
}

func extractBlobShort(c *cursor, lead byte) (value.Value, error) {
	b, err := readLengthTagged(c, lead)
	if err != nil {
		return nil, err
	}
	return value.NewBlob(b), nil
}

func extractBlobLong(c *cursor, lead byte) (value.Value, error) {
	return extractBlobShort(c, lead)
}

func readContainerCount(c *cursor, lead byte) (int, error) {
	if lead&0x08 == 0 {
		return int(lead & 0x07), nil
	}
	widthBytes := int(lead&0x07) + 1
	n64, err := c.readUnsignedBigEndian(widthBytes)
	if err != nil {
		return 0, err
	}
	return int(n64), nil
}

// decodeArrayElements fills an Array with exactly count logical elements,
// splitting packed Double runs back into individual elements as it goes
// (the "parent" hand-off the spec describes for container extractors).
func decodeArrayElements(c *cursor, count int) (*value.Array, error) {
	arr := value.NewArray()
	for arr.Len() < count {
		offset := c.pos
		lead, err := c.readByte()
		if err != nil {
			return nil, err
		}
		switch {
		case lead&0xF0 == value.TagDoubleShort:
			run, err := decodeDoubleRun(c, int(lead&0x0F)+1)
			if err != nil {
				return nil, err
			}
			appendRun(arr, run)
		case lead&0xF0 == value.TagDoubleLong:
			widthBytes := int(lead&0x0F) + 1
			n64, err := c.readUnsignedBigEndian(widthBytes)
			if err != nil {
				return nil, err
			}
			run, err := decodeDoubleRun(c, int(n64))
			if err != nil {
				return nil, err
			}
			appendRun(arr, run)
		default:
			fn := dispatchTable[lead]
			if fn == nil {
				arr.Add(value.NewFlaw(fmt.Sprintf("unrecognized lead byte 0x%02X", lead), offset))
				return arr, nil
			}
			v, err := fn(c, lead)
			if err != nil {
				return nil, err
			}
			arr.Add(v)
		}
	}
	return arr, nil
}

func appendRun(arr *value.Array, run value.Value) {
	if sub, ok := run.(*value.Array); ok {
		for _, e := range sub.Elements {
			arr.Add(e)
		}
		return
	}
	arr.Add(run)
}

func extractArrayShort(c *cursor, lead byte) (value.Value, error) {
	count, err := readContainerCount(c, lead)
	if err != nil {
		return nil, err
	}
	return decodeArrayElements(c, count)
}

func extractArrayLong(c *cursor, lead byte) (value.Value, error) {
	return extractArrayShort(c, lead)
}

func extractMapShort(c *cursor, lead byte) (value.Value, error) {
	count, err := readContainerCount(c, lead)
	if err != nil {
		return nil, err
	}
	m := value.NewMap()
	for i := 0; i < count; i++ {
		key, err := decodeValue(c)
		if err != nil {
			return nil, err
		}
		val, err := decodeValue(c)
		if err != nil {
			return nil, err
		}
		if value.IsFlaw(key) || value.IsFlaw(val) {
			return value.NewFlaw("flawed Map entry", c.pos), nil
		}
		if !m.Add(key, val) {
			return value.NewFlaw("Map key kind mismatch or non-enumerable key", c.pos), nil
		}
	}
	return m, nil
}

func extractMapLong(c *cursor, lead byte) (value.Value, error) {
	return extractMapShort(c, lead)
}

func extractSetShort(c *cursor, lead byte) (value.Value, error) {
	count, err := readContainerCount(c, lead)
	if err != nil {
		return nil, err
	}
	s := value.NewSet()
	for i := 0; i < count; i++ {
		elem, err := decodeValue(c)
		if err != nil {
			return nil, err
		}
		if value.IsFlaw(elem) {
			return value.NewFlaw("flawed Set entry", c.pos), nil
		}
		if !s.Add(elem) {
			return value.NewFlaw("Set element kind mismatch, non-enumerable, or duplicate", c.pos), nil
		}
	}
	return s, nil
}

func extractSetLong(c *cursor, lead byte) (value.Value, error) {
	return extractSetShort(c, lead)
}

func extractLogical(c *cursor, lead byte) (value.Value, error) {
	return value.NewLogical(lead&0x01 != 0), nil
}

func extractAddress(c *cursor, lead byte) (value.Value, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return nil, err
	}
	return value.NewAddress(b[0], b[1], b[2], b[3]), nil
}

func extractDate(c *cursor, lead byte) (value.Value, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return nil, err
	}
	year := uint16(b[0])<<8 | uint16(b[1])
	return value.NewDate(year, b[2], b[3]), nil
}

func extractTime(c *cursor, lead byte) (value.Value, error) {
	b, err := c.readBytes(5)
	if err != nil {
		return nil, err
	}
	ms := uint16(b[3])<<8 | uint16(b[4])
	return value.NewTime(b[0], b[1], b[2], ms), nil
}

func extractInvalid(c *cursor, lead byte) (value.Value, error) {
	return value.NewFlaw("explicit invalid-value sentinel", c.pos-1), nil
}
