package stringbuffer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opendragon/nimo-go/pkg/value"
)

// Reader is a recursive-descent parser over the textual form (spec §4.4's
// grammar). The zero value is not usable; construct with NewReader.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps a byte slice for parsing.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) atEnd() bool { return r.pos >= len(r.data) }

func (r *Reader) peek() (byte, bool) {
	if r.atEnd() {
		return 0, false
	}
	return r.data[r.pos], true
}

func (r *Reader) peekAt(offset int) (byte, bool) {
	i := r.pos + offset
	if i < 0 || i >= len(r.data) {
		return 0, false
	}
	return r.data[i], true
}

func (r *Reader) advance() byte {
	b := r.data[r.pos]
	r.pos++
	return b
}

// isLegalTerminator reports whether the reader is positioned at a boundary
// that may legally end a primitive token: end of input, whitespace, a
// comment opener, or a container's closing delimiter. Shared by the
// logical and numeric/Date/Time parsers so e.g. "trueX" is rejected but
// "true)" is accepted; string, blob and address literals are not checked
// against it.
func (r *Reader) isLegalTerminator() bool {
	b, ok := r.peek()
	if !ok {
		return true
	}
	switch b {
	case ' ', '\t', '\n', '\r', ')', '}', ']':
		return true
	case '/':
		next, ok := r.peekAt(1)
		return ok && next == '/'
	case '-':
		next, ok := r.peekAt(1)
		return ok && next == '>'
	}
	return false
}

// skipFiller consumes whitespace and "// ... \n" line comments between
// tokens.
func (r *Reader) skipFiller() {
	for {
		b, ok := r.peek()
		if !ok {
			return
		}
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			r.pos++
		case b == '/':
			if next, ok := r.peekAt(1); ok && next == '/' {
				r.pos += 2
				for {
					c, ok := r.peek()
					if !ok || c == '\n' {
						break
					}
					r.pos++
				}
				if !r.atEnd() {
					r.pos++ // consume the newline
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func flawAt(reason string, pos int) *value.Flaw {
	return value.NewFlaw(reason, pos)
}

// ReadValue parses and returns the next Value, skipping leading filler. At
// end of input it returns a Flaw rather than an error, matching spec's
// convention of signalling ill-formed or absent input as an out-of-band
// Value rather than a Go error.
func (r *Reader) ReadValue() (value.Value, error) {
	r.skipFiller()
	b, ok := r.peek()
	if !ok {
		return flawAt("unexpected end of input", r.pos), nil
	}
	switch {
	case b == '(':
		return r.readArray()
	case b == '{':
		return r.readMap()
	case b == '[':
		return r.readSet()
	case b == '"' || b == '\'':
		return r.readString()
	case b == '%':
		return r.readBlob()
	case b == '@':
		return r.readAddress()
	case b == 't' || b == 'T' || b == 'f' || b == 'F':
		return r.readLogical()
	case b == '-' || b == '+' || (b >= '0' && b <= '9'):
		return r.readNumberOrDateTime()
	default:
		return flawAt(fmt.Sprintf("unexpected character %q", b), r.pos), nil
	}
}

func (r *Reader) readArray() (value.Value, error) {
	start := r.pos
	r.pos++ // '('
	arr := value.NewArray()
	for {
		r.skipFiller()
		b, ok := r.peek()
		if !ok {
			return flawAt("unterminated array", start), nil
		}
		if b == ')' {
			r.pos++
			return arr, nil
		}
		elem, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		if value.IsFlaw(elem) {
			return elem, nil
		}
		arr.Add(elem)
	}
}

func (r *Reader) readMap() (value.Value, error) {
	start := r.pos
	r.pos++ // '{'
	m := value.NewMap()
	for {
		r.skipFiller()
		b, ok := r.peek()
		if !ok {
			return flawAt("unterminated map", start), nil
		}
		if b == '}' {
			r.pos++
			return m, nil
		}
		key, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		if value.IsFlaw(key) {
			return key, nil
		}
		r.skipFiller()
		if !r.consumeLiteral("->") {
			return flawAt("expected '->' in map entry", r.pos), nil
		}
		val, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		if value.IsFlaw(val) {
			return val, nil
		}
		if !m.Add(key, val) {
			return flawAt("map key kind mismatch or non-enumerable key", r.pos), nil
		}
	}
}

func (r *Reader) readSet() (value.Value, error) {
	start := r.pos
	r.pos++ // '['
	s := value.NewSet()
	for {
		r.skipFiller()
		b, ok := r.peek()
		if !ok {
			return flawAt("unterminated set", start), nil
		}
		if b == ']' {
			r.pos++
			return s, nil
		}
		elem, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		if value.IsFlaw(elem) {
			return elem, nil
		}
		if elem.EnumerationType() == s.ElementKind() && s.Contains(elem) {
			continue
		}
		if !s.Add(elem) {
			return flawAt("set element kind mismatch or non-enumerable", r.pos), nil
		}
	}
}

func (r *Reader) consumeLiteral(lit string) bool {
	if r.pos+len(lit) > len(r.data) {
		return false
	}
	if string(r.data[r.pos:r.pos+len(lit)]) != lit {
		return false
	}
	r.pos += len(lit)
	return true
}

func (r *Reader) readLogical() (value.Value, error) {
	start := r.pos
	for !r.atEnd() {
		b, _ := r.peek()
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') {
			r.pos++
			continue
		}
		break
	}
	word := strings.ToLower(string(r.data[start:r.pos]))
	if !r.isLegalTerminator() {
		return flawAt("malformed logical literal", start), nil
	}
	switch word {
	case "true":
		return value.NewLogical(true), nil
	case "false":
		return value.NewLogical(false), nil
	default:
		return flawAt(fmt.Sprintf("unrecognized literal %q", word), start), nil
	}
}

func (r *Reader) readString() (value.Value, error) {
	start := r.pos
	quote := r.advance()
	var sb strings.Builder
	for {
		b, ok := r.peek()
		if !ok {
			return flawAt("unterminated string", start), nil
		}
		if b == quote {
			r.pos++
			return value.NewString(sb.String()), nil
		}
		if b == '\\' {
			r.pos++
			decoded, err := r.readEscape()
			if err != nil {
				return flawAt(err.Error(), start), nil
			}
			sb.WriteByte(decoded)
			continue
		}
		sb.WriteByte(b)
		r.pos++
	}
}

func (r *Reader) readEscape() (byte, error) {
	b, ok := r.peek()
	if !ok {
		return 0, fmt.Errorf("unterminated escape sequence")
	}
	switch b {
	case 'a':
		r.pos++
		return '\a', nil
	case 'b':
		r.pos++
		return '\b', nil
	case 't':
		r.pos++
		return '\t', nil
	case 'n':
		r.pos++
		return '\n', nil
	case 'v':
		r.pos++
		return '\v', nil
	case 'f':
		r.pos++
		return '\f', nil
	case 'r':
		r.pos++
		return '\r', nil
	case 'e':
		r.pos++
		return 0x1b, nil
	case '"', '\'', '\\':
		r.pos++
		return b, nil
	case 'C':
		r.pos++
		if next, ok := r.peek(); ok && next == '-' {
			r.pos++
		}
		c, ok := r.peek()
		if !ok {
			return 0, fmt.Errorf("truncated \\C- escape")
		}
		r.pos++
		return c - 0x40, nil
	case 'M':
		r.pos++
		if next, ok := r.peek(); ok && next == '-' {
			r.pos++
		}
		c, ok := r.peek()
		if !ok {
			return 0, fmt.Errorf("truncated \\M- escape")
		}
		r.pos++
		return c | 0x80, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		// \240 and \377 (and any other 3-digit octal run) decode here.
		start := r.pos
		n := 0
		for n < 3 {
			c, ok := r.peek()
			if !ok || c < '0' || c > '7' {
				break
			}
			r.pos++
			n++
		}
		v, err := strconv.ParseUint(string(r.data[start:r.pos]), 8, 8)
		if err != nil {
			return 0, fmt.Errorf("malformed octal escape")
		}
		return byte(v), nil
	default:
		return 0, fmt.Errorf("unrecognized escape \\%c", b)
	}
}

func (r *Reader) readBlob() (value.Value, error) {
	start := r.pos
	r.pos++ // '%'
	lenStart := r.pos
	for {
		b, ok := r.peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		r.pos++
	}
	if r.pos == lenStart {
		return flawAt("malformed blob length", start), nil
	}
	n, err := strconv.Atoi(string(r.data[lenStart:r.pos]))
	if err != nil {
		return flawAt("malformed blob length", start), nil
	}
	if !r.consumeLiteral("%") {
		return flawAt("expected '%' after blob length", r.pos), nil
	}
	hexStart := r.pos
	if r.pos+2*n > len(r.data) {
		return flawAt("truncated blob payload", start), nil
	}
	data := make([]byte, n)
	for i := 0; i < n; i++ {
		hi, okHi := hexDigit(r.data[hexStart+2*i])
		lo, okLo := hexDigit(r.data[hexStart+2*i+1])
		if !okHi || !okLo {
			return flawAt("malformed blob hex payload", start), nil
		}
		data[i] = hi<<4 | lo
	}
	r.pos = hexStart + 2*n
	if !r.consumeLiteral("%") {
		return flawAt("expected closing '%' on blob", r.pos), nil
	}
	return value.NewBlob(data), nil
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

func (r *Reader) readAddress() (value.Value, error) {
	start := r.pos
	r.pos++ // '@'
	octets := make([]byte, 0, 4)
	for i := 0; i < 4; i++ {
		n, ok := r.readDecimalByte()
		if !ok {
			return flawAt("malformed address", start), nil
		}
		octets = append(octets, n)
		if i < 3 && !r.consumeLiteral(".") {
			return flawAt("malformed address", start), nil
		}
	}
	return value.NewAddress(octets[0], octets[1], octets[2], octets[3]), nil
}

func (r *Reader) readDecimalByte() (byte, bool) {
	start := r.pos
	for {
		b, ok := r.peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		r.pos++
	}
	if r.pos == start {
		return 0, false
	}
	v, err := strconv.Atoi(string(r.data[start:r.pos]))
	if err != nil || v < 0 || v > 255 {
		return 0, false
	}
	return byte(v), true
}

// readNumberOrDateTime scans a run of digits plus the punctuation that can
// appear inside a number, Date, or Time literal, then classifies the token
// by shape: a colon means Time, an interior hyphen means Date, a dot or
// exponent marker means a float, otherwise a plain integer.
func (r *Reader) readNumberOrDateTime() (value.Value, error) {
	start := r.pos
	if b, ok := r.peek(); ok && (b == '-' || b == '+') {
		r.pos++
	}
	for {
		b, ok := r.peek()
		if !ok {
			break
		}
		if b == '-' {
			if next, ok := r.peekAt(1); ok && next == '>' {
				break
			}
			r.pos++
			continue
		}
		if (b >= '0' && b <= '9') || b == '.' || b == ':' || b == 'e' || b == 'E' || b == '+' {
			r.pos++
			continue
		}
		break
	}
	token := string(r.data[start:r.pos])
	if !r.isLegalTerminator() {
		return flawAt(fmt.Sprintf("malformed numeric literal %q", token), start), nil
	}
	switch {
	case strings.Contains(token, ":"):
		return parseTimeToken(token, start)
	case strings.Contains(token[1:], "-"):
		return parseDateToken(token, start)
	case strings.ContainsAny(token, ".eE"):
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return flawAt(fmt.Sprintf("malformed float literal %q", token), start), nil
		}
		return value.NewDouble(f), nil
	default:
		i, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return flawAt(fmt.Sprintf("malformed integer literal %q", token), start), nil
		}
		return value.NewInteger(i), nil
	}
}

func parseDateToken(token string, pos int) (value.Value, error) {
	parts := strings.Split(token, "-")
	if len(parts) != 3 {
		return flawAt(fmt.Sprintf("malformed date literal %q", token), pos), nil
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || year < 0 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return flawAt(fmt.Sprintf("malformed date literal %q", token), pos), nil
	}
	return value.NewDate(uint16(year), uint8(month), uint8(day)), nil
}

func parseTimeToken(token string, pos int) (value.Value, error) {
	secParts := strings.SplitN(token, ".", 2)
	hms := strings.Split(secParts[0], ":")
	if len(hms) != 3 {
		return flawAt(fmt.Sprintf("malformed time literal %q", token), pos), nil
	}
	hour, err1 := strconv.Atoi(hms[0])
	minute, err2 := strconv.Atoi(hms[1])
	second, err3 := strconv.Atoi(hms[2])
	millisecond := 0
	var err4 error
	if len(secParts) == 2 {
		millisecond, err4 = strconv.Atoi(secParts[1])
	}
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil ||
		hour > 23 || minute > 59 || second > 59 || millisecond > 999 {
		return flawAt(fmt.Sprintf("malformed time literal %q", token), pos), nil
	}
	return value.NewTime(uint8(hour), uint8(minute), uint8(second), uint16(millisecond)), nil
}
