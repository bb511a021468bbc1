package message

import "bufio"

// ReadFrame reads exactly one framed Message from r. The envelope is
// self-delimiting (its embedded lengths say where it ends; there is no
// separate length prefix on the wire, per spec §6), so ReadFrame grows its
// buffer one byte at a time and retries a full Decode after each byte: every
// error Decode can return is "ran out of data" (malformed input becomes a
// Flaw value, never a Go error), so a failed attempt means "read one more
// byte", not "this frame is broken".
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
		if _, derr := Decode(buf); derr == nil {
			return buf, nil
		}
	}
}
