package message

import "fmt"

// cursor walks a decode buffer one byte/run at a time, tracking position so
// a Flaw can report the offending offset.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) readByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, fmt.Errorf("message: unexpected end of data at offset %d", c.pos)
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) peekByte() (byte, bool) {
	if c.remaining() < 1 {
		return 0, false
	}
	return c.data[c.pos], true
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, fmt.Errorf("message: unexpected end of data at offset %d (need %d bytes)", c.pos, n)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// readUnsignedBigEndian reads an n-byte big-endian unsigned integer, the
// inverse of pkg/value's unsignedBigEndian.
func (c *cursor) readUnsignedBigEndian(n int) (uint64, error) {
	b, err := c.readBytes(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, by := range b {
		v = v<<8 | uint64(by)
	}
	return v, nil
}

// readSignedBigEndian reads an n-byte big-endian two's-complement integer.
func (c *cursor) readSignedBigEndian(n int) (int64, error) {
	u, err := c.readUnsignedBigEndian(n)
	if err != nil {
		return 0, err
	}
	bits := uint(n * 8)
	if bits < 64 && u&(1<<(bits-1)) != 0 {
		return int64(u) - (1 << bits), nil
	}
	return int64(u), nil
}
