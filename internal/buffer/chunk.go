// Package buffer implements a growable byte container that backs both the
// binary Message codec and the textual StringBuffer codec.
package buffer

var defaultChunkSize = 4096

// SetDefaultChunkSize overrides the chunk size every subsequent New uses
// that isn't given an explicit WithChunkSize, wiring internal/config's
// buffer.chunk_size into the binary Message and textual StringBuffer
// codecs without threading an option through every call site.
func SetDefaultChunkSize(n int) {
	if n > 0 {
		defaultChunkSize = n
	}
}

// chunk is one fixed-capacity segment of a Chunked buffer.
type chunk struct {
	data []byte // len(data) is the capacity; data[:used] is the filled prefix
	used int
}

func newChunk(capacity int) *chunk {
	return &chunk{data: make([]byte, capacity)}
}

func (c *chunk) available() int {
	return len(c.data) - c.used
}

func (c *chunk) append(b []byte) int {
	n := copy(c.data[c.used:], b)
	c.used += n
	return n
}

func (c *chunk) reset() {
	c.used = 0
}

// Chunked is a growable byte buffer that allocates storage in fixed-size
// chunks instead of repeatedly reallocating one contiguous slice. It is the
// backing store for both the binary Message writer and the textual
// StringBuffer writer.
type Chunked struct {
	chunkSize int
	nullPad   bool
	chunks    []*chunk

	cached      []byte
	cachedFirst bool // true when the cache aliases chunks[0].data directly
}

// Option configures a new Chunked buffer.
type Option func(*Chunked)

// WithChunkSize overrides the default chunk size (4096 bytes).
func WithChunkSize(n int) Option {
	return func(c *Chunked) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithNullPad reserves one trailing byte per chunk's usable capacity so a
// textual buffer can always be consumed as a NUL-terminated C string.
func WithNullPad(pad bool) Option {
	return func(c *Chunked) { c.nullPad = pad }
}

// New creates an empty Chunked buffer with one initial chunk.
func New(opts ...Option) *Chunked {
	c := &Chunked{chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	c.chunks = []*chunk{newChunk(c.capacityPerChunk())}
	return c
}

func (c *Chunked) capacityPerChunk() int {
	if c.nullPad {
		return c.chunkSize - 1
	}
	return c.chunkSize
}

// Append adds bytes to the buffer, allocating new chunks as needed.
func (c *Chunked) Append(data []byte) {
	if len(data) == 0 {
		return
	}
	c.invalidateCache()
	remaining := data
	for len(remaining) > 0 {
		last := c.chunks[len(c.chunks)-1]
		if last.available() == 0 {
			c.chunks = append(c.chunks, newChunk(c.capacityPerChunk()))
			last = c.chunks[len(c.chunks)-1]
		}
		n := last.append(remaining)
		remaining = remaining[n:]
	}
}

// Len returns the number of valid bytes currently held.
func (c *Chunked) Len() int {
	total := 0
	for _, ch := range c.chunks {
		total += ch.used
	}
	return total
}

// ByteAt returns the byte at the given zero-based index, and whether that
// index lies at or past the end of the buffer.
func (c *Chunked) ByteAt(index int) (b byte, atEnd bool) {
	if index < 0 {
		return 0, true
	}
	chunkCap := c.capacityPerChunk()
	chunkNumber := index / chunkCap
	offset := index % chunkCap
	if chunkNumber >= len(c.chunks) {
		return 0, true
	}
	ch := c.chunks[chunkNumber]
	if offset >= ch.used {
		return 0, true
	}
	return ch.data[offset], false
}

// Reset clears the buffer for reuse, discarding every chunk past the first
// so that a reused buffer doesn't retain a high-water-mark allocation
// forever. Returns the receiver to allow cascading.
func (c *Chunked) Reset() *Chunked {
	c.invalidateCache()
	if len(c.chunks) > 1 {
		c.chunks = c.chunks[:1]
	}
	c.chunks[0].reset()
	return c
}

// Bytes returns a contiguous view of the buffer's valid bytes. The result is
// cached and invalidated on the next Append or Reset. When the buffer has
// never grown past its first chunk, the view aliases that chunk's storage
// directly instead of copying (the zero-copy fast path required by the
// spec) - callers must not retain the slice across a subsequent mutation.
func (c *Chunked) Bytes() []byte {
	if c.cached != nil {
		return c.cached
	}
	if len(c.chunks) == 1 {
		c.cached = c.chunks[0].data[:c.chunks[0].used]
		c.cachedFirst = true
		return c.cached
	}
	total := c.Len()
	out := make([]byte, total, total+boolToInt(c.nullPad))
	pos := 0
	for _, ch := range c.chunks {
		copy(out[pos:], ch.data[:ch.used])
		pos += ch.used
	}
	c.cached = out
	c.cachedFirst = false
	return c.cached
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *Chunked) invalidateCache() {
	c.cached = nil
	c.cachedFirst = false
}

// NumChunks reports how many chunks are currently allocated. Exposed only
// so tests can assert the single-chunk zero-copy fast path.
func (c *Chunked) NumChunks() int {
	return len(c.chunks)
}
