package node

import (
	"net"
	"sync/atomic"

	"github.com/opendragon/nimo-go/pkg/message"
	"github.com/opendragon/nimo-go/pkg/value"
)

// Channel is one registered input or output channel's runtime state: the
// socket it owns, whether that socket is currently connected, and (for
// outputs) the ability to send a Value. A Channel never holds a reference
// back to its owning Context — only the Context looks Channels up by path —
// matching spec §4.8's "weak handle used only for error reporting".
type Channel struct {
	path      string
	output    bool
	dataType  string
	transport string
	conn      net.Conn
	connected atomic.Bool
}

func newChannel(path string, output bool, dataType, transport string, conn net.Conn) *Channel {
	ch := &Channel{path: path, output: output, dataType: dataType, transport: transport, conn: conn}
	ch.connected.Store(true)
	return ch
}

// Path is the channel's registered path.
func (c *Channel) Path() string { return c.path }

// IsOutput reports whether this is an output (vs. input) channel.
func (c *Channel) IsOutput() bool { return c.output }

// IsConnected reports whether the peer connection is still open.
func (c *Channel) IsConnected() bool { return c.connected.Load() }

// Send encodes v and writes it to the peer. Only valid for output channels;
// returns false (never panics) on a closed channel, a disconnected peer, or
// an encode/write failure.
func (c *Channel) Send(v value.Value) bool {
	if !c.output || !c.IsConnected() {
		return false
	}
	frame, err := message.Encode(v)
	if err != nil {
		return false
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.connected.Store(false)
		return false
	}
	return true
}

// Close closes the peer connection. Closing a blocked Send's connection
// concurrently is how this package satisfies spec §5's "Send MUST honor the
// shutdown flag and return false promptly": Shutdown closes every output's
// connection before it checks keepRunning anywhere else.
func (c *Channel) Close() error {
	c.connected.Store(false)
	return c.conn.Close()
}
