package transport

import (
	"context"
	"net"
)

// TCPTransport is a thin Transport wrapper over the standard library's TCP
// stack — the transport pkg/message's binary framing (spec §4.3) is built
// for, with no datagram reassembly needed.
type TCPTransport struct{}

func (TCPTransport) Dial(ctx context.Context, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", address)
}

func (TCPTransport) Listen(address string) (net.Listener, error) {
	return net.Listen("tcp", address)
}
