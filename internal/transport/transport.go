// Package transport provides the pluggable channel transports spec §4.6's
// ChannelName grammar names (TCP, UDP) plus the NATS-backed transport named
// in the domain stack as a multicast/UDP analogue. Every transport produces
// or accepts a plain net.Conn so pkg/node never has to know which one is in
// play: AddInputChannel/AddOutputChannel take the net.Conn, not a Transport.
package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Transport dials or listens for channel connections over one concrete
// wire mechanism.
type Transport interface {
	// Dial establishes a client-side connection to address.
	Dial(ctx context.Context, address string) (net.Conn, error)
	// Listen starts accepting server-side connections at address.
	Listen(address string) (net.Listener, error)
}

// ForName resolves the Transport named by a ChannelName's transport
// component ("TCP", "UDP", "NATS") or a config's default_transport value.
// Matching is case-insensitive; "Any" has no concrete Transport and is
// rejected, since a caller dialing or listening always needs one specific
// mechanism.
func ForName(name string) (Transport, error) {
	switch strings.ToUpper(name) {
	case "TCP":
		return TCPTransport{}, nil
	case "UDP":
		return UDPTransport{}, nil
	case "NATS":
		return NATSTransport{}, nil
	default:
		return nil, fmt.Errorf("transport: unknown transport %q", name)
	}
}
