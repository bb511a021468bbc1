package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/opendragon/nimo-go/pkg/framing"
)

// NATSTransport adapts a NATS subject to net.Conn the same way UDPTransport
// adapts a datagram socket: pkg/framing packages each write, and a
// subscription feeds reads. Addresses take the form "subject@server-url",
// e.g. "nimo.source1.out@nats://localhost:4222" — grounded in
// ClusterCockpit-cc-backend's pkg/nats client, which takes the same
// "one subject, one handler" shape but as pub/sub rather than a duplex
// stream.
//
// Dial and Listen both subscribe and publish on the same subject: a
// channel only ever uses one direction (input channels only Read, output
// channels only Write — see pkg/node.Channel), so there is no reply-subject
// plumbing to wire up.
type NATSTransport struct{}

func splitAddress(address string) (subject, serverURL string, err error) {
	subject, serverURL, ok := strings.Cut(address, "@")
	if !ok || subject == "" || serverURL == "" {
		return "", "", fmt.Errorf("transport: nats address %q is not \"subject@server-url\"", address)
	}
	return subject, serverURL, nil
}

func (NATSTransport) Dial(ctx context.Context, address string) (net.Conn, error) {
	subject, serverURL, err := splitAddress(address)
	if err != nil {
		return nil, err
	}
	nc, err := nats.Connect(serverURL)
	if err != nil {
		return nil, fmt.Errorf("transport: nats connect to %q: %w", serverURL, err)
	}
	conn, err := newNATSConn(nc, subject)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return conn, nil
}

// Listen has no server-accept model on NATS (every subscriber to a subject
// simply receives every publish); it returns a single-connection listener
// whose one Accept() yields the subject's net.Conn, matching how the role
// executables only ever want one channel connection per address.
func (NATSTransport) Listen(address string) (net.Listener, error) {
	subject, serverURL, err := splitAddress(address)
	if err != nil {
		return nil, err
	}
	nc, err := nats.Connect(serverURL)
	if err != nil {
		return nil, fmt.Errorf("transport: nats connect to %q: %w", serverURL, err)
	}
	conn, err := newNATSConn(nc, subject)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &natsListener{conn: conn, acceptCh: make(chan struct{}, 1)}, nil
}

type natsListener struct {
	conn     *natsConn
	acceptCh chan struct{}
	accepted bool
	mu       sync.Mutex
}

func (l *natsListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.accepted {
		<-l.conn.closed
		return nil, fmt.Errorf("transport: nats listener exhausted")
	}
	l.accepted = true
	return l.conn, nil
}

func (l *natsListener) Close() error { return l.conn.Close() }
func (l *natsListener) Addr() net.Addr { return natsAddr(l.conn.subject) }

type natsAddr string

func (a natsAddr) Network() string { return "nats" }
func (a natsAddr) String() string  { return string(a) }

type natsConn struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string

	msgCh   chan *nats.Msg
	readBuf bytes.Buffer

	closeOnce sync.Once
	closed    chan struct{}
}

func newNATSConn(nc *nats.Conn, subject string) (*natsConn, error) {
	c := &natsConn{
		nc:      nc,
		subject: subject,
		msgCh:   make(chan *nats.Msg, 64),
		closed:  make(chan struct{}),
	}
	sub, err := nc.ChanSubscribe(subject, c.msgCh)
	if err != nil {
		return nil, fmt.Errorf("transport: nats subscribe to %q: %w", subject, err)
	}
	c.sub = sub
	return c, nil
}

func (c *natsConn) Read(p []byte) (int, error) {
	for c.readBuf.Len() == 0 {
		select {
		case msg, ok := <-c.msgCh:
			if !ok {
				return 0, io.EOF
			}
			body, err := framing.Unpackage(string(msg.Data))
			if err != nil {
				continue
			}
			c.readBuf.Write(body)
		case <-c.closed:
			return 0, io.EOF
		}
	}
	return c.readBuf.Read(p)
}

func (c *natsConn) Write(p []byte) (int, error) {
	if err := c.nc.Publish(c.subject, []byte(framing.Package(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *natsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.sub.Unsubscribe()
		c.nc.Close()
	})
	return nil
}

func (c *natsConn) LocalAddr() net.Addr  { return natsAddr(c.subject) }
func (c *natsConn) RemoteAddr() net.Addr { return natsAddr(c.subject) }

func (c *natsConn) SetDeadline(t time.Time) error      { return nil }
func (c *natsConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *natsConn) SetWriteDeadline(t time.Time) error { return nil }
