package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opendragon/nimo-go/pkg/framing"
)

// maxDatagram bounds one read off the underlying PacketConn. nImO Messages
// are small command/data Values, never large payloads, so one UDP
// datagram always holds one framed Message (spec §4.5's framing exists for
// MIME-safety, not for splitting a Message across datagrams).
const maxDatagram = 65507

// UDPTransport adapts UDP's connectionless datagrams to net.Conn by
// packaging each write through pkg/framing and demultiplexing reads by
// peer address, so pkg/node's readLoop and Channel.Send work unmodified
// over UDP.
type UDPTransport struct{}

func (UDPTransport) Dial(ctx context.Context, address string) (net.Conn, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("transport: resolving udp address %q: %w", address, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	return &udpClientConn{UDPConn: conn}, nil
}

func (UDPTransport) Listen(address string) (net.Listener, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("transport: resolving udp address %q: %w", address, err)
	}
	pc, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	l := &udpListener{
		pc:       pc,
		sessions: make(map[string]*udpServerConn),
		acceptCh: make(chan *udpServerConn, 16),
		closeCh:  make(chan struct{}),
	}
	go l.dispatch()
	return l, nil
}

// udpClientConn is the Dial-side connection: already bound to one remote
// peer by net.DialUDP, so Read/Write only need the framing layer.
type udpClientConn struct {
	*net.UDPConn
	readBuf bytes.Buffer
}

func (c *udpClientConn) Write(p []byte) (int, error) {
	if _, err := c.UDPConn.Write([]byte(framing.Package(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *udpClientConn) Read(p []byte) (int, error) {
	for c.readBuf.Len() == 0 {
		buf := make([]byte, maxDatagram)
		n, err := c.UDPConn.Read(buf)
		if err != nil {
			return 0, err
		}
		body, err := framing.Unpackage(string(buf[:n]))
		if err != nil {
			continue
		}
		c.readBuf.Write(body)
	}
	return c.readBuf.Read(p)
}

// udpListener demultiplexes one shared PacketConn into one net.Conn per
// distinct remote address, so Listen/Accept behave like a connection-
// oriented listener despite UDP having no handshake.
type udpListener struct {
	pc *net.UDPConn

	mu       sync.Mutex
	sessions map[string]*udpServerConn

	acceptCh  chan *udpServerConn
	closeCh   chan struct{}
	closeOnce sync.Once
}

func (l *udpListener) dispatch() {
	buf := make([]byte, maxDatagram)
	for {
		n, remote, err := l.pc.ReadFromUDP(buf)
		if err != nil {
			return
		}
		body, err := framing.Unpackage(string(buf[:n]))
		if err != nil {
			continue
		}

		key := remote.String()
		l.mu.Lock()
		sess, ok := l.sessions[key]
		if !ok {
			sess = newUDPServerConn(l.pc, remote)
			l.sessions[key] = sess
		}
		l.mu.Unlock()

		if !ok {
			select {
			case l.acceptCh <- sess:
			case <-l.closeCh:
				return
			}
		}
		sess.deliver(body)
	}
}

func (l *udpListener) Accept() (net.Conn, error) {
	select {
	case s := <-l.acceptCh:
		return s, nil
	case <-l.closeCh:
		return nil, fmt.Errorf("transport: udp listener closed")
	}
}

func (l *udpListener) Close() error {
	l.closeOnce.Do(func() { close(l.closeCh) })
	return l.pc.Close()
}

func (l *udpListener) Addr() net.Addr { return l.pc.LocalAddr() }

// udpServerConn is one peer's session on the Listen side.
type udpServerConn struct {
	pc     *net.UDPConn
	remote *net.UDPAddr

	in      chan []byte
	readBuf bytes.Buffer

	closeOnce sync.Once
	closed    chan struct{}
}

func newUDPServerConn(pc *net.UDPConn, remote *net.UDPAddr) *udpServerConn {
	return &udpServerConn{pc: pc, remote: remote, in: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *udpServerConn) deliver(body []byte) {
	select {
	case c.in <- body:
	case <-c.closed:
	}
}

func (c *udpServerConn) Read(p []byte) (int, error) {
	for c.readBuf.Len() == 0 {
		select {
		case body, ok := <-c.in:
			if !ok {
				return 0, io.EOF
			}
			c.readBuf.Write(body)
		case <-c.closed:
			return 0, io.EOF
		}
	}
	return c.readBuf.Read(p)
}

func (c *udpServerConn) Write(p []byte) (int, error) {
	if _, err := c.pc.WriteToUDP([]byte(framing.Package(p)), c.remote); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *udpServerConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *udpServerConn) LocalAddr() net.Addr  { return c.pc.LocalAddr() }
func (c *udpServerConn) RemoteAddr() net.Addr { return c.remote }

func (c *udpServerConn) SetDeadline(t time.Time) error      { return nil }
func (c *udpServerConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *udpServerConn) SetWriteDeadline(t time.Time) error { return nil }
