package transport

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForNameResolvesKnownTransports(t *testing.T) {
	for _, name := range []string{"TCP", "tcp", "UDP", "udp", "NATS", "nats"} {
		tr, err := ForName(name)
		require.NoError(t, err)
		assert.NotNil(t, tr)
	}
}

func TestForNameRejectsUnknown(t *testing.T) {
	_, err := ForName("carrier-pigeon")
	assert.Error(t, err)
}

func TestTCPRoundTrip(t *testing.T) {
	tr := TCPTransport{}
	ln, err := tr.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverConnCh := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		n, _ := io.ReadFull(conn, buf)
		serverConnCh <- buf[:n]
	}()

	conn, err := tr.Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case got := <-serverConnCh:
		assert.Equal(t, "hello", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive data")
	}
}

func TestUDPRoundTrip(t *testing.T) {
	tr := UDPTransport{}
	ln, err := tr.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverConnCh := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		serverConnCh <- buf[:n]
	}()

	conn, err := tr.Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		_, err := conn.Write([]byte("ping"))
		return err == nil
	}, time.Second, 10*time.Millisecond)

	select {
	case got := <-serverConnCh:
		assert.Equal(t, "ping", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive datagram")
	}
}

func TestUDPDemultiplexesDistinctPeers(t *testing.T) {
	tr := UDPTransport{}
	ln, err := tr.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	connA, err := tr.Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer connA.Close()
	connB, err := tr.Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer connB.Close()

	_, err = connA.Write([]byte("from-a"))
	require.NoError(t, err)
	serverA, err := ln.Accept()
	require.NoError(t, err)

	_, err = connB.Write([]byte("from-b"))
	require.NoError(t, err)
	serverB, err := ln.Accept()
	require.NoError(t, err)

	assert.NotEqual(t, serverA.RemoteAddr().String(), serverB.RemoteAddr().String())
}
