package role

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendragon/nimo-go/internal/registrywire"
	"github.com/opendragon/nimo-go/pkg/message"
	"github.com/opendragon/nimo-go/pkg/registryproxy"
	"github.com/opendragon/nimo-go/pkg/value"
)

func fakeRegistry(conn net.Conn) {
	br := bufio.NewReader(conn)
	for {
		frame, err := message.ReadFrame(br)
		if err != nil {
			return
		}
		v, err := message.Decode(frame)
		if err != nil {
			return
		}
		req, err := registrywire.DecodeRequest(v.(*value.Map))
		if err != nil {
			return
		}
		reply, err := message.Encode(registrywire.EncodeReply(registrywire.Reply{
			ID: req.ID, Success: true, Payload: value.NewLogical(true),
		}))
		if err != nil {
			return
		}
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func newTestRegistry(t *testing.T) (*registryproxy.Client, func()) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	go fakeRegistry(serverConn)
	return registryproxy.NewClient(clientConn), func() {
		clientConn.Close()
		serverConn.Close()
	}
}

func TestNewSourceRejectsZeroOutputs(t *testing.T) {
	registry, cleanup := newTestRegistry(t)
	defer cleanup()
	_, err := NewSource("src", 0, 4, registry, "127.0.0.1:9000")
	assert.Error(t, err)
}

func TestSourceRejectsInputChannel(t *testing.T) {
	registry, cleanup := newTestRegistry(t)
	defer cleanup()
	src, err := NewSource("src", 1, 4, registry, "127.0.0.1:9000")
	require.NoError(t, err)

	peer, local := net.Pipe()
	defer peer.Close()
	defer local.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, src.AddInputChannel(ctx, "/in", local, "Integer", "Any"))
}

func TestSourceAcceptsOutputChannel(t *testing.T) {
	registry, cleanup := newTestRegistry(t)
	defer cleanup()
	src, err := NewSource("src", 1, 4, registry, "127.0.0.1:9000")
	require.NoError(t, err)

	peer, local := net.Pipe()
	defer peer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, src.AddOutputChannel(ctx, "/out", local, "Integer", "Any"))
	assert.True(t, src.Send("/out", value.NewInteger(1)))
}

func TestNewSinkRejectsZeroInputs(t *testing.T) {
	registry, cleanup := newTestRegistry(t)
	defer cleanup()
	_, err := NewSink("snk", 0, 4, registry, "127.0.0.1:9000")
	assert.Error(t, err)
}

func TestSinkRejectsOutputChannel(t *testing.T) {
	registry, cleanup := newTestRegistry(t)
	defer cleanup()
	snk, err := NewSink("snk", 1, 4, registry, "127.0.0.1:9000")
	require.NoError(t, err)

	peer, local := net.Pipe()
	defer peer.Close()
	defer local.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, snk.AddOutputChannel(ctx, "/out", local, "Integer", "Any"))
}

func TestFilterAcceptsBothDirections(t *testing.T) {
	registry, cleanup := newTestRegistry(t)
	defer cleanup()
	f := NewFilter("flt", 1, 1, 4, registry, "127.0.0.1:9000")

	inPeer, inLocal := net.Pipe()
	defer inPeer.Close()
	outPeer, outLocal := net.Pipe()
	defer outPeer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.AddInputChannel(ctx, "/in", inLocal, "Integer", "Any"))
	require.NoError(t, f.AddOutputChannel(ctx, "/out", outLocal, "Integer", "Any"))
}
