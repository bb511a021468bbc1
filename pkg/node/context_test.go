package node

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

// fakeRegistry answers every request on conn with success=true and a true
// payload until conn is closed, standing in for internal/registrysvc in
// tests that only need the proxy's protocol-level behavior exercised.
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

func newTestContext(t *testing.T, maxInputs, maxOutputs int) (*Context, func()) {
	t.Helper()
	regClient, regServer := net.Pipe()
	go fakeRegistry(regServer)
	client := registryproxy.NewClient(regClient)
	c := NewContext("node1", maxInputs, maxOutputs, 8, client, "127.0.0.1:9000")
	cleanup := func() {
		regClient.Close()
		regServer.Close()
	}
	return c, cleanup
}

func TestAddInputChannelDeliversMessages(t *testing.T) {
	c, cleanup := newTestContext(t, 1, 0)
	defer cleanup()

	peer, local := net.Pipe()
	defer peer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.AddInputChannel(ctx, "/in", local, "Integer", "Any"))

	frame, err := message.Encode(value.NewInteger(7))
	require.NoError(t, err)
	go peer.Write(frame)

	require.Eventually(t, func() bool {
		env, ok := c.GetNextMessage()
		if !ok {
			return false
		}
		assert.True(t, env.Value.Equal(value.NewInteger(7)))
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestAddInputChannelRejectsOverLimit(t *testing.T) {
	c, cleanup := newTestContext(t, 0, 0)
	defer cleanup()

	peer, local := net.Pipe()
	defer peer.Close()
	defer local.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.AddInputChannel(ctx, "/in", local, "Integer", "Any")
	assert.Error(t, err)
}

func TestSendOnOutputChannel(t *testing.T) {
	c, cleanup := newTestContext(t, 0, 1)
	defer cleanup()

	peer, local := net.Pipe()
	defer peer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.AddOutputChannel(ctx, "/out", local, "String", "Any"))

	received := make(chan value.Value, 1)
	go func() {
		br := bufio.NewReader(peer)
		frame, err := message.ReadFrame(br)
		if err != nil {
			return
		}
		v, err := message.Decode(frame)
		if err == nil {
			received <- v
		}
	}()

	assert.True(t, c.Send("/out", value.NewString("hello")))

	select {
	case v := <-received:
		assert.True(t, v.Equal(value.NewString("hello")))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sent message")
	}
}

func TestSendToUnknownChannelFails(t *testing.T) {
	c, cleanup := newTestContext(t, 0, 0)
	defer cleanup()
	assert.False(t, c.Send("/nope", value.NewInteger(1)))
}

func TestShutdownTearsDownAndReturnsZeroOnSuccess(t *testing.T) {
	c, cleanup := newTestContext(t, 1, 1)
	defer cleanup()

	inPeer, inLocal := net.Pipe()
	defer inPeer.Close()
	outPeer, outLocal := net.Pipe()
	defer outPeer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.AddInputChannel(ctx, "/in", inLocal, "Integer", "Any"))
	require.NoError(t, c.AddOutputChannel(ctx, "/out", outLocal, "Integer", "Any"))

	assert.Equal(t, 0, c.Shutdown(ctx))
	assert.False(t, c.keepRunning.Load())
}

func TestSendFailsAfterShutdown(t *testing.T) {
	c, cleanup := newTestContext(t, 0, 1)
	defer cleanup()

	peer, local := net.Pipe()
	defer peer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.AddOutputChannel(ctx, "/out", local, "Integer", "Any"))

	c.Shutdown(ctx)
	assert.False(t, c.Send("/out", value.NewInteger(1)))
}
