package registryproxy

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
	"github.com/opendragon/nimo-go/pkg/value"
)

// fakeServer answers exactly one request with a canned (success, payload)
// pair, enough to exercise Client's encode/send/receive/decode path without
// a real Registry.
func fakeServer(t *testing.T, conn net.Conn, success bool, detail string, payload value.Value) {
	t.Helper()
	br := bufio.NewReader(conn)
	frame, err := message.ReadFrame(br)
	require.NoError(t, err)
	v, err := message.Decode(frame)
	require.NoError(t, err)
	reqMap := v.(*value.Map)
	req, err := registrywire.DecodeRequest(reqMap)
	require.NoError(t, err)

	replyFrame, err := message.Encode(registrywire.EncodeReply(registrywire.Reply{
		ID: req.ID, Success: success, Detail: detail, Payload: payload,
	}))
	require.NoError(t, err)
	_, err = conn.Write(replyFrame)
	require.NoError(t, err)
}

func TestIsNodePresentRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go fakeServer(t, serverConn, true, "", value.NewLogical(true))

	c := NewClient(clientConn)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, present, err := c.IsNodePresent(ctx, "node1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, present)
}

func TestAddNodeReportsAlreadyPresent(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go fakeServer(t, serverConn, true, "", value.NewLogical(false))

	c := NewClient(clientConn)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, added, err := c.AddNode(ctx, "node1", []string{"--tag=x"}, "Filter", "127.0.0.1:9000")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, added)
}

func TestRemoveChannelIdempotent(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go fakeServer(t, serverConn, true, "", value.NewLogical(false))

	c := NewClient(clientConn)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, existed, err := c.RemoveChannel(ctx, "node1", "/data")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, existed)
}

func TestCallTimesOutWhenServerNeverReplies(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	c := NewClient(clientConn)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, _, err := c.RemoveNode(ctx, "node1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "timeout", res.Detail)
}
