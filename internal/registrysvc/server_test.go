package registrysvc

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendragon/nimo-go/internal/registrywire"
	"github.com/opendragon/nimo-go/pkg/message"
	"github.com/opendragon/nimo-go/pkg/value"
)

func startTestServer(t *testing.T) (net.Addr, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer(New())
	go srv.Serve(ln)
	return ln.Addr(), func() { ln.Close() }
}

func roundTrip(t *testing.T, conn net.Conn, req registrywire.Request) registrywire.Reply {
	t.Helper()
	out, err := message.Encode(registrywire.EncodeRequest(req))
	require.NoError(t, err)
	_, err = conn.Write(out)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := message.ReadFrame(bufio.NewReader(conn))
	require.NoError(t, err)
	v, err := message.Decode(frame)
	require.NoError(t, err)
	reply, err := registrywire.DecodeReply(v.(*value.Map))
	require.NoError(t, err)
	return reply
}

func TestServerAddNodeThenIsNodePresent(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	addID := uuid.New()
	reply := roundTrip(t, conn, registrywire.Request{
		ID: addID, Op: registrywire.OpAddNode,
		Args: registrywire.AddNodeArgs("node1", []string{"nimo-source"}, "Source", "127.0.0.1:9100"),
	})
	require.True(t, reply.Success)
	assert.Equal(t, addID, reply.ID)
	assert.Equal(t, true, reply.Payload.(*value.Logical).B)

	presID := uuid.New()
	reply = roundTrip(t, conn, registrywire.Request{
		ID: presID, Op: registrywire.OpIsNodePresent,
		Args: registrywire.NameArgs("node1"),
	})
	require.True(t, reply.Success)
	assert.True(t, reply.Payload.(*value.Logical).B)
}

func TestServerAddNodeTwiceReportsAlreadyPresent(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	args := registrywire.AddNodeArgs("node1", nil, "Sink", "127.0.0.1:9200")
	reply := roundTrip(t, conn, registrywire.Request{ID: uuid.New(), Op: registrywire.OpAddNode, Args: args})
	require.True(t, reply.Success)
	assert.True(t, reply.Payload.(*value.Logical).B)

	reply = roundTrip(t, conn, registrywire.Request{ID: uuid.New(), Op: registrywire.OpAddNode, Args: args})
	require.True(t, reply.Success)
	assert.False(t, reply.Payload.(*value.Logical).B)
}

func TestServerAddChannelRejectsUnknownNode(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	reply := roundTrip(t, conn, registrywire.Request{
		ID: uuid.New(), Op: registrywire.OpAddChannel,
		Args: registrywire.AddChannelArgs("ghost", "/out", true, "Integer", "Any"),
	})
	assert.False(t, reply.Success)
	assert.NotEmpty(t, reply.Detail)
}

func TestServerRemoveNodeCascadesChannels(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	reply := roundTrip(t, conn, registrywire.Request{
		ID: uuid.New(), Op: registrywire.OpAddNode,
		Args: registrywire.AddNodeArgs("node2", nil, "Filter", "127.0.0.1:9300"),
	})
	require.True(t, reply.Success)

	reply = roundTrip(t, conn, registrywire.Request{
		ID: uuid.New(), Op: registrywire.OpAddChannel,
		Args: registrywire.AddChannelArgs("node2", "/out", true, "Integer", "Any"),
	})
	require.True(t, reply.Success)
	assert.True(t, reply.Payload.(*value.Logical).B)

	reply = roundTrip(t, conn, registrywire.Request{
		ID: uuid.New(), Op: registrywire.OpRemoveNode,
		Args: registrywire.NameArgs("node2"),
	})
	require.True(t, reply.Success)
	assert.True(t, reply.Payload.(*value.Logical).B)

	reply = roundTrip(t, conn, registrywire.Request{
		ID: uuid.New(), Op: registrywire.OpRemoveChannel,
		Args: registrywire.ChannelArgs("node2", "/out"),
	})
	require.True(t, reply.Success)
	assert.False(t, reply.Payload.(*value.Logical).B)
}
