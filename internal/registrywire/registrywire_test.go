package registrywire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendragon/nimo-go/pkg/value"
)

func TestRequestRoundTrip(t *testing.T) {
	id := uuid.New()
	req := Request{ID: id, Op: OpAddChannel, Args: AddChannelArgs("node1", "/data", true, "Integer", "TCP")}
	wire := EncodeRequest(req)

	decoded, err := DecodeRequest(wire)
	require.NoError(t, err)
	assert.Equal(t, id, decoded.ID)
	assert.Equal(t, OpAddChannel, decoded.Op)

	node, ok := GetString(decoded.Args, FieldName)
	require.True(t, ok)
	assert.Equal(t, "node1", node)

	path, ok := GetString(decoded.Args, FieldPath)
	require.True(t, ok)
	assert.Equal(t, "/data", path)

	isOutput, ok := GetLogical(decoded.Args, FieldIsOutput)
	require.True(t, ok)
	assert.True(t, isOutput)
}

func TestReplyRoundTrip(t *testing.T) {
	id := uuid.New()
	reply := Reply{ID: id, Success: true, Detail: "", Payload: value.NewLogical(false)}
	wire := EncodeReply(reply)

	decoded, err := DecodeReply(wire)
	require.NoError(t, err)
	assert.Equal(t, id, decoded.ID)
	assert.True(t, decoded.Success)
	assert.True(t, decoded.Payload.Equal(value.NewLogical(false)))
}

func TestAddNodeArgsRoundTrip(t *testing.T) {
	args := AddNodeArgs("n1", []string{"a", "b"}, "Filter", "127.0.0.1:9000")
	req := Request{ID: uuid.New(), Op: OpAddNode, Args: args}
	wire := EncodeRequest(req)

	decoded, err := DecodeRequest(wire)
	require.NoError(t, err)

	argv, ok := GetStringArray(decoded.Args, FieldArgv)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, argv)

	kind, ok := GetString(decoded.Args, FieldKind)
	require.True(t, ok)
	assert.Equal(t, "Filter", kind)
}

func TestDecodeRequestRejectsMissingID(t *testing.T) {
	m := value.NewMap()
	m.Add(value.NewInteger(1), value.NewString(string(OpIsNodePresent)))
	_, err := DecodeRequest(m)
	assert.Error(t, err)
}
