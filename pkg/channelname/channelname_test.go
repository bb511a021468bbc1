package channelname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNetwork(t *testing.T) {
	assert.True(t, ValidateNetwork(""))
	assert.True(t, ValidateNetwork("net1"))
	assert.False(t, ValidateNetwork("1net"))
	assert.False(t, ValidateNetwork("bad name"))
}

func TestValidateNode(t *testing.T) {
	assert.False(t, ValidateNode(""))
	assert.True(t, ValidateNode("node_A-1"))
	assert.False(t, ValidateNode("9node"))
}

func TestValidatePath(t *testing.T) {
	assert.True(t, ValidatePath("/data"))
	assert.True(t, ValidatePath("/data/sub1"))
	assert.False(t, ValidatePath(""))
	assert.False(t, ValidatePath("data"))
	assert.False(t, ValidatePath("/data//sub"))
}

func TestValidateTransport(t *testing.T) {
	assert.True(t, ValidateTransport("TCP"))
	assert.True(t, ValidateTransport("udp"))
	assert.True(t, ValidateTransport("Any"))
	assert.False(t, ValidateTransport("SCTP"))
}

func TestStringOmitsDefaults(t *testing.T) {
	cn := ChannelName{Node: "n1", Path: "/data"}
	assert.Equal(t, "n1:/data", cn.String())
}

func TestStringIncludesExplicitComponents(t *testing.T) {
	cn := ChannelName{Network: "net1", Node: "n1", Path: "/data", Transport: TransportTCP}
	assert.Equal(t, "net1#n1:/data/TCP", cn.String())
}

func TestParseRoundTripsCanonicalForm(t *testing.T) {
	cn := ChannelName{Network: "net1", Node: "n1", Path: "/data/sub", Transport: TransportUDP}
	parsed, err := Parse(cn.String())
	require.NoError(t, err)
	assert.Equal(t, cn, parsed)
}

func TestParseDefaultsNetworkAndTransport(t *testing.T) {
	parsed, err := Parse("n1:/data")
	require.NoError(t, err)
	assert.Equal(t, ChannelName{Node: "n1", Path: "/data", Transport: TransportAny}, parsed)
}

func TestParseRejectsMissingColon(t *testing.T) {
	_, err := Parse("n1/data")
	assert.Error(t, err)
}

func TestParseRejectsInvalidPath(t *testing.T) {
	_, err := Parse("n1:data")
	assert.Error(t, err)
}

func TestGeneratePathSingleChannel(t *testing.T) {
	p, ok := GeneratePath("/data", true, 1, 0)
	require.True(t, ok)
	assert.Equal(t, "/data", p)
}

func TestGeneratePathEmptyBaseUsesDirection(t *testing.T) {
	p, ok := GeneratePath("", false, 1, 0)
	require.True(t, ok)
	assert.Equal(t, "/in", p)
}

func TestGeneratePathWorkedExampleS3(t *testing.T) {
	p, ok := GeneratePath("/data", true, 11, 3)
	require.True(t, ok)
	assert.Equal(t, "/data03", p)
}

func TestGeneratePathPadsToMaxIndexWidth(t *testing.T) {
	p0, ok := GeneratePath("/data", true, 11, 0)
	require.True(t, ok)
	assert.Equal(t, "/data00", p0)

	p10, ok := GeneratePath("/data", true, 11, 10)
	require.True(t, ok)
	assert.Equal(t, "/data10", p10)
}

func TestGeneratePathRejectsOutOfRangeIndex(t *testing.T) {
	_, ok := GeneratePath("/data", true, 5, 5)
	assert.False(t, ok)

	_, ok = GeneratePath("/data", true, 0, 0)
	assert.False(t, ok)
}

func TestGeneratePathPrependsMissingSlash(t *testing.T) {
	p, ok := GeneratePath("data", true, 1, 0)
	require.True(t, ok)
	assert.Equal(t, "/data", p)
}
