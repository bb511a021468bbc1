package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTogglesEnabled(t *testing.T) {
	defer Init(false)

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())

	reg := Init(true)
	require.NotNil(t, reg)
	assert.True(t, IsEnabled())
	assert.Same(t, reg, GetRegistry())

	Init(false)
	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
}

func TestRegistryMetricsNilWhenDisabled(t *testing.T) {
	Init(false)
	m := NewRegistryMetrics()
	assert.Nil(t, m)
	assert.NotPanics(t, func() {
		m.RecordRequest("addNode", true, time.Millisecond)
		m.SetNodesActive(3)
	})
}

func TestRegistryMetricsRecordsWhenEnabled(t *testing.T) {
	defer Init(false)
	Init(true)

	m := NewRegistryMetrics()
	require.NotNil(t, m)
	m.RecordRequest("addNode", true, time.Millisecond)
	m.RecordRequest("addNode", false, time.Millisecond)
	m.SetNodesActive(2)
	m.SetChannelsActive(4)
}

func TestNodeMetricsNilWhenDisabled(t *testing.T) {
	Init(false)
	m := NewNodeMetrics()
	assert.Nil(t, m)
	assert.NotPanics(t, func() {
		m.RecordSent("/out")
		m.RecordReceived("/in")
		m.RecordSendFailure("/out")
	})
}

func TestNodeMetricsRecordsWhenEnabled(t *testing.T) {
	defer Init(false)
	Init(true)

	m := NewNodeMetrics()
	require.NotNil(t, m)
	m.RecordSent("/out")
	m.RecordReceived("/in")
	m.RecordSendFailure("/out")
}
