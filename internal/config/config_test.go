package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8765", cfg.Registry.Address)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "TCP", cfg.Node.DefaultTransport)
	assert.Equal(t, 5*time.Second, cfg.Node.CommandDeadline)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nimo.yaml")
	yaml := `
node:
  name: source1
  default_transport: UDP
  command_deadline: 10s
registry:
  address: 10.0.0.5:9000
logging:
  level: debug
  format: json
buffer:
  chunk_size: 8Ki
metrics:
  enabled: true
  port: 9191
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "source1", cfg.Node.Name)
	assert.Equal(t, "UDP", cfg.Node.DefaultTransport)
	assert.Equal(t, 10*time.Second, cfg.Node.CommandDeadline)
	assert.Equal(t, "10.0.0.5:9000", cfg.Registry.Address)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.EqualValues(t, 8*1024, cfg.Buffer.ChunkSize)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nimo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: NOPE\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nimo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registry:\n  address: 10.0.0.5:9000\n"), 0644))

	t.Setenv("NIMO_REGISTRY_ADDRESS", "192.168.1.1:7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1:7000", cfg.Registry.Address)
}

func TestValidateRejectsZeroCommandDeadline(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Node.CommandDeadline = 0
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsBadMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0
	assert.Error(t, Validate(cfg))
}
