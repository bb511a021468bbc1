package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nimo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registry:\n  address: 10.0.0.1:9000\n"), 0644))

	reloaded := make(chan *Config, 1)
	stop := make(chan struct{})
	defer close(stop)

	require.NoError(t, Watch(path, stop, func(cfg *Config) {
		reloaded <- cfg
	}))

	require.NoError(t, os.WriteFile(path, []byte("registry:\n  address: 10.0.0.2:9001\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "10.0.0.2:9001", cfg.Registry.Address)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
