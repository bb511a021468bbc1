package config

import (
	"strings"
	"time"

	"github.com/opendragon/nimo-go/internal/bytesize"
)

const (
	defaultRegistryAddress = "127.0.0.1:8765"
	defaultCommandDeadline = 5 * time.Second
	defaultPendingCapacity = 64
	defaultChunkSize       = 4096
	defaultMetricsPort     = 9090
)

// ApplyDefaults fills any unset field of cfg with its default value. Zero
// values (empty string, 0, false) are treated as unset; a value read from
// file/env is left untouched, except that logging.level is upper-cased.
func ApplyDefaults(cfg *Config) {
	applyNodeDefaults(&cfg.Node)
	applyRegistryDefaults(&cfg.Registry)
	applyLoggingDefaults(&cfg.Logging)
	applyBufferDefaults(&cfg.Buffer)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyNodeDefaults(cfg *NodeConfig) {
	if cfg.DefaultTransport == "" {
		cfg.DefaultTransport = "TCP"
	}
	if cfg.CommandDeadline == 0 {
		cfg.CommandDeadline = defaultCommandDeadline
	}
	if cfg.PendingCapacity == 0 {
		cfg.PendingCapacity = defaultPendingCapacity
	}
}

func applyRegistryDefaults(cfg *RegistryConfig) {
	if cfg.Address == "" {
		cfg.Address = defaultRegistryAddress
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyBufferDefaults(cfg *BufferConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = bytesize.ByteSize(defaultChunkSize)
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultMetricsPort
	}
}

// GetDefaultConfig returns a Config with every field at its default value;
// used when no config file is found and no flags override anything.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
