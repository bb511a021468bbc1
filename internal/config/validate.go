package config

import "fmt"

var validLevels = map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
var validFormats = map[string]bool{"text": true, "json": true}
var validTransports = map[string]bool{"TCP": true, "UDP": true, "NATS": true, "Any": true}

// Validate checks cfg for internally-inconsistent or out-of-range values.
// Node.Name is intentionally not required here: cmd/* take the node name
// from the -n/--node flag (or a role default) rather than from the Config,
// and a bare config file predating that flag is still a valid starting point.
func Validate(cfg *Config) error {
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("config: logging.level must be one of DEBUG, INFO, WARN, ERROR, got %q", cfg.Logging.Level)
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("config: logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	if cfg.Registry.Address == "" {
		return fmt.Errorf("config: registry.address must not be empty")
	}
	if !validTransports[cfg.Node.DefaultTransport] {
		return fmt.Errorf("config: node.default_transport must be one of TCP, UDP, NATS, Any, got %q", cfg.Node.DefaultTransport)
	}
	if cfg.Node.CommandDeadline <= 0 {
		return fmt.Errorf("config: node.command_deadline must be positive")
	}
	if cfg.Node.PendingCapacity <= 0 {
		return fmt.Errorf("config: node.pending_capacity must be positive")
	}
	if cfg.Buffer.ChunkSize == 0 {
		return fmt.Errorf("config: buffer.chunk_size must be positive")
	}
	if cfg.Metrics.Enabled && (cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("config: metrics.port must be in 1..65535, got %d", cfg.Metrics.Port)
	}
	return nil
}
