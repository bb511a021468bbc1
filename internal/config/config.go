// Package config loads a node's configuration from file and environment,
// in that order of increasing precedence, the shape of the
// teacher's pkg/config: a mapstructure-tagged Config struct decoded by
// spf13/viper with custom decode hooks for time.Duration and
// internal/bytesize.ByteSize.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/opendragon/nimo-go/internal/bytesize"
)

// Config is a node process's full configuration.
//
// Precedence (highest to lowest): NIMO_* environment variables, the config
// file named by -c/--config, then the defaults. Environment variables are
// only read when a config file was found, and only for keys that file
// sets; other CLI flags are not merged into the Config.
type Config struct {
	Node     NodeConfig     `mapstructure:"node" yaml:"node"`
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Buffer   BufferConfig   `mapstructure:"buffer" yaml:"buffer"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// NodeConfig holds the settings spec §6's node executables take through
// flags or config: identity, default transport, and the timing/capacity
// knobs of the traffic loop.
type NodeConfig struct {
	Name             string        `mapstructure:"name" yaml:"name"`
	Tag              string        `mapstructure:"tag" yaml:"tag,omitempty"`
	DefaultTransport string        `mapstructure:"default_transport" yaml:"default_transport"`
	CommandDeadline  time.Duration `mapstructure:"command_deadline" yaml:"command_deadline"`
	PendingCapacity  int           `mapstructure:"pending_capacity" yaml:"pending_capacity"`
	Detail           bool          `mapstructure:"detail" yaml:"detail,omitempty"`
}

// RegistryConfig holds how a node finds its Registry.
type RegistryConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
}

// LoggingConfig mirrors internal/logger.Config's shape with mapstructure/
// yaml tags, so it can be decoded straight off viper before being handed to
// logger.Init.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// BufferConfig configures internal/buffer's ChunkedBuffer chunk size.
type BufferConfig struct {
	ChunkSize bytesize.ByteSize `mapstructure:"chunk_size" yaml:"chunk_size"`
}

// MetricsConfig configures the optional Prometheus /metrics endpoint
// nimo-registryd (and, optionally, node processes) expose.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// Load reads configuration from configPath (or viper's default search path
// when configPath is empty), applies defaults to anything left unset, and
// validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NIMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.SetConfigName("nimo")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (found bool, err error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read: %w", err)
	}
	return true, nil
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// GetDefaultConfigPath returns the per-user config file location,
// honoring XDG_CONFIG_HOME. Load does not consult it: with no -c/--config
// value, Load looks for nimo.yaml in the working directory.
func GetDefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nimo", "nimo.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "nimo.yaml"
	}
	return filepath.Join(home, ".config", "nimo", "nimo.yaml")
}
