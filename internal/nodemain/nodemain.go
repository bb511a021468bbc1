// Package nodemain holds the bootstrap steps shared by every role
// executable (cmd/nimo-source, cmd/nimo-sink, cmd/nimo-filter): logger
// initialization, dialing the Registry, and resolving a channel's
// transport, mirroring the teacher's cmd/dittofs/commands.InitLogger
// helper shared across its own start/status/logs commands.
package nodemain

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/opendragon/nimo-go/internal/buffer"
	"github.com/opendragon/nimo-go/internal/config"
	"github.com/opendragon/nimo-go/internal/logger"
	"github.com/opendragon/nimo-go/internal/transport"
	"github.com/opendragon/nimo-go/pkg/registryproxy"
)

// InitLogging configures the package-level logger from cfg, raised to
// DEBUG by -d/--detail or to INFO by -l/--log; a node started without
// either flag logs only at WARN and above. It also applies cfg.Buffer's
// chunk size to every Chunked buffer the process allocates from here on,
// since Message and StringBuffer encoding both start well before any
// per-channel configuration point exists.
func InitLogging(cfg *config.Config, detail, logEnabled bool) error {
	level := cfg.Logging.Level
	switch {
	case detail:
		level = "DEBUG"
	case logEnabled:
		level = "INFO"
	default:
		level = "WARN"
	}
	if err := logger.Init(logger.Config{Level: level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("nodemain: initializing logger: %w", err)
	}
	buffer.SetDefaultChunkSize(int(cfg.Buffer.ChunkSize))
	return nil
}

// DialRegistry resolves a Client connected to address's command channel.
// mDNS-style discovery is out of scope (spec.md's Non-goals); this is the
// "read address from config/flag, dial TCP" FindRegistry implementation
// pkg/registryproxy's doc comment anticipates every cmd/* wiring in. The
// registry's command channel is always TCP (spec §4.7 never names an
// alternate transport for it, unlike a data channel's ChannelName).
func DialRegistry(ctx context.Context, address string) (*registryproxy.Client, error) {
	find := func(ctx context.Context) (net.Conn, error) {
		return transport.TCPTransport{}.Dial(ctx, address)
	}
	client, err := registryproxy.Dial(ctx, find)
	if err != nil {
		return nil, fmt.Errorf("nodemain: registry not found at %q: %w", address, err)
	}
	return client, nil
}

// resolveTransport maps a ChannelName/config transport string to a concrete
// Transport. "" and "Any" (spec §4.6's wildcard, meaning the dialer picks)
// resolve to TCP, the same default internal/config.applyNodeDefaults uses.
func resolveTransport(name string) (transport.Transport, error) {
	switch strings.ToUpper(name) {
	case "", "ANY":
		return transport.TCPTransport{}, nil
	default:
		return transport.ForName(name)
	}
}

// ListenChannel starts accepting connections for one channel's peer over
// the named transport (spec §4.6: "TCP", "UDP", "NATS", or "Any").
func ListenChannel(transportName, address string) (net.Listener, error) {
	t, err := resolveTransport(transportName)
	if err != nil {
		return nil, fmt.Errorf("nodemain: %w", err)
	}
	ln, err := t.Listen(address)
	if err != nil {
		return nil, fmt.Errorf("nodemain: listening for %s channel peer at %q: %w", transportName, address, err)
	}
	return ln, nil
}

// DialChannel dials one channel's peer over the named transport.
func DialChannel(ctx context.Context, transportName, address string) (net.Conn, error) {
	t, err := resolveTransport(transportName)
	if err != nil {
		return nil, fmt.Errorf("nodemain: %w", err)
	}
	conn, err := t.Dial(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("nodemain: dialing %s channel peer at %q: %w", transportName, address, err)
	}
	return conn, nil
}
