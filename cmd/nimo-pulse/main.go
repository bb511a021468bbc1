// Command nimo-pulse is a Source-role example emitting an Integer tick
// count Value at a fixed interval, grounded in
// original_source/examples/Pulse/nImOpulseMain.cpp — whose own timer
// loop was left unimplemented ("#if 0 //TBD!!"), replaced here with a
// plain time.Ticker in the teacher's own ticker-polling idiom (see
// internal/protocol/nlm/handlers/cross_protocol.go's lease-break poll).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opendragon/nimo-go/internal/cliflags"
	"github.com/opendragon/nimo-go/internal/config"
	"github.com/opendragon/nimo-go/internal/logger"
	"github.com/opendragon/nimo-go/internal/metrics"
	"github.com/opendragon/nimo-go/internal/nodemain"
	"github.com/opendragon/nimo-go/pkg/node"
	"github.com/opendragon/nimo-go/pkg/role"
	"github.com/opendragon/nimo-go/pkg/value"
)

var version = "dev"

const outputPath = "/primary"

var info = cliflags.RoleInfo{
	Role:             "Pulse",
	Description:      "Emits a tick count as an Integer Value on its output channel at a fixed interval.",
	MatchingCriteria: "output channel \"/primary\", dataType=Integer, any transport",
	Args: []cliflags.ArgDescriptor{
		{Name: "duration", Type: "double", Default: "1.0", Description: "seconds between ticks"},
		{Name: "listen", Type: "string", Default: "127.0.0.1:0", Description: "address to listen on for the output channel's peer"},
	},
}

var (
	duration      float64
	listenAddress string
)

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-pulse",
		Short:         "Run an nImO Pulse example Source node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 1.0, "seconds between ticks")
	cmd.Flags().StringVar(&listenAddress, "listen", "127.0.0.1:0", "address to listen on for the output channel's peer")
	cliflags.Register(cmd, flags)

	err := cmd.Execute()
	os.Exit(cliflags.CodeOf(err))
}

func run(cmd *cobra.Command, flags *cliflags.Flags) error {
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-pulse", version, info); handled {
		return err
	}
	if duration <= 0 {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-pulse: --duration must be positive"))
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	if err := nodemain.InitLogging(cfg, flags.Detail, flags.Log); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	if cfg.Metrics.Enabled {
		metrics.Init(true)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nodeName := cliflags.ConstructNodeName(flags.Node, "pulse", flags.Tag)

	registry, err := nodemain.DialRegistry(ctx, cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitRegistryNotFound, err)
	}
	defer registry.Close()

	presentResult, present, err := registry.IsNodePresent(ctx, nodeName)
	if err != nil || !presentResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-pulse: isNodePresent failed: %v %s", err, presentResult.Detail))
	}
	if present {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s already running.\n", nodeName)
		return cliflags.Exit(cliflags.ExitInvalidArgument, nil)
	}

	ln, err := nodemain.ListenChannel(cfg.Node.DefaultTransport, listenAddress)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	defer ln.Close()
	logger.Info("nimo-pulse: waiting for output peer", "node", nodeName, "address", ln.Addr().String())
	peerConn, err := ln.Accept()
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	addResult, added, err := registry.AddNode(ctx, nodeName, os.Args, "Source", "")
	if err != nil || !addResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-pulse: addNode failed: %v %s", err, addResult.Detail))
	}
	if !added {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-pulse: node %q was already registered", nodeName))
	}

	src, err := role.NewSource(nodeName, 1, cfg.Node.PendingCapacity, registry, "", node.WithLogging(flags.Log), node.WithMetrics(metrics.NewNodeMetrics()))
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	if err := src.AddOutputChannel(ctx, outputPath, peerConn, "Integer", cfg.Node.DefaultTransport); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	logger.Info("nimo-pulse: running, press Ctrl+C to stop")
	ticker := time.NewTicker(time.Duration(duration * float64(time.Second)))
	defer ticker.Stop()

	var tick int64
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			tick++
			if !src.Send(outputPath, value.NewInteger(tick)) {
				logger.Warn("nimo-pulse: send failed", "node", nodeName, "tick", tick)
			}
		}
	}
	logger.Info("exiting.")

	exitCode := src.Shutdown(context.Background())
	return cliflags.Exit(exitCode, nil)
}
