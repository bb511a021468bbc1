// Command nimo-source is a Source-role node (spec §4.9): zero input
// channels, one output channel. It reads lines from stdin and emits each
// as a String Value on its output channel, demonstrating the minimal
// Source-role wiring every real source application builds on (the way
// original_source/examples/Pulse/nImOpulseMain.cpp emits timestamped
// ticks instead of stdin lines).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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
	Role:             "Source",
	Description:      "Reads lines from stdin and emits each as a String Value on its output channel.",
	MatchingCriteria: "output channel \"/primary\", dataType=String, any transport",
	Args: []cliflags.ArgDescriptor{
		{Name: "listen", Type: "string", Default: "127.0.0.1:0", Description: "address to listen on for the output channel's peer"},
	},
}

var listenAddress string

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-source",
		Short:         "Run an nImO Source-role node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&listenAddress, "listen", "127.0.0.1:0", "address to listen on for the output channel's peer")
	cliflags.Register(cmd, flags)

	err := cmd.Execute()
	os.Exit(cliflags.CodeOf(err))
}

func run(cmd *cobra.Command, flags *cliflags.Flags) error {
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-source", version, info); handled {
		return err
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

	nodeName := cliflags.ConstructNodeName(flags.Node, "source", flags.Tag)

	registry, err := nodemain.DialRegistry(ctx, cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitRegistryNotFound, err)
	}
	defer registry.Close()

	presentResult, present, err := registry.IsNodePresent(ctx, nodeName)
	if err != nil || !presentResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-source: isNodePresent failed: %v %s", err, presentResult.Detail))
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
	logger.Info("nimo-source: waiting for output peer", "node", nodeName, "address", ln.Addr().String())

	peerConn, err := ln.Accept()
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	addResult, added, err := registry.AddNode(ctx, nodeName, os.Args, info.Role, "")
	if err != nil || !addResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-source: addNode failed: %v %s", err, addResult.Detail))
	}
	if !added {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-source: node %q was already registered", nodeName))
	}

	src, err := role.NewSource(nodeName, 1, cfg.Node.PendingCapacity, registry, "", node.WithLogging(flags.Log), node.WithMetrics(metrics.NewNodeMetrics()))
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	if err := src.AddOutputChannel(ctx, outputPath, peerConn, "String", cfg.Node.DefaultTransport); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	logger.Info("nimo-source: running, type lines on stdin, Ctrl+C to stop")
	stdinDone := make(chan struct{})
	go func() {
		defer close(stdinDone)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if !src.Send(outputPath, value.NewString(scanner.Text())) {
				logger.Warn("nimo-source: send failed", "node", nodeName, "path", outputPath)
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("exiting.")
	case <-stdinDone:
		logger.Info("nimo-source: stdin closed")
	}

	exitCode := src.Shutdown(context.Background())
	return cliflags.Exit(exitCode, nil)
}
