// Command nimo-filter is a Filter-role node (spec §4.9): one input
// channel and one output channel. It passes every received Value through
// unchanged, the identity filter other filters in a pipeline are built by
// modifying.
package main

import (
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
)

var version = "dev"

const (
	inputPath  = "/primary"
	outputPath = "/primary"
)

var info = cliflags.RoleInfo{
	Role:             "Filter",
	Description:      "Passes every Value received on its input channel to its output channel unchanged.",
	MatchingCriteria: "input and output channels \"/primary\", dataType=String, any transport",
	Args: []cliflags.ArgDescriptor{
		{Name: "peer", Type: "string", Required: true, Description: "address of the upstream node's output channel to dial"},
		{Name: "listen", Type: "string", Default: "127.0.0.1:0", Description: "address to listen on for the downstream node's input channel"},
	},
}

var (
	peerAddress   string
	listenAddress string
)

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-filter",
		Short:         "Run an nImO Filter-role node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&peerAddress, "peer", "", "address of the upstream node's output channel to dial")
	cmd.Flags().StringVar(&listenAddress, "listen", "127.0.0.1:0", "address to listen on for the downstream node's input channel")
	cliflags.Register(cmd, flags)

	err := cmd.Execute()
	os.Exit(cliflags.CodeOf(err))
}

func run(cmd *cobra.Command, flags *cliflags.Flags) error {
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-filter", version, info); handled {
		return err
	}
	if peerAddress == "" {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-filter: --peer is required"))
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

	nodeName := cliflags.ConstructNodeName(flags.Node, "filter", flags.Tag)

	registry, err := nodemain.DialRegistry(ctx, cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitRegistryNotFound, err)
	}
	defer registry.Close()

	presentResult, present, err := registry.IsNodePresent(ctx, nodeName)
	if err != nil || !presentResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-filter: isNodePresent failed: %v %s", err, presentResult.Detail))
	}
	if present {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s already running.\n", nodeName)
		return cliflags.Exit(cliflags.ExitInvalidArgument, nil)
	}

	upstreamConn, err := nodemain.DialChannel(ctx, cfg.Node.DefaultTransport, peerAddress)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-filter: dialing peer %q: %w", peerAddress, err))
	}

	ln, err := nodemain.ListenChannel(cfg.Node.DefaultTransport, listenAddress)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	defer ln.Close()
	logger.Info("nimo-filter: waiting for downstream peer", "node", nodeName, "address", ln.Addr().String())

	downstreamConn, err := ln.Accept()
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	addResult, added, err := registry.AddNode(ctx, nodeName, os.Args, info.Role, "")
	if err != nil || !addResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-filter: addNode failed: %v %s", err, addResult.Detail))
	}
	if !added {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-filter: node %q was already registered", nodeName))
	}

	flt := role.NewFilter(nodeName, 1, 1, cfg.Node.PendingCapacity, registry, "", node.WithLogging(flags.Log), node.WithMetrics(metrics.NewNodeMetrics()))

	if err := flt.AddInputChannel(ctx, inputPath, upstreamConn, "String", cfg.Node.DefaultTransport); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	if err := flt.AddOutputChannel(ctx, outputPath, downstreamConn, "String", cfg.Node.DefaultTransport); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	logger.Info("nimo-filter: running, press Ctrl+C to stop")
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		flt.Run(func(env node.Envelope) {
			if !flt.Send(outputPath, env.Value) {
				logger.Warn("nimo-filter: send failed", "node", nodeName, "path", outputPath)
			}
		})
	}()

	<-ctx.Done()
	logger.Info("exiting.")

	exitCode := flt.Shutdown(context.Background())
	<-runDone
	return cliflags.Exit(exitCode, nil)
}
