// Command nimo-sink is a Sink-role node (spec §4.9): one input channel,
// zero outputs. It prints each received Value's textual form to stdout,
// the simplest possible consumer for whatever a Source or Filter emits.
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
	"github.com/opendragon/nimo-go/pkg/stringbuffer"
)

var version = "dev"

const inputPath = "/primary"

var info = cliflags.RoleInfo{
	Role:             "Sink",
	Description:      "Prints each Value received on its input channel to stdout.",
	MatchingCriteria: "input channel \"/primary\", dataType=String, any transport",
	Args: []cliflags.ArgDescriptor{
		{Name: "peer", Type: "string", Required: true, Description: "address of the upstream node's output channel to dial"},
	},
}

var peerAddress string

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-sink",
		Short:         "Run an nImO Sink-role node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&peerAddress, "peer", "", "address of the upstream node's output channel to dial")
	cliflags.Register(cmd, flags)

	err := cmd.Execute()
	os.Exit(cliflags.CodeOf(err))
}

func run(cmd *cobra.Command, flags *cliflags.Flags) error {
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-sink", version, info); handled {
		return err
	}
	if peerAddress == "" {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-sink: --peer is required"))
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

	nodeName := cliflags.ConstructNodeName(flags.Node, "sink", flags.Tag)

	registry, err := nodemain.DialRegistry(ctx, cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitRegistryNotFound, err)
	}
	defer registry.Close()

	presentResult, present, err := registry.IsNodePresent(ctx, nodeName)
	if err != nil || !presentResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-sink: isNodePresent failed: %v %s", err, presentResult.Detail))
	}
	if present {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s already running.\n", nodeName)
		return cliflags.Exit(cliflags.ExitInvalidArgument, nil)
	}

	peerConn, err := nodemain.DialChannel(ctx, cfg.Node.DefaultTransport, peerAddress)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-sink: dialing peer %q: %w", peerAddress, err))
	}

	addResult, added, err := registry.AddNode(ctx, nodeName, os.Args, info.Role, "")
	if err != nil || !addResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-sink: addNode failed: %v %s", err, addResult.Detail))
	}
	if !added {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-sink: node %q was already registered", nodeName))
	}

	sink, err := role.NewSink(nodeName, 1, cfg.Node.PendingCapacity, registry, "", node.WithLogging(flags.Log), node.WithMetrics(metrics.NewNodeMetrics()))
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	if err := sink.AddInputChannel(ctx, inputPath, peerConn, "String", cfg.Node.DefaultTransport); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	logger.Info("nimo-sink: running, press Ctrl+C to stop")
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		sink.Run(func(env node.Envelope) {
			w := stringbuffer.NewWriter()
			if err := w.WriteValue(env.Value, false); err != nil {
				logger.Warn("nimo-sink: printing value", "error", err)
				return
			}
			fmt.Fprintln(os.Stdout, w.String())
		})
	}()

	<-ctx.Done()
	logger.Info("exiting.")

	exitCode := sink.Shutdown(context.Background())
	<-runDone
	return cliflags.Exit(exitCode, nil)
}
