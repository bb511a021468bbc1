// Command nimo-fanin is a reference wiring tool: N input channels merged
// onto one output channel, each input numbered via pkg/channelname's
// GeneratePath. Grounded in original_source/Wiring/FanIn/
// nImOfanInMain.cpp, whose merge loop was left unimplemented ("TBD");
// here it forwards whatever arrives on any input straight to the output.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opendragon/nimo-go/internal/cliflags"
	"github.com/opendragon/nimo-go/internal/config"
	"github.com/opendragon/nimo-go/internal/logger"
	"github.com/opendragon/nimo-go/internal/metrics"
	"github.com/opendragon/nimo-go/internal/nodemain"
	"github.com/opendragon/nimo-go/pkg/channelname"
	"github.com/opendragon/nimo-go/pkg/node"
	"github.com/opendragon/nimo-go/pkg/role"
)

var version = "dev"

var info = cliflags.RoleInfo{
	Role:             "FanIn",
	Description:      "Merges N numbered input channels onto one output channel.",
	MatchingCriteria: "input channels /in0../in<N-1>, output channel /out, dataType=String",
	Args: []cliflags.ArgDescriptor{
		{Name: "numIn", Type: "integer", Default: "1", Description: "number of input channels"},
		{Name: "peers", Type: "string", Required: true, Description: "comma-separated list of numIn upstream peer addresses to dial, in channel order"},
		{Name: "listen", Type: "string", Default: "127.0.0.1:0", Description: "address to listen on for the output channel's peer"},
	},
}

var (
	numIn         int
	peersCSV      string
	listenAddress string
)

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-fanin",
		Short:         "Run an nImO FanIn wiring node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().IntVar(&numIn, "numIn", 1, "number of input channels")
	cmd.Flags().StringVar(&peersCSV, "peers", "", "comma-separated list of numIn upstream peer addresses to dial")
	cmd.Flags().StringVar(&listenAddress, "listen", "127.0.0.1:0", "address to listen on for the output channel's peer")
	cliflags.Register(cmd, flags)

	err := cmd.Execute()
	os.Exit(cliflags.CodeOf(err))
}

func splitPeers(csv string, want int) ([]string, error) {
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			out = append(out, csv[start:i])
			start = i + 1
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("expected %d peer addresses, got %d", want, len(out))
	}
	return out, nil
}

func run(cmd *cobra.Command, flags *cliflags.Flags) error {
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-fanin", version, info); handled {
		return err
	}
	if numIn < 1 {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanin: --numIn must be at least 1"))
	}
	peers, err := splitPeers(peersCSV, numIn)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanin: %w", err))
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

	nodeName := cliflags.ConstructNodeName(flags.Node, "fanin", flags.Tag)

	registry, err := nodemain.DialRegistry(ctx, cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitRegistryNotFound, err)
	}
	defer registry.Close()

	presentResult, present, err := registry.IsNodePresent(ctx, nodeName)
	if err != nil || !presentResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanin: isNodePresent failed: %v %s", err, presentResult.Detail))
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
	logger.Info("nimo-fanin: waiting for output peer", "node", nodeName, "address", ln.Addr().String())
	outConn, err := ln.Accept()
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	inConns := make([]net.Conn, numIn)
	for i, peer := range peers {
		c, err := nodemain.DialChannel(ctx, cfg.Node.DefaultTransport, peer)
		if err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanin: dialing input peer %d (%q): %w", i, peer, err))
		}
		inConns[i] = c
	}

	addResult, added, err := registry.AddNode(ctx, nodeName, os.Args, "FilterService", "")
	if err != nil || !addResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanin: addNode failed: %v %s", err, addResult.Detail))
	}
	if !added {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanin: node %q was already registered", nodeName))
	}

	flt := role.NewFilter(nodeName, numIn, 1, cfg.Node.PendingCapacity, registry, "", node.WithLogging(flags.Log), node.WithMetrics(metrics.NewNodeMetrics()))

	outPath, _ := channelname.GeneratePath("", true, 1, 0)
	if err := flt.AddOutputChannel(ctx, outPath, outConn, "String", cfg.Node.DefaultTransport); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	for i, conn := range inConns {
		path, _ := channelname.GeneratePath("", false, numIn, i)
		if err := flt.AddInputChannel(ctx, path, conn, "String", cfg.Node.DefaultTransport); err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, err)
		}
	}

	logger.Info("nimo-fanin: running, press Ctrl+C to stop")
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		flt.Run(func(env node.Envelope) {
			if !flt.Send(outPath, env.Value) {
				logger.Warn("nimo-fanin: send failed", "node", nodeName, "path", outPath)
			}
		})
	}()

	<-ctx.Done()
	logger.Info("exiting.")

	exitCode := flt.Shutdown(context.Background())
	wg.Wait()
	return cliflags.Exit(exitCode, nil)
}
