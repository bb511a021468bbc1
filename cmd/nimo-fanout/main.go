// Command nimo-fanout is a reference wiring tool: one input channel
// broadcast to N numbered output channels, each numbered via
// pkg/channelname's GeneratePath. Grounded in original_source/Wiring/
// FanOut/nImOfanOutMain.cpp and Wiring/Junction/nImOjunctionMain.cpp,
// whose main loops are identical: forward every received Value to every
// output channel, logging a warning for a failed send and carrying on with
// the remaining outputs.
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
	Role:             "FanOut",
	Description:      "Broadcasts every Value received on its input channel to N numbered output channels.",
	MatchingCriteria: "input channel /in, output channels /out0../out<N-1>, dataType=String",
	Args: []cliflags.ArgDescriptor{
		{Name: "numOut", Type: "integer", Default: "1", Description: "number of output channels"},
		{Name: "peer", Type: "string", Required: true, Description: "address of the upstream node's output channel to dial"},
		{Name: "listens", Type: "string", Required: true, Description: "comma-separated list of numOut listen addresses, in channel order"},
	},
}

var (
	numOut      int
	peerAddress string
	listensCSV  string
)

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-fanout",
		Short:         "Run an nImO FanOut wiring node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().IntVar(&numOut, "numOut", 1, "number of output channels")
	cmd.Flags().StringVar(&peerAddress, "peer", "", "address of the upstream node's output channel to dial")
	cmd.Flags().StringVar(&listensCSV, "listens", "", "comma-separated list of numOut listen addresses")
	cliflags.Register(cmd, flags)

	err := cmd.Execute()
	os.Exit(cliflags.CodeOf(err))
}

func splitCSV(csv string, want int) ([]string, error) {
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			out = append(out, csv[start:i])
			start = i + 1
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("expected %d addresses, got %d", want, len(out))
	}
	return out, nil
}

func run(cmd *cobra.Command, flags *cliflags.Flags) error {
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-fanout", version, info); handled {
		return err
	}
	if numOut < 1 {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanout: --numOut must be at least 1"))
	}
	listens, err := splitCSV(listensCSV, numOut)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanout: %w", err))
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

	nodeName := cliflags.ConstructNodeName(flags.Node, "fanout", flags.Tag)

	registry, err := nodemain.DialRegistry(ctx, cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitRegistryNotFound, err)
	}
	defer registry.Close()

	presentResult, present, err := registry.IsNodePresent(ctx, nodeName)
	if err != nil || !presentResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanout: isNodePresent failed: %v %s", err, presentResult.Detail))
	}
	if present {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s already running.\n", nodeName)
		return cliflags.Exit(cliflags.ExitInvalidArgument, nil)
	}

	lns := make([]net.Listener, numOut)
	for i, addr := range listens {
		ln, err := nodemain.ListenChannel(cfg.Node.DefaultTransport, addr)
		if err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanout: listening for output %d: %w", i, err))
		}
		lns[i] = ln
		defer ln.Close()
	}
	outConns := make([]net.Conn, numOut)
	for i, ln := range lns {
		logger.Info("nimo-fanout: waiting for output peer", "node", nodeName, "index", i, "address", ln.Addr().String())
		c, err := ln.Accept()
		if err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, err)
		}
		outConns[i] = c
	}

	inConn, err := nodemain.DialChannel(ctx, cfg.Node.DefaultTransport, peerAddress)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanout: dialing peer %q: %w", peerAddress, err))
	}

	addResult, added, err := registry.AddNode(ctx, nodeName, os.Args, "FilterService", "")
	if err != nil || !addResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanout: addNode failed: %v %s", err, addResult.Detail))
	}
	if !added {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-fanout: node %q was already registered", nodeName))
	}

	flt := role.NewFilter(nodeName, 1, numOut, cfg.Node.PendingCapacity, registry, "", node.WithLogging(flags.Log), node.WithMetrics(metrics.NewNodeMetrics()))

	inPath, _ := channelname.GeneratePath("", false, 1, 0)
	if err := flt.AddInputChannel(ctx, inPath, inConn, "String", cfg.Node.DefaultTransport); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	outPaths := make([]string, numOut)
	for i, conn := range outConns {
		path, _ := channelname.GeneratePath("", true, numOut, i)
		outPaths[i] = path
		if err := flt.AddOutputChannel(ctx, path, conn, "String", cfg.Node.DefaultTransport); err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, err)
		}
	}

	logger.Info("nimo-fanout: running, press Ctrl+C to stop")
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		flt.Run(func(env node.Envelope) {
			for _, path := range outPaths {
				if !flt.Send(path, env.Value) {
					logger.Warn("nimo-fanout: send failed", "node", nodeName, "path", path)
				}
			}
		})
	}()

	<-ctx.Done()
	logger.Info("exiting.")

	exitCode := flt.Shutdown(context.Background())
	wg.Wait()
	return cliflags.Exit(exitCode, nil)
}
