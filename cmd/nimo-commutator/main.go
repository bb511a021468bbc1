// Command nimo-commutator is a reference wiring tool: N input channels
// each forwarded to its own correspondingly-numbered output channel by a
// single traffic loop shared by all pairs. Grounded in original_source/Wiring/Commutator/
// nImOcommutatorMain.cpp, whose own main loop was left unimplemented
// ("** Unimplemented **"); the per-channel passthrough here is this
// repo's resolution of that gap.
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
	Role:             "Commutator",
	Description:      "Forwards each of N input channels to its correspondingly-numbered output channel.",
	MatchingCriteria: "input channels /in0../in<N-1>, output channels /out0../out<N-1>, dataType=String",
	Args: []cliflags.ArgDescriptor{
		{Name: "numChannels", Type: "integer", Default: "1", Description: "number of input/output channel pairs"},
		{Name: "peers", Type: "string", Required: true, Description: "comma-separated list of numChannels upstream peer addresses, in pair order"},
		{Name: "listens", Type: "string", Required: true, Description: "comma-separated list of numChannels listen addresses, in pair order"},
	},
}

var (
	numChannels int
	peersCSV    string
	listensCSV  string
)

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-commutator",
		Short:         "Run an nImO Commutator wiring node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().IntVar(&numChannels, "numChannels", 1, "number of input/output channel pairs")
	cmd.Flags().StringVar(&peersCSV, "peers", "", "comma-separated list of numChannels upstream peer addresses")
	cmd.Flags().StringVar(&listensCSV, "listens", "", "comma-separated list of numChannels listen addresses")
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
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-commutator", version, info); handled {
		return err
	}
	if numChannels < 1 {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: --numChannels must be at least 1"))
	}
	peers, err := splitCSV(peersCSV, numChannels)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: %w", err))
	}
	listens, err := splitCSV(listensCSV, numChannels)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: %w", err))
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

	nodeName := cliflags.ConstructNodeName(flags.Node, "commutator", flags.Tag)

	registry, err := nodemain.DialRegistry(ctx, cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitRegistryNotFound, err)
	}
	defer registry.Close()

	presentResult, present, err := registry.IsNodePresent(ctx, nodeName)
	if err != nil || !presentResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: isNodePresent failed: %v %s", err, presentResult.Detail))
	}
	if present {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s already running.\n", nodeName)
		return cliflags.Exit(cliflags.ExitInvalidArgument, nil)
	}

	lns := make([]net.Listener, numChannels)
	for i, addr := range listens {
		ln, err := nodemain.ListenChannel(cfg.Node.DefaultTransport, addr)
		if err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: listening for output %d: %w", i, err))
		}
		lns[i] = ln
		defer ln.Close()
	}
	outConns := make([]net.Conn, numChannels)
	for i, ln := range lns {
		logger.Info("nimo-commutator: waiting for output peer", "node", nodeName, "index", i, "address", ln.Addr().String())
		c, err := ln.Accept()
		if err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, err)
		}
		outConns[i] = c
	}

	inConns := make([]net.Conn, numChannels)
	for i, peer := range peers {
		c, err := nodemain.DialChannel(ctx, cfg.Node.DefaultTransport, peer)
		if err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: dialing input peer %d (%q): %w", i, peer, err))
		}
		inConns[i] = c
	}

	addResult, added, err := registry.AddNode(ctx, nodeName, os.Args, "FilterService", "")
	if err != nil || !addResult.Success {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: addNode failed: %v %s", err, addResult.Detail))
	}
	if !added {
		return cliflags.Exit(cliflags.ExitInvalidArgument, fmt.Errorf("nimo-commutator: node %q was already registered", nodeName))
	}

	flt := role.NewFilter(nodeName, numChannels, numChannels, cfg.Node.PendingCapacity, registry, "", node.WithLogging(flags.Log), node.WithMetrics(metrics.NewNodeMetrics()))

	inPaths := make([]string, numChannels)
	outPaths := make([]string, numChannels)
	for i := 0; i < numChannels; i++ {
		inPath, _ := channelname.GeneratePath("", false, numChannels, i)
		outPath, _ := channelname.GeneratePath("", true, numChannels, i)
		inPaths[i], outPaths[i] = inPath, outPath
		if err := flt.AddInputChannel(ctx, inPath, inConns[i], "String", cfg.Node.DefaultTransport); err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, err)
		}
		if err := flt.AddOutputChannel(ctx, outPath, outConns[i], "String", cfg.Node.DefaultTransport); err != nil {
			return cliflags.Exit(cliflags.ExitInvalidArgument, err)
		}
	}

	logger.Info("nimo-commutator: running, press Ctrl+C to stop")
	// Envelope.Origin is the sending peer's remote address rather than a
	// channel path, so pairing keys on that instead of inPaths.
	pairOf := make(map[string]string, numChannels)
	for i, conn := range inConns {
		pairOf[conn.RemoteAddr().String()] = outPaths[i]
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		flt.Run(func(env node.Envelope) {
			outPath, ok := pairOf[env.Origin]
			if !ok {
				return
			}
			if !flt.Send(outPath, env.Value) {
				logger.Warn("nimo-commutator: send failed", "node", nodeName, "path", outPath)
			}
		})
	}()

	<-ctx.Done()
	logger.Info("exiting.")

	exitCode := flt.Shutdown(context.Background())
	wg.Wait()
	return cliflags.Exit(exitCode, nil)
}
