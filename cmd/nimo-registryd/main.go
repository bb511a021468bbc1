// Command nimo-registryd is the reference Registry service: the process
// every node's pkg/registryproxy.Client dials, answering isNodePresent/
// addNode/addChannel/removeChannel/removeNode RPCs from an in-memory,
// mutex-protected topology table (internal/registrysvc).
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opendragon/nimo-go/internal/cliflags"
	"github.com/opendragon/nimo-go/internal/config"
	"github.com/opendragon/nimo-go/internal/logger"
	"github.com/opendragon/nimo-go/internal/metrics"
	"github.com/opendragon/nimo-go/internal/nodemain"
	"github.com/opendragon/nimo-go/internal/registrysvc"
)

var version = "dev"

var info = cliflags.RoleInfo{
	Role:             "registryd",
	Description:      "Reference Registry service answering node/channel bookkeeping RPCs.",
	MatchingCriteria: "none — the Registry itself is the thing nodes find",
}

func main() {
	flags := &cliflags.Flags{}
	cmd := &cobra.Command{
		Use:           "nimo-registryd",
		Short:         "Run the nImO reference Registry service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cliflags.Register(cmd, flags)

	err := cmd.Execute()
	os.Exit(cliflags.CodeOf(err))
}

func run(cmd *cobra.Command, flags *cliflags.Flags) error {
	if handled, err := flags.Handle(cmd.OutOrStdout(), "nimo-registryd", version, info); handled {
		return err
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	if err := nodemain.InitLogging(cfg, flags.Detail, flags.Log); err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The Registry's command channel is always TCP (spec §4.7 names no
	// alternate transport for it, unlike a data channel's ChannelName), so
	// this listens with net.Listen directly rather than going through
	// nodemain.ListenChannel's transport-name lookup.
	ln, err := net.Listen("tcp", cfg.Registry.Address)
	if err != nil {
		return cliflags.Exit(cliflags.ExitInvalidArgument, err)
	}
	logger.Info("registryd: listening", "address", ln.Addr().String())

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metrics.Init(true)
		addr := net.JoinHostPort("", strconv.Itoa(cfg.Metrics.Port))
		metricsSrv = metrics.Serve(addr)
		logger.Info("registryd: metrics enabled", "address", addr)
	}

	registry := registrysvc.New()
	server := registrysvc.NewServer(registry)

	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(ln) }()

	logger.Info("registryd: running, press Ctrl+C to stop")
	select {
	case <-ctx.Done():
		logger.Info("exiting.")
	case err := <-serveDone:
		if err != nil {
			logger.Error("registryd: serve error", "error", err)
		}
	}

	_ = ln.Close()
	if metricsSrv != nil {
		_ = metrics.Shutdown(metricsSrv)
	}
	return nil
}
