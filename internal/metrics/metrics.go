// Package metrics wires prometheus/client_golang the way the teacher's
// pkg/metrics/prometheus does — promauto.With(reg) against one shared
// registry, nil-receiver metric types that no-op when metrics are
// disabled — but provides the registry lifecycle (Init/IsEnabled/
// GetRegistry) the teacher's own cmd/dittofs/commands/start.go calls
// (config.InitializeMetrics, metrics.IsEnabled, metrics.GetRegistry) but
// never actually defines anywhere in that repo.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.RWMutex
	enabled  bool
	registry *prometheus.Registry
)

// Init enables or disables metrics collection for the process. When enable
// is true it creates a fresh registry (replacing any previous one) seeded
// with the standard Go/process collectors; when false it clears the
// registry so GetRegistry/IsEnabled report disabled and every
// NewXMetrics constructor returns nil.
func Init(enable bool) *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		registry = nil
		return nil
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// IsEnabled reports whether Init(true) has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the current registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Handler serves the current registry's metrics in the Prometheus text
// exposition format, or 404s when metrics are disabled.
func Handler() http.Handler {
	reg := GetRegistry()
	if reg == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server on addr exposing Handler() at /metrics and
// returns it so the caller can Shutdown it during teardown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe() //nolint:errcheck
	return srv
}

// Shutdown stops srv with a bounded grace period.
func Shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
