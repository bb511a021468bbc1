package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistryMetrics instruments internal/registrysvc's RPC dispatch: one
// counter per operation, a duration histogram, and gauges tracking live
// node/channel counts. Nil-receiver methods make every call a no-op when
// metrics are disabled, the same pattern as the teacher's
// pkg/metrics/prometheus.badgerMetrics.
type RegistryMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	failuresTotal   *prometheus.CounterVec
	nodesActive     prometheus.Gauge
	channelsActive  prometheus.Gauge
}

// NewRegistryMetrics constructs a RegistryMetrics against the current
// registry, or returns nil when metrics are disabled.
func NewRegistryMetrics() *RegistryMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &RegistryMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimo_registry_requests_total",
				Help: "Total number of registry RPCs handled, by operation.",
			},
			[]string{"op"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nimo_registry_request_duration_seconds",
				Help:    "Registry RPC handling duration, by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		failuresTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimo_registry_failures_total",
				Help: "Total number of registry RPCs that returned success=false, by operation.",
			},
			[]string{"op"},
		),
		nodesActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nimo_registry_nodes_active",
			Help: "Number of nodes currently registered.",
		}),
		channelsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nimo_registry_channels_active",
			Help: "Number of channels currently registered.",
		}),
	}
}

// RecordRequest records one RPC's outcome and duration.
func (m *RegistryMetrics) RecordRequest(op string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(op).Inc()
	m.requestDuration.WithLabelValues(op).Observe(duration.Seconds())
	if !success {
		m.failuresTotal.WithLabelValues(op).Inc()
	}
}

// SetNodesActive records the current number of registered nodes.
func (m *RegistryMetrics) SetNodesActive(n int) {
	if m == nil {
		return
	}
	m.nodesActive.Set(float64(n))
}

// SetChannelsActive records the current number of registered channels.
func (m *RegistryMetrics) SetChannelsActive(n int) {
	if m == nil {
		return
	}
	m.channelsActive.Set(float64(n))
}
