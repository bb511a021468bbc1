package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NodeMetrics instruments one node process's traffic loop: Messages sent
// and received per channel path, and send failures. Optional — wired in
// via pkg/node.WithMetrics only when a node process enables -c config's
// metrics.enabled.
type NodeMetrics struct {
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	sendFailures     *prometheus.CounterVec
}

// NewNodeMetrics constructs a NodeMetrics against the current registry, or
// returns nil when metrics are disabled.
func NewNodeMetrics() *NodeMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &NodeMetrics{
		messagesSent: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimo_node_messages_sent_total",
				Help: "Total number of Messages sent, by output channel path.",
			},
			[]string{"path"},
		),
		messagesReceived: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimo_node_messages_received_total",
				Help: "Total number of Messages received, by input channel path.",
			},
			[]string{"path"},
		),
		sendFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimo_node_send_failures_total",
				Help: "Total number of failed Send calls, by output channel path.",
			},
			[]string{"path"},
		),
	}
}

// RecordSent records one successful Send on path.
func (m *NodeMetrics) RecordSent(path string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(path).Inc()
}

// RecordReceived records one Message pushed onto the pending queue from path.
func (m *NodeMetrics) RecordReceived(path string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(path).Inc()
}

// RecordSendFailure records one failed Send on path.
func (m *NodeMetrics) RecordSendFailure(path string) {
	if m == nil {
		return
	}
	m.sendFailures.WithLabelValues(path).Inc()
}
