package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var nodeContextKey = contextKey{}

// NodeContext holds per-request/per-connection fields injected into every
// *Ctx log call: which node, which channel, which operation, and (for
// registry RPCs and channel handshakes) which remote peer.
type NodeContext struct {
	TraceID    string
	SpanID     string
	Node       string
	Channel    string
	Operation  string
	RemoteAddr string
	StartTime  time.Time
}

// WithContext attaches nc to ctx.
func WithContext(ctx context.Context, nc *NodeContext) context.Context {
	return context.WithValue(ctx, nodeContextKey, nc)
}

// FromContext retrieves the NodeContext from ctx, or nil if there is none.
func FromContext(ctx context.Context) *NodeContext {
	if ctx == nil {
		return nil
	}
	nc, _ := ctx.Value(nodeContextKey).(*NodeContext)
	return nc
}

// NewNodeContext starts a NodeContext for node, stamped with the current time.
func NewNodeContext(node string) *NodeContext {
	return &NodeContext{Node: node, StartTime: time.Now()}
}

// Clone copies nc.
func (nc *NodeContext) Clone() *NodeContext {
	if nc == nil {
		return nil
	}
	clone := *nc
	return &clone
}

// WithChannel returns a copy with Channel set.
func (nc *NodeContext) WithChannel(channel string) *NodeContext {
	clone := nc.Clone()
	if clone != nil {
		clone.Channel = channel
	}
	return clone
}

// WithOperation returns a copy with Operation set.
func (nc *NodeContext) WithOperation(op string) *NodeContext {
	clone := nc.Clone()
	if clone != nil {
		clone.Operation = op
	}
	return clone
}

// WithRemoteAddr returns a copy with RemoteAddr set.
func (nc *NodeContext) WithRemoteAddr(addr string) *NodeContext {
	clone := nc.Clone()
	if clone != nil {
		clone.RemoteAddr = addr
	}
	return clone
}

// WithTrace returns a copy with trace/span IDs set.
func (nc *NodeContext) WithTrace(traceID, spanID string) *NodeContext {
	clone := nc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the time elapsed since StartTime, in milliseconds.
func (nc *NodeContext) DurationMs() float64 {
	if nc == nil || nc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(nc.StartTime).Microseconds()) / 1000.0
}
