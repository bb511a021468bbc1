// Package node implements the node context and channel manager of spec
// §4.8: the per-process home for a node's registered channels, its
// non-blocking inbound message queue, and the strict shutdown/teardown
// ordering against the Registry.
package node

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/opendragon/nimo-go/internal/iosvc"
	"github.com/opendragon/nimo-go/internal/metrics"
	"github.com/opendragon/nimo-go/pkg/message"
	"github.com/opendragon/nimo-go/pkg/registryproxy"
	"github.com/opendragon/nimo-go/pkg/value"
)

// Envelope pairs a decoded Value with the address it arrived from, the
// shape get_next_message returns (spec §4.8).
type Envelope struct {
	Value  value.Value
	Origin string
}

// Context holds one node's I/O dispatcher, channel table, pending-message
// queue, and registry handle.
type Context struct {
	name            string
	logging         bool
	commandEndpoint string
	maxInputs       int
	maxOutputs      int

	registry *registryproxy.Client
	io       *iosvc.Service
	metrics  *metrics.NodeMetrics

	mu         sync.Mutex
	channels   map[string]*Channel
	numInputs  int
	numOutputs int

	pending chan Envelope
	stopCh  chan struct{}
	stopped atomic.Bool

	keepRunning atomic.Bool
	pendingStop atomic.Bool
}

// Option configures a Context at construction.
type Option func(*Context)

// WithLogging enables the per-Message Debug log line the traffic loop emits
// when detail output (-d/--detail) is requested.
func WithLogging(enabled bool) Option {
	return func(c *Context) { c.logging = enabled }
}

// WithMetrics attaches a NodeMetrics instance, recording per-channel Send/
// receive counts. Passing nil (e.g. when metrics are disabled) is a no-op:
// NodeMetrics's own methods already tolerate a nil receiver.
func WithMetrics(m *metrics.NodeMetrics) Option {
	return func(c *Context) { c.metrics = m }
}

// NewContext constructs a Context bound to one registry Client. pendingCap
// bounds the inbound message FIFO (spec §5's "one bounded, mutex-protected
// FIFO").
func NewContext(name string, maxInputs, maxOutputs, pendingCap int, registry *registryproxy.Client, commandEndpoint string, opts ...Option) *Context {
	c := &Context{
		name:            name,
		commandEndpoint: commandEndpoint,
		maxInputs:       maxInputs,
		maxOutputs:      maxOutputs,
		registry:        registry,
		io:              iosvc.New(),
		channels:        make(map[string]*Channel),
		pending:         make(chan Envelope, pendingCap),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.keepRunning.Store(true)
	return c
}

// Name returns the node's registered name.
func (c *Context) Name() string { return c.name }

// AddInputChannel registers path as an input channel with the Registry and,
// on success, starts a background read loop pushing decoded Values onto the
// pending queue until conn closes or the node shuts down.
func (c *Context) AddInputChannel(ctx context.Context, path string, conn net.Conn, dataType, transport string) error {
	c.mu.Lock()
	if c.numInputs >= c.maxInputs {
		c.mu.Unlock()
		return fmt.Errorf("node: input channel limit (%d) reached", c.maxInputs)
	}
	c.mu.Unlock()

	res, _, err := c.registry.AddChannel(ctx, c.name, path, false, dataType, transport)
	if err != nil {
		return fmt.Errorf("node: registering input channel %q: %w", path, err)
	}
	if !res.Success {
		return fmt.Errorf("node: registry rejected input channel %q: %s", path, res.Detail)
	}

	ch := newChannel(path, false, dataType, transport, conn)
	c.mu.Lock()
	c.channels[path] = ch
	c.numInputs++
	c.mu.Unlock()

	c.io.Go(func() { c.readLoop(ch) })
	return nil
}

// AddOutputChannel registers path as an output channel with the Registry
// and records conn for subsequent Send calls.
func (c *Context) AddOutputChannel(ctx context.Context, path string, conn net.Conn, dataType, transport string) error {
	c.mu.Lock()
	if c.numOutputs >= c.maxOutputs {
		c.mu.Unlock()
		return fmt.Errorf("node: output channel limit (%d) reached", c.maxOutputs)
	}
	c.mu.Unlock()

	res, _, err := c.registry.AddChannel(ctx, c.name, path, true, dataType, transport)
	if err != nil {
		return fmt.Errorf("node: registering output channel %q: %w", path, err)
	}
	if !res.Success {
		return fmt.Errorf("node: registry rejected output channel %q: %s", path, res.Detail)
	}

	ch := newChannel(path, true, dataType, transport, conn)
	c.mu.Lock()
	c.channels[path] = ch
	c.numOutputs++
	c.mu.Unlock()
	return nil
}

// readLoop decodes Messages off ch's connection until it closes or the node
// stops, pushing each onto the pending queue. Pushing may block a producer
// briefly under backpressure (spec §5 only requires GetNextMessage to be
// non-blocking, not the producer side), but it never blocks past Shutdown:
// stopCh is selected alongside the send.
func (c *Context) readLoop(ch *Channel) {
	br := bufio.NewReader(ch.conn)
	for {
		frame, err := message.ReadFrame(br)
		if err != nil {
			ch.connected.Store(false)
			return
		}
		v, err := message.Decode(frame)
		if err != nil {
			ch.connected.Store(false)
			return
		}
		env := Envelope{Value: v, Origin: ch.conn.RemoteAddr().String()}
		if c.logging {
			slog.Debug("node: received message", "node", c.name, "path", ch.path, "origin", env.Origin)
		}
		c.metrics.RecordReceived(ch.path)
		select {
		case c.pending <- env:
		case <-c.stopCh:
			return
		}
	}
}

// GetNextMessage is a non-blocking pop from the pending queue.
func (c *Context) GetNextMessage() (Envelope, bool) {
	select {
	case env := <-c.pending:
		return env, true
	default:
		return Envelope{}, false
	}
}

// Send writes v to the named output channel. It returns false (never
// blocks past shutdown) when the channel is unknown, is an input channel,
// the node has stopped, or the underlying write fails.
func (c *Context) Send(path string, v value.Value) bool {
	c.mu.Lock()
	ch, ok := c.channels[path]
	c.mu.Unlock()
	if !ok || !c.keepRunning.Load() {
		return false
	}
	if !ch.Send(v) {
		c.metrics.RecordSendFailure(path)
		return false
	}
	c.metrics.RecordSent(path)
	return true
}

// Run is the traffic loop: while keepRunning, pop and dispatch pending
// messages to onMessage. Run returns as soon as keepRunning is cleared (by
// Stop or Shutdown); messages still pending at that point are not
// dispatched.
func (c *Context) Run(onMessage func(Envelope)) {
	for c.keepRunning.Load() {
		env, ok := c.GetNextMessage()
		if !ok {
			continue
		}
		onMessage(env)
	}
}

// Stop clears keepRunning, causing Run's loop and any blocked readLoop
// producers to exit. It does not itself perform registry teardown; call
// Shutdown for that.
func (c *Context) Stop() {
	c.pendingStop.Store(true)
	c.keepRunning.Store(false)
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
}

// Shutdown performs the strict teardown ordering of spec §4.8: close every
// output's peer connection, then every input's; deregister each output
// channel, then each input channel; deregister the node. A step's failure
// does not skip later steps; the first failure's effect is recorded as a
// nonzero exit code, mirroring the core's "(1) invalid argument or a
// registry operation indicated an inconsistent state" exit code.
func (c *Context) Shutdown(ctx context.Context) int {
	c.Stop()

	c.mu.Lock()
	var outputs, inputs []*Channel
	for _, ch := range c.channels {
		if ch.IsOutput() {
			outputs = append(outputs, ch)
		} else {
			inputs = append(inputs, ch)
		}
	}
	c.mu.Unlock()

	exitCode := 0
	recordFailure := func() {
		if exitCode == 0 {
			exitCode = 1
		}
	}

	for _, ch := range outputs {
		ch.Close()
	}
	for _, ch := range inputs {
		ch.Close()
	}

	for _, ch := range outputs {
		res, _, err := c.registry.RemoveChannel(ctx, c.name, ch.Path())
		if err != nil || !res.Success {
			recordFailure()
		}
	}
	for _, ch := range inputs {
		res, _, err := c.registry.RemoveChannel(ctx, c.name, ch.Path())
		if err != nil || !res.Success {
			recordFailure()
		}
	}
	res, _, err := c.registry.RemoveNode(ctx, c.name)
	if err != nil || !res.Success {
		recordFailure()
	}

	c.io.Wait()
	return exitCode
}
