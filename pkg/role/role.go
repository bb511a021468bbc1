// Package role implements the service-role wrappers of spec §4.9: thin
// constraints over node.Context fixing which channel directions a role is
// allowed to register. Send-abort-on-shutdown (spec §4.8) is handled at
// node.Context.Shutdown, which first clears keepRunning (so Run's dispatch
// loop exits and Send refuses new writes) and then closes every channel's
// peer connection; roles add no break handler of their own on top of that.
package role

import (
	"context"
	"fmt"
	"net"

	"github.com/opendragon/nimo-go/pkg/node"
	"github.com/opendragon/nimo-go/pkg/registryproxy"
)

// Source requires zero input channels and at least one output channel.
type Source struct {
	*node.Context
}

// NewSource constructs a Source-role Context: maxInputs=0, maxOutputs=maxOutputs.
func NewSource(name string, maxOutputs, pendingCap int, registry *registryproxy.Client, commandEndpoint string, opts ...node.Option) (*Source, error) {
	if maxOutputs < 1 {
		return nil, fmt.Errorf("role: Source requires at least one output channel")
	}
	return &Source{node.NewContext(name, 0, maxOutputs, pendingCap, registry, commandEndpoint, opts...)}, nil
}

// AddInputChannel is disallowed on a Source.
func (s *Source) AddInputChannel(_ context.Context, _ string, _ net.Conn, _, _ string) error {
	return fmt.Errorf("role: Source does not accept input channels")
}

// Sink requires at least one input channel and zero output channels.
type Sink struct {
	*node.Context
}

// NewSink constructs a Sink-role Context: maxInputs=maxInputs, maxOutputs=0.
func NewSink(name string, maxInputs, pendingCap int, registry *registryproxy.Client, commandEndpoint string, opts ...node.Option) (*Sink, error) {
	if maxInputs < 1 {
		return nil, fmt.Errorf("role: Sink requires at least one input channel")
	}
	return &Sink{node.NewContext(name, maxInputs, 0, pendingCap, registry, commandEndpoint, opts...)}, nil
}

// AddOutputChannel is disallowed on a Sink.
func (s *Sink) AddOutputChannel(_ context.Context, _ string, _ net.Conn, _, _ string) error {
	return fmt.Errorf("role: Sink does not accept output channels")
}

// Filter allows both input and output channels, with no additional
// constraint beyond node.Context's own limits.
type Filter struct {
	*node.Context
}

// NewFilter constructs a Filter-role Context.
func NewFilter(name string, maxInputs, maxOutputs, pendingCap int, registry *registryproxy.Client, commandEndpoint string, opts ...node.Option) *Filter {
	return &Filter{node.NewContext(name, maxInputs, maxOutputs, pendingCap, registry, commandEndpoint, opts...)}
}

// InputService is a single-input, zero-output endpoint — the node kind spec
// §3 names (the consumer end of a fan-in/fan-out wiring tool, e.g.
// nimo-fanin's trailing stage) but which spec §4.9 otherwise never
// constrains beyond Sink's own shape; kept as a distinct type so wiring
// tools can name their role precisely instead of overloading Sink.
type InputService struct {
	*node.Context
}

// NewInputService constructs an InputService-role Context: exactly one
// input channel, zero outputs.
func NewInputService(name string, pendingCap int, registry *registryproxy.Client, commandEndpoint string, opts ...node.Option) *InputService {
	return &InputService{node.NewContext(name, 1, 0, pendingCap, registry, commandEndpoint, opts...)}
}

// OutputService is the mirror of InputService: zero inputs, exactly one
// output channel.
type OutputService struct {
	*node.Context
}

// NewOutputService constructs an OutputService-role Context.
func NewOutputService(name string, pendingCap int, registry *registryproxy.Client, commandEndpoint string, opts ...node.Option) *OutputService {
	return &OutputService{node.NewContext(name, 0, 1, pendingCap, registry, commandEndpoint, opts...)}
}
