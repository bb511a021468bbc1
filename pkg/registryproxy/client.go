// Package registryproxy implements the Registry proxy (RPC client) of spec
// §4.7: typed requests/replies exchanged with the Registry over a single
// command-channel connection, encoded as value.Map via pkg/message.
package registryproxy

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opendragon/nimo-go/internal/registrywire"
	"github.com/opendragon/nimo-go/pkg/message"
	"github.com/opendragon/nimo-go/pkg/value"
)

// Result is the protocol-level outcome of one RPC: Success is about the
// protocol completing, not about the state the caller wanted (spec §4.7's
// "success is about protocol, payload is about state"). Detail carries a
// human-readable reason when Success is false, including the literal
// "timeout" when a per-call deadline was missed.
type Result struct {
	Success bool
	Detail  string
}

// FindRegistry resolves a live connection to the registry's command channel.
// Discovery itself (mDNS or otherwise) is outside the core's scope; callers
// supply whatever lookup they use.
type FindRegistry func(ctx context.Context) (net.Conn, error)

// Client issues registry RPCs over one net.Conn, serializing calls (the
// command channel is a single duplex stream) and matching each reply back to
// its request by a google/uuid correlation ID.
type Client struct {
	conn net.Conn
	br   *bufio.Reader
	mu   sync.Mutex
}

// Dial resolves a connection via find and wraps it in a Client.
func Dial(ctx context.Context, find FindRegistry) (*Client, error) {
	conn, err := find(ctx)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

// NewClient wraps an already-established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, br: bufio.NewReader(conn)}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func (c *Client) call(ctx context.Context, op registrywire.Operation, args *value.Map) (Result, value.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New()
	frame, err := message.Encode(registrywire.EncodeRequest(registrywire.Request{ID: id, Op: op, Args: args}))
	if err != nil {
		return Result{}, nil, fmt.Errorf("registryproxy: encoding request: %w", err)
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return Result{}, nil, err
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return Result{}, nil, err
	}

	if _, err := c.conn.Write(frame); err != nil {
		if isTimeout(err) {
			return Result{Success: false, Detail: "timeout"}, nil, nil
		}
		return Result{}, nil, fmt.Errorf("registryproxy: sending request: %w", err)
	}

	replyFrame, err := message.ReadFrame(c.br)
	if err != nil {
		if isTimeout(err) {
			return Result{Success: false, Detail: "timeout"}, nil, nil
		}
		return Result{}, nil, fmt.Errorf("registryproxy: reading reply: %w", err)
	}

	v, err := message.Decode(replyFrame)
	if err != nil {
		return Result{}, nil, fmt.Errorf("registryproxy: decoding reply: %w", err)
	}
	if value.IsFlaw(v) {
		return Result{}, nil, fmt.Errorf("registryproxy: reply decode flaw: %s", v)
	}
	replyMap, ok := v.(*value.Map)
	if !ok {
		return Result{}, nil, fmt.Errorf("registryproxy: reply is not a Map")
	}
	reply, err := registrywire.DecodeReply(replyMap)
	if err != nil {
		return Result{}, nil, err
	}
	if reply.ID != id {
		return Result{}, nil, fmt.Errorf("registryproxy: reply id %s does not match request id %s", reply.ID, id)
	}
	return Result{Success: reply.Success, Detail: reply.Detail}, reply.Payload, nil
}

func boolPayload(res Result, payload value.Value, err error, op string) (Result, bool, error) {
	if err != nil || !res.Success {
		return res, false, err
	}
	b, ok := payload.(*value.Logical)
	if !ok {
		return res, false, fmt.Errorf("registryproxy: %s payload is not a Logical", op)
	}
	return res, b.B, nil
}

// IsNodePresent reports whether name is currently registered.
func (c *Client) IsNodePresent(ctx context.Context, name string) (Result, bool, error) {
	res, payload, err := c.call(ctx, registrywire.OpIsNodePresent, registrywire.NameArgs(name))
	return boolPayload(res, payload, err, "IsNodePresent")
}

// AddNode registers a node. The payload is false when the node was already
// present.
func (c *Client) AddNode(ctx context.Context, name string, argv []string, kind, commandEndpoint string) (Result, bool, error) {
	res, payload, err := c.call(ctx, registrywire.OpAddNode, registrywire.AddNodeArgs(name, argv, kind, commandEndpoint))
	return boolPayload(res, payload, err, "AddNode")
}

// AddChannel registers one channel belonging to node.
func (c *Client) AddChannel(ctx context.Context, node, path string, isOutput bool, dataType, transport string) (Result, bool, error) {
	res, payload, err := c.call(ctx, registrywire.OpAddChannel, registrywire.AddChannelArgs(node, path, isOutput, dataType, transport))
	return boolPayload(res, payload, err, "AddChannel")
}

// RemoveChannel deregisters one channel. Idempotent: removing an
// already-removed channel still yields Success=true, payload=false.
func (c *Client) RemoveChannel(ctx context.Context, node, path string) (Result, bool, error) {
	res, payload, err := c.call(ctx, registrywire.OpRemoveChannel, registrywire.ChannelArgs(node, path))
	return boolPayload(res, payload, err, "RemoveChannel")
}

// RemoveNode deregisters a node. Idempotent, as RemoveChannel.
func (c *Client) RemoveNode(ctx context.Context, name string) (Result, bool, error) {
	res, payload, err := c.call(ctx, registrywire.OpRemoveNode, registrywire.NameArgs(name))
	return boolPayload(res, payload, err, "RemoveNode")
}
