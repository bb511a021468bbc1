package registrysvc

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/opendragon/nimo-go/internal/metrics"
	"github.com/opendragon/nimo-go/internal/registrywire"
	"github.com/opendragon/nimo-go/pkg/message"
	"github.com/opendragon/nimo-go/pkg/value"
)

// Server answers registry RPCs over TCP, one goroutine per connection,
// dispatching each decoded Request to a shared Registry.
type Server struct {
	registry *Registry
	metrics  *metrics.RegistryMetrics
}

// NewServer wraps registry for serving.
func NewServer(registry *Registry) *Server {
	return &Server{registry: registry, metrics: metrics.NewRegistryMetrics()}
}

// Serve accepts connections from ln until it returns an error (typically
// because ln was closed).
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)
	for {
		frame, err := message.ReadFrame(br)
		if err != nil {
			return
		}
		v, err := message.Decode(frame)
		if err != nil || value.IsFlaw(v) {
			return
		}
		m, ok := v.(*value.Map)
		if !ok {
			return
		}
		req, err := registrywire.DecodeRequest(m)
		if err != nil {
			return
		}

		reply := s.dispatch(req)
		out, err := message.Encode(registrywire.EncodeReply(reply))
		if err != nil {
			return
		}
		if _, err := conn.Write(out); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req registrywire.Request) registrywire.Reply {
	slog.Debug("registrysvc: request", "op", req.Op)
	start := time.Now()
	reply := s.doDispatch(req)
	s.metrics.RecordRequest(string(req.Op), reply.Success, time.Since(start))
	s.metrics.SetNodesActive(s.registry.NodeCount())
	s.metrics.SetChannelsActive(s.registry.ChannelCount())
	return reply
}

func (s *Server) doDispatch(req registrywire.Request) registrywire.Reply {
	switch req.Op {
	case registrywire.OpIsNodePresent:
		name, _ := registrywire.GetString(req.Args, registrywire.FieldName)
		present := s.registry.IsNodePresent(name)
		return registrywire.Reply{ID: req.ID, Success: true, Payload: value.NewLogical(present)}

	case registrywire.OpAddNode:
		name, _ := registrywire.GetString(req.Args, registrywire.FieldName)
		argv, _ := registrywire.GetStringArray(req.Args, registrywire.FieldArgv)
		kind, _ := registrywire.GetString(req.Args, registrywire.FieldKind)
		endpoint, _ := registrywire.GetString(req.Args, registrywire.FieldCommandEndpoint)
		added, err := s.registry.AddNode(name, argv, kind, endpoint)
		if err != nil {
			return registrywire.Reply{ID: req.ID, Success: false, Detail: err.Error()}
		}
		return registrywire.Reply{ID: req.ID, Success: true, Payload: value.NewLogical(added)}

	case registrywire.OpAddChannel:
		node, _ := registrywire.GetString(req.Args, registrywire.FieldName)
		path, _ := registrywire.GetString(req.Args, registrywire.FieldPath)
		isOutput, _ := registrywire.GetLogical(req.Args, registrywire.FieldIsOutput)
		dataType, _ := registrywire.GetString(req.Args, registrywire.FieldDataType)
		transport, _ := registrywire.GetString(req.Args, registrywire.FieldTransport)
		added, err := s.registry.AddChannel(node, path, isOutput, dataType, transport)
		if err != nil {
			return registrywire.Reply{ID: req.ID, Success: false, Detail: err.Error()}
		}
		return registrywire.Reply{ID: req.ID, Success: true, Payload: value.NewLogical(added)}

	case registrywire.OpRemoveChannel:
		node, _ := registrywire.GetString(req.Args, registrywire.FieldName)
		path, _ := registrywire.GetString(req.Args, registrywire.FieldPath)
		existed := s.registry.RemoveChannel(node, path)
		return registrywire.Reply{ID: req.ID, Success: true, Payload: value.NewLogical(existed)}

	case registrywire.OpRemoveNode:
		name, _ := registrywire.GetString(req.Args, registrywire.FieldName)
		existed := s.registry.RemoveNode(name)
		return registrywire.Reply{ID: req.ID, Success: true, Payload: value.NewLogical(existed)}

	default:
		return registrywire.Reply{ID: req.ID, Success: false, Detail: fmt.Sprintf("unknown operation %q", req.Op)}
	}
}
