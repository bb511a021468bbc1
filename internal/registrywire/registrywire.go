// Package registrywire defines the wire shape of the registry proxy's
// request/reply protocol (spec §4.7): every request and reply is a
// value.Map, correlated by a google/uuid request ID, encoded and
// transmitted with pkg/message.
//
// A Map's keys are restricted to the enumerable kinds (Logical, Integer,
// Address, Date, Time — see pkg/value's EnumerationType); String is not
// among them. Field names are therefore small Integer codes rather than
// string keys, the same field-code idiom a fixed binary protocol uses in
// place of a string-keyed dictionary.
package registrywire

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/opendragon/nimo-go/pkg/value"
)

// Operation names the registry RPC being invoked.
type Operation string

const (
	OpIsNodePresent Operation = "isNodePresent"
	OpAddNode       Operation = "addNode"
	OpAddChannel    Operation = "addChannel"
	OpRemoveChannel Operation = "removeChannel"
	OpRemoveNode    Operation = "removeNode"
)

// Field codes used as Map keys on the wire.
const (
	fieldID = iota
	fieldOp
	fieldSuccess
	fieldDetail
	fieldPayload
	fieldName
	fieldArgv
	fieldKind
	fieldCommandEndpoint
	fieldPath
	fieldIsOutput
	fieldDataType
	fieldTransport
)

func key(code int) value.Value { return value.NewInteger(int64(code)) }

// Request is one registry RPC call, identified by ID for reply matching.
type Request struct {
	ID   uuid.UUID
	Op   Operation
	Args *value.Map
}

// Reply is the registry's answer to one Request, matched back by ID.
type Reply struct {
	ID      uuid.UUID
	Success bool
	Detail  string
	Payload value.Value
}

// EncodeRequest builds the wire Map for req. Operation-specific argument
// fields are merged in from req.Args (built by the per-operation helpers
// below).
func EncodeRequest(req Request) *value.Map {
	m := value.NewMap()
	m.Add(key(fieldID), value.NewBlob(req.ID[:]))
	m.Add(key(fieldOp), value.NewString(string(req.Op)))
	if req.Args != nil {
		for _, p := range req.Args.Pairs() {
			m.Add(p.Key, p.Value)
		}
	}
	return m
}

// DecodeRequest reverses EncodeRequest.
func DecodeRequest(m *value.Map) (Request, error) {
	id, err := getBlobUUID(m, fieldID)
	if err != nil {
		return Request{}, err
	}
	opVal, ok := m.Get(key(fieldOp))
	if !ok {
		return Request{}, fmt.Errorf("registrywire: request missing op field")
	}
	opStr, ok := opVal.(*value.String)
	if !ok {
		return Request{}, fmt.Errorf("registrywire: op field is not a String")
	}
	return Request{ID: id, Op: Operation(opStr.S), Args: m}, nil
}

// EncodeReply builds the wire Map for a Reply.
func EncodeReply(reply Reply) *value.Map {
	m := value.NewMap()
	m.Add(key(fieldID), value.NewBlob(reply.ID[:]))
	m.Add(key(fieldSuccess), value.NewLogical(reply.Success))
	m.Add(key(fieldDetail), value.NewString(reply.Detail))
	if reply.Payload != nil {
		m.Add(key(fieldPayload), reply.Payload)
	}
	return m
}

// DecodeReply reverses EncodeReply.
func DecodeReply(m *value.Map) (Reply, error) {
	id, err := getBlobUUID(m, fieldID)
	if err != nil {
		return Reply{}, err
	}
	successVal, ok := m.Get(key(fieldSuccess))
	if !ok {
		return Reply{}, fmt.Errorf("registrywire: reply missing success field")
	}
	success, ok := successVal.(*value.Logical)
	if !ok {
		return Reply{}, fmt.Errorf("registrywire: success field is not a Logical")
	}
	detail := ""
	if detailVal, ok := m.Get(key(fieldDetail)); ok {
		if s, ok := detailVal.(*value.String); ok {
			detail = s.S
		}
	}
	payload, _ := m.Get(key(fieldPayload))
	return Reply{ID: id, Success: success.B, Detail: detail, Payload: payload}, nil
}

func getBlobUUID(m *value.Map, field int) (uuid.UUID, error) {
	v, ok := m.Get(key(field))
	if !ok {
		return uuid.UUID{}, fmt.Errorf("registrywire: message missing id field")
	}
	b, ok := v.(*value.Blob)
	if !ok || len(b.Data) != 16 {
		return uuid.UUID{}, fmt.Errorf("registrywire: id field is not a 16-byte Blob")
	}
	var id uuid.UUID
	copy(id[:], b.Data)
	return id, nil
}

// NameArgs builds the Map fragment for OpIsNodePresent/OpRemoveNode, whose
// only argument is the node's name.
func NameArgs(name string) *value.Map {
	m := value.NewMap()
	m.Add(key(fieldName), value.NewString(name))
	return m
}

// AddNodeArgs builds the Map fragment for OpAddNode.
func AddNodeArgs(name string, argv []string, kind, commandEndpoint string) *value.Map {
	m := value.NewMap()
	m.Add(key(fieldName), value.NewString(name))
	arr := value.NewArray()
	for _, a := range argv {
		arr.Add(value.NewString(a))
	}
	m.Add(key(fieldArgv), arr)
	m.Add(key(fieldKind), value.NewString(kind))
	m.Add(key(fieldCommandEndpoint), value.NewString(commandEndpoint))
	return m
}

// AddChannelArgs builds the Map fragment for OpAddChannel.
func AddChannelArgs(node, path string, isOutput bool, dataType, transport string) *value.Map {
	m := value.NewMap()
	m.Add(key(fieldName), value.NewString(node))
	m.Add(key(fieldPath), value.NewString(path))
	m.Add(key(fieldIsOutput), value.NewLogical(isOutput))
	m.Add(key(fieldDataType), value.NewString(dataType))
	m.Add(key(fieldTransport), value.NewString(transport))
	return m
}

// ChannelArgs builds the Map fragment for OpRemoveChannel.
func ChannelArgs(node, path string) *value.Map {
	m := value.NewMap()
	m.Add(key(fieldName), value.NewString(node))
	m.Add(key(fieldPath), value.NewString(path))
	return m
}

// GetString fetches a String-valued field out of a decoded request's Args.
func GetString(m *value.Map, field int) (string, bool) {
	v, ok := m.Get(key(field))
	if !ok {
		return "", false
	}
	s, ok := v.(*value.String)
	if !ok {
		return "", false
	}
	return s.S, true
}

// GetLogical fetches a Logical-valued field out of a decoded request's Args.
func GetLogical(m *value.Map, field int) (bool, bool) {
	v, ok := m.Get(key(field))
	if !ok {
		return false, false
	}
	b, ok := v.(*value.Logical)
	if !ok {
		return false, false
	}
	return b.B, true
}

// GetStringArray fetches an Array-of-String field (e.g. argv).
func GetStringArray(m *value.Map, field int) ([]string, bool) {
	v, ok := m.Get(key(field))
	if !ok {
		return nil, false
	}
	arr, ok := v.(*value.Array)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, arr.Len())
	for _, e := range arr.Elements {
		s, ok := e.(*value.String)
		if !ok {
			return nil, false
		}
		out = append(out, s.S)
	}
	return out, true
}

// Field codes re-exported for callers (internal/registrysvc) that need to
// read fields out of a decoded Request's Args without re-deriving the
// numbering.
const (
	FieldName            = fieldName
	FieldArgv            = fieldArgv
	FieldKind            = fieldKind
	FieldCommandEndpoint = fieldCommandEndpoint
	FieldPath            = fieldPath
	FieldIsOutput        = fieldIsOutput
	FieldDataType        = fieldDataType
	FieldTransport       = fieldTransport
)
