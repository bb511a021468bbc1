package logger

import "log/slog"

// Standard field keys. Use these consistently across log statements so
// aggregated logs can be queried by field regardless of which node or
// component emitted them.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyNode      = "node"
	KeyChannel   = "channel"
	KeyTransport = "transport"
	KeyDataType  = "data_type"
	KeyOperation = "operation"

	KeyRemoteAddr   = "remote_addr"
	KeyConnectionID = "connection_id"
	KeyRequestID    = "request_id"

	KeyBytesIn  = "bytes_in"
	KeyBytesOut = "bytes_out"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeySuccess    = "success"
	KeyDetail     = "detail"
)

func Node(name string) slog.Attr           { return slog.String(KeyNode, name) }
func Channel(path string) slog.Attr        { return slog.String(KeyChannel, path) }
func Transport(t string) slog.Attr         { return slog.String(KeyTransport, t) }
func DataType(t string) slog.Attr          { return slog.String(KeyDataType, t) }
func Operation(op string) slog.Attr        { return slog.String(KeyOperation, op) }
func RemoteAddr(addr string) slog.Attr     { return slog.String(KeyRemoteAddr, addr) }
func ConnectionID(id string) slog.Attr     { return slog.String(KeyConnectionID, id) }
func RequestID(id string) slog.Attr        { return slog.String(KeyRequestID, id) }
func BytesIn(n int) slog.Attr              { return slog.Int(KeyBytesIn, n) }
func BytesOut(n int) slog.Attr             { return slog.Int(KeyBytesOut, n) }
func DurationMs(ms float64) slog.Attr      { return slog.Float64(KeyDurationMs, ms) }
func Success(ok bool) slog.Attr            { return slog.Bool(KeySuccess, ok) }
func Detail(detail string) slog.Attr       { return slog.String(KeyDetail, detail) }

// Err returns an attr for err, or a zero Attr (omitted by the handlers) for
// a nil error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
