package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()
	reconfigure()

	return buf, func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}
}

func TestLevelFiltering(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("WARN")
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestSetLevelIsCaseInsensitive(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DeBuG")
	Debug("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestSetLevelIgnoresInvalidValues(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetLevel("INVALID")
	Debug("should be filtered")
	Info("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestMessageFormatting(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	Info("channel opened", "channel", "/data01")

	out := buf.String()
	assert.Regexp(t, `\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\]`, out)
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "channel=/data01")
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")
	Info("node registered", "node", "source1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "node registered", entry["msg"])
	assert.Equal(t, "source1", entry["node"])
}

func TestContextLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")

	nc := NewNodeContext("source1").WithChannel("/data01").WithOperation("send")
	ctx := WithContext(context.Background(), nc)

	InfoCtx(ctx, "message sent", "bytes_out", 128)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "source1", entry["node"])
	assert.Equal(t, "/data01", entry["channel"])
	assert.Equal(t, "send", entry["operation"])
	assert.Equal(t, float64(128), entry["bytes_out"])
}

func TestContextLoggingWithNilContext(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	require.NotPanics(t, func() {
		InfoCtx(context.Background(), "no node context")
	})
	assert.Contains(t, buf.String(), "no node context")
}

func TestNodeContextClone(t *testing.T) {
	nc := NewNodeContext("source1").WithChannel("/data01")
	clone := nc.Clone()
	clone.Channel = "/data02"

	assert.Equal(t, "/data01", nc.Channel)
	assert.Equal(t, "/data02", clone.Channel)
}

func TestErrFieldHandlesNil(t *testing.T) {
	attr := Err(nil)
	assert.Equal(t, "", attr.Key)
}

func TestFormatSwitching(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")
	Info("text line")
	textOut := buf.String()
	buf.Reset()

	SetFormat("json")
	Info("json line")
	jsonOut := strings.TrimSpace(buf.String())

	assert.Contains(t, textOut, "[INFO]")
	assert.True(t, json.Valid([]byte(jsonOut)))
}
