// Package framing implements the MIME-safe wire framing used by the UDP and
// NATS transports (spec §4.5): a Message's binary body is base64-encoded,
// split into printable lines, and terminated by a literal sentinel line so
// a receiver reading a datagram-oriented or line-oriented stream can tell
// where one Message ends.
package framing

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EndOfMessage is the literal sentinel line appended after a Message's
// encoded lines.
const EndOfMessage = "end-of-message"

// lineWidth matches RFC 2045's 76-column MIME line length.
const lineWidth = 76

// Package base64-encodes body, splits the encoding into lineWidth-column
// lines joined by "\n", and appends the EndOfMessage sentinel line.
func Package(body []byte) string {
	encoded := base64.StdEncoding.EncodeToString(body)
	var sb strings.Builder
	for len(encoded) > lineWidth {
		sb.WriteString(encoded[:lineWidth])
		sb.WriteByte('\n')
		encoded = encoded[lineWidth:]
	}
	sb.WriteString(encoded)
	sb.WriteByte('\n')
	sb.WriteString(EndOfMessage)
	return sb.String()
}

// Unpackage reverses Package: it strips the trailing sentinel (and its
// preceding newline) and decodes the remaining lines back into the
// original Message body.
func Unpackage(s string) ([]byte, error) {
	trimmed := strings.TrimSuffix(s, "\n"+EndOfMessage)
	trimmed = strings.TrimSuffix(trimmed, EndOfMessage)
	if trimmed == s {
		return nil, fmt.Errorf("framing: missing %q sentinel", EndOfMessage)
	}
	joined := strings.ReplaceAll(trimmed, "\n", "")
	body, err := base64.StdEncoding.DecodeString(joined)
	if err != nil {
		return nil, fmt.Errorf("framing: malformed base64 body: %w", err)
	}
	return body, nil
}

// SeparatorMatcher incrementally recognizes the EndOfMessage sentinel line
// across a stream delivered one line at a time, for receivers that cannot
// buffer an entire datagram before scanning it (spec's
// match_message_separator).
type SeparatorMatcher struct{}

// Feed reports whether line is the sentinel line, ignoring a trailing
// carriage return from CRLF-terminated transports.
func (SeparatorMatcher) Feed(line string) bool {
	return strings.TrimSuffix(line, "\r") == EndOfMessage
}
