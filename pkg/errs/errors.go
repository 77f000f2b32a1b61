// Package errs provides the structured error type shared by every netforge
// component, classifying failures the way the reactor's error-propagation
// rules (one error event per failing connection) expect.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Type categorizes a failure the way the poll loop reports it to handlers.
type Type string

const (
	// TypeDNS covers resolution failures: timeout, NXDOMAIN, malformed answer.
	TypeDNS Type = "dns"
	// TypeConnection covers transport failures: dial, send, recv, unexpected EOF.
	TypeConnection Type = "connection"
	// TypeTLS covers handshake and certificate verification failures.
	TypeTLS Type = "tls"
	// TypeTimeout covers any operation that exceeded its deadline.
	TypeTimeout Type = "timeout"
	// TypeProtocol covers malformed HTTP/WebSocket/MQTT/SNTP framing. Fatal
	// per connection: the caller is expected to drain and close.
	TypeProtocol Type = "protocol"
	// TypeResource covers allocation failure and recv-buffer cap overrun.
	TypeResource Type = "resource"
	// TypeValidation covers bad caller input (malformed URL, bad option).
	TypeValidation Type = "validation"
)

// Error is the structured error type carried by the reactor's error events
// (see reactor.Handler for the one exception); standalone parsers such as
// httpproto.Parse and mqttproto.Parse return their own plain error values.
// Format: "[type] op conn=id: message: cause".
type Error struct {
	Type Type
	Op string
	Message string
	Cause error
	ConnID uint64
	Timestamp time.Time
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.ConnID != 0 {
		parts = append(parts, fmt.Sprintf("conn=%d", e.ConnID))
	}
	out := strings.Join(parts, " ")
	if e.Message != "" {
		out += ": " + e.Message
	}
	if e.Cause != nil {
		out += ": " + e.Cause.Error()
	}
	return out
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithConn returns a copy of e tagged with the owning connection id, used
// when the manager attaches connection context to an error before
// delivering its error event.
func (e *Error) WithConn(id uint64) *Error {
	cp := *e
	cp.ConnID = id
	return &cp
}

func newErr(t Type, op, msg string, cause error) *Error {
	return &Error{Type: t, Op: op, Message: msg, Cause: cause, Timestamp: time.Now()}
}

// NewDNSTimeout builds the "DNS timeout" error a resolving connection
// receives when dns_timeout_ms elapses without an answer.
func NewDNSTimeout(host string) *Error {
	return newErr(TypeDNS, "resolve", fmt.Sprintf("DNS timeout resolving %q", host), nil)
}

// NewDNSError wraps a resolver failure (NXDOMAIN, transport error).
func NewDNSError(host string, cause error) *Error {
	return newErr(TypeDNS, "resolve", fmt.Sprintf("DNS lookup failed for %q", host), cause)
}

// NewConnectionError wraps a dial/send/recv failure.
func NewConnectionError(op string, cause error) *Error {
	return newErr(TypeConnection, op, "transport error", cause)
}

// NewTLSError wraps a handshake or certificate verification failure.
func NewTLSError(op string, cause error) *Error {
	return newErr(TypeTLS, op, "TLS failure", cause)
}

// NewTimeoutError builds a timeout error for the named operation.
func NewTimeoutError(op string, timeout time.Duration) *Error {
	return newErr(TypeTimeout, op, fmt.Sprintf("timed out after %v", timeout), nil)
}

// NewProtocolError wraps a parse failure in HTTP/WS/MQTT/SNTP framing.
func NewProtocolError(op, msg string) *Error {
	return newErr(TypeProtocol, op, msg, nil)
}

// NewResourceError wraps an allocation failure or recv-buffer cap overrun.
func NewResourceError(op, msg string) *Error {
	return newErr(TypeResource, op, msg, nil)
}

// NewValidationError wraps bad caller input.
func NewValidationError(msg string) *Error {
	return newErr(TypeValidation, "validate", msg, nil)
}

// IsTimeout reports whether err is a timeout, by type or by net.Error.
func IsTimeout(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == TypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// TypeOf returns the Type of a structured error, or "" if err isn't one.
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}
