//go:build unix

// Package netforge is an event-driven networking library for building
// clients and servers over TCP and UDP, with protocol engines for
// HTTP/1.x, WebSocket, and MQTT 3.1.1, an SNTP client, optional TLS, and
// non-blocking DNS. It targets single-threaded, cooperative use: one
// Manager drives one poll loop; there is no connection-per-goroutine
// model anywhere in this package.
package netforge

import (
	"github.com/netforge-go/netforge/pkg/errs"
	"github.com/netforge-go/netforge/pkg/reactor"
	"github.com/netforge-go/netforge/pkg/revent"
	"github.com/netforge-go/netforge/pkg/tlsdriver"
)

// Version is the current version of the netforge library.
const Version = "1.0.0"

// GetVersion returns the current version of the library.
func GetVersion() string { return Version }

// Re-export the core reactor types so callers only need this one import
// for the connection/manager API surface.
type (
	// Manager owns the connection list, the shared DNS socket, and the
	// timer list, and drives the poll loop.
	Manager = reactor.Manager

	// Conn is one connection tracked by a Manager.
	Conn = reactor.Conn

	// Handler receives every event delivered to a Conn.
	Handler = reactor.Handler

	// Config carries a Manager's build-time knobs.
	Config = reactor.Config

	// ListenOptions configures Manager.Listen.
	ListenOptions = reactor.ListenOptions

	// ConnectOptions configures Manager.Connect.
	ConnectOptions = reactor.ConnectOptions

	// TLSOptions configures the TLS driver for a listener or client
	// connection.
	TLSOptions = tlsdriver.Opts

	// Error is the structured error type error events carry (see Handler
	// for the one exception).
	Error = errs.Error

	// ErrorType classifies an Error per the failure taxonomy.
	ErrorType = errs.Type
)

// Re-export the error taxonomy
const (
	ErrorTypeDNS = errs.TypeDNS
	ErrorTypeConnection = errs.TypeConnection
	ErrorTypeTLS = errs.TypeTLS
	ErrorTypeTimeout = errs.TypeTimeout
	ErrorTypeProtocol = errs.TypeProtocol
	ErrorTypeResource = errs.TypeResource
	ErrorTypeValidation = errs.TypeValidation
)

// Re-export the event code vocabulary EvUser is the first
// value available for application-defined events.
const (
	EvError = revent.Error
	EvPoll = revent.Poll
	EvResolve = revent.Resolve
	EvConnect = revent.Connect
	EvAccept = revent.Accept
	EvRead = revent.Read
	EvWrite = revent.Write
	EvClose = revent.Close
	EvHTTPMsg = revent.HTTPMsg
	EvHTTPChunk = revent.HTTPChunk
	EvWSOpen = revent.WSOpen
	EvWSMsg = revent.WSMsg
	EvWSCtl = revent.WSCtl
	EvMQTTCmd = revent.MQTTCmd
	EvMQTTMsg = revent.MQTTMsg
	EvMQTTOpen = revent.MQTTOpen
	EvSNTPTime = revent.SNTPTime
	EvUser = revent.User
)

// New returns an initialized Manager ready to Listen or Connect.
func New(cfg Config) (*Manager, error) {
	return reactor.New(cfg)
}

// IsTimeoutError reports whether err is (or wraps) a timeout-classified
// Error.
func IsTimeoutError(err error) bool {
	return errs.IsTimeout(err)
}

// GetErrorType extracts the ErrorType from err, if it is (or wraps) a
// netforge Error; ok is false if err carries no classification.
func GetErrorType(err error) (t ErrorType, ok bool) {
	t = errs.TypeOf(err)
	return t, t != ""
}
