//go:build unix

// Package reactor implements the connection and manager state machine that
// drives the poll loop: the connection list, DNS resolution, connect
// completion, TLS handshake stepping, reads and writes, and dispatch to a
// two-stage protocol/user handler pipeline.
package reactor

import (
	"github.com/netforge-go/netforge/pkg/dnsclient"
	"github.com/netforge-go/netforge/pkg/iobuf"
	"github.com/netforge-go/netforge/pkg/netaddr"
	"github.com/netforge-go/netforge/pkg/revent"
	"github.com/netforge-go/netforge/pkg/sockdriver"
	"github.com/netforge-go/netforge/pkg/tlsdriver"
)

// Handler receives every event delivered to a Conn. data's concrete type
// depends on ev: nil for Accept/Connect/Close, an error for Error (a
// *errs.Error, except that failures crypto/tls reports on an established
// TLS session are passed through unchanged), an int for Read/Write byte
// counts and for Poll's milliseconds since the previous poll step, or a
// protocol-specific message type.
type Handler func(c *Conn, ev revent.Code, data any)

type connFlag uint32

const (
	flagListening connFlag = 1 << iota
	flagClient
	flagAccepted
	flagResolving
	flagConnecting
	flagTLS
	flagTLSHandshake
	flagUDP
	flagWebSocket
	flagHexdumping
	flagDraining
	flagClosing
	flagReadable
	flagWritable
)

func (f connFlag) has(bit connFlag) bool { return f&bit != 0 }

// Conn is one connection in the Manager's list. State is not exposed as a
// raw public struct: driver-managed flags are read-only accessors, and only
// the three user-settable controls (hexdump, drain, close) have setters.
type Conn struct {
	id uint64
	label string
	mgr *Manager

	sock *sockdriver.Socket
	peer netaddr.Addr

	recv *iobuf.Buffer
	send *iobuf.Buffer

	userHandler Handler
	userData any

	protoHandler Handler
	protoData any

	tls *tlsdriver.Driver
	tlsOpts tlsdriver.Opts
	tlsWantTLS bool

	dnsHost string
	dnsWantV6 bool
	dnsPending *dnsclient.Pending

	connectAddr netaddr.Addr
	connectPort uint16

	flags connFlag

	isPipe bool
	pipe *sockdriver.Pipe

	prev, next *Conn
}

// ID returns the connection's unique, manager-scoped identity.
func (c *Conn) ID() uint64 { return c.id }

// Label returns the user-assigned debug label (empty unless SetLabel was called).
func (c *Conn) Label() string { return c.label }

// SetLabel sets a debug label surfaced in log lines.
func (c *Conn) SetLabel(label string) { c.label = label }

// Manager returns the owning Manager.
func (c *Conn) Manager() *Manager { return c.mgr }

// Peer returns the remote address, valid once the connection is connected
// or accepted.
func (c *Conn) Peer() netaddr.Addr { return c.peer }

// LocalAddr returns the address the underlying socket is bound to — the
// way to learn which ephemeral port a "...:0" Listen picked.
func (c *Conn) LocalAddr() (netaddr.Addr, error) {
	if c.sock == nil {
		return netaddr.Addr{}, errNoSocket
	}
	ap, err := sockdriver.LocalAddr(c.sock)
	if err != nil {
		return netaddr.Addr{}, err
	}
	return addrFromAddrPort(ap), nil
}

// Recv returns the connection's receive buffer. Any view taken from it is
// invalidated the instant the buffer is mutated again (including by the
// reactor's own next read) — callers that need to retain bytes past the
// current handler call must copy them out first.
func (c *Conn) Recv() *iobuf.Buffer { return c.recv }

// Send returns the connection's send buffer; appending to it queues bytes
// for the next writable poll step.
func (c *Conn) Send() *iobuf.Buffer { return c.send }

// UserData returns the opaque value associated with this connection,
// either set at Listen/Connect time or inherited from a listener at accept.
func (c *Conn) UserData() any { return c.userData }

// SetUserData overrides the connection's user data.
func (c *Conn) SetUserData(v any) { c.userData = v }

// SetProtoHandler installs the protocol-stage handler. Called by protocol engines
// (httpproto.Wrap, websocket.UpgradeServer, mqttproto.Login, sntp.Wrap,...) to take the first
// look at every event before the user handler runs; data is opaque,
// protocol-owned state (e.g. an HTTP parser's partial-message cursor).
func (c *Conn) SetProtoHandler(h Handler, data any) {
	c.protoHandler = h
	c.protoData = data
}

// ProtoData returns the protocol-owned opaque state set via SetProtoHandler.
func (c *Conn) ProtoData() any { return c.protoData }

// --- read-only, driver-managed state -------------------------------------

func (c *Conn) IsListening() bool { return c.flags.has(flagListening) }
func (c *Conn) IsClient() bool { return c.flags.has(flagClient) }
func (c *Conn) IsAccepted() bool { return c.flags.has(flagAccepted) }
func (c *Conn) IsResolving() bool { return c.flags.has(flagResolving) }
func (c *Conn) IsConnecting() bool { return c.flags.has(flagConnecting) }
func (c *Conn) IsTLS() bool { return c.flags.has(flagTLS) }
func (c *Conn) IsTLSHandshake() bool { return c.flags.has(flagTLSHandshake) }
func (c *Conn) IsUDP() bool { return c.flags.has(flagUDP) }
func (c *Conn) IsWebSocket() bool { return c.flags.has(flagWebSocket) }
func (c *Conn) IsHexdumping() bool { return c.flags.has(flagHexdumping) }
func (c *Conn) IsDraining() bool { return c.flags.has(flagDraining) }
func (c *Conn) IsClosing() bool { return c.flags.has(flagClosing) }
func (c *Conn) IsReadable() bool { return c.flags.has(flagReadable) }
func (c *Conn) IsWritable() bool { return c.flags.has(flagWritable) }

// MarkWebSocketUpgraded is called by the websocket package once a handshake
// completes; it is not one of the three user-settable controls (an
// application never turns WebSocket framing on or off by hand), so it lives
// outside the SetHexdump/Drain/Close trio.
func (c *Conn) MarkWebSocketUpgraded() { c.flags |= flagWebSocket }

// --- user-settable controls ----------------------------------------------

// SetHexdump toggles wire-level hex dump logging for this connection.
func (c *Conn) SetHexdump(on bool) {
	if on {
		c.flags |= flagHexdumping
	} else {
		c.flags &^= flagHexdumping
	}
}

// Drain marks the connection to close once its send buffer fully flushes.
func (c *Conn) Drain() { c.flags |= flagDraining }

// Close marks the connection to close immediately, on the next poll step,
// regardless of pending unsent data. This is terminal. Close does not stop
// further appends to Send(); bytes still queued when the connection is
// freed are discarded.
func (c *Conn) Close() { c.flags |= flagClosing }

// dispatch runs the two-stage pipeline: protocol handler first (it may
// synthesize higher-level events via a re-entrant Dispatch call), then the
// user handler.
func (c *Conn) dispatch(ev revent.Code, data any) {
	if c.protoHandler != nil {
		c.protoHandler(c, ev, data)
	}
	if c.userHandler != nil {
		c.userHandler(c, ev, data)
	}
}

// Dispatch lets a protocol handler re-enter the pipeline to synthesize a
// higher-level event (e.g. MQTT_CMD then MQTT_MSG from one PUBLISH).
func (c *Conn) Dispatch(ev revent.Code, data any) {
	c.dispatch(ev, data)
}

// emitError delivers an error event without marking the connection for
// closing (e.g. a failed accept on a listener).
func (c *Conn) emitError(err error) {
	c.dispatch(revent.Error, err)
}

// emitFatal delivers an error event and marks the connection to drain-then-
// close: the standard propagation for a protocol parse failure and,
// more broadly, any error the connection cannot recover from.
func (c *Conn) emitFatal(err error) {
	c.flags |= flagDraining | flagClosing
	c.dispatch(revent.Error, err)
}
