//go:build unix

package reactor

import (
	"net/netip"
	"time"

	"github.com/google/uuid"

	"github.com/netforge-go/netforge/pkg/dnsclient"
	"github.com/netforge-go/netforge/pkg/errs"
	"github.com/netforge-go/netforge/pkg/iobuf"
	"github.com/netforge-go/netforge/pkg/mtimer"
	"github.com/netforge-go/netforge/pkg/netaddr"
	"github.com/netforge-go/netforge/pkg/netlog"
	"github.com/netforge-go/netforge/pkg/revent"
	"github.com/netforge-go/netforge/pkg/sockdriver"
	"github.com/netforge-go/netforge/pkg/tlsdriver"
)

// Default build-time knobs
const (
	DefaultIOSize = 2048
	DefaultMaxRecvBuf = 3 * 1024 * 1024
	DefaultDNSTimeout = 3 * time.Second
	DefaultDNSServer = "8.8.8.8:53"
)

// Config carries the Manager's build-time knobs. The zero value
// is valid: every field defaults to the value documents.
type Config struct {
	EnableIPv6 bool
	DNSServer string // default 8.8.8.8:53
	DNSTimeout time.Duration // default 3s
	IOAlign int // default 2048 (IO_SIZE)
	MaxRecvBuf int // default 3MiB
	Logger netlog.Logger // default netlog.Nop
}

// Manager owns the connection list, the timer list, and the shared DNS
// resolver socket. It is not safe for concurrent use, except for Wakeup
// on a pipe connection from another goroutine.
type Manager struct {
	head *Conn
	nextID uint64
	userData any

	cfg Config
	log netlog.Logger
	waiter sockdriver.Waiter
	timers mtimer.List

	resolver *dnsclient.Resolver
	dnsSock *sockdriver.Socket
	dnsByTx map[uint16]*Conn
	dnsServer netaddr.Addr

	lastPollAt time.Time
}

// New returns an initialized Manager with default build-time knobs
// filled in where the caller left them zero.
func New(cfg Config) (*Manager, error) {
	if cfg.DNSServer == "" {
		cfg.DNSServer = DefaultDNSServer
	}
	if cfg.DNSTimeout <= 0 {
		cfg.DNSTimeout = DefaultDNSTimeout
	}
	if cfg.IOAlign <= 0 {
		cfg.IOAlign = DefaultIOSize
	}
	if cfg.MaxRecvBuf <= 0 {
		cfg.MaxRecvBuf = DefaultMaxRecvBuf
	}
	if cfg.Logger == nil {
		cfg.Logger = netlog.Nop
	}

	u, err := netaddr.Parse(cfg.DNSServer)
	if err != nil {
		return nil, errs.NewValidationError("invalid dns server: " + err.Error())
	}
	ip, perr := netaddr.ParseIP(u.Host)
	if perr != nil {
		return nil, errs.NewValidationError("dns server must be an IP literal: " + perr.Error())
	}
	ip.Port = uint16(u.Port)

	m := &Manager{
		cfg: cfg,
		log: cfg.Logger,
		resolver: dnsclient.NewResolver(cfg.DNSServer, cfg.DNSTimeout),
		dnsByTx: make(map[uint16]*Conn),
		dnsServer: ip,
	}
	return m, nil
}

// UserData returns the manager-wide opaque value.
func (m *Manager) UserData() any { return m.userData }

// SetUserData sets the manager-wide opaque value.
func (m *Manager) SetUserData(v any) { m.userData = v }

// AddTimer schedules cb to run every periodMS (or once, if flags omits
// mtimer.Repeat)
func (m *Manager) AddTimer(periodMS int64, flags mtimer.Flag, cb mtimer.Callback, arg any) *mtimer.Timer {
	return m.timers.Add(nowMS(), periodMS, flags, cb, arg)
}

func nowMS() int64 { return time.Now().UnixMilli() }

func (m *Manager) nextConnID() uint64 {
	m.nextID++
	return m.nextID
}

func (m *Manager) newConn() *Conn {
	c := &Conn{
		id:   m.nextConnID(),
		mgr:  m,
		recv: iobuf.New(0),
		send: iobuf.New(0),
	}
	return c
}

// link adds c at the head of the connection list.
func (m *Manager) link(c *Conn) {
	c.next = m.head
	if m.head != nil {
		m.head.prev = c
	}
	m.head = c
}

// unlink removes c from the list. It does not close the socket; callers
// must do that first.
func (m *Manager) unlink(c *Conn) {
	if c.prev != nil {
		c.prev.next = c.next
	} else if m.head == c {
		m.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	}
	c.prev, c.next = nil, nil
}

// ListenOptions configures Listen; the zero value listens in plain TCP.
type ListenOptions struct {
	UDP bool
	TLS *tlsdriver.Opts
	UserData any
}

// Listen opens a listening socket on url ("tcp://host:port" or
// "udp://host:port") and returns its Conn. handler receives an accept
// event for every accepted connection, and error/poll events for the
// listener itself.
func (m *Manager) Listen(url string, handler Handler, opts ListenOptions) (*Conn, error) {
	u, err := netaddr.Parse(url)
	if err != nil {
		return nil, errs.NewValidationError("listen: " + err.Error())
	}
	host := u.Host
	if host == "" {
		host = "0.0.0.0"
	}
	addr, err := netaddr.ParseIP(host)
	if err != nil {
		return nil, errs.NewValidationError("listen: " + err.Error())
	}
	addr.Port = uint16(u.Port)

	udp := opts.UDP || u.Scheme == "udp"
	sock, err := sockdriver.Listen(udp, toAddrPort(addr))
	if err != nil {
		return nil, err
	}

	c := m.newConn()
	c.sock = sock
	c.flags |= flagListening
	if udp {
		c.flags |= flagUDP
	}
	c.userHandler = handler
	c.userData = opts.UserData
	if opts.TLS != nil {
		c.flags |= flagTLS
		c.tlsOpts = *opts.TLS
		c.tlsOpts.IsClient = false
		c.tlsWantTLS = true
	}
	m.link(c)
	m.log.Infow("listen", "conn", c.id, "addr", addr.String(), "span", uuid.NewString())
	return c, nil
}

// ConnectOptions configures Connect.
type ConnectOptions struct {
	UDP bool
	TLS *tlsdriver.Opts
	UserData any
}

// Connect creates a client connection to url. If the host is not an IP
// literal, the connection starts in is_resolving and progresses to
// is_connecting once the manager's DNS resolver answers.
func (m *Manager) Connect(url string, handler Handler, opts ConnectOptions) (*Conn, error) {
	u, err := netaddr.Parse(url)
	if err != nil {
		return nil, errs.NewValidationError("connect: " + err.Error())
	}

	c := m.newConn()
	c.flags |= flagClient
	c.userHandler = handler
	c.userData = opts.UserData
	c.connectPort = uint16(u.Port)
	if opts.UDP || u.Scheme == "udp" {
		c.flags |= flagUDP
	}
	if opts.TLS != nil {
		c.flags |= flagTLS
		c.tlsOpts = *opts.TLS
		c.tlsOpts.IsClient = true
		if c.tlsOpts.ServerName == "" {
			c.tlsOpts.ServerName = u.Host
		}
		c.tlsWantTLS = true
	}

	if addr, ierr := netaddr.ParseIP(u.Host); ierr == nil {
		addr.Port = c.connectPort
		c.connectAddr = addr
		if err := m.startConnect(c); err != nil {
			return nil, err
		}
	} else {
		c.flags |= flagResolving
		c.dnsHost = u.Host
		c.dnsWantV6 = m.cfg.EnableIPv6
		if err := m.startResolve(c); err != nil {
			return nil, err
		}
	}

	m.link(c)
	return c, nil
}

func toAddrPort(a netaddr.Addr) netip.AddrPort {
	return netip.AddrPortFrom(a.NetIP(), a.Port)
}

// MakePipe creates the cross-thread wakeup connection. The
// returned *sockdriver.Pipe's Wakeup method is the only API safe to call
// from a goroutine other than the one driving Poll.
func (m *Manager) MakePipe(handler Handler, userData any) (*Conn, *sockdriver.Pipe, error) {
	p, err := sockdriver.NewPipe()
	if err != nil {
		return nil, nil, err
	}
	c := m.newConn()
	c.isPipe = true
	c.pipe = p
	c.userHandler = handler
	c.userData = userData
	m.link(c)
	return c, p, nil
}

// Wakeup writes a byte to pipe; safe from any goroutine.
func (m *Manager) Wakeup(pipe *sockdriver.Pipe) error {
	return pipe.Wakeup()
}

// Free closes every connection, delivering a Close event to each first.
func (m *Manager) Free() {
	for c := m.head; c != nil; {
		next := c.next
		c.dispatch(revent.Close, nil)
		m.destroySocket(c)
		c = next
	}
	m.head = nil
	if m.dnsSock != nil {
		sockdriver.Close(m.dnsSock)
		m.dnsSock = nil
	}
}

func (m *Manager) destroySocket(c *Conn) {
	if c.isPipe {
		c.pipe.Close()
		return
	}
	if c.sock != nil {
		sockdriver.Close(c.sock)
		c.sock = nil
	}
	if c.tls != nil {
		c.tls.Free()
		c.tls = nil
	}
}
