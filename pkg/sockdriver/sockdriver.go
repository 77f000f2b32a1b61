//go:build unix

// Package sockdriver implements the abstract socket capability
// asks of the platform: open a TCP/UDP socket, bind, listen, accept
// (non-blocking), connect (non-blocking), send/recv (non-blocking), and a
// bounded readiness wait. It owns socket handles only — never connection
// state, and it never calls a handler; the reactor in pkg/reactor does that.
package sockdriver

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/netforge-go/netforge/pkg/errs"
)

// ErrWouldBlock is returned by Accept/Connect/Send/Recv when the operation
// cannot complete immediately. It is not a failure — the reactor retries on
// the next readiness signal.
var ErrWouldBlock = errs.NewConnectionError("wouldblock", nil)

// Socket wraps one non-blocking file descriptor.
type Socket struct {
	FD int
	IsUDP bool
	IsIPv6 bool
}

// Listen opens, binds and listens on addr for TCP, or just binds for UDP.
func Listen(udp bool, addr netip.AddrPort) (*Socket, error) {
	s, err := newSocket(udp, addr.Addr().Is6())
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(s.FD, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(s.FD)
		return nil, errs.NewConnectionError("setsockopt", err)
	}
	sa := toSockaddr(addr)
	if err := unix.Bind(s.FD, sa); err != nil {
		unix.Close(s.FD)
		return nil, errs.NewConnectionError("bind", err)
	}
	if !udp {
		if err := unix.Listen(s.FD, 128); err != nil {
			unix.Close(s.FD)
			return nil, errs.NewConnectionError("listen", err)
		}
	}
	return s, nil
}

// Connect starts a non-blocking TCP connect. The caller must wait for the
// socket to become writable, then call Error to learn the outcome.
func Connect(addr netip.AddrPort) (*Socket, error) {
	s, err := newSocket(false, addr.Addr().Is6())
	if err != nil {
		return nil, err
	}
	sa := toSockaddr(addr)
	err = unix.Connect(s.FD, sa)
	if err != nil && err != unix.EINPROGRESS {
		unix.Close(s.FD)
		return nil, errs.NewConnectionError("connect", err)
	}
	return s, nil
}

// OpenUDP opens an unconnected (or, if remote is valid, connected) UDP
// socket, used for DNS queries and SNTP requests.
func OpenUDP(remote netip.AddrPort) (*Socket, error) {
	s, err := newSocket(true, remote.Addr().Is6())
	if err != nil {
		return nil, err
	}
	if remote.IsValid() {
		if err := unix.Connect(s.FD, toSockaddr(remote)); err != nil {
			unix.Close(s.FD)
			return nil, errs.NewConnectionError("connect", err)
		}
	}
	return s, nil
}

// Accept accepts one pending connection, or returns ErrWouldBlock.
func Accept(l *Socket) (*Socket, netip.AddrPort, error) {
	fd, sa, err := unix.Accept4(l.FD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err == unix.EAGAIN {
		return nil, netip.AddrPort{}, ErrWouldBlock
	}
	if err != nil {
		return nil, netip.AddrPort{}, errs.NewConnectionError("accept", err)
	}
	return &Socket{FD: fd, IsIPv6: l.IsIPv6}, fromSockaddr(sa), nil
}

// Error returns the pending SO_ERROR on a connecting socket: nil means the
// connect succeeded.
func Error(s *Socket) error {
	errno, err := unix.GetsockoptInt(s.FD, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return errs.NewConnectionError("getsockopt", err)
	}
	if errno != 0 {
		return errs.NewConnectionError("connect", unix.Errno(errno))
	}
	return nil
}

// Send writes p, returning ErrWouldBlock if the socket buffer is full.
func Send(s *Socket, p []byte) (int, error) {
	n, err := unix.Write(s.FD, p)
	if err == unix.EAGAIN {
		return 0, ErrWouldBlock
	}
	if err != nil {
		return n, errs.NewConnectionError("send", err)
	}
	return n, nil
}

// Recv reads into p. A return of (0, nil) means orderly EOF (peer closed);
// ErrWouldBlock means no data is currently available.
func Recv(s *Socket, p []byte) (int, error) {
	n, err := unix.Read(s.FD, p)
	if err == unix.EAGAIN {
		return 0, ErrWouldBlock
	}
	if err != nil {
		return n, errs.NewConnectionError("recv", err)
	}
	return n, nil
}

// LocalAddr returns the address a socket is bound to — the caller's own
// way to learn which ephemeral port Listen(..., port:0) picked.
func LocalAddr(s *Socket) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(s.FD)
	if err != nil {
		return netip.AddrPort{}, errs.NewConnectionError("getsockname", err)
	}
	return fromSockaddr(sa), nil
}

// Close releases the file descriptor. Safe to call at most once.
func Close(s *Socket) error {
	return unix.Close(s.FD)
}

func newSocket(udp, ipv6 bool) (*Socket, error) {
	domain := unix.AF_INET
	if ipv6 {
		domain = unix.AF_INET6
	}
	typ := unix.SOCK_STREAM
	if udp {
		typ = unix.SOCK_DGRAM
	}
	fd, err := unix.Socket(domain, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, errs.NewConnectionError("socket", err)
	}
	return &Socket{FD: fd, IsUDP: udp, IsIPv6: ipv6}, nil
}

func toSockaddr(addr netip.AddrPort) unix.Sockaddr {
	if addr.Addr().Is4() {
		return &unix.SockaddrInet4{Port: int(addr.Port()), Addr: addr.Addr().As4()}
	}
	return &unix.SockaddrInet6{Port: int(addr.Port()), Addr: addr.Addr().As16()}
}

func fromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(v.Addr), uint16(v.Port))
	default:
		return netip.AddrPort{}
	}
}
