//go:build unix

package reactor

import (
	"net"
	"net/netip"

	"github.com/netforge-go/netforge/pkg/netaddr"
	"github.com/netforge-go/netforge/pkg/tlsdriver"
)

func addrFromAddrPort(ap netip.AddrPort) netaddr.Addr {
	var a netaddr.Addr
	a.IsSet = true
	a.Port = ap.Port()
	ip := ap.Addr()
	if ip.Is4() || ip.Is4In6() {
		a.IPv4 = ip.As4()
	} else {
		a.IsV6 = true
		a.IPv6 = ip.As16()
	}
	return a
}

func addrFromIP(ip net.IP, port uint16) (netaddr.Addr, error) {
	nip, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netaddr.Addr{}, errNoIP
	}
	nip = nip.Unmap()
	var a netaddr.Addr
	a.IsSet = true
	a.Port = port
	if nip.Is4() {
		a.IPv4 = nip.As4()
	} else {
		a.IsV6 = true
		a.IPv6 = nip.As16()
	}
	return a, nil
}

var errNoIP = &addrError{"dns answer has no usable address"}
var errNoSocket = &addrError{"connection has no underlying socket"}

type addrError struct{ msg string }

func (e *addrError) Error() string { return e.msg }

func newTLSDriver(o tlsdriver.Opts) (*tlsdriver.Driver, error) {
	return tlsdriver.New(o)
}
