// Package netaddr parses the URL grammar and address literals netforge
// accepts everywhere a URL or endpoint is configured: listen, connect,
// SNTP/MQTT server addresses.
package netaddr

import (
	"fmt"
	"net/netip"
)

// Addr is a parsed network endpoint. Port is host-order; this type has no
// network-order (big-endian) encoder of its own.
type Addr struct {
	Port uint16
	IPv4 [4]byte
	IPv6 [16]byte
	IsV6 bool
	IsSet bool // true once an IP literal has been parsed into this Addr
}

// String renders the address in host-log form: "ip:port", brackets for v6.
func (a Addr) String() string {
	if !a.IsSet {
		return fmt.Sprintf(":%d", a.Port)
	}
	if a.IsV6 {
		ip := netip.AddrFrom16(a.IPv6)
		return fmt.Sprintf("[%s]:%d", ip.String(), a.Port)
	}
	ip := netip.AddrFrom4(a.IPv4)
	return fmt.Sprintf("%s:%d", ip.String(), a.Port)
}

// ParseIP parses an IPv4 dotted-quad or IPv6 colon-hex literal (with "::"
// compression, and IPv4-mapped IPv6 accepted) into an Addr's IP fields and
// sets IsSet. The Port field is left for the caller.
func ParseIP(s string) (Addr, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return Addr{}, fmt.Errorf("netaddr: invalid IP literal %q: %w", s, err)
	}
	var a Addr
	a.IsSet = true
	if ip.Is4() || ip.Is4In6() {
		a.IPv4 = ip.As4()
		a.IsV6 = false
	} else {
		a.IPv6 = ip.As16()
		a.IsV6 = true
	}
	return a, nil
}

// NetIP converts back to a netip.Addr, for handing to the socket layer.
func (a Addr) NetIP() netip.Addr {
	if a.IsV6 {
		return netip.AddrFrom16(a.IPv6)
	}
	return netip.AddrFrom4(a.IPv4)
}
