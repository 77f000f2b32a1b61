// Package dnsclient implements a non-blocking DNS resolution state machine.
// Wire encoding/decoding of DNS messages is delegated to
// github.com/miekg/dns; query ids, response matching and deadlines are
// hand-built here, driven once per poll step by the reactor. Each lookup
// sends one query; a query that times out is not retried.
package dnsclient

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/netforge-go/netforge/pkg/errs"
)

// Pending tracks one outstanding query, keyed by the 16-bit transaction id
// used to match a response to its request.
type Pending struct {
	TxID uint16
	Host string
	WantV6 bool
	Deadline time.Time
}

// Resolver builds and parses A/AAAA query/response pairs. It does not own a
// socket or a timer: the reactor owns those and calls into Resolver once
// per poll for each resolving connection.
type Resolver struct {
	Server string // "ip:port" of the configured resolver
	Timeout time.Duration
}

// NewResolver returns a Resolver pointed at server (default
// "8.8.8.8:53") with the given timeout (default 3s).
func NewResolver(server string, timeout time.Duration) *Resolver {
	if server == "" {
		server = "8.8.8.8:53"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{Server: server, Timeout: timeout}
}

// BuildQuery returns a new Pending and its wire-encoded query message. An
// AAAA query is only sent if IPv6 is enabled and the host wasn't already an
// IP literal — the caller decides wantV6 from that policy, not Resolver.
func (r *Resolver) BuildQuery(host string, wantV6 bool, now time.Time) (*Pending, []byte, error) {
	qtype := dns.TypeA
	if wantV6 {
		qtype = dns.TypeAAAA
	}

	m := new(dns.Msg)
	m.Id = uint16(rand.Intn(1 << 16))
	m.RecursionDesired = true
	m.Question = []dns.Question{{Name: dns.Fqdn(host), Qtype: uint16(qtype), Qclass: dns.ClassINET}}

	wire, err := m.Pack()
	if err != nil {
		return nil, nil, errs.NewDNSError(host, err)
	}

	p := &Pending{TxID: m.Id, Host: host, WantV6: wantV6, Deadline: now.Add(r.Timeout)}
	return p, wire, nil
}

// ParseResponse matches wire against p.TxID and extracts the first A/AAAA
// answer. A malformed response is treated as no answer: the caller sees
// (nil, false, nil) and keeps waiting for the timeout.
func (r *Resolver) ParseResponse(p *Pending, wire []byte) (ip net.IP, matched bool, err error) {
	m := new(dns.Msg)
	if uerr := m.Unpack(wire); uerr != nil {
		return nil, false, nil // malformed: treated as no answer
	}
	if m.Id != p.TxID {
		return nil, false, nil // stray reply for a different query
	}
	if m.Rcode == dns.RcodeNameError {
		return nil, true, errs.NewDNSError(p.Host, fmt.Errorf("NXDOMAIN"))
	}
	for _, rr := range m.Answer {
		switch v := rr.(type) {
		case *dns.A:
			return v.A, true, nil
		case *dns.AAAA:
			return v.AAAA, true, nil
		}
	}
	return nil, true, errs.NewDNSError(p.Host, fmt.Errorf("no A/AAAA records in answer"))
}

// PeekTxID extracts the transaction id from a raw response without
// matching it against any particular Pending, so a manager sharing one UDP
// socket across many outstanding queries can route the datagram to the
// right connection before calling ParseResponse.
func PeekTxID(wire []byte) (uint16, bool) {
	m := new(dns.Msg)
	if err := m.Unpack(wire); err != nil {
		return 0, false
	}
	return m.Id, true
}

// Expired reports whether p's deadline has passed as of now.
func (p *Pending) Expired(now time.Time) bool {
	return now.After(p.Deadline)
}
