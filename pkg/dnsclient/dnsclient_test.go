package dnsclient

import (
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func TestBuildQueryAndParseResponse(t *testing.T) {
	r := NewResolver("", 0)
	p, wire, err := r.BuildQuery("example.com", false, time.Now())
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}

	q := new(dns.Msg)
	if err := q.Unpack(wire); err != nil {
		t.Fatalf("unpack query: %v", err)
	}
	if q.Id != p.TxID {
		t.Fatalf("tx id mismatch")
	}

	resp := new(dns.Msg)
	resp.SetReply(q)
	resp.Answer = append(resp.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: q.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A: net.IPv4(93, 184, 216, 34),
	})
	respWire, err := resp.Pack()
	if err != nil {
		t.Fatalf("pack response: %v", err)
	}

	ip, matched, err := r.ParseResponse(p, respWire)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !matched {
		t.Fatalf("expected matched response")
	}
	if !ip.Equal(net.IPv4(93, 184, 216, 34)) {
		t.Fatalf("got %v", ip)
	}
}

func TestParseResponseMismatchedTxID(t *testing.T) {
	r := NewResolver("", 0)
	p, _, _ := r.BuildQuery("example.com", false, time.Now())

	q := new(dns.Msg)
	q.Id = p.TxID + 1
	q.SetQuestion(dns.Fqdn("example.com"), dns.TypeA)
	resp := new(dns.Msg)
	resp.SetReply(q)
	wire, _ := resp.Pack()

	_, matched, err := r.ParseResponse(p, wire)
	if err != nil || matched {
		t.Fatalf("expected unmatched, non-error response for a stray tx id")
	}
}

func TestParseResponseMalformedIgnored(t *testing.T) {
	r := NewResolver("", 0)
	p, _, _ := r.BuildQuery("example.com", false, time.Now())

	_, matched, err := r.ParseResponse(p, []byte{0x01, 0x02})
	if err != nil || matched {
		t.Fatalf("expected malformed response to be silently ignored")
	}
}

func TestExpired(t *testing.T) {
	r := NewResolver("", 10*time.Millisecond)
	p, _, _ := r.BuildQuery("example.com", false, time.Now())
	if p.Expired(time.Now()) {
		t.Fatalf("should not be expired immediately")
	}
	if !p.Expired(time.Now().Add(20 * time.Millisecond)) {
		t.Fatalf("should be expired after timeout")
	}
}

func TestAAAAQuery(t *testing.T) {
	r := NewResolver("", 0)
	_, wire, err := r.BuildQuery("example.com", true, time.Now())
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	q := new(dns.Msg)
	if err := q.Unpack(wire); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if q.Question[0].Qtype != dns.TypeAAAA {
		t.Fatalf("expected AAAA query")
	}
}
