//go:build unix

package sockdriver

import (
	"net/netip"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func localAddr(s *Socket) netip.AddrPort {
	sa, err := unix.Getsockname(s.FD)
	if err != nil {
		panic(err)
	}
	return fromSockaddr(sa)
}

func TestPipeWakeup(t *testing.T) {
	p, err := NewPipe()
	if err != nil {
		t.Fatalf("NewPipe: %v", err)
	}
	defer p.Close()

	if err := p.Wakeup(); err != nil {
		t.Fatalf("Wakeup: %v", err)
	}

	var w Waiter
	w.Add(p.ReadSocket(), true, false)
	gotReady := false
	if err := w.Wait(100, func(s *Socket, r Readiness) {
		if r.Readable {
			gotReady = true
			p.Drain()
		}
	}); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !gotReady {
		t.Fatalf("expected read-end to be readable after Wakeup")
	}
}

func TestListenConnectAcceptEcho(t *testing.T) {
	loopback := netip.MustParseAddr("127.0.0.1")
	ln, err := Listen(false, netip.AddrPortFrom(loopback, 0))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer Close(ln)

	addr := localAddr(ln)

	cli, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer Close(cli)

	// Give the non-blocking connect + accept a few passes to settle.
	var srv *Socket
	deadline := time.Now().Add(2 * time.Second)
	for srv == nil && time.Now().Before(deadline) {
		s, _, err := Accept(ln)
		if err == ErrWouldBlock {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		srv = s
	}
	if srv == nil {
		t.Fatalf("never accepted connection")
	}
	defer Close(srv)

	if err := Error(cli); err != nil {
		t.Fatalf("client connect failed: %v", err)
	}

	msg := []byte("abc")
	for {
		_, err := Send(cli, msg)
		if err == ErrWouldBlock {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		break
	}

	buf := make([]byte, 16)
	var n int
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err = Recv(srv, buf)
		if err == ErrWouldBlock {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		break
	}
	if string(buf[:n]) != "abc" {
		t.Fatalf("got %q want %q", buf[:n], "abc")
	}
}
