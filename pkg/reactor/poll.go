//go:build unix

package reactor

import (
	"time"

	"github.com/netforge-go/netforge/pkg/dnsclient"
	"github.com/netforge-go/netforge/pkg/errs"
	"github.com/netforge-go/netforge/pkg/revent"
	"github.com/netforge-go/netforge/pkg/sockdriver"
	"github.com/netforge-go/netforge/pkg/tlsdriver"
)

// dnsRecvBuf is sized for any A/AAAA UDP response; DNS over UDP is
// practically bounded well under this.
const dnsRecvBuf = 1500

func (m *Manager) startConnect(c *Conn) error {
	if c.flags.has(flagUDP) {
		sock, err := sockdriver.OpenUDP(toAddrPort(c.connectAddr))
		if err != nil {
			return err
		}
		c.sock = sock
		// UDP "connect" has no handshake to wait for: it's writable (and
		// considered connected) immediately.
		c.flags |= flagConnecting
		return nil
	}
	sock, err := sockdriver.Connect(toAddrPort(c.connectAddr))
	if err != nil {
		return err
	}
	c.sock = sock
	c.flags |= flagConnecting
	return nil
}

func (m *Manager) startResolve(c *Conn) error {
	if m.dnsSock == nil {
		sock, err := sockdriver.OpenUDP(toAddrPort(m.dnsServer))
		if err != nil {
			return err
		}
		m.dnsSock = sock
	}
	p, wire, err := m.resolver.BuildQuery(c.dnsHost, c.dnsWantV6, time.Now())
	if err != nil {
		return err
	}
	if _, err := sockdriver.Send(m.dnsSock, wire); err != nil && err != sockdriver.ErrWouldBlock {
		return err
	}
	c.dnsPending = p
	m.dnsByTx[p.TxID] = c
	return nil
}

// handleDNSReadable drains every pending UDP datagram on the shared
// resolver socket and routes each to the connection whose tx_id matches.
func (m *Manager) handleDNSReadable() {
	var buf [dnsRecvBuf]byte
	for {
		n, err := sockdriver.Recv(m.dnsSock, buf[:])
		if err == sockdriver.ErrWouldBlock || n == 0 {
			return
		}
		if err != nil {
			return
		}
		txID, ok := dnsclient.PeekTxID(buf[:n])
		if !ok {
			continue // malformed: ignored, the pending query still times out
		}
		c, ok := m.dnsByTx[txID]
		if !ok {
			continue // stray reply, no connection is waiting on this tx_id
		}
		resolvedIP, _, rerr := m.resolver.ParseResponse(c.dnsPending, buf[:n])
		delete(m.dnsByTx, txID)
		c.dnsPending = nil
		c.flags &^= flagResolving
		if rerr != nil {
			c.emitFatal(rerr)
			continue
		}
		addr, aerr := addrFromIP(resolvedIP, c.connectPort)
		if aerr != nil {
			c.emitFatal(errs.NewDNSError(c.dnsHost, aerr))
			continue
		}
		c.connectAddr = addr
		if err := m.startConnect(c); err != nil {
			c.emitFatal(err)
		}
	}
}

// Poll runs one reactor step ms bounds how long it may
// block waiting for readiness (0 = return immediately, negative = forever).
func (m *Manager) Poll(ms int) error {
	now := time.Now()
	m.timers.Poll(now.UnixMilli())

	m.waiter.Reset()
	bySock := make(map[*sockdriver.Socket]*Conn)

	if len(m.dnsByTx) > 0 && m.dnsSock != nil {
		m.waiter.Add(m.dnsSock, true, false)
	}

	for c := m.head; c != nil; c = c.next {
		if c.isPipe {
			bySock[c.pipe.ReadSocket()] = c
			m.waiter.Add(c.pipe.ReadSocket(), true, false)
			continue
		}
		if c.sock == nil {
			continue
		}
		bySock[c.sock] = c
		wantRead, wantWrite := m.wantsFor(c)
		if wantRead || wantWrite {
			m.waiter.Add(c.sock, wantRead, wantWrite)
		}
	}

	if err := m.waiter.Wait(ms, func(s *sockdriver.Socket, r sockdriver.Readiness) {
		if s == m.dnsSock {
			if r.Readable {
				m.handleDNSReadable()
			}
			return
		}
		c, ok := bySock[s]
		if !ok {
			return
		}
		if r.Readable {
			c.flags |= flagReadable
		}
		if r.Writable {
			c.flags |= flagWritable
		}
	}); err != nil {
		return err
	}

	for c := m.head; c != nil; c = c.next {
		if c.isPipe {
			m.stepPipe(c)
			continue
		}
		m.stepConn(c, now)
	}

	m.sweepClosed()
	m.lastPollAt = now
	return nil
}

// wantsFor decides the readiness a connection needs registered this step.
func (m *Manager) wantsFor(c *Conn) (wantRead, wantWrite bool) {
	switch {
	case c.flags.has(flagListening):
		return true, false
	case c.flags.has(flagConnecting):
		return false, true
	case c.flags.has(flagTLSHandshake):
		return true, true
	default:
		return true, c.send.Len() > 0
	}
}

func (m *Manager) stepPipe(c *Conn) {
	if !c.flags.has(flagReadable) {
		return
	}
	c.flags &^= flagReadable
	c.pipe.Drain()
	c.dispatch(revent.Read, 1)
}

// stepConn drives one connection through the per-step lifecycle:
// DNS timeout, connect completion, TLS handshake, accept, read, write, poll event.
func (m *Manager) stepConn(c *Conn, now time.Time) {
	defer func() {
		c.flags &^= flagReadable | flagWritable
	}()

	// (a) advance DNS timeout (the response itself was already routed to
	// this connection by handleDNSReadable, above the per-connection loop).
	if c.flags.has(flagResolving) {
		if c.dnsPending != nil && c.dnsPending.Expired(now) {
			delete(m.dnsByTx, c.dnsPending.TxID)
			c.dnsPending = nil
			c.flags &^= flagResolving
			c.emitFatal(errs.NewDNSTimeout(c.dnsHost))
		}
		return
	}

	// (b) connect completion.
	if c.flags.has(flagConnecting) {
		if !c.flags.has(flagWritable) {
			return
		}
		if err := sockdriver.Error(c.sock); err != nil {
			c.flags &^= flagConnecting
			c.emitFatal(err)
			return
		}
		c.flags &^= flagConnecting
		if c.tlsWantTLS {
			drv, derr := newTLSDriver(c.tlsOpts)
			if derr != nil {
				c.emitFatal(derr)
				return
			}
			c.tls = drv
			c.flags |= flagTLSHandshake
		}
		c.dispatch(revent.Connect, nil)
		if !c.flags.has(flagTLSHandshake) {
			return
		}
	}

	// (c) TLS handshake stepping.
	if c.flags.has(flagTLSHandshake) {
		m.stepHandshake(c)
		if c.flags.has(flagClosing) {
			return
		}
		if c.flags.has(flagTLSHandshake) {
			return // still handshaking; no app-level read/write this step
		}
	}

	// (d) accept.
	if c.flags.has(flagListening) {
		if c.flags.has(flagReadable) {
			m.acceptOne(c)
		}
		c.dispatch(revent.Poll, int(now.Sub(m.lastPollAt).Milliseconds()))
		return
	}

	// (e) read.
	if c.flags.has(flagReadable) {
		m.readConn(c)
		if c.flags.has(flagClosing) && c.send.Len() == 0 {
			return
		}
	}

	// (f) write.
	if c.send.Len() > 0 && c.flags.has(flagWritable) {
		m.writeConn(c)
	}

	// (g) poll event.
	c.dispatch(revent.Poll, int(now.Sub(m.lastPollAt).Milliseconds()))

	// is_draining -> is_closing once fully flushed.
	if c.flags.has(flagDraining) && c.send.Len() == 0 {
		c.flags |= flagClosing
	}
}

func (m *Manager) stepHandshake(c *Conn) {
	if c.flags.has(flagReadable) {
		var buf [DefaultIOSize]byte
		for {
			n, err := sockdriver.Recv(c.sock, buf[:])
			if err == sockdriver.ErrWouldBlock {
				break
			}
			if err != nil {
				c.emitFatal(err)
				return
			}
			if n == 0 {
				c.emitFatal(errs.NewConnectionError("recv", nil))
				return
			}
			c.tls.Feed(buf[:n])
		}
	}
	step, err := c.tls.Handshake()
	if out := c.tls.Pending(); len(out) > 0 {
		if _, werr := sockdriver.Send(c.sock, out); werr != nil && werr != sockdriver.ErrWouldBlock {
			c.emitFatal(werr)
			return
		}
	}
	switch step {
	case tlsdriver.HandshakeError:
		c.emitFatal(err)
	case tlsdriver.Done:
		c.flags &^= flagTLSHandshake
	default:
		// NeedRead/NeedWrite: wait for the next readiness signal.
	}
}

func (m *Manager) acceptOne(c *Conn) {
	sock, peerAP, err := sockdriver.Accept(c.sock)
	if err == sockdriver.ErrWouldBlock {
		return
	}
	if err != nil {
		c.emitError(err)
		return
	}
	nc := m.newConn()
	nc.sock = sock
	nc.flags |= flagAccepted
	nc.userHandler = c.userHandler
	nc.userData = c.userData
	nc.peer = addrFromAddrPort(peerAP)
	if c.flags.has(flagTLS) {
		drv, derr := newTLSDriver(c.tlsOpts)
		if derr == nil {
			nc.tls = drv
			nc.flags |= flagTLS | flagTLSHandshake
			nc.tlsOpts = c.tlsOpts
		}
	}
	m.link(nc)
	nc.dispatch(revent.Accept, nil)
}

func (m *Manager) readConn(c *Conn) {
	var buf [DefaultIOSize]byte
	total := 0
	for {
		var n int
		var err error
		if c.flags.has(flagTLS) && !c.flags.has(flagTLSHandshake) {
			n, err = c.tls.Read(buf[:])
		} else {
			n, err = sockdriver.Recv(c.sock, buf[:])
		}
		if err == sockdriver.ErrWouldBlock {
			break
		}
		if err != nil {
			c.emitFatal(err)
			return
		}
		if n == 0 {
			if c.flags.has(flagUDP) {
				break // empty datagram, not a close signal
			}
			// Orderly peer close: exactly one close event, no spurious read.
			c.flags |= flagClosing
			return
		}
		c.recv.Append(buf[:n])
		total += n
		if c.recv.Len() > m.cfg.MaxRecvBuf {
			c.emitFatal(errs.NewResourceError("recv", "max receive buffer size exceeded"))
			return
		}
		if n < len(buf) {
			break // short read: socket buffer drained for now
		}
	}
	if total > 0 {
		c.dispatch(revent.Read, total)
	}
}

func (m *Manager) writeConn(c *Conn) {
	data := c.send.Bytes()
	var n int
	var err error
	if c.flags.has(flagTLS) {
		n, err = c.tls.Write(data)
		if err == nil {
			if out := c.tls.Pending(); len(out) > 0 {
				if _, werr := sockdriver.Send(c.sock, out); werr != nil && werr != sockdriver.ErrWouldBlock {
					c.emitFatal(werr)
					return
				}
			}
		}
	} else {
		n, err = sockdriver.Send(c.sock, data)
	}
	if err == sockdriver.ErrWouldBlock {
		return
	}
	if err != nil {
		c.emitFatal(err)
		return
	}
	if n > 0 {
		c.send.Delete(0, n)
		c.dispatch(revent.Write, n)
	}
}

// sweepClosed frees every connection marked for closing, delivering its
// close event first. Never run while a handler for that connection is on
// the call stack.
func (m *Manager) sweepClosed() {
	c := m.head
	for c != nil {
		next := c.next
		if c.flags.has(flagClosing) {
			c.dispatch(revent.Close, nil)
			m.destroySocket(c)
			if c.dnsPending != nil {
				delete(m.dnsByTx, c.dnsPending.TxID)
			}
			m.unlink(c)
		}
		c = next
	}
}
