package tlsdriver

import (
	"errors"
	"net"
	"os"
	"time"
)

// errStall is the sentinel memConn.Read returns when no inbound bytes have
// been staged yet. tls.Conn.Handshake/Read surface it as a plain I/O error;
// Driver distinguishes "stalled, need more ciphertext" from a genuine TLS
// failure by inspecting the adapter's buffered state right after.
var errStall = errors.New("tlsdriver: no data staged")

// memConn adapts the reactor's feed/drain model to the net.Conn interface
// crypto/tls.Conn requires, without ever touching a real socket: the
// reactor is the one doing non-blocking I/O, this type only shuttles bytes
// between the TLS state machine and the connection's send/recv buffers.
type memConn struct {
	in []byte
	out []byte
	readBlocked bool
}

func newMemConn() *memConn {
	return &memConn{}
}

func (c *memConn) feedIn(p []byte) {
	c.in = append(c.in, p...)
}

func (c *memConn) drainOut() []byte {
	out := c.out
	c.out = nil
	return out
}

func (c *memConn) wantsRead() bool { return c.readBlocked && len(c.in) == 0 }
func (c *memConn) wantsWrite() bool { return len(c.out) > 0 }

func (c *memConn) Read(p []byte) (int, error) {
	if len(c.in) == 0 {
		c.readBlocked = true
		return 0, errStall
	}
	c.readBlocked = false
	n := copy(p, c.in)
	c.in = c.in[n:]
	return n, nil
}

func (c *memConn) Write(p []byte) (int, error) {
	c.out = append(c.out, p...)
	return len(p), nil
}

func (c *memConn) Close() error { return nil }
func (c *memConn) LocalAddr() net.Addr { return memAddr{} }
func (c *memConn) RemoteAddr() net.Addr { return memAddr{} }
func (c *memConn) SetDeadline(time.Time) error { return nil }
func (c *memConn) SetReadDeadline(time.Time) error { return nil }
func (c *memConn) SetWriteDeadline(time.Time) error { return nil }

type memAddr struct{}

func (memAddr) Network() string { return "mem" }
func (memAddr) String() string { return "mem" }

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
