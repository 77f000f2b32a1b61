package websocket

import (
	"fmt"
	"strings"

	"github.com/netforge-go/netforge/pkg/httpproto"
	"github.com/netforge-go/netforge/pkg/reactor"
	"github.com/netforge-go/netforge/pkg/revent"
)

type state struct {
	isClient bool
}

// UpgradeServer completes the server side of a WebSocket handshake on an
// HTTP connection that just received a request carrying a
// Sec-WebSocket-Key header: it queues the 101 response, switches c's
// protocol handler from HTTP framing to WS framing, and marks c upgraded.
func UpgradeServer(c *reactor.Conn, key string, extra map[string]string) {
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Accept: %s\r\n", Accept(key))
	for k, v := range extra {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	c.Send().Append([]byte(b.String()))

	c.MarkWebSocketUpgraded()
	c.SetProtoHandler(handler, &state{isClient: false})
	c.Dispatch(revent.WSOpen, nil)
}

// BuildClientRequest returns the Sec-WebSocket-Key this handshake uses and
// the raw HTTP GET request bytes to send over an already-connected conn,
// client handshake.
func BuildClientRequest(uri, host string, extra map[string]string) (key string, request []byte) {
	key = NewClientKey()
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", uri)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\n", key)
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	for k, v := range extra {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	return key, []byte(b.String())
}

// CompleteClientUpgrade verifies resp is a valid 101 response to the
// handshake that used key, and if so switches c to WS framing and emits
// a WS open event.
func CompleteClientUpgrade(c *reactor.Conn, resp *httpproto.Message, key string) bool {
	if resp.Status != 101 {
		return false
	}
	if resp.Header("Sec-WebSocket-Accept") != Accept(key) {
		return false
	}
	c.MarkWebSocketUpgraded()
	c.SetProtoHandler(handler, &state{isClient: true})
	c.Dispatch(revent.WSOpen, nil)
	return true
}

// handler is the protocol-stage Handler for a WS-upgraded connection. It
// decodes every complete frame in recv, dispatching a control event for
// control frames and a message event for data frames. A close frame gets
// an automatic matching close reply, then the connection is marked
// draining.
func handler(c *reactor.Conn, ev revent.Code, data any) {
	if ev != revent.Read {
		return
	}
	st, _ := c.ProtoData().(*state)
	if st == nil {
		return
	}
	for {
		recv := c.Recv()
		buf := recv.Bytes()
		fr, n, ok := Parse(buf)
		if !ok {
			return
		}
		recv.Delete(0, n)
		if fr.Opcode.IsControl() {
			if fr.Opcode == OpClose {
				Send(c, fr.Data, OpClose, st.isClient)
				c.Drain()
			}
			c.Dispatch(revent.WSCtl, fr)
		} else {
			c.Dispatch(revent.WSMsg, fr)
		}
	}
}

// Send builds a single frame for data/op and appends it to c's send
// buffer, masking it if isClient.
func Send(c *reactor.Conn, data string, op Opcode, isClient bool) {
	c.Send().Append(Build(data, op, true, isClient))
}

// Wrap wraps the last nbytes already appended to c's send buffer in place
// as a single WS frame — the tunneling helper that lets another protocol
// engine (e.g. httpproto) write raw bytes and have them retroactively
// framed for transport over this WebSocket.
func Wrap(c *reactor.Conn, nbytes int, op Opcode, isClient bool) {
	send := c.Send()
	raw := send.Bytes()
	if nbytes > len(raw) {
		nbytes = len(raw)
	}
	offset := len(raw) - nbytes
	payload := string(raw[offset:])
	send.Delete(offset, nbytes)
	send.Append(Build(payload, op, true, isClient))
}
