// Package sntp implements an SNTP client engine: 48-byte NTP v4 client
// packet construction/parsing, per-connection rate limiting, and the
// reactor wiring that emits a time event on a valid server response.
package sntp

import (
	"encoding/binary"
	"time"

	"github.com/netforge-go/netforge/pkg/errs"
	"github.com/netforge-go/netforge/pkg/reactor"
	"github.com/netforge-go/netforge/pkg/revent"
)

// epochOffset is the number of seconds between the NTP epoch
// (1900-01-01T00:00:00Z) and the Unix epoch
const epochOffset = 2208988800

// MinInterval is the minimum time between requests on one connection.
const MinInterval = time.Hour

// DefaultServer is the default SNTP server address.
const DefaultServer = "udp://time.google.com:123"

// Time is the result delivered with a time event: UNIX epoch seconds plus
// the sub-second remainder in microseconds.
type Time struct {
	Seconds int64
	Microseconds int64
}

// packetSize is the fixed SNTP/NTPv4 client packet length.
const packetSize = 48

// BuildRequest constructs a 48-byte NTP v4 client request packet. The
// transmit timestamp field is stamped from now so a pedantic server can
// echo it back, though this client does not itself validate the echo.
func BuildRequest(now time.Time) []byte {
	pkt := make([]byte, packetSize)
	// LI=0 (no warning), VN=4, Mode=3 (client): 0b00_100_011 = 0x23.
	pkt[0] = 0x23
	sec := uint32(now.Unix() + epochOffset)
	frac := uint32((uint64(now.Nanosecond()) << 32) / 1e9)
	binary.BigEndian.PutUint32(pkt[40:44], sec)
	binary.BigEndian.PutUint32(pkt[44:48], frac)
	return pkt
}

// ParseResponse validates and decodes a server response packet, returning
// the transmit timestamp converted from NTP to UNIX epoch. ok is false if
// data is not a well-formed 48-byte NTP packet.
func ParseResponse(data []byte) (Time, bool) {
	if len(data) < packetSize {
		return Time{}, false
	}
	mode := data[0] & 0x7
	if mode != 4 && mode != 5 { // server or broadcast mode
		return Time{}, false
	}
	sec := binary.BigEndian.Uint32(data[40:44])
	frac := binary.BigEndian.Uint32(data[44:48])
	// The 32-bit seconds field wraps in 2036 (NTP era 1); a value below the
	// Unix offset is read as era 1, covering times up to 2106-02-07.
	unixSec := int64(sec) - epochOffset
	if sec < epochOffset {
		unixSec += 1 << 32
	}
	micros := (int64(frac) * 1_000_000) >> 32
	return Time{Seconds: unixSec, Microseconds: micros}, true
}

// state is the per-connection protocol data tracking the rate limit.
type state struct {
	lastSent time.Time
}

// Wrap installs the SNTP protocol handler on a connected UDP connection to
// an SNTP/NTP server.
func Wrap(c *reactor.Conn) {
	c.SetProtoHandler(handler, &state{})
}

// Send issues a request if at least MinInterval has elapsed since the
// previous one on this connection (or none was ever sent). Returns false
// if rate-limited.
func Send(c *reactor.Conn, now time.Time) bool {
	st, _ := c.ProtoData().(*state)
	if st == nil {
		st = &state{}
		c.SetProtoHandler(handler, st)
	}
	if !st.lastSent.IsZero() && now.Sub(st.lastSent) < MinInterval {
		return false
	}
	st.lastSent = now
	c.Send().Append(BuildRequest(now))
	return true
}

func handler(c *reactor.Conn, ev revent.Code, data any) {
	if ev != revent.Read {
		return
	}
	recv := c.Recv()
	buf := recv.Bytes()
	if len(buf) < packetSize {
		return
	}
	t, ok := ParseResponse(buf)
	recv.Delete(0, packetSize)
	if !ok {
		c.Dispatch(revent.Error, errMalformed)
		return
	}
	c.Dispatch(revent.SNTPTime, t)
}

var errMalformed = errs.NewProtocolError("sntp", "malformed response packet")
