package httpproto

import (
	"strconv"
	"strings"

	"github.com/netforge-go/netforge/pkg/errs"
	"github.com/netforge-go/netforge/pkg/reactor"
	"github.com/netforge-go/netforge/pkg/revent"
)

type state struct {
	isResponse bool
	chunkDeleted bool
}

// Wrap installs the HTTP/1.x protocol handler on c.
// isResponse selects request-parsing (server side) or response-parsing
// (client side) start-line grammar for every message c receives.
func Wrap(c *reactor.Conn, isResponse bool) {
	c.SetProtoHandler(handler, &state{isResponse: isResponse})
}

// DeleteChunk tells the protocol handler that the app already consumed the
// chunk data delivered by the HTTPChunk event currently being dispatched
// (e.g. wrote it straight through elsewhere). The HTTPMsg event that follows
// the terminating chunk then carries an empty Body instead of every chunk
// reassembled, for callers that never want the whole entity buffered twice.
func DeleteChunk(c *reactor.Conn) {
	if st, _ := c.ProtoData().(*state); st != nil {
		st.chunkDeleted = true
	}
}

// handler is the protocol-stage Handler installed by Wrap. It only acts on
// Read and Close; every other event passes through untouched to the user
// handler that runs next in the dispatch pipeline.
func handler(c *reactor.Conn, ev revent.Code, data any) {
	st, _ := c.ProtoData().(*state)
	if st == nil {
		return
	}
	switch ev {
	case revent.Read:
		drain(c, st)
	case revent.Close:
		flushUnterminated(c, st)
	}
}

func drain(c *reactor.Conn, st *state) {
	for {
		recv := c.Recv()
		buf := recv.Bytes()
		if len(buf) == 0 {
			return
		}
		hdrLen := GetRequestLen(buf)
		if hdrLen < 0 {
			c.Dispatch(revent.Error, errs.NewProtocolError("http", "malformed request line or header"))
			c.Close()
			return
		}
		if hdrLen == 0 {
			return // header block incomplete, wait for more bytes
		}

		m, err := Parse(buf, st.isResponse)
		if err != nil {
			c.Dispatch(revent.Error, errs.NewProtocolError("http", err.Error()))
			c.Close()
			return
		}

		if strings.EqualFold(m.Header("Transfer-Encoding"), "chunked") {
			if !deliverChunked(c, buf, hdrLen, m, st) {
				return // incomplete chunk stream, wait for more bytes
			}
			continue
		}

		if st.isResponse && m.Header("Content-Length") == "" {
			return // read-until-close: finalized from flushUnterminated at close
		}

		need := hdrLen
		if cl := m.Header("Content-Length"); cl != "" {
			n, _ := strconv.Atoi(strings.TrimSpace(cl)) // validated by Parse
			need += n
		}
		if len(buf) < need {
			return // body incomplete, wait for more bytes
		}
		recv.Delete(0, m.Len())
		c.Dispatch(revent.HTTPMsg, m)
	}
}

// deliverChunked emits one HTTPChunk event per decoded chunk followed by
// one HTTPMsg event for the message. Returns false if the chunk stream is
// not yet complete. m.Body carries every chunk reassembled unless the app
// called DeleteChunk while handling one of the HTTPChunk events, in which
// case it is left empty.
func deliverChunked(c *reactor.Conn, buf []byte, hdrLen int, m *Message, st *state) bool {
	pos := hdrLen
	var chunks []string
	for {
		cr, ok := NextChunk(buf, pos)
		if !ok {
			return false
		}
		pos += cr.Consumed
		if cr.Final {
			break
		}
		chunks = append(chunks, cr.Data)
	}
	st.chunkDeleted = false
	for _, ch := range chunks {
		c.Dispatch(revent.HTTPChunk, ch)
	}
	if !st.chunkDeleted {
		m.Body = strings.Join(chunks, "")
	}
	m.Whole = string(buf[:pos])
	c.Recv().Delete(0, pos)
	c.Dispatch(revent.HTTPMsg, m)
	return true
}

// flushUnterminated handles a response that declared neither Content-Length
// nor chunked encoding: its body is defined as everything up to connection
// close.
func flushUnterminated(c *reactor.Conn, st *state) {
	if !st.isResponse {
		return
	}
	recv := c.Recv()
	buf := recv.Bytes()
	if len(buf) == 0 {
		return
	}
	hdrLen := GetRequestLen(buf)
	if hdrLen <= 0 {
		return
	}
	m, err := Parse(buf, true)
	if err != nil {
		return
	}
	recv.Delete(0, m.Len())
	c.Dispatch(revent.HTTPMsg, m)
}
