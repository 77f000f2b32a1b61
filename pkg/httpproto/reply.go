package httpproto

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/netforge-go/netforge/pkg/iobuf"
)

// Reply queues a complete HTTP response onto send: a status line, the
// given headers, and body. It always sets Content-Length itself, so
// callers must not pass their own Content-Length header.
func Reply(send *iobuf.Buffer, status int, headers map[string]string, body string) {
	var b strings.Builder
	reason := http.StatusText(status)
	if reason == "" {
		reason = "OK"
	}
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, reason)
	for k, v := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(body))
	b.WriteString(body)
	send.Append([]byte(b.String()))
}

// WriteChunk queues one chunk of a "Transfer-Encoding: chunked" response.
// Call with an empty chunk to emit the terminating 0-length chunk.
func WriteChunk(send *iobuf.Buffer, chunk string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%x\r\n", len(chunk))
	b.WriteString(chunk)
	b.WriteString("\r\n")
	send.Append([]byte(b.String()))
}

// PrintfChunk formats per format/args and queues the result as one chunk.
func PrintfChunk(send *iobuf.Buffer, format string, args...any) {
	WriteChunk(send, fmt.Sprintf(format, args...))
}

// ReplyChunkedHeader queues the status line and headers for a chunked
// response, without a Content-Length, and with Transfer-Encoding: chunked
// forced on. Follow with one or more WriteChunk calls and a final empty
// WriteChunk.
func ReplyChunkedHeader(send *iobuf.Buffer, status int, headers map[string]string) {
	var b strings.Builder
	reason := http.StatusText(status)
	if reason == "" {
		reason = "OK"
	}
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, reason)
	for k, v := range headers {
		if strings.EqualFold(k, "Transfer-Encoding") || strings.EqualFold(k, "Content-Length") {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("Transfer-Encoding: chunked\r\n\r\n")
	send.Append([]byte(b.String()))
}
