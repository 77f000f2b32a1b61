// Package httpproto implements an HTTP/1.x parser and encoder: a
// request-length probe, full message parse into string fields,
// chunked transfer, multipart, response helpers, credential extraction,
// static serving, and glob URI matching.
package httpproto

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxHeaders bounds how many headers Parse keeps; extras are silently
// dropped.
const MaxHeaders = 40

// Header is one parsed header field, copied from the original bytes.
type Header struct {
	Name string
	Value string
}

// Message is a parsed HTTP request or response. Every string field holds a
// copy of the bytes it was parsed from (Go's string-from-byte-slice
// conversion copies), so a Message stays valid after the buffer Parse was
// called on is mutated, e.g. by a connection's recv.Append/Delete.
type Message struct {
	Method string // empty for a response
	URI string
	Query string // the part after '?', empty if none
	Proto string // "HTTP/1.1", "HTTP/1.0",...
	Status int // 0 for a request
	Reason string // status reason phrase, response only
	Headers []Header
	Body string
	Whole string // the full message, header block + body
}

// Header looks up the first header matching name, case-insensitively.
func (m *Message) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// GetRequestLen scans data for the header block's terminating blank line
// and returns its byte length (the offset immediately after it), 0 if the
// header block is not yet complete, or -1 if it is malformed: a control
// character (other than horizontal tab) appears before the terminator.
// Both CRLF and bare-LF line endings are accepted.
func GetRequestLen(data []byte) int {
	// Reject embedded NUL/control bytes up to the header terminator, with
	// CR (0x0d) and LF (0x0a) and TAB (0x09) excepted as line-structure
	// bytes.
	for i, b := range data {
		if b < 0x20 && b != '\r' && b != '\n' && b != '\t' {
			return -1
		}
		if i > 0 && data[i-1] == '\n' && b == '\n' {
			return i + 1
		}
		if i >= 3 && data[i-3] == '\r' && data[i-2] == '\n' && data[i-1] == '\r' && b == '\n' {
			return i + 1
		}
	}
	return 0
}

// Parse fully parses the header block of data (which must already satisfy
// GetRequestLen > 0) plus the body per Content-Length, populating a
// Message whose fields are copies of data. isResponse selects request vs.
// response start-line grammar.
func Parse(data []byte, isResponse bool) (*Message, error) {
	hdrLen := GetRequestLen(data)
	if hdrLen <= 0 {
		return nil, errMalformed("incomplete or malformed header block")
	}
	s := string(data[:hdrLen])
	lines := splitLines(s)
	if len(lines) == 0 {
		return nil, errMalformed("empty start line")
	}

	m := &Message{}
	if isResponse {
		if err := parseStatusLine(lines[0], m); err != nil {
			return nil, err
		}
	} else {
		if err := parseRequestLine(lines[0], m); err != nil {
			return nil, err
		}
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		if len(m.Headers) >= MaxHeaders {
			continue // extra headers silently dropped
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, errMalformed("malformed header line")
		}
		name := line[:i]
		for _, c := range name {
			if c < 0x21 || c == ':' {
				return nil, errMalformed("invalid header name")
			}
		}
		value := strings.TrimSpace(line[i+1:])
		m.Headers = append(m.Headers, Header{Name: name, Value: value})
	}

	bodyLen := 0
	if cl := m.Header("Content-Length"); cl != "" {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return nil, errMalformed("invalid Content-Length")
		}
		bodyLen = n
	} else if isResponse {
		bodyLen = len(data) - hdrLen // response without length: to end-of-connection
	}
	if !strings.EqualFold(m.Header("Transfer-Encoding"), "chunked") {
		end := hdrLen + bodyLen
		if end > len(data) {
			end = len(data)
		}
		m.Body = string(data[hdrLen:end])
	}
	end := hdrLen + bodyLen
	if end > len(data) {
		end = len(data)
	}
	m.Whole = string(data[:end])
	return m, nil
}

// Len returns the total byte length of m.Whole, for deleting a fully
// parsed message from a connection's recv buffer.
func (m *Message) Len() int { return len(m.Whole) }

func parseRequestLine(line string, m *Message) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return errMalformed("malformed request line")
	}
	m.Method = parts[0]
	target := parts[1]
	m.Proto = parts[2]
	if i := strings.IndexByte(target, '?'); i >= 0 {
		m.URI = target[:i]
		m.Query = target[i+1:]
	} else {
		m.URI = target
	}
	return nil
}

func parseStatusLine(line string, m *Message) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return errMalformed("malformed status line")
	}
	m.Proto = parts[0]
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return errMalformed("malformed status code")
	}
	m.Status = code
	if len(parts) == 3 {
		m.Reason = parts[2]
	}
	return nil
}

// splitLines splits s on CRLF or LF, dropping a trailing blank entry from
// the terminating blank line.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\r\n")
	raw := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return raw
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return fmt.Sprintf("httpproto: %s", e.msg) }

func errMalformed(msg string) error { return &parseError{msg} }
