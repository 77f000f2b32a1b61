package httpproto

import "testing"

func TestGetRequestLenIncomplete(t *testing.T) {
	if n := GetRequestLen([]byte("GET / HTTP/1.1\r\nHost: h\r\n")); n != 0 {
		t.Fatalf("got %d, want 0 (incomplete)", n)
	}
}

func TestGetRequestLenComplete(t *testing.T) {
	data := []byte("GET / HTTP/1.1\r\nHost: h\r\n\r\n")
	if n := GetRequestLen(data); n != len(data) {
		t.Fatalf("got %d, want %d", n, len(data))
	}
}

func TestGetRequestLenMalformed(t *testing.T) {
	if n := GetRequestLen([]byte("GET / HTTP/1.1\r\nHo\x00st: h\r\n\r\n")); n != -1 {
		t.Fatalf("got %d, want -1 (malformed)", n)
	}
}

func TestParseRequestWithQuery(t *testing.T) {
	data := []byte("GET /x?y=1 HTTP/1.1\r\nHost: h\r\n\r\n")
	m, err := Parse(data, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Method != "GET" || m.URI != "/x" || m.Query != "y=1" {
		t.Fatalf("got method=%q uri=%q query=%q", m.Method, m.URI, m.Query)
	}
	if h := m.Header("Host"); h != "h" {
		t.Fatalf("Host header = %q", h)
	}
}

func TestParseResponseWithBody(t *testing.T) {
	data := []byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok")
	m, err := Parse(data, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Status != 200 || m.Body != "ok" {
		t.Fatalf("status=%d body=%q", m.Status, m.Body)
	}
	if m.Len() != len(data) {
		t.Fatalf("Len = %d, want %d", m.Len(), len(data))
	}
}

// TestParseIdempotent checks that parsing the same bytes twice yields
// identical field-for-field results.
func TestParseIdempotent(t *testing.T) {
	data := []byte("POST /up HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	a, err := Parse(data, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse(data, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Method != b.Method || a.Body != b.Body || a.Whole != b.Whole {
		t.Fatalf("parse not idempotent: %+v vs %+v", a, b)
	}
}

func TestHeaderLimitSilentlyDropsExtras(t *testing.T) {
	var b []byte
	b = append(b, "GET / HTTP/1.1\r\n"...)
	for i := 0; i < MaxHeaders+10; i++ {
		b = append(b, []byte("X-Extra: v\r\n")...)
	}
	b = append(b, "\r\n"...)
	m, err := Parse(b, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Headers) != MaxHeaders {
		t.Fatalf("got %d headers, want %d", len(m.Headers), MaxHeaders)
	}
}
