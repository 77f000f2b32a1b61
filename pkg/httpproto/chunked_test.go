package httpproto

import "testing"

func TestChunkedRoundTrip(t *testing.T) {
	data := []byte("POST /up HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
	"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n")
	hdrLen := GetRequestLen(data)
	if hdrLen <= 0 {
		t.Fatalf("GetRequestLen = %d", hdrLen)
	}
	body, consumed, done := DecodeChunked(data, hdrLen)
	if !done {
		t.Fatalf("expected done=true")
	}
	if body != "hello world" {
		t.Fatalf("got body %q", body)
	}
	if hdrLen+consumed != len(data) {
		t.Fatalf("consumed %d+%d, want %d", hdrLen, consumed, len(data))
	}
}

func TestChunkedIncomplete(t *testing.T) {
	data := []byte("5\r\nhel")
	_, ok := NextChunk(data, 0)
	if ok {
		t.Fatalf("expected incomplete chunk to report ok=false")
	}
}

func TestChunkExtensionIgnored(t *testing.T) {
	data := []byte("5;foo=bar\r\nhello\r\n0\r\n\r\n")
	cr, ok := NextChunk(data, 0)
	if !ok || cr.Data != "hello" {
		t.Fatalf("got %+v ok=%v", cr, ok)
	}
}
