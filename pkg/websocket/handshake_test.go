package websocket

import "testing"

// TestAcceptKnownVector is the RFC6455 worked example.
func TestAcceptKnownVector(t *testing.T) {
	got := Accept("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNewClientKeyLength(t *testing.T) {
	k := NewClientKey()
	if len(k) == 0 {
		t.Fatalf("expected non-empty key")
	}
}
