package sntp

import (
	"testing"
	"time"
)

// TestSecondsRoundTrip checks SNTP seconds round-trip across the
// 1900-1970 offset for any UTC value.
func TestSecondsRoundTrip(t *testing.T) {
	times := []time.Time{
		time.Unix(0, 0).UTC(),
		time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
		time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2106, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, want := range times {
		req := BuildRequest(want)
		// Simulate a server echoing the transmit timestamp back as its own.
		resp := make([]byte, packetSize)
		resp[0] = 0x24 // mode=4 (server)
		copy(resp[40:48], req[40:48])

		got, ok := ParseResponse(resp)
		if !ok {
			t.Fatalf("ParseResponse failed for %v", want)
		}
		if got.Seconds != want.Unix() {
			t.Fatalf("got %d, want %d for %v", got.Seconds, want.Unix(), want)
		}
	}
}

func TestParseResponseRejectsShort(t *testing.T) {
	if _, ok := ParseResponse(make([]byte, 10)); ok {
		t.Fatalf("expected short packet to be rejected")
	}
}

func TestParseResponseRejectsWrongMode(t *testing.T) {
	pkt := make([]byte, packetSize)
	pkt[0] = 0x23 // mode=3, client mode: not a valid server reply
	if _, ok := ParseResponse(pkt); ok {
		t.Fatalf("expected client-mode packet to be rejected as a response")
	}
}

func TestBuildRequestSize(t *testing.T) {
	if n := len(BuildRequest(time.Now().UTC())); n != packetSize {
		t.Fatalf("got %d bytes, want %d", n, packetSize)
	}
}
