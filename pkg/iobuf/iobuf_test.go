package iobuf

import (
	"bytes"
	"testing"
)

func TestAppendAndBytes(t *testing.T) {
	b := New(0)
	b.Append([]byte("hello"))
	b.Append([]byte(" world"))
	if got := string(b.Bytes()); got != "hello world" {
		t.Fatalf("got %q", got)
	}
	if b.Cap()%defaultAlign != 0 {
		t.Fatalf("capacity %d not aligned to %d", b.Cap(), defaultAlign)
	}
}

func TestInsertAtOffset(t *testing.T) {
	b := New(0)
	b.Append([]byte("helloworld"))
	b.Insert(5, []byte(" "), 0)
	if got := string(b.Bytes()); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestDeletePrefix(t *testing.T) {
	b := New(0)
	b.Append([]byte("abcdef"))
	b.Delete(0, 3)
	if got := string(b.Bytes()); got != "def" {
		t.Fatalf("got %q", got)
	}
}

func TestDeleteMiddle(t *testing.T) {
	b := New(0)
	b.Append([]byte("abcdef"))
	b.Delete(2, 2) // remove "cd"
	if got := string(b.Bytes()); got != "abef" {
		t.Fatalf("got %q", got)
	}
}

func TestZeroLengthOpsAreNoops(t *testing.T) {
	b := New(0)
	b.Append([]byte("abc"))
	b.Insert(1, nil, 0)
	b.Delete(1, 0)
	if got := string(b.Bytes()); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestResizeToZeroReleases(t *testing.T) {
	b := New(0)
	b.Append([]byte("abc"))
	b.Resize(0, 0)
	if b.Cap() != 0 || b.Len() != 0 {
		t.Fatalf("expected empty buffer after resize(0), got cap=%d len=%d", b.Cap(), b.Len())
	}
}

func TestInvariantLengthNeverExceedsCapacity(t *testing.T) {
	b := New(0)
	for i := 0; i < 5000; i++ {
		b.Append([]byte{byte(i)})
		if b.Len() > b.Cap() {
			t.Fatalf("length %d exceeds capacity %d", b.Len(), b.Cap())
		}
		if b.Cap()%defaultAlign != 0 {
			t.Fatalf("capacity %d not aligned", b.Cap())
		}
	}
}

func TestInsertDeleteRoundTrip(t *testing.T) {
	b := New(0)
	payload := []byte("the quick brown fox jumps over the lazy dog")
	b.Append(payload)
	b.Insert(10, []byte("XYZ"), 0)
	b.Delete(10, 3)
	if !bytes.Equal(b.Bytes(), payload) {
		t.Fatalf("round trip mismatch: got %q want %q", b.Bytes(), payload)
	}
}
