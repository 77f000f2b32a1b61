package websocket

import "testing"

// TestFrameRoundTrip checks that unframing a framed payload recovers the
// original data and opcode.
func TestFrameRoundTrip(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	raw := BuildWithMaskKey("hi", OpText, true, true, key)
	fr, n, ok := Parse(raw)
	if !ok {
		t.Fatalf("Parse failed")
	}
	if n != len(raw) {
		t.Fatalf("consumed %d, want %d", n, len(raw))
	}
	if fr.Data != "hi" || fr.Opcode != OpText || !fr.FIN {
		t.Fatalf("got %+v", fr)
	}
}

func TestFrameUnmaskedServerToClient(t *testing.T) {
	raw := Build("pong-data", OpPong, true, false)
	fr, _, ok := Parse(raw)
	if !ok || fr.Data != "pong-data" || fr.Opcode != OpPong {
		t.Fatalf("got %+v ok=%v", fr, ok)
	}
}

func TestFrameIncomplete(t *testing.T) {
	raw := Build("hello world", OpText, true, false)
	_, _, ok := Parse(raw[:len(raw)-2])
	if ok {
		t.Fatalf("expected incomplete frame to report ok=false")
	}
}

func TestControlOpcodeClassification(t *testing.T) {
	if !OpClose.IsControl() || !OpPing.IsControl() || !OpPong.IsControl() {
		t.Fatalf("close/ping/pong must be control opcodes")
	}
	if OpText.IsControl() || OpBinary.IsControl() {
		t.Fatalf("text/binary must not be control opcodes")
	}
}

func TestLongFrameLength(t *testing.T) {
	data := make([]byte, 70000)
	for i := range data {
		data[i] = byte(i)
	}
	raw := Build(string(data), OpBinary, true, false)
	fr, n, ok := Parse(raw)
	if !ok || n != len(raw) || fr.Data != string(data) {
		t.Fatalf("long frame round-trip failed, ok=%v n=%d len=%d", ok, n, len(fr.Data))
	}
}
