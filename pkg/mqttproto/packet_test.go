package mqttproto

import "testing"

// TestRemainingLengthRoundTrip checks MQTT remaining-length round-trip
// for all boundary values 0..2^28-1.
func TestRemainingLengthRoundTrip(t *testing.T) {
	values := []int{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, 268435455}
	for _, v := range values {
		enc := EncodeRemainingLength(v)
		if len(enc) > 4 {
			t.Fatalf("EncodeRemainingLength(%d) used %d bytes, want <=4", v, len(enc))
		}
		data := append([]byte{0x30}, enc...) // fake fixed header + remaining length
		got, consumed, ok := DecodeRemainingLength(data, 1)
		if !ok || got != v || consumed != len(enc) {
			t.Fatalf("round-trip(%d) = %d, consumed=%d, ok=%v", v, got, consumed, ok)
		}
	}
}

func TestParsePublishQoS1(t *testing.T) {
	raw := BuildPublish("t", "payload", 1, false, false, 42)
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Topic != "t" || p.Payload != "payload" || p.MessageID != 42 || p.QoS != 1 {
		t.Fatalf("got %+v", p)
	}
	if p.Length != len(raw) {
		t.Fatalf("Length = %d, want %d", p.Length, len(raw))
	}
}

func TestParseIncomplete(t *testing.T) {
	raw := BuildPublish("topic", "hello world", 0, false, false, 0)
	_, err := Parse(raw[:len(raw)-3])
	if err != ErrIncomplete {
		t.Fatalf("got %v, want ErrIncomplete", err)
	}
}

// TestMQTTScenario walks a CONNECT/CONNACK then SUBSCRIBE/PUBLISH qos 1
// exchange, checking PUBACK carries a matching message id.
func TestMQTTScenario(t *testing.T) {
	connack := BuildConnAck(0, false)
	p, err := Parse(connack)
	if err != nil || p.Type != TypeConnAck || p.ConnAck != 0 {
		t.Fatalf("CONNACK parse failed: %+v, %v", p, err)
	}

	ids := &IDGenerator{}
	subID := ids.Next()
	sub := BuildSubscribe([]TopicFilter{{Topic: "t", QoS: 1}}, subID)
	sp, err := Parse(sub)
	if err != nil {
		t.Fatalf("Parse(sub): %v", err)
	}
	filter, _, ok := NextSub(sp.SubPayload, 0)
	if !ok || filter.Topic != "t" || filter.QoS != 1 {
		t.Fatalf("NextSub = %+v, ok=%v", filter, ok)
	}

	pubID := ids.Next()
	pub := BuildPublish("t", "payload", 1, false, false, pubID)
	pp, err := Parse(pub)
	if err != nil || pp.MessageID != pubID {
		t.Fatalf("publish parse failed: %+v, %v", pp, err)
	}
	ack := BuildPubAck(pp.MessageID)
	ap, err := Parse(ack)
	if err != nil || ap.Type != TypePubAck || ap.MessageID != pubID {
		t.Fatalf("puback parse failed: %+v, %v", ap, err)
	}
}

func TestMessageIDWrap(t *testing.T) {
	g := &IDGenerator{next: 0xFFFE}
	if id := g.Next(); id != 0xFFFF {
		t.Fatalf("got %d, want 0xFFFF", id)
	}
	if id := g.Next(); id != 1 {
		t.Fatalf("got %d after wrap, want 1", id)
	}
}

func TestUnsubscribeIterator(t *testing.T) {
	raw := BuildUnsubscribe([]string{"a", "bb"}, 7)
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t1, off, ok := NextUnsub(p.SubPayload, 0)
	if !ok || t1 != "a" {
		t.Fatalf("got %q, ok=%v", t1, ok)
	}
	t2, _, ok := NextUnsub(p.SubPayload, off)
	if !ok || t2 != "bb" {
		t.Fatalf("got %q, ok=%v", t2, ok)
	}
}
