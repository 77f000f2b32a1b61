package mtimer

import "testing"

func TestRunNowFiresImmediately(t *testing.T) {
	var l List
	fired := 0
	l.Add(1000, 500, RunNow, func(any) { fired++ }, nil)
	l.Poll(1000)
	if fired != 1 {
		t.Fatalf("expected 1 fire, got %d", fired)
	}
}

func TestRepeatReschedulesOncePerPoll(t *testing.T) {
	var l List
	fired := 0
	l.Add(0, 100, Repeat|RunNow, func(any) { fired++ }, nil)
	l.Poll(0)
	l.Poll(50)
	l.Poll(350) // several periods elapsed, still only one fire this call
	if fired != 2 {
		t.Fatalf("expected 2 fires, got %d", fired)
	}
}

func TestNonRepeatingStaysUntilRemoved(t *testing.T) {
	var l List
	fired := 0
	tm := l.Add(0, 10, RunNow, func(any) { fired++ }, nil)
	l.Poll(0)
	l.Poll(100)
	if fired != 2 {
		t.Fatalf("non-repeating timer should keep firing until removed, got %d", fired)
	}
	tm.Remove()
	l.Poll(200)
	if fired != 2 {
		t.Fatalf("expected no more fires after Remove, got %d", fired)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty list after remove, got %d", l.Len())
	}
}

func TestArgPassedThrough(t *testing.T) {
	var l List
	var got any
	l.Add(0, 0, RunNow, func(a any) { got = a }, "payload")
	l.Poll(0)
	if got != "payload" {
		t.Fatalf("got %v", got)
	}
}
