// Package mtimer implements the software timer list driven by the poll
// loop's monotonic clock: a flat singly-linked list is sufficient at the
// timer counts this reactor expects.
package mtimer

// Flag bits controlling Timer scheduling.
type Flag int

const (
	// Repeat reschedules the timer by period after every fire.
	Repeat Flag = 1 << iota
	// RunNow fires the timer on the very first poll after Add, instead of
	// waiting a full period.
	RunNow
)

// Callback is invoked when a Timer fires. arg is the opaque value the timer
// was created with.
type Callback func(arg any)

// Timer is one entry in the list.
type Timer struct {
	PeriodMS int64
	Flags Flag
	Callback Callback
	Arg any

	nextFireMS int64
	prev, next *Timer
	list *List
}

// List is the manager's timer list, walked once per poll step.
type List struct {
	head *Timer
}

// Add creates and links a new Timer, returning it so the caller can Remove
// it later (non-repeating timers are not auto-removed after firing).
func (l *List) Add(nowMS int64, periodMS int64, flags Flag, cb Callback, arg any) *Timer {
	t := &Timer{PeriodMS: periodMS, Flags: flags, Callback: cb, Arg: arg, list: l}
	if flags&RunNow != 0 {
		t.nextFireMS = nowMS
	} else {
		t.nextFireMS = nowMS + periodMS
	}
	t.next = l.head
	if l.head != nil {
		l.head.prev = t
	}
	l.head = t
	return t
}

// Remove unlinks t from its list. Safe to call more than once.
func (t *Timer) Remove() {
	if t.list == nil {
		return
	}
	l := t.list
	if t.prev != nil {
		t.prev.next = t.next
	} else if l.head == t {
		l.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	}
	t.prev, t.next, t.list = nil, nil, nil
}

// Poll fires every timer whose nextFireMS <= now, exactly once each per
// call regardless of how many periods have elapsed (no catch-up loop).
// Repeating timers reschedule by adding PeriodMS to their previous
// nextFireMS; non-repeating timers are left in the list for the caller to
// Remove from within the callback or afterward.
func (l *List) Poll(nowMS int64) {
	// Snapshot the fire set before invoking callbacks: a callback may Add
	// or Remove timers, and must not perturb this traversal.
	var due []*Timer
	for t := l.head; t != nil; t = t.next {
		if t.nextFireMS <= nowMS {
			due = append(due, t)
		}
	}
	for _, t := range due {
		if t.Flags&Repeat != 0 {
			t.nextFireMS += t.PeriodMS
		}
		if t.Callback != nil {
			t.Callback(t.Arg)
		}
	}
}

// Len reports the number of timers currently in the list (test/debug aid).
func (l *List) Len() int {
	n := 0
	for t := l.head; t != nil; t = t.next {
		n++
	}
	return n
}
