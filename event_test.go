package quickleaf

import (
	"testing"
)

func TestEventOrdering(t *testing.T) {
	cc, _, events := newTestCache(t, 2, nil)

	cc.Set("a", 1)
	cc.Set("b", 2)
	cc.Set("c", 3) // evicts a
	_ = cc.Remove("b")
	cc.Clear()

	got := drainEvents(events)
	wantKinds := []EventKind{EventInsert, EventInsert, EventRemove, EventInsert, EventRemove, EventClear}
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(wantKinds), got)
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Fatalf("event %d kind = %v, want %v (%+v)", i, got[i].Kind, k, got)
		}
	}
	// The eviction's Remove precedes the admitting Insert.
	if got[2].Key != "a" || got[3].Key != "c" {
		t.Fatalf("eviction ordering wrong: %+v", got[2:4])
	}
}

func TestEventsDroppedWhenFull(t *testing.T) {
	hooks := &recordHooks{}
	clk := &fakeClock{now: 1_000_000}
	events := make(chan Event[int], 1)
	cc, err := New[int](Options[int]{
		Capacity: 10,
		Clock:    clk,
		Events:   events,
		Hooks:    hooks,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cc.Set("a", 1) // fills the channel
	cc.Set("b", 2) // dropped
	cc.Set("c", 3) // dropped

	if hooks.dropped != 2 {
		t.Fatalf("dropped = %d, want 2", hooks.dropped)
	}
	ev := <-events
	if ev.Kind != EventInsert || ev.Key != "a" {
		t.Fatalf("delivered event = %+v, want the first insert", ev)
	}
	// The engine itself is unaffected by drops.
	for _, k := range []string{"a", "b", "c"} {
		if !cc.Contains(k) {
			t.Fatalf("key %q missing after event drop", k)
		}
	}
}

func TestNoChannelIsFine(t *testing.T) {
	clk := &fakeClock{now: 1}
	cc, err := New[int](Options[int]{Capacity: 2, Clock: clk})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cc.Set("a", 1)
	cc.Set("b", 2)
	cc.Set("c", 3)
	cc.Clear()
}

func TestEventKindString(t *testing.T) {
	cases := map[EventKind]string{
		EventInsert:  "insert",
		EventRemove:  "remove",
		EventClear:   "clear",
		EventKind(9): "unknown",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Fatalf("EventKind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
