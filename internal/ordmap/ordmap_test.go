package ordmap

import "testing"

func keysOf(m *Map[int]) []string { return m.Keys() }

func assertKeys(t *testing.T, m *Map[int], want ...string) {
	t.Helper()
	got := keysOf(m)
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestSetPreservesInsertionOrder(t *testing.T) {
	m := New[int](4)
	m.Set("c", 3)
	m.Set("a", 1)
	m.Set("b", 2)
	assertKeys(t, m, "c", "a", "b")

	if replaced := m.Set("a", 10); !replaced {
		t.Fatalf("Set of existing key should report replacement")
	}
	assertKeys(t, m, "c", "a", "b") // position unchanged
	if v, _ := m.Get("a"); v != 10 {
		t.Fatalf("replaced value = %d", v)
	}
}

func TestDelete(t *testing.T) {
	m := New[int](4)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	v, ok := m.Delete("b")
	if !ok || v != 2 {
		t.Fatalf("Delete(b) = %d,%v", v, ok)
	}
	assertKeys(t, m, "a", "c")

	if _, ok := m.Delete("b"); ok {
		t.Fatalf("double delete should miss")
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d", m.Len())
	}
}

func TestDeleteEndpoints(t *testing.T) {
	m := New[int](4)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	m.Delete("a") // head
	assertKeys(t, m, "b", "c")
	m.Delete("c") // tail
	assertKeys(t, m, "b")
	m.Delete("b") // last
	assertKeys(t, m)

	// Map is reusable after emptying.
	m.Set("x", 9)
	assertKeys(t, m, "x")
}

func TestPopOldest(t *testing.T) {
	m := New[int](4)
	if _, _, ok := m.PopOldest(); ok {
		t.Fatalf("PopOldest on empty map should miss")
	}

	m.Set("a", 1)
	m.Set("b", 2)

	k, v, ok := m.PopOldest()
	if !ok || k != "a" || v != 1 {
		t.Fatalf("PopOldest = %q,%d,%v", k, v, ok)
	}
	assertKeys(t, m, "b")
}

// A key deleted and re-set moves to the tail: its original position is gone.
func TestReinsertMovesToTail(t *testing.T) {
	m := New[int](4)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Delete("a")
	m.Set("a", 3)
	assertKeys(t, m, "b", "a")
}

func TestPtr(t *testing.T) {
	m := New[int](4)
	m.Set("a", 1)

	p := m.Ptr("a")
	if p == nil || *p != 1 {
		t.Fatalf("Ptr = %v", p)
	}
	*p = 5
	if v, _ := m.Get("a"); v != 5 {
		t.Fatalf("mutation through Ptr not visible: %d", v)
	}
	if m.Ptr("nope") != nil {
		t.Fatalf("Ptr of absent key should be nil")
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int](4)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	var seen []string
	m.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return len(seen) < 2
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("Range visited %v", seen)
	}
}

func TestClear(t *testing.T) {
	m := New[int](4)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Clear()

	if m.Len() != 0 {
		t.Fatalf("Len after Clear = %d", m.Len())
	}
	if _, _, ok := m.PopOldest(); ok {
		t.Fatalf("PopOldest after Clear should miss")
	}
	m.Set("c", 3)
	assertKeys(t, m, "c")
}
