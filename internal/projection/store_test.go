package projection

import (
	"reflect"
	"testing"
)

func TestStoreReplaceAllLastWins(t *testing.T) {
	s := NewStore[string]("users")

	s.ReplaceAll([]string{"u1", "u2"})
	s.ReplaceAll([]string{"u3"})

	if got := s.Snapshot(); !reflect.DeepEqual(got, []string{"u3"}) {
		t.Fatalf("snapshot: got %v, want [u3]", got)
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore[string]("users")
	s.ReplaceAll([]string{"u1"})

	snap := s.Snapshot()
	snap[0] = "mutated"

	if got := s.Snapshot()[0]; got != "u1" {
		t.Fatalf("store content mutated through snapshot: %q", got)
	}
}

func TestStoreSubscribeAndCancel(t *testing.T) {
	s := NewStore[int]("counts")

	var seen [][]int
	cancel := s.Subscribe(func(items []int) {
		seen = append(seen, items)
	})

	s.ReplaceAll([]int{1, 2})
	cancel()
	s.ReplaceAll([]int{3})

	if len(seen) != 1 {
		t.Fatalf("notifications after cancel: got %d, want 1", len(seen))
	}
	if !reflect.DeepEqual(seen[0], []int{1, 2}) {
		t.Fatalf("notified snapshot: got %v", seen[0])
	}
}

func TestStoreMultipleSubscribers(t *testing.T) {
	s := NewStore[int]("counts")

	a, b := 0, 0
	s.Subscribe(func(items []int) { a = len(items) })
	s.Subscribe(func(items []int) { b = len(items) })

	s.ReplaceAll([]int{1, 2, 3})

	if a != 3 || b != 3 {
		t.Fatalf("subscribers saw %d and %d, want 3 and 3", a, b)
	}
}
