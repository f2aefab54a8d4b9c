package projection

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store holds the most recent full snapshot of a named collection.
// Upstream replaces the content wholesale on every notification; there is
// no incremental patching and no ordering guarantee between replacements
// beyond "last write wins".
type Store[T any] struct {
	mu    sync.RWMutex
	name  string
	items []T
	subs  map[int]func([]T)
	next  int
}

// NewStore creates an empty store for the named collection.
func NewStore[T any](name string) *Store[T] {
	return &Store[T]{
		name: name,
		subs: make(map[int]func([]T)),
	}
}

// Name returns the collection name the store tracks.
func (s *Store[T]) Name() string {
	return s.name
}

// ReplaceAll replaces the store content with the given snapshot and
// notifies every subscriber with a copy of it. Subscribers run on the
// calling goroutine, after the store lock is released.
func (s *Store[T]) ReplaceAll(items []T) {
	snapshot := make([]T, len(items))
	copy(snapshot, items)

	s.mu.Lock()
	s.items = snapshot
	subs := make([]func([]T), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	log.Debug().
		Str("collection", s.name).
		Int("count", len(snapshot)).
		Int("subscribers", len(subs)).
		Msg("Snapshot replaced")

	for _, fn := range subs {
		fn(s.Snapshot())
	}
}

// Snapshot returns a copy of the current content.
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items in the current snapshot.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers fn to be called with each new snapshot. The returned
// cancel function removes the subscription; callers must invoke it when
// the consuming view goes away.
func (s *Store[T]) Subscribe(fn func([]T)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
