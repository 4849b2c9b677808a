package state

import "sync"

// Store is the single serialization point for interview state. All mutation
// goes through Dispatch; readers get value copies so there are no torn reads.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
	subs map[int]func(Snapshot)
	next int
}

// NewStore creates a store holding the initial snapshot.
func NewStore() *Store {
	return &Store{
		snap: Initial(),
		subs: make(map[int]func(Snapshot)),
	}
}

// Dispatch applies an action and returns the resulting snapshot. Subscribers
// are notified synchronously; notification order is not guaranteed.
func (s *Store) Dispatch(a Action) Snapshot {
	s.mu.Lock()
	s.snap = Apply(s.snap, a)
	snap := s.snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers a callback invoked after every dispatch. The returned
// function cancels the subscription and is safe to call more than once.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
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
