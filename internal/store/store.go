// Package store provides an explicit state container with reducer based
// updates and subscriber notification.
package store

import "sync"

// Reducer derives the next state from the current one. A reducer must not
// mutate slices or maps reachable from its input; it returns fresh copies
// for anything it changes.
type Reducer[S any] func(S) (S, error)

// Store owns a single state value. Writers replace the value wholesale
// through Dispatch; readers receive the value current at call time.
type Store[S any] struct {
	mu          sync.RWMutex
	initial     S
	state       S
	nextID      uint64
	subscribers map[uint64]func(S)
}

// New returns a store holding initial. Reset restores the same value.
func New[S any](initial S) *Store[S] {
	return &Store[S]{
		initial:     initial,
		state:       initial,
		subscribers: make(map[uint64]func(S)),
	}
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies reduce atomically. When reduce returns an error the
// state is left untouched and no subscriber is notified.
func (s *Store[S]) Dispatch(reduce Reducer[S]) (S, error) {
	s.mu.Lock()
	next, err := reduce(s.state)
	if err != nil {
		current := s.state
		s.mu.Unlock()
		return current, err
	}
	s.state = next
	subscribers := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	notify(subscribers, next)
	return next, nil
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription and is safe to call more than once.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// Reset restores the initial state and notifies subscribers.
func (s *Store[S]) Reset() {
	s.mu.Lock()
	s.state = s.initial
	subscribers := s.snapshotSubscribersLocked()
	state := s.state
	s.mu.Unlock()

	notify(subscribers, state)
}

func (s *Store[S]) snapshotSubscribersLocked() []func(S) {
	if len(s.subscribers) == 0 {
		return nil
	}
	out := make([]func(S), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		out = append(out, fn)
	}
	return out
}

func notify[S any](subscribers []func(S), state S) {
	for _, fn := range subscribers {
		fn(state)
	}
}
