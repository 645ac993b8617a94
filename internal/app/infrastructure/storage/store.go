package storage

import "sync"

// Store keeps the newest capacity values per key, oldest first.
type Store[T any] struct {
	mu       sync.RWMutex
	keys     map[string]*keyStore[T]
	capacity int
}

type keyStore[T any] struct {
	mu    sync.Mutex
	items []T
}

func New[T any](capacity int) *Store[T] {
	return &Store[T]{
		keys:     make(map[string]*keyStore[T]),
		capacity: capacity,
	}
}

func (s *Store[T]) getOrCreateKeyStore(key string) *keyStore[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	ks, ok := s.keys[key]
	if !ok {
		ks = &keyStore[T]{items: make([]T, 0, max(s.capacity, 0))}
		s.keys[key] = ks
	}
	return ks
}

func (s *Store[T]) Push(key string, val T) {
	ks := s.getOrCreateKeyStore(key)

	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.items = append(ks.items, val)
	if s.capacity > 0 && len(ks.items) > s.capacity {
		over := len(ks.items) - s.capacity
		clear(ks.items[:over])
		ks.items = append(ks.items[:0], ks.items[over:]...)
	}
}

// Get returns a copy of the values under key.
func (s *Store[T]) Get(key string) []T {
	s.mu.RLock()
	ks, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	return append([]T(nil), ks.items...)
}

// Update replaces every value under key for which fn reports a change.
func (s *Store[T]) Update(key string, fn func(val T) (T, bool)) int {
	s.mu.RLock()
	ks, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	changed := 0
	for i, item := range ks.items {
		if next, ok := fn(item); ok {
			ks.items[i] = next
			changed++
		}
	}
	return changed
}

func (s *Store[T]) Len(key string) int {
	s.mu.RLock()
	ks, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	return len(ks.items)
}

func (s *Store[T]) ClearKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
}

func (s *Store[T]) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]*keyStore[T])
}

func (s *Store[T]) SetCapacity(capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.capacity = capacity
	if capacity <= 0 {
		return
	}

	for _, ks := range s.keys {
		ks.mu.Lock()
		if len(ks.items) > capacity {
			ks.items = append([]T(nil), ks.items[len(ks.items)-capacity:]...)
		}
		ks.mu.Unlock()
	}
}
