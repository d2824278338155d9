package cache

import (
	"container/list"
	"sync"
)

// lruStore is a thread-safe least-recently-used store. A capacity <= 0
// disables eviction entirely, which is the default cache mode: the LRU bound
// is a configuration option, not a requirement.
type lruStore[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most-recently used
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLRUStore[K comparable, V any](capacity int) *lruStore[K, V] {
	return &lruStore[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get returns the stored value and true on a hit. A hit marks the entry
// most-recently used.
func (s *lruStore[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	s.order.MoveToFront(el)
	return el.Value.(*lruEntry[K, V]).value, true
}

// Put inserts or replaces a key/value pair, evicting the least-recently-used
// entry when a capacity bound is set and reached.
func (s *lruStore[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		s.order.MoveToFront(el)
		el.Value.(*lruEntry[K, V]).value = value
		return
	}

	if s.capacity > 0 && s.order.Len() >= s.capacity {
		if back := s.order.Back(); back != nil {
			entry := back.Value.(*lruEntry[K, V])
			s.order.Remove(back)
			delete(s.items, entry.key)
		}
	}

	el := s.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	s.items[key] = el
}

// Evict removes a key; no-op when absent.
func (s *lruStore[K, V]) Evict(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return
	}
	s.order.Remove(el)
	delete(s.items, key)
}

func (s *lruStore[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
