package store

import "sync"

// Map is an insert-only map guarded by a read-write lock. The first value
// written for a key wins.
type Map[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// NewMap returns an empty map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{items: make(map[K]V)}
}

// PutIfAbsent stores v under k unless k is present. It returns the value held
// after the call and whether this call created it.
func (m *Map[K, V]) PutIfAbsent(k K, v V) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.items[k]; ok {
		return existing, false
	}
	m.items[k] = v
	return v, true
}

// Get returns the value stored under k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[k]
	return v, ok
}

// Update replaces the value under k with fn(old) while holding the write
// lock. fn reports whether it changed anything. Update returns the resulting
// value, whether fn changed it, and whether k exists.
func (m *Map[K, V]) Update(k K, fn func(V) (V, bool)) (V, bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.items[k]
	if !ok {
		return old, false, false
	}
	next, changed := fn(old)
	if changed {
		m.items[k] = next
	}
	return next, changed, true
}

// Len returns the number of stored keys.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
