package utils

import (
	"sync"
	"time"
)

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// TTLMap provides a thread-safe map with expiring entries.
// Expired entries are removed by a background sweeper and reported to the
// evict callback, if any. Close stops the sweeper.
type TTLMap[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]ttlEntry[V]
	ttl       time.Duration
	onEvict   func(K, V)
	stop      chan struct{}
	closeOnce sync.Once
}

// NewTTLMap creates a new TTLMap with the specified TTL duration.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	return NewTTLMapWithEvict[K, V](ttl, ttl, nil)
}

// NewTTLMapWithEvict creates a TTLMap that sweeps every interval and calls
// onEvict for each entry that expired without being taken.
func NewTTLMapWithEvict[K comparable, V any](
	ttl, sweepInterval time.Duration, onEvict func(K, V),
) *TTLMap[K, V] {
	m := &TTLMap[K, V]{
		entries: make(map[K]ttlEntry[V]),
		ttl:     ttl,
		onEvict: onEvict,
		stop:    make(chan struct{}),
	}

	go m.cleanup(sweepInterval)

	return m
}

// Get retrieves a value from the map.
// Returns the value and whether it exists/is valid.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[key]
	if !exists || time.Now().After(entry.expires) {
		var zero V
		return zero, false
	}

	return entry.value, true
}

// Set adds or updates a value in the map.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = ttlEntry[V]{value: value, expires: time.Now().Add(m.ttl)}
}

// SetIfAbsent stores the value only if no live entry exists for the key.
// Returns false if the key was already present.
func (m *TTLMap[K, V]) SetIfAbsent(key K, value V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if entry, exists := m.entries[key]; exists && !now.After(entry.expires) {
		return false
	}

	m.entries[key] = ttlEntry[V]{value: value, expires: now.Add(m.ttl)}

	return true
}

// Take removes and returns a live value from the map.
func (m *TTLMap[K, V]) Take(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[key]
	if !exists || time.Now().After(entry.expires) {
		var zero V
		return zero, false
	}

	delete(m.entries, key)

	return entry.value, true
}

// Delete removes a key from the map.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *TTLMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// Sweep removes expired entries, calls the evict callback for each of them
// and returns how many were removed.
func (m *TTLMap[K, V]) Sweep() int {
	type evicted struct {
		key   K
		value V
	}

	var expired []evicted

	m.mu.Lock()
	now := time.Now()
	for key, entry := range m.entries {
		if now.After(entry.expires) {
			expired = append(expired, evicted{key: key, value: entry.value})
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()

	// Callbacks run without the lock so they may use the map
	if m.onEvict != nil {
		for _, e := range expired {
			m.onEvict(e.key, e.value)
		}
	}

	return len(expired)
}

// Close stops the background sweeper. Entries stay readable.
func (m *TTLMap[K, V]) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
}

// cleanup periodically removes expired entries.
func (m *TTLMap[K, V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
