package cache

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Store with soft limits.
// When the store exceeds a limit, the oldest entries are evicted until it
// is back at three quarters of that limit.
//
// Memory must not be copied after creation (has mutex).
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	bytes   int64
	tick    int64 // Monotonic access counter

	maxEntries int
	maxBytes   int64
	ttl        time.Duration
	now        func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

// memoryEntry holds a cached value with its access time.
type memoryEntry struct {
	value   []byte
	atime   int64 // Access time (tick value)
	expires time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMaxEntries bounds the number of entries. 0 means unlimited.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		m.maxEntries = max(n, 0)
	}
}

// WithMaxBytes bounds the total size of stored values. 0 means unlimited.
func WithMaxBytes(n int64) MemoryOption {
	return func(m *Memory) {
		m.maxBytes = max(n, 0)
	}
}

// WithTTL expires entries d after they were set. 0 disables expiry.
func WithTTL(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.ttl = max(d, 0)
	}
}

// NewMemory creates an empty store. Without options it is unbounded.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get implements Store. The returned slice must not be modified.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok && m.expired(e) {
		m.remove(key, e)
		ok = false
	}
	if !ok {
		m.misses++
		return nil, false, nil
	}

	m.tick++
	e.atime = m.tick
	m.hits++
	return e.value, true, nil
}

// Set implements Store. The value is copied.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	size := int64(len(value))
	if m.maxBytes > 0 && size > m.maxBytes {
		return ErrTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.remove(key, old)
	}

	m.tick++
	e := &memoryEntry{value: slices.Clone(value), atime: m.tick}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[key] = e
	m.bytes += size

	if m.overLimit() {
		m.evictOldest()
	}
	return nil
}

// Delete removes an entry. It reports whether the entry was present.
func (m *Memory) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok {
		m.remove(key, e)
	}
	return ok
}

// Clear removes all entries and resets the statistics.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memoryEntry)
	m.bytes = 0
	m.tick = 0
	m.hits, m.misses, m.evictions = 0, 0, 0
}

// Len returns the number of entries, including expired ones not yet
// collected.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns store statistics.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Len:       len(m.entries),
		Bytes:     m.bytes,
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
	}
	if total := m.hits + m.misses; total > 0 {
		s.HitRate = float64(m.hits) / float64(total)
	}
	return s
}

// Caller must hold m.mu.
func (m *Memory) expired(e *memoryEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// Caller must hold m.mu.
func (m *Memory) remove(key string, e *memoryEntry) {
	delete(m.entries, key)
	m.bytes -= int64(len(e.value))
}

// Caller must hold m.mu.
func (m *Memory) overLimit() bool {
	return (m.maxEntries > 0 && len(m.entries) > m.maxEntries) ||
		(m.maxBytes > 0 && m.bytes > m.maxBytes)
}

// evictOldest drops expired entries, then the least recently used ones
// until both limits are at three quarters.
// Caller must hold m.mu.
func (m *Memory) evictOldest() {
	targetLen := max(m.maxEntries*3/4, 1)
	targetBytes := m.maxBytes * 3 / 4

	type candidate struct {
		key   string
		atime int64
	}
	candidates := make([]candidate, 0, len(m.entries))
	for key, e := range m.entries {
		if m.expired(e) {
			m.remove(key, e)
			m.evictions++
			continue
		}
		candidates = append(candidates, candidate{key: key, atime: e.atime})
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(a.atime, b.atime)
	})

	for _, c := range candidates {
		overLen := m.maxEntries > 0 && len(m.entries) > targetLen
		overBytes := m.maxBytes > 0 && m.bytes > targetBytes
		if !overLen && !overBytes {
			return
		}
		m.remove(c.key, m.entries[c.key])
		m.evictions++
	}
}

// Stats contains store statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Bytes is the total size of stored values.
	Bytes int64
	// Hits is the number of Get calls that found a live entry.
	Hits uint64
	// Misses is the number of Get calls that found nothing.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 before the first Get.
	HitRate float64
	// Evictions is the number of entries dropped to honour a limit.
	Evictions uint64
}
