package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is the in-process cache backend: a mutex-guarded map with TTL reads
// and a capacity-triggered eviction sweep on Put.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

func NewMemory(ttl time.Duration, capacity int) *Memory {
	return &Memory{
		entries:  make(map[string]*Entry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// NewMemoryWithClock injects a clock for tests.
func NewMemoryWithClock(ttl time.Duration, capacity int, now func() time.Time) *Memory {
	m := NewMemory(ttl, capacity)
	m.now = now
	return m
}

func (m *Memory) Get(ctx context.Context, key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	if m.now().Sub(e.CreatedAt) >= m.ttl {
		delete(m.entries, key)
		return Entry{}, false
	}

	e.HitCount++
	return *e, true
}

func (m *Memory) Put(ctx context.Context, key, text, provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.capacity {
		m.evictLocked()
	}

	m.entries[key] = &Entry{
		Text:      text,
		Provider:  provider,
		CreatedAt: m.now(),
	}
}

// Len returns the current entry count, expired entries included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictLocked drops expired entries first, then the coldest fifth of
// capacity: lowest hit count first, oldest breaking ties.
func (m *Memory) evictLocked() {
	now := m.now()
	for key, e := range m.entries {
		if now.Sub(e.CreatedAt) >= m.ttl {
			delete(m.entries, key)
		}
	}
	if len(m.entries) < m.capacity {
		return
	}

	type scored struct {
		key string
		e   *Entry
	}
	candidates := make([]scored, 0, len(m.entries))
	for key, e := range m.entries {
		candidates = append(candidates, scored{key, e})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].e.HitCount != candidates[j].e.HitCount {
			return candidates[i].e.HitCount < candidates[j].e.HitCount
		}
		return candidates[i].e.CreatedAt.Before(candidates[j].e.CreatedAt)
	})

	drop := m.capacity / 5
	if drop < 1 {
		drop = 1
	}
	for i := 0; i < drop && i < len(candidates); i++ {
		delete(m.entries, candidates[i].key)
	}
}
