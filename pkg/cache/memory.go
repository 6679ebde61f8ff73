package cache

import (
	"context"
	"time"
)

// DefaultMemoryCapacity bounds a Memory store created with a non-positive capacity.
const DefaultMemoryCapacity = 10000

// Memory is an in-process key/value store for single-instance deployments and tests.
// Keys are matched with glob patterns using the same metacharacters as Redis
// (*, ?, [...] and backslash escapes).
type Memory struct {
	lru *LRU[string, []byte]
}

// NewMemory creates a store holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{lru: NewLRU[string, []byte](capacity)}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value. A ttl <= 0 means no expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.lru.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes keys and returns how many were present.
func (m *Memory) Delete(_ context.Context, keys ...string) (int, error) {
	n := 0
	for _, k := range keys {
		if m.lru.Remove(k) {
			n++
		}
	}
	return n, nil
}

// Keys returns all live keys matching pattern.
func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	var out []string
	for _, k := range m.lru.Keys() {
		if MatchGlob(pattern, k) {
			out = append(out, k)
		}
	}
	return out, nil
}

// SetClock replaces the time source. Intended for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.lru.SetClock(now)
}
