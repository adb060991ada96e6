package store

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and local dry runs. It honors
// per-key TTLs and serves Scan from a sorted snapshot so cursors behave like
// an incremental enumeration.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time

	// Scan sessions map a cursor to the last key already returned, so keys
	// written mid-scan never shift the enumeration (mirrors Redis SCAN's
	// guarantee for keys present throughout).
	scanMarks  map[uint64]string
	nextCursor uint64
}

type memoryEntry struct {
	fields   map[string]string
	expireAt time.Time // zero means no expiration
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[string]*memoryEntry),
		now:       time.Now,
		scanMarks: make(map[uint64]string),
	}
}

// SetClock overrides the time source. Test hook.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Scan(_ context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	mark := ""
	if cursor != 0 {
		mark = m.scanMarks[cursor]
	}

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if k <= mark {
			continue
		}
		if ok, _ := path.Match(match, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if count <= 0 {
		count = 10
	}
	if int64(len(keys)) <= count {
		delete(m.scanMarks, cursor)
		return keys, 0, nil
	}

	batch := append([]string(nil), keys[:count]...)
	if cursor == 0 {
		m.nextCursor++
		cursor = m.nextCursor
	}
	m.scanMarks[cursor] = batch[len(batch)-1]
	return batch, cursor, nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	out := make(map[string]string)
	if e, ok := m.entries[key]; ok {
		for k, v := range e.fields {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	_, ok := m.entries[key]
	return ok, nil
}

func (m *Memory) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.getOrCreateLocked(key)
	for k, v := range fields {
		e.fields[k] = v
	}
	return nil
}

func (m *Memory) HSetNX(_ context.Context, key, field, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	e := m.getOrCreateLocked(key)
	if _, ok := e.fields[field]; ok {
		return false, nil
	}
	e.fields[field] = value
	return true, nil
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	e, ok := m.entries[key]
	if !ok || e.expireAt.IsZero() {
		return 0, nil
	}
	d := e.expireAt.Sub(m.now())
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		e.expireAt = m.now().Add(ttl)
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) getOrCreateLocked(key string) *memoryEntry {
	e, ok := m.entries[key]
	if !ok {
		e = &memoryEntry{fields: make(map[string]string)}
		m.entries[key] = e
	}
	return e
}

// purgeLocked drops expired entries. Caller must hold mu.
func (m *Memory) purgeLocked() {
	now := m.now()
	for k, e := range m.entries {
		if !e.expireAt.IsZero() && e.expireAt.Before(now) {
			delete(m.entries, k)
		}
	}
}
