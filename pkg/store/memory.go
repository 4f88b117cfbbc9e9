package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process tagged store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	plain   map[string]*Entry
	tags    map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		plain:   make(map[string]*Entry),
		tags:    make(map[string]map[string]struct{}),
	}
}

// Has reports whether key exists under any of tags.
func (s *MemoryStore) Has(ctx context.Context, tags []string, key string) (bool, error) {
	_, found, err := s.Get(ctx, tags, key)
	return found, err
}

// Get retrieves the raw value for key. Returns found=false on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, tags []string, key string) (any, bool, error) {
	s.mu.RLock()
	entry, ok := s.lookup(tags, key)
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	// Expired - clean up lazily
	if entry.IsExpired() {
		s.mu.Lock()
		if current, ok := s.lookup(tags, key); ok && current == entry {
			s.remove(tags, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Put stores value under every tag. A non-positive TTL stores nothing.
func (s *MemoryStore) Put(_ context.Context, tags []string, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	entry := newEntry(value, ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tags) == 0 {
		s.plain[key] = entry
		return nil
	}

	s.entries[key] = entry
	for _, tag := range tags {
		members, ok := s.tags[tag]
		if !ok {
			members = make(map[string]struct{})
			s.tags[tag] = members
		}
		members[key] = struct{}{}
	}
	return nil
}

// Delete removes key if it is visible under any of tags.
func (s *MemoryStore) Delete(_ context.Context, tags []string, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lookup(tags, key)
	if !ok {
		return false, nil
	}
	s.remove(tags, key)
	return !entry.IsExpired(), nil
}

// Flush removes every entry carrying any of tags. Without tags it removes
// every untagged entry.
func (s *MemoryStore) Flush(_ context.Context, tags []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tags) == 0 {
		s.plain = make(map[string]*Entry)
		return true, nil
	}

	for _, tag := range tags {
		for key := range s.tags[tag] {
			delete(s.entries, key)
		}
		delete(s.tags, tag)
	}
	return true, nil
}

// Keys lists the live keys written under tag.
func (s *MemoryStore) Keys(_ context.Context, tag string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.tags[tag]))
	for key := range s.tags[tag] {
		if entry, ok := s.entries[key]; ok && entry.TTL() > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// lookup must be called with s.mu held.
func (s *MemoryStore) lookup(tags []string, key string) (*Entry, bool) {
	if len(tags) == 0 {
		entry, ok := s.plain[key]
		return entry, ok
	}
	for _, tag := range tags {
		if _, member := s.tags[tag][key]; member {
			entry, ok := s.entries[key]
			return entry, ok
		}
	}
	return nil, false
}

// remove must be called with s.mu held for writing.
func (s *MemoryStore) remove(tags []string, key string) {
	if len(tags) == 0 {
		delete(s.plain, key)
		return
	}
	delete(s.entries, key)
	for _, tag := range tags {
		delete(s.tags[tag], key)
	}
}
