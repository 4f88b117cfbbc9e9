// Package testutil provides testing utilities for obtainable.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInjected is returned by FailingStore for operations configured to fail.
var ErrInjected = errors.New("injected store failure")

// Counter counts computations per semantic key. Safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Inc records one computation of key and returns the new count.
func (c *Counter) Inc(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key]
}

// Count returns how often key was computed.
func (c *Counter) Count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// Total returns the number of computations across all keys.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// taggedStore mirrors the tagged store method set.
type taggedStore interface {
	Has(ctx context.Context, tags []string, key string) (bool, error)
	Get(ctx context.Context, tags []string, key string) (any, bool, error)
	Put(ctx context.Context, tags []string, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, tags []string, key string) (bool, error)
	Flush(ctx context.Context, tags []string) (bool, error)
}

// FailingStore wraps a store and fails selected operations with ErrInjected.
type FailingStore struct {
	Next taggedStore

	FailGet    bool
	FailPut    bool
	FailDelete bool

	// FailFlushTags fails Flush when any requested tag is listed
	FailFlushTags map[string]bool

	mu    sync.Mutex
	calls map[string]int
}

// NewFailingStore wraps next. Nothing fails until configured.
func NewFailingStore(next taggedStore) *FailingStore {
	return &FailingStore{
		Next:          next,
		FailFlushTags: make(map[string]bool),
		calls:         make(map[string]int),
	}
}

// Calls returns how often op ("get", "put", "delete", "flush") was invoked.
func (s *FailingStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *FailingStore) record(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

func (s *FailingStore) Has(ctx context.Context, tags []string, key string) (bool, error) {
	_, found, err := s.Get(ctx, tags, key)
	return found, err
}

func (s *FailingStore) Get(ctx context.Context, tags []string, key string) (any, bool, error) {
	s.record("get")
	if s.FailGet {
		return nil, false, ErrInjected
	}
	return s.Next.Get(ctx, tags, key)
}

func (s *FailingStore) Put(ctx context.Context, tags []string, key string, value any, ttl time.Duration) error {
	s.record("put")
	if s.FailPut {
		return ErrInjected
	}
	return s.Next.Put(ctx, tags, key, value, ttl)
}

func (s *FailingStore) Delete(ctx context.Context, tags []string, key string) (bool, error) {
	s.record("delete")
	if s.FailDelete {
		return false, ErrInjected
	}
	return s.Next.Delete(ctx, tags, key)
}

func (s *FailingStore) Flush(ctx context.Context, tags []string) (bool, error) {
	s.record("flush")
	for _, tag := range tags {
		if s.FailFlushTags[tag] {
			return false, ErrInjected
		}
	}
	return s.Next.Flush(ctx, tags)
}
