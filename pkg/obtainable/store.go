package obtainable

import (
	"context"
	"time"
)

// Store is the tagged key-value store an Obtainer memoizes into.
//
// Contract:
//   - An entry written under a tag set is visible and removable through any
//     one of those tags.
//   - Entries written with tags are invisible when queried with no tags.
//   - Implementations must be safe for concurrent use.
type Store interface {
	// Has reports whether key exists under any of tags.
	Has(ctx context.Context, tags []string, key string) (bool, error)

	// Get returns the raw stored value. found is false on a miss.
	Get(ctx context.Context, tags []string, key string) (value any, found bool, err error)

	// Put stores value under every tag in tags with the given TTL.
	Put(ctx context.Context, tags []string, key string, value any, ttl time.Duration) error

	// Delete removes key. It reports whether an entry was removed.
	Delete(ctx context.Context, tags []string, key string) (bool, error)

	// Flush removes every entry carrying any of tags.
	Flush(ctx context.Context, tags []string) (bool, error)
}

// KeyLister is implemented by stores that can enumerate the keys under a tag.
type KeyLister interface {
	Keys(ctx context.Context, tag string) ([]string, error)
}
