// Package obtainable memoizes named computations into a tagged key-value store.
//
// An owner type (a kind of entity that asks for data) registers a Definition:
// a cache key prefix, a default TTL, optional key templates, TTL overrides,
// result casts and a dispatch table of computations. The resulting Obtainer
// turns a semantic request into a deterministic cache key, computes on a miss
// and invalidates at four scopes.
//
// # Basic Usage
//
//	registry := obtainable.NewRegistry(store.NewRedisStore(redisClient, store.DefaultRedisConfig(), logger),
//		obtainable.DefaultRegistryConfig(), logger)
//
//	_, err := registry.Register(obtainable.Definition{
//		Name:   "app/obtainables.User",
//		Prefix: "user",
//		TTL:    time.Hour,
//		KeyMap: map[string]string{
//			"orders": "orders:$status",
//		},
//		Computations: map[string]obtainable.Computation{
//			"orders": func(ctx context.Context, c obtainable.Caller, args obtainable.Args) (any, error) {
//				return loadOrders(ctx, c.ID, args["status"])
//			},
//		},
//	})
//
//	users, _ := registry.Resolve("app/models.User")
//	orders, err := users.Obtain(ctx, "orders", obtainable.Args{"id": 42, "status": "open", "page": 2})
//	// cache key: user:42:orders:open:page=2
//
// # Cache Keys
//
// Keys have the form prefix[:id]:body[:name=value...]. The reserved id
// argument always follows the prefix. The body is the key template with its
// $name placeholders substituted; a missing placeholder fails with
// ErrMissingRequiredMappedArguments before the store is touched. Remaining
// arguments are appended as name=value pairs sorted by name.
//
// # Tags
//
// Every entry is written under three tags:
//
//   - obt                 - global, flushed by Purge
//   - obt:<prefix>        - owner type, flushed by FlushAll
//   - obt:<prefix>:<key>  - semantic key, flushed by Flush without args
//
// Flush with args deletes a single argument variant.
//
// # Casts
//
// Results are stored raw and cast on every return path, so a cast change
// applies to existing entries immediately. A failing cast returns the raw
// value.
//
// # Concurrency
//
// Compute-on-miss takes no lock. Concurrent misses for one key may each run
// the computation; the last write wins. Computations are expected to be
// idempotent and free of side effects.
package obtainable
