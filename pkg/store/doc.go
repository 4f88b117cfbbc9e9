// Package store provides tagged key-value stores for package obtainable.
//
// Both stores implement obtainable.Store and obtainable.KeyLister:
//
//   - RedisStore keeps entries in Redis and indexes them per tag in Redis
//     sets, so any tag an entry was written under can find or flush it.
//   - MemoryStore keeps everything in process memory, for tests and single
//     process deployments.
//
// # Redis Layout
//
//	<ns>:entry:<key>  JSON Entry, expires with the entry TTL
//	<ns>:plain:<key>  JSON Entry written without tags
//	<ns>:tag:<tag>    SET of keys written under <tag>
//
// Tag sets only ever extend their expiry (EXPIRE NX followed by EXPIRE GT),
// so a set lives at least as long as the longest lived entry it indexes.
// This requires Redis 7 or newer.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	s := store.NewRedisStore(redisClient, store.DefaultRedisConfig(), logger)
//	err := s.Put(ctx, []string{"obt", "obt:user"}, "user:42:profile", profile, time.Hour)
//	v, found, err := s.Get(ctx, []string{"obt:user"}, "user:42:profile")
//
// # Metrics
//
//   - obtainable_store_errors_total{operation} - Store operation errors
//   - obtainable_store_flushed_keys_total      - Entries removed by tag flushes
package store
