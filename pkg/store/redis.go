package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidEntry indicates the stored entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid store entry")
)

// RedisConfig holds the Redis store configuration.
type RedisConfig struct {
	// Namespace prefixes every Redis key the store writes
	Namespace string

	// FlushBatchSize is the SSCAN count and DEL batch size used by Flush
	FlushBatchSize int64
}

// DefaultRedisConfig returns the default Redis store configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Namespace:      "obtainable",
		FlushBatchSize: 500,
	}
}

// RedisStore is a tagged store backed by Redis.
type RedisStore struct {
	redis  *redis.Client
	config RedisConfig
	logger zerolog.Logger
}

// NewRedisStore creates a new tagged store with Redis backend.
func NewRedisStore(redisClient *redis.Client, cfg RedisConfig, logger zerolog.Logger) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultRedisConfig().Namespace
	}
	if cfg.FlushBatchSize <= 0 {
		cfg.FlushBatchSize = DefaultRedisConfig().FlushBatchSize
	}
	return &RedisStore{
		redis:  redisClient,
		config: cfg,
		logger: logger,
	}
}

func (s *RedisStore) entryKey(key string) string { return s.config.Namespace + ":entry:" + key }
func (s *RedisStore) plainKey(key string) string { return s.config.Namespace + ":plain:" + key }
func (s *RedisStore) tagKey(tag string) string   { return s.config.Namespace + ":tag:" + tag }

// Has reports whether key exists under any of tags.
func (s *RedisStore) Has(ctx context.Context, tags []string, key string) (bool, error) {
	_, found, err := s.Get(ctx, tags, key)
	return found, err
}

// Get retrieves the raw value for key.
func (s *RedisStore) Get(ctx context.Context, tags []string, key string) (any, bool, error) {
	var (
		data []byte
		err  error
	)

	if len(tags) == 0 {
		data, err = s.redis.Get(ctx, s.plainKey(key)).Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil, false, nil
			}
			StoreErrors.WithLabelValues("get").Inc()
			return nil, false, fmt.Errorf("redis get: %w", err)
		}
	} else {
		pipe := s.redis.Pipeline()
		members := make([]*redis.BoolCmd, len(tags))
		for i, tag := range tags {
			members[i] = pipe.SIsMember(ctx, s.tagKey(tag), key)
		}
		get := pipe.Get(ctx, s.entryKey(key))
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			StoreErrors.WithLabelValues("get").Inc()
			return nil, false, fmt.Errorf("redis get: %w", err)
		}

		if !anyTrue(members) {
			return nil, false, nil
		}
		data, err = get.Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil, false, nil
			}
			StoreErrors.WithLabelValues("get").Inc()
			return nil, false, fmt.Errorf("redis get: %w", err)
		}
	}

	entry, err := decodeEntry(data)
	if err != nil {
		StoreErrors.WithLabelValues("get").Inc()
		return nil, false, err
	}

	// Check if expired
	if entry.IsExpired() {
		s.dropExpired(ctx, tags, key)
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Put stores value under every tag with the given TTL.
// A non-positive TTL stores nothing.
func (s *RedisStore) Put(ctx context.Context, tags []string, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := encodeEntry(newEntry(value, ttl))
	if err != nil {
		StoreErrors.WithLabelValues("put").Inc()
		return err
	}

	if len(tags) == 0 {
		if err := s.redis.Set(ctx, s.plainKey(key), data, ttl).Err(); err != nil {
			StoreErrors.WithLabelValues("put").Inc()
			return fmt.Errorf("redis set: %w", err)
		}
		return nil
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.entryKey(key), data, ttl)
	for _, tag := range tags {
		tagKey := s.tagKey(tag)
		pipe.SAdd(ctx, tagKey, key)
		pipe.ExpireNX(ctx, tagKey, ttl)
		pipe.ExpireGT(ctx, tagKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis put: %w", err)
	}

	s.logger.Debug().
		Str("key", key).
		Strs("tags", tags).
		Dur("ttl", ttl).
		Msg("Stored entry")

	return nil
}

// Delete removes key if it is visible under any of tags.
func (s *RedisStore) Delete(ctx context.Context, tags []string, key string) (bool, error) {
	if len(tags) == 0 {
		n, err := s.redis.Del(ctx, s.plainKey(key)).Result()
		if err != nil {
			StoreErrors.WithLabelValues("delete").Inc()
			return false, fmt.Errorf("redis del: %w", err)
		}
		return n > 0, nil
	}

	visible, err := s.isMember(ctx, tags, key)
	if err != nil {
		StoreErrors.WithLabelValues("delete").Inc()
		return false, err
	}
	if !visible {
		return false, nil
	}

	pipe := s.redis.TxPipeline()
	del := pipe.Del(ctx, s.entryKey(key))
	for _, tag := range tags {
		pipe.SRem(ctx, s.tagKey(tag), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("redis del: %w", err)
	}
	return del.Val() > 0, nil
}

// Flush removes every entry carrying any of tags. Without tags it removes
// every untagged entry.
func (s *RedisStore) Flush(ctx context.Context, tags []string) (bool, error) {
	if len(tags) == 0 {
		if err := s.deleteMatching(ctx, s.plainKey("*")); err != nil {
			StoreErrors.WithLabelValues("flush").Inc()
			return false, err
		}
		return true, nil
	}

	for _, tag := range tags {
		if err := s.flushTag(ctx, tag); err != nil {
			StoreErrors.WithLabelValues("flush").Inc()
			return false, err
		}
	}
	return true, nil
}

// Keys lists the live keys written under tag.
func (s *RedisStore) Keys(ctx context.Context, tag string) ([]string, error) {
	members, err := s.redis.SMembers(ctx, s.tagKey(tag)).Result()
	if err != nil {
		StoreErrors.WithLabelValues("keys").Inc()
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(members) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	exists := make([]*redis.IntCmd, len(members))
	for i, key := range members {
		exists[i] = pipe.Exists(ctx, s.entryKey(key))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("keys").Inc()
		return nil, fmt.Errorf("redis exists: %w", err)
	}

	keys := make([]string, 0, len(members))
	for i, key := range members {
		if exists[i].Val() > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// dropExpired removes an entry whose envelope outlived its expiry. A failure
// only leaves the entry for Redis to expire.
func (s *RedisStore) dropExpired(ctx context.Context, tags []string, key string) {
	if _, err := s.Delete(ctx, tags, key); err != nil {
		s.logger.Debug().Err(err).Str("cache_key", key).Msg("Failed to remove expired entry")
	}
}

func (s *RedisStore) flushTag(ctx context.Context, tag string) error {
	tagKey := s.tagKey(tag)
	batch := make([]string, 0, s.config.FlushBatchSize)
	removed := 0

	iter := s.redis.SScan(ctx, tagKey, 0, "", s.config.FlushBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, s.entryKey(iter.Val()))
		if int64(len(batch)) >= s.config.FlushBatchSize {
			if err := s.redis.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			removed += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis sscan: %w", err)
	}

	if len(batch) > 0 {
		if err := s.redis.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		removed += len(batch)
	}
	if err := s.redis.Del(ctx, tagKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	FlushedKeys.Add(float64(removed))
	s.logger.Debug().Str("tag", tag).Int("entries", removed).Msg("Flushed tag")
	return nil
}

func (s *RedisStore) deleteMatching(ctx context.Context, pattern string) error {
	iter := s.redis.Scan(ctx, 0, pattern, s.config.FlushBatchSize).Iterator()
	batch := make([]string, 0, s.config.FlushBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= s.config.FlushBatchSize {
			if err := s.redis.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.redis.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) isMember(ctx context.Context, tags []string, key string) (bool, error) {
	pipe := s.redis.Pipeline()
	members := make([]*redis.BoolCmd, len(tags))
	for i, tag := range tags {
		members[i] = pipe.SIsMember(ctx, s.tagKey(tag), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return anyTrue(members), nil
}

func anyTrue(cmds []*redis.BoolCmd) bool {
	for _, cmd := range cmds {
		if cmd.Val() {
			return true
		}
	}
	return false
}
