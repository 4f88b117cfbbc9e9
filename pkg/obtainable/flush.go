package obtainable

import (
	"context"
	"fmt"
)

// Flush invalidates cached entries for keys.
//
// With no keys it behaves as FlushAll. With args, only the exact variant of
// each key is deleted; sibling variants survive. Without args, every variant
// of each key is flushed through its specific tag. It reports true only when
// every per-key operation succeeded.
func (o *Obtainer) Flush(ctx context.Context, keys []string, args Args) (bool, error) {
	if len(keys) == 0 {
		return o.FlushAll(ctx)
	}

	succeeded := 0
	for _, key := range keys {
		var (
			ok  bool
			err error
		)
		if len(args) > 0 {
			cacheKey, buildErr := o.BuildKey(key, args)
			if buildErr != nil {
				return false, buildErr
			}
			ok, err = o.store.Delete(ctx, o.Tags(key), cacheKey)
			Flushes.WithLabelValues("variant").Inc()
		} else {
			ok, err = o.store.Flush(ctx, []string{o.Tag(key)})
			Flushes.WithLabelValues("key").Inc()
		}
		if err != nil {
			return false, err
		}
		if ok {
			succeeded++
		}
	}

	o.logger.Info().
		Strs("keys", keys).
		Int("succeeded", succeeded).
		Bool("variant", len(args) > 0).
		Msg("Flushed obtainable keys")

	return succeeded == len(keys), nil
}

// FlushAll flushes every entry of this owner type.
func (o *Obtainer) FlushAll(ctx context.Context) (bool, error) {
	Flushes.WithLabelValues("owner").Inc()
	ok, err := o.store.Flush(ctx, []string{o.OwnerTag()})
	if err != nil {
		return false, err
	}
	o.logger.Info().Str("tag", o.OwnerTag()).Msg("Flushed owner type")
	return ok, nil
}

// Purge flushes every entry of every owner type sharing the store.
func (o *Obtainer) Purge(ctx context.Context) (bool, error) {
	return purge(ctx, o.store, o.logger)
}

// Keys lists the live cache keys of key, or of the whole owner type when key
// is empty. The store must implement KeyLister.
func (o *Obtainer) Keys(ctx context.Context, key string) ([]string, error) {
	lister, ok := o.store.(KeyLister)
	if !ok {
		return nil, fmt.Errorf("%w: %T cannot list keys", ErrUnsupported, o.store)
	}
	tag := o.OwnerTag()
	if key != "" {
		tag = o.Tag(key)
	}
	return lister.Keys(ctx, tag)
}
