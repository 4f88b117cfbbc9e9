package obtainable

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/Sternrassler/obtainable")

// Obtainer memoizes the computations of one owner type into a tagged store.
type Obtainer struct {
	name   string
	prefix string
	ttl    time.Duration

	keyMap     map[string]string
	mappedKeys []string
	ttlMap     map[string]time.Duration
	casts      map[string]CastKind

	computations map[string]Computation
	shortcuts    map[string]Shortcut

	store  Store
	logger zerolog.Logger
}

// NewObtainer validates def and creates an obtainer backed by store.
// Registration data is copied; later changes to def have no effect.
func NewObtainer(def Definition, store Store, logger zerolog.Logger) (*Obtainer, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidDefinition)
	}
	if def.Prefix == "" {
		return nil, fmt.Errorf("%w: %s: prefix is required", ErrInvalidDefinition, def.Name)
	}
	if strings.Contains(def.Prefix, Separator) {
		return nil, fmt.Errorf("%w: %s: prefix %q must not contain %q",
			ErrInvalidDefinition, def.Name, def.Prefix, Separator)
	}
	if def.TTL <= 0 {
		return nil, fmt.Errorf("%w: %s: ttl must be positive (got %s)", ErrInvalidDefinition, def.Name, def.TTL)
	}

	o := &Obtainer{
		name:         def.Name,
		prefix:       def.Prefix,
		ttl:          def.TTL,
		keyMap:       make(map[string]string, len(def.KeyMap)),
		ttlMap:       make(map[string]time.Duration, len(def.TTLMap)),
		casts:        make(map[string]CastKind, len(def.Casts)),
		computations: make(map[string]Computation, len(def.Computations)),
		shortcuts:    make(map[string]Shortcut, len(def.Shortcuts)),
		store:        store,
		logger:       logger,
	}

	for key, tpl := range def.KeyMap {
		if tpl == "" {
			return nil, fmt.Errorf("%w: %s: empty template for %q", ErrInvalidDefinition, def.Name, key)
		}
		if slices.Contains(Placeholders(tpl), IDArg) {
			return nil, fmt.Errorf("%w: %s: template for %q must not use $%s, the id is positional",
				ErrInvalidDefinition, def.Name, key, IDArg)
		}
		o.keyMap[key] = tpl
		o.mappedKeys = append(o.mappedKeys, key)
	}
	sort.Strings(o.mappedKeys)

	for key, ttl := range def.TTLMap {
		if ttl <= 0 {
			return nil, fmt.Errorf("%w: %s: ttl for %q must be positive (got %s)",
				ErrInvalidDefinition, def.Name, key, ttl)
		}
		o.ttlMap[key] = ttl
	}

	for key, kind := range def.Casts {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %s: unknown cast %q for %q", ErrInvalidDefinition, def.Name, kind, key)
		}
		o.casts[key] = kind
	}

	for method, fn := range def.Computations {
		if fn == nil {
			return nil, fmt.Errorf("%w: %s@%s", ErrInvalidBinding, def.Name, method)
		}
		o.computations[method] = fn
	}

	for name, fn := range def.Shortcuts {
		if fn == nil {
			return nil, fmt.Errorf("%w: %s@%s", ErrInvalidBinding, def.Name, name)
		}
		o.shortcuts[name] = fn
	}

	return o, nil
}

// Name returns the obtainer identifier.
func (o *Obtainer) Name() string { return o.name }

// Prefix returns the owner prefix.
func (o *Obtainer) Prefix() string { return o.prefix }

// ObtainOption configures a single Obtain call.
type ObtainOption func(*obtainOptions)

type obtainOptions struct {
	useCache bool
	caller   Caller
}

// WithoutCache bypasses the store entirely: no read, no write.
func WithoutCache() ObtainOption {
	return WithCache(false)
}

// WithCache toggles store usage.
func WithCache(use bool) ObtainOption {
	return func(o *obtainOptions) { o.useCache = use }
}

// WithCaller passes the calling owner instance to the computation.
func WithCaller(c Caller) ObtainOption {
	return func(o *obtainOptions) { o.caller = c }
}

// Obtain returns the value for key and args, computing and storing it on a
// miss. Every return path passes through Cast; the store always holds the
// raw result.
//
// Concurrent misses for the same key each compute; the last write wins.
func (o *Obtainer) Obtain(ctx context.Context, key string, args Args, opts ...ObtainOption) (any, error) {
	options := obtainOptions{useCache: true}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "obtainable.Obtain", trace.WithAttributes(
		attribute.String("obtainable.owner", o.prefix),
		attribute.String("obtainable.key", key),
		attribute.Bool("obtainable.use_cache", options.useCache),
	))
	defer span.End()

	cacheKey, err := o.BuildKey(key, args)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.String("obtainable.cache_key", cacheKey))

	if !options.useCache {
		result, err := o.compute(ctx, key, args, options.caller)
		if err != nil {
			return nil, spanError(span, err)
		}
		return o.Cast(key, result), nil
	}

	tags := o.Tags(key)
	value, found, err := o.store.Get(ctx, tags, cacheKey)
	if err != nil {
		o.logger.Warn().Err(err).Str("cache_key", cacheKey).Msg("Store get failed")
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Bool("obtainable.cache_hit", found))

	if found {
		CacheHits.WithLabelValues(o.prefix).Inc()
		o.logger.Debug().Str("cache_key", cacheKey).Bool("cache_hit", true).Msg("Obtained from store")
		return o.Cast(key, value), nil
	}

	CacheMisses.WithLabelValues(o.prefix).Inc()
	result, err := o.compute(ctx, key, args, options.caller)
	if err != nil {
		return nil, spanError(span, err)
	}

	ttl := o.TTL(key)
	if err := o.store.Put(ctx, tags, cacheKey, result, ttl); err != nil {
		o.logger.Warn().Err(err).Str("cache_key", cacheKey).Msg("Store put failed")
		return nil, spanError(span, err)
	}

	o.logger.Debug().
		Str("cache_key", cacheKey).
		Bool("cache_hit", false).
		Dur("ttl", ttl).
		Msg("Computed and stored")

	return o.Cast(key, result), nil
}

// ObtainAs obtains key and asserts the result to T. A nil result yields the
// zero value of T.
func ObtainAs[T any](ctx context.Context, o *Obtainer, key string, args Args, opts ...ObtainOption) (T, error) {
	var zero T
	v, err := o.Obtain(ctx, key, args, opts...)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s yielded %T, want %T", ErrTypeMismatch, key, v, zero)
	}
	return t, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
