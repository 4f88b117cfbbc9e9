package obtainable

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// RegistryConfig holds the owner-type resolution settings.
type RegistryConfig struct {
	// ModelsNamespace is the leading part of owner type identifiers
	// (e.g. "github.com/acme/app/models").
	ModelsNamespace string

	// ObtainablesNamespace replaces ModelsNamespace to form obtainer names.
	ObtainablesNamespace string

	// MemoTTL bounds how long a resolution is reused.
	MemoTTL time.Duration

	// MemoSize is the maximum number of memoized resolutions.
	MemoSize int
}

// DefaultRegistryConfig returns the default resolution settings.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		ModelsNamespace:      "app/models",
		ObtainablesNamespace: "app/obtainables",
		MemoTTL:              time.Minute,
		MemoSize:             128,
	}
}

// Registry resolves owner types to their obtainers. Build one at startup and
// pass it to whatever needs resolution.
type Registry struct {
	store  Store
	config RegistryConfig
	logger zerolog.Logger

	mu        sync.RWMutex
	obtainers map[string]*Obtainer

	memo *expirable.LRU[string, *Obtainer]
}

// NewRegistry creates a registry whose obtainers share store.
func NewRegistry(store Store, cfg RegistryConfig, logger zerolog.Logger) *Registry {
	if store == nil {
		panic("store cannot be nil")
	}

	defaults := DefaultRegistryConfig()
	if cfg.MemoTTL <= 0 {
		cfg.MemoTTL = defaults.MemoTTL
	}
	if cfg.MemoSize <= 0 {
		cfg.MemoSize = defaults.MemoSize
	}

	return &Registry{
		store:     store,
		config:    cfg,
		logger:    logger,
		obtainers: make(map[string]*Obtainer),
		memo:      expirable.NewLRU[string, *Obtainer](cfg.MemoSize, nil, cfg.MemoTTL),
	}
}

// Register validates def and makes its obtainer resolvable. Registering a
// name again replaces the previous obtainer.
func (r *Registry) Register(def Definition) (*Obtainer, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}

	o, err := NewObtainer(def, r.store, r.logger.With().Str("obtainer", def.Name).Logger())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.obtainers[def.Name] = o
	r.mu.Unlock()

	// resolutions made before this registration may be stale
	r.memo.Purge()

	r.logger.Debug().Str("obtainer", def.Name).Str("prefix", def.Prefix).Msg("Registered obtainer")
	return o, nil
}

// Resolve returns the obtainer for an owner type identifier.
func (r *Registry) Resolve(ownerType string) (*Obtainer, error) {
	if o, ok := r.memo.Get(ownerType); ok {
		resolutions.WithLabelValues("memo").Inc()
		return o, nil
	}

	name, err := r.ObtainableName(ownerType)
	if err != nil {
		resolutions.WithLabelValues("not_found").Inc()
		return nil, err
	}

	r.mu.RLock()
	o, ok := r.obtainers[name]
	r.mu.RUnlock()
	if !ok {
		resolutions.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrObtainableClassNotFound, name)
	}

	resolutions.WithLabelValues("found").Inc()
	r.memo.Add(ownerType, o)
	return o, nil
}

// Lookup returns a registered obtainer by its own name.
func (r *Registry) Lookup(name string) (*Obtainer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.obtainers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObtainableClassNotFound, name)
	}
	return o, nil
}

// ObtainableName maps an owner type identifier into the obtainables namespace.
func (r *Registry) ObtainableName(ownerType string) (string, error) {
	models := r.config.ModelsNamespace
	rest, ok := strings.CutPrefix(ownerType, models)
	if !ok || models == "" || rest == "" || !strings.ContainsRune("./\\", rune(rest[0])) {
		return "", fmt.Errorf("%w: %s is outside namespace %q", ErrObtainableClassNotFound, ownerType, models)
	}
	return r.config.ObtainablesNamespace + rest, nil
}

// Invalidate drops every memoized resolution.
func (r *Registry) Invalidate() {
	r.memo.Purge()
}

// Purge flushes the global tag, removing every owner type's entries.
func (r *Registry) Purge(ctx context.Context) (bool, error) {
	return purge(ctx, r.store, r.logger)
}

// For binds entity to the obtainer of its owner type.
func (r *Registry) For(entity Entity) (*Bound, error) {
	o, err := r.Resolve(OwnerTypeOf(entity))
	if err != nil {
		return nil, err
	}
	return &Bound{obtainer: o, entity: entity}, nil
}

// OwnerTypeOf returns the "pkgpath.TypeName" identity of v, looking through
// pointers.
func OwnerTypeOf(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func purge(ctx context.Context, store Store, logger zerolog.Logger) (bool, error) {
	Flushes.WithLabelValues("global").Inc()
	ok, err := store.Flush(ctx, []string{GlobalTag})
	if err != nil {
		return false, err
	}
	logger.Info().Str("tag", GlobalTag).Msg("Purged all obtainables")
	return ok, nil
}
