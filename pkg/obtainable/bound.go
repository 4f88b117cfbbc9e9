package obtainable

import "context"

// Entity is an owning instance that requests data about itself.
type Entity interface {
	ObtainableID() any
}

// Bound ties an obtainer to one owning instance. Its calls carry the
// instance id as the positional id argument and the instance as Caller.
type Bound struct {
	obtainer *Obtainer
	entity   Entity
}

// Bind ties o to entity without going through a registry.
func Bind(o *Obtainer, entity Entity) *Bound {
	return &Bound{obtainer: o, entity: entity}
}

// Obtainer returns the underlying obtainer.
func (b *Bound) Obtainer() *Obtainer { return b.obtainer }

// Obtain obtains key for the bound instance.
func (b *Bound) Obtain(ctx context.Context, key string, args Args, opts ...ObtainOption) (any, error) {
	id := b.entity.ObtainableID()
	withID := args.clone()
	withID[IDArg] = id

	opts = append([]ObtainOption{WithCaller(Caller{ID: id, Owner: b.entity})}, opts...)
	return b.obtainer.Obtain(ctx, key, withID, opts...)
}

// Flush deletes the bound instance's variant of each key.
func (b *Bound) Flush(ctx context.Context, keys []string, args Args) (bool, error) {
	withID := args.clone()
	withID[IDArg] = b.entity.ObtainableID()
	return b.obtainer.Flush(ctx, keys, withID)
}

// FlushAll flushes every entry of the bound owner type.
func (b *Bound) FlushAll(ctx context.Context) (bool, error) {
	return b.obtainer.FlushAll(ctx)
}

// Keys lists cached keys of key for the owner type.
func (b *Bound) Keys(ctx context.Context, key string) ([]string, error) {
	return b.obtainer.Keys(ctx, key)
}
