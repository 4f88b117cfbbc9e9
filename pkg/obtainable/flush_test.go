package obtainable_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/obtainable/internal/testutil"
	"github.com/Sternrassler/obtainable/pkg/obtainable"
)

func warm(t *testing.T, o *obtainable.Obtainer, key string, args obtainable.Args) {
	t.Helper()
	_, err := o.Obtain(context.Background(), key, args)
	require.NoError(t, err)
}

func TestFlush_SelectiveKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warm(t, f.obtainer, "key-test", obtainable.Args{"id": 1})
	warm(t, f.obtainer, "simple-test", obtainable.Args{"id": 1})
	warm(t, f.obtainer, "key-test-args", obtainable.Args{"id": 1, "user": 2, "sort": "asc"})

	ok, err := f.obtainer.Flush(ctx, []string{"key-test", "simple-test"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := f.obtainer.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"test:1:key-testing-args:2:asc"}, keys)
}

func TestFlush_AllVariantsOfKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warm(t, f.obtainer, "key-test", obtainable.Args{"id": 1})
	warm(t, f.obtainer, "key-test", obtainable.Args{"id": 2, "limit": 5})
	warm(t, f.obtainer, "simple-test", nil)

	ok, err := f.obtainer.Flush(ctx, []string{"key-test"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	keys, _ := f.obtainer.Keys(ctx, "key-test")
	assert.Empty(t, keys)
	keys, _ = f.obtainer.Keys(ctx, "")
	assert.Equal(t, []string{"test:simple-test"}, keys)
}

func TestFlush_SingleVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warm(t, f.obtainer, "key-test", obtainable.Args{"id": 1})
	warm(t, f.obtainer, "key-test", obtainable.Args{"id": 2})

	ok, err := f.obtainer.Flush(ctx, []string{"key-test"}, obtainable.Args{"id": 1})
	require.NoError(t, err)
	assert.True(t, ok)

	keys, _ := f.obtainer.Keys(ctx, "key-test")
	assert.Equal(t, []string{"test:2:key-testing"}, keys)

	// the variant is already gone
	ok, err = f.obtainer.Flush(ctx, []string{"key-test"}, obtainable.Args{"id": 1})
	require.NoError(t, err)
	assert.False(t, ok)

	// recomputed after the flush
	warm(t, f.obtainer, "key-test", obtainable.Args{"id": 1})
	assert.Equal(t, 3, f.counter.Count("key-test"))
}

func TestFlush_VariantNeedsPlaceholders(t *testing.T) {
	f := newFixture(t)

	_, err := f.obtainer.Flush(context.Background(), []string{"key-test-args"}, obtainable.Args{"id": 1})
	assert.ErrorIs(t, err, obtainable.ErrMissingRequiredMappedArguments)
}

func TestFlush_NoKeysFlushesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := obtainable.NewObtainer(obtainable.Definition{
		Name:   "app/obtainables.Other",
		Prefix: "other",
		TTL:    time.Hour,
		Computations: map[string]obtainable.Computation{
			"simpleTest": echo,
		},
	}, f.store, testLogger())
	require.NoError(t, err)

	warm(t, f.obtainer, "simple-test", nil)
	warm(t, other, "simple-test", nil)

	ok, err := f.obtainer.Flush(ctx, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	keys, _ := f.obtainer.Keys(ctx, "")
	assert.Empty(t, keys)
	keys, _ = other.Keys(ctx, "")
	assert.Equal(t, []string{"other:simple-test"}, keys, "other owner types survive")

	// purge is global regardless of who starts it
	ok, err = f.obtainer.Purge(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	keys, _ = other.Keys(ctx, "")
	assert.Empty(t, keys)
}

func TestFlush_StoreErrorsPassThrough(t *testing.T) {
	f, failing := newFailingFixture(t)
	ctx := context.Background()

	failing.FailFlushTags["obt:test:simple-test"] = true
	_, err := f.obtainer.Flush(ctx, []string{"key-test", "simple-test"}, nil)
	assert.Equal(t, testutil.ErrInjected, err)

	failing.FailDelete = true
	_, err = f.obtainer.Flush(ctx, []string{"key-test"}, obtainable.Args{"id": 1})
	assert.Equal(t, testutil.ErrInjected, err)

	failing.FailFlushTags["obt:test"] = true
	_, err = f.obtainer.FlushAll(ctx)
	assert.Equal(t, testutil.ErrInjected, err)
}

func TestKeys_Unsupported(t *testing.T) {
	f, _ := newFailingFixture(t)

	_, err := f.obtainer.Keys(context.Background(), "")
	assert.ErrorIs(t, err, obtainable.ErrUnsupported)
}
