package obtainable_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/obtainable/internal/testutil"
	"github.com/Sternrassler/obtainable/pkg/obtainable"
	"github.com/Sternrassler/obtainable/pkg/store"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

// testUser is the owner type used by binding and registry tests.
type testUser struct {
	id int
}

func (u *testUser) ObtainableID() any { return u.id }

// counted wraps fn so every run is recorded under key.
func counted(c *testutil.Counter, key string, fn obtainable.Computation) obtainable.Computation {
	return func(ctx context.Context, caller obtainable.Caller, args obtainable.Args) (any, error) {
		c.Inc(key)
		return fn(ctx, caller, args)
	}
}

func echo(_ context.Context, _ obtainable.Caller, args obtainable.Args) (any, error) {
	return args["value"], nil
}

// testDefinition describes the "test" owner type.
func testDefinition(c *testutil.Counter) obtainable.Definition {
	return obtainable.Definition{
		Name:   "app/obtainables.Test",
		Prefix: "test",
		TTL:    time.Hour,
		KeyMap: map[string]string{
			"key-test":      "key-testing",
			"key-test-args": "key-testing-args:$user:$sort",
		},
		TTLMap: map[string]time.Duration{
			"short-lived": 5 * time.Minute,
		},
		Casts: map[string]obtainable.CastKind{
			"as-int":      obtainable.CastInteger,
			"as-string":   obtainable.CastString,
			"as-bool":     obtainable.CastBoolean,
			"as-array":    obtainable.CastArray,
			"as-object":   obtainable.CastObject,
			"as-null":     obtainable.CastNull,
			"as-datetime": obtainable.CastDatetime,
		},
		Computations: map[string]obtainable.Computation{
			"keyTest": counted(c, "key-test", func(_ context.Context, _ obtainable.Caller, args obtainable.Args) (any, error) {
				return fmt.Sprintf("computed:%v", args["id"]), nil
			}),
			"keyTestArgs": counted(c, "key-test-args", func(_ context.Context, _ obtainable.Caller, args obtainable.Args) (any, error) {
				return fmt.Sprintf("%v/%v", args["user"], args["sort"]), nil
			}),
			"simpleTest": counted(c, "simple-test", func(context.Context, obtainable.Caller, obtainable.Args) (any, error) {
				return "simple", nil
			}),
			"shortLived": counted(c, "short-lived", func(context.Context, obtainable.Caller, obtainable.Args) (any, error) {
				return 1, nil
			}),
			"whoami": counted(c, "whoami", func(_ context.Context, caller obtainable.Caller, _ obtainable.Args) (any, error) {
				return caller.ID, nil
			}),
			"failing": counted(c, "failing", func(context.Context, obtainable.Caller, obtainable.Args) (any, error) {
				return nil, errComputation
			}),
			"asInt":      counted(c, "as-int", echo),
			"asString":   counted(c, "as-string", echo),
			"asBool":     counted(c, "as-bool", echo),
			"asArray":    counted(c, "as-array", echo),
			"asObject":   counted(c, "as-object", echo),
			"asNull":     counted(c, "as-null", echo),
			"asDatetime": counted(c, "as-datetime", echo),
			"asPlain":    counted(c, "as-plain", echo),
		},
		Shortcuts: map[string]obtainable.Shortcut{
			"userOrders": func(params ...any) obtainable.Dispatch {
				return obtainable.Dispatch{
					Key:  "key-test-args",
					Args: obtainable.Args{"id": params[0], "user": params[1], "sort": params[2]},
				}
			},
			"freshSimple": func(...any) obtainable.Dispatch {
				return obtainable.Dispatch{Key: "simple-test", SkipCache: true}
			},
		},
	}
}

var errComputation = errors.New("computation failed")

type fixture struct {
	obtainer *obtainable.Obtainer
	store    *store.MemoryStore
	counter  *testutil.Counter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	counter := testutil.NewCounter()
	s := store.NewMemoryStore()
	o, err := obtainable.NewObtainer(testDefinition(counter), s, testLogger())
	require.NoError(t, err)
	return &fixture{obtainer: o, store: s, counter: counter}
}

// newFailingFixture wires the test owner type to a store that can be told to fail.
func newFailingFixture(t *testing.T) (*fixture, *testutil.FailingStore) {
	t.Helper()
	counter := testutil.NewCounter()
	mem := store.NewMemoryStore()
	failing := testutil.NewFailingStore(mem)
	o, err := obtainable.NewObtainer(testDefinition(counter), failing, testLogger())
	require.NoError(t, err)
	return &fixture{obtainer: o, store: mem, counter: counter}, failing
}
