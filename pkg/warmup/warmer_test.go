package warmup

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/obtainable/internal/testutil"
	"github.com/Sternrassler/obtainable/pkg/obtainable"
	"github.com/Sternrassler/obtainable/pkg/store"
)

var errBoom = errors.New("boom")

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

// gatedObtainer tracks how many obtains run at once.
type gatedObtainer struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	fail    map[string]bool
	delay   time.Duration
}

func (g *gatedObtainer) Obtain(ctx context.Context, key string, args obtainable.Args, _ ...obtainable.ObtainOption) (any, error) {
	n := g.active.Add(1)
	defer g.active.Add(-1)
	for {
		prev := g.maxSeen.Load()
		if n <= prev || g.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}

	select {
	case <-time.After(g.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if g.fail[key] {
		return nil, errBoom
	}
	return key + "!", nil
}

func TestNewWarmer_Defaults(t *testing.T) {
	w := NewWarmer(&gatedObtainer{}, Config{}, testLogger())

	if w.config.MaxConcurrency != 10 {
		t.Errorf("MaxConcurrency = %d, want 10", w.config.MaxConcurrency)
	}
	if w.config.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", w.config.Timeout)
	}
}

func TestNewWarmer_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewWarmer should panic with nil obtainer")
		}
	}()
	NewWarmer(nil, DefaultConfig(), testLogger())
}

func TestWarm_OrderAndConcurrency(t *testing.T) {
	o := &gatedObtainer{delay: 5 * time.Millisecond}
	w := NewWarmer(o, Config{MaxConcurrency: 3, Timeout: time.Second}, testLogger())

	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	requests := make([]Request, len(keys))
	for i, k := range keys {
		requests[i] = Request{Key: k}
	}

	results, err := w.Warm(context.Background(), requests)
	if err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	for i, r := range results {
		if r.Key != keys[i] || r.Value != keys[i]+"!" || r.Err != nil {
			t.Errorf("results[%d] = %+v", i, r)
		}
	}
	if peak := o.maxSeen.Load(); peak > 3 {
		t.Errorf("max concurrency = %d, want <= 3", peak)
	}
}

func TestWarm_PartialResults(t *testing.T) {
	o := &gatedObtainer{fail: map[string]bool{"b": true}}
	w := NewWarmer(o, DefaultConfig(), testLogger())

	results, err := w.Warm(context.Background(), []Request{{Key: "a"}, {Key: "b"}, {Key: "c"}})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Warm() error = %v, want errBoom", err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("successful requests should keep their results")
	}
	if !errors.Is(results[1].Err, errBoom) {
		t.Errorf("results[1].Err = %v", results[1].Err)
	}
}

func TestWarm_StopOnError(t *testing.T) {
	o := &gatedObtainer{fail: map[string]bool{"first": true}, delay: 20 * time.Millisecond}
	w := NewWarmer(o, Config{MaxConcurrency: 1, Timeout: time.Second, StopOnError: true}, testLogger())

	requests := []Request{{Key: "first"}, {Key: "second"}, {Key: "third"}}
	results, err := w.Warm(context.Background(), requests)
	if err == nil {
		t.Fatal("Warm() should fail")
	}
	for _, r := range results[1:] {
		if r.Err == nil {
			t.Errorf("request %s should not succeed after cancellation", r.Key)
		}
	}
}

func TestWarm_Timeout(t *testing.T) {
	o := &gatedObtainer{delay: time.Second}
	w := NewWarmer(o, Config{MaxConcurrency: 2, Timeout: 10 * time.Millisecond}, testLogger())

	results, err := w.Warm(context.Background(), []Request{{Key: "slow"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Warm() error = %v, want deadline exceeded", err)
	}
	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Errorf("results[0].Err = %v", results[0].Err)
	}
}

func TestWarm_Empty(t *testing.T) {
	w := NewWarmer(&gatedObtainer{}, DefaultConfig(), testLogger())

	results, err := w.Warm(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("Warm(nil) = %v, %v", results, err)
	}
}

func TestWarm_FillsStore(t *testing.T) {
	counter := testutil.NewCounter()
	var mu sync.Mutex
	seen := make(map[any]bool)

	o, err := obtainable.NewObtainer(obtainable.Definition{
		Name:   "app/obtainables.User",
		Prefix: "user",
		TTL:    time.Minute,
		KeyMap: map[string]string{"orders": "orders:$status"},
		Computations: map[string]obtainable.Computation{
			"orders": func(_ context.Context, _ obtainable.Caller, args obtainable.Args) (any, error) {
				counter.Inc("orders")
				mu.Lock()
				seen[args["id"]] = true
				mu.Unlock()
				return args["status"], nil
			},
		},
	}, store.NewMemoryStore(), testLogger())
	if err != nil {
		t.Fatalf("NewObtainer() error = %v", err)
	}

	var requests []Request
	for id := 1; id <= 20; id++ {
		requests = append(requests, Request{Key: "orders", Args: obtainable.Args{"id": id, "status": "open"}})
	}

	w := NewWarmer(o, Config{MaxConcurrency: 4}, testLogger())
	if _, err := w.Warm(context.Background(), requests); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if counter.Count("orders") != 20 || len(seen) != 20 {
		t.Fatalf("computed %d times for %d ids, want 20", counter.Count("orders"), len(seen))
	}

	// everything is warm now
	if _, err := w.Warm(context.Background(), requests); err != nil {
		t.Fatalf("second Warm() error = %v", err)
	}
	if counter.Count("orders") != 20 {
		t.Errorf("second warm-up recomputed: %d", counter.Count("orders"))
	}
}
