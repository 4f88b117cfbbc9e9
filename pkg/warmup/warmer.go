package warmup

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/obtainable/pkg/obtainable"
)

// Requests tracks warm-up requests by result ("ok", "error")
var Requests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "obtainable_warmup_requests_total",
		Help: "Total number of warm-up requests by result",
	},
	[]string{"result"},
)

// Config holds warmer configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel obtains
	MaxConcurrency int
	// Timeout per obtain call
	Timeout time.Duration
	// StopOnError cancels outstanding requests after the first failure
	StopOnError bool
}

// DefaultConfig returns the default warmer configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// Obtainer is what the warmer drives; *obtainable.Obtainer and
// *obtainable.Bound both satisfy it.
type Obtainer interface {
	Obtain(ctx context.Context, key string, args obtainable.Args, opts ...obtainable.ObtainOption) (any, error)
}

// Request is one (semantic key, args) pair to warm
type Request struct {
	Key  string
	Args obtainable.Args
}

// Result is the outcome of a single request
type Result struct {
	Request
	Value any
	Err   error
}

// Warmer obtains many requests in parallel so later callers hit the store
type Warmer struct {
	obtainer Obtainer
	config   Config
	logger   zerolog.Logger
}

// NewWarmer creates a new warmer
func NewWarmer(o Obtainer, config Config, logger zerolog.Logger) *Warmer {
	if o == nil {
		panic("obtainer cannot be nil")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	return &Warmer{
		obtainer: o,
		config:   config,
		logger:   logger,
	}
}

// Warm obtains every request and returns the results in request order.
// Failed requests keep their error in the result; the returned error
// reports the first failure together with the partial count.
func (w *Warmer) Warm(ctx context.Context, requests []Request) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(requests))
	if len(requests) == 0 {
		return results, nil
	}

	w.logger.Info().
		Int("requests", len(requests)).
		Int("concurrency", w.config.MaxConcurrency).
		Msg("Starting warm-up")

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.MaxConcurrency)

	var done atomic.Int64
	for i, req := range requests {
		i, req := i, req
		results[i].Request = req

		if gCtx.Err() != nil {
			results[i].Err = gCtx.Err()
			continue
		}

		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gCtx, w.config.Timeout)
			value, err := w.obtainer.Obtain(reqCtx, req.Key, req.Args)
			cancel()

			results[i].Value = value
			results[i].Err = err
			if err != nil {
				Requests.WithLabelValues("error").Inc()
				w.logger.Warn().Err(err).Str("key", req.Key).Msg("Warm-up request failed")
				if w.config.StopOnError {
					return err
				}
				return nil
			}

			Requests.WithLabelValues("ok").Inc()
			// Progress logging every 50 requests
			if n := done.Add(1); n%50 == 0 {
				w.logger.Info().
					Int64("warmed", n).
					Int("total", len(requests)).
					Msg("Warm-up progress")
			}
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	var firstErr error
	for _, r := range results {
		if r.Err == nil {
			ok++
		} else if firstErr == nil {
			firstErr = r.Err
		}
	}

	w.logger.Info().
		Int("ok", ok).
		Int("total", len(requests)).
		Dur("duration", time.Since(start)).
		Msg("Warm-up complete")

	if firstErr != nil {
		return results, fmt.Errorf("warm-up incomplete (%d/%d ok): %w", ok, len(requests), firstErr)
	}
	return results, nil
}
