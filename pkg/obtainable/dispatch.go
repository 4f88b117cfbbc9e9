package obtainable

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MethodName returns the dispatch table entry a semantic key binds to.
func MethodName(key string) string {
	return camelCase(key)
}

// HasComputation reports whether key resolves to a registered computation.
func (o *Obtainer) HasComputation(key string) bool {
	_, ok := o.computations[camelCase(key)]
	return ok
}

// Call resolves the named shortcut and runs the resulting dispatch through
// the obtain pipeline.
func (o *Obtainer) Call(ctx context.Context, name string, params ...any) (any, error) {
	shortcut, ok := o.shortcuts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", ErrUnknownObtainableMethod, o.name, name)
	}

	d := shortcut(params...)
	opts := []ObtainOption{WithCaller(d.Caller)}
	if d.SkipCache {
		opts = append(opts, WithoutCache())
	}
	return o.Obtain(ctx, d.Key, d.Args, opts...)
}

func (o *Obtainer) compute(ctx context.Context, key string, args Args, caller Caller) (any, error) {
	method := camelCase(key)
	fn, ok := o.computations[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", ErrUnknownObtainableMethod, o.name, method)
	}

	start := time.Now()
	result, err := fn(ctx, caller, args.clone())
	ComputationDuration.WithLabelValues(o.prefix).Observe(time.Since(start).Seconds())
	if err != nil {
		Computations.WithLabelValues(o.prefix, "error").Inc()
		o.logger.Debug().Err(err).Str("method", method).Msg("Computation failed")
		return nil, err
	}

	Computations.WithLabelValues(o.prefix, "ok").Inc()
	return result, nil
}

// camelCase turns "simple-test_mapped key" into "simpleTestMappedKey".
func camelCase(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})

	var b strings.Builder
	b.Grow(len(key))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if i == 0 {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		b.WriteString(w[size:])
	}
	return b.String()
}
