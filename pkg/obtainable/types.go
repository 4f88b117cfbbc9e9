package obtainable

import (
	"context"
	"time"
)

const (
	// Separator joins the segments of a cache key.
	Separator = ":"

	// IDArg is the reserved argument carrying the owner identifier. It is
	// always rendered directly after the prefix.
	IDArg = "id"

	// GlobalTag is shared by every owner type; flushing it purges everything.
	GlobalTag = "obt"

	// DefaultTTL is used by configuration loaders when an owner type sets none.
	DefaultTTL = time.Hour
)

// Args maps argument names to scalar values.
type Args map[string]any

// clone returns a shallow copy that is safe to mutate.
func (a Args) clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Caller is the execution context handed to a computation. Owner is the
// concrete owning instance (nil for static calls) and ID its identifier.
type Caller struct {
	ID    any
	Owner any
}

// Computation produces a fresh value on a cache miss.
type Computation func(ctx context.Context, caller Caller, args Args) (any, error)

// Dispatch is what a Shortcut resolves to before entering the obtain pipeline.
type Dispatch struct {
	Key       string
	Args      Args
	Caller    Caller
	SkipCache bool
}

// Shortcut maps free-form call parameters onto a semantic key request.
type Shortcut func(params ...any) Dispatch

// CastKind names a result coercion applied on every return path.
type CastKind string

// Supported cast kinds.
const (
	CastInteger  CastKind = "integer"
	CastInt      CastKind = "int"
	CastString   CastKind = "string"
	CastBoolean  CastKind = "boolean"
	CastBool     CastKind = "bool"
	CastArray    CastKind = "array"
	CastObject   CastKind = "object"
	CastNull     CastKind = "null"
	CastDatetime CastKind = "datetime"
)

// Valid reports whether k is a known cast kind.
func (k CastKind) Valid() bool {
	switch k {
	case CastInteger, CastInt, CastString, CastBoolean, CastBool,
		CastArray, CastObject, CastNull, CastDatetime:
		return true
	}
	return false
}

// Definition is the static registration data of one owner type.
type Definition struct {
	// Name identifies the obtainer in the obtainables namespace
	// (e.g. "app/obtainables.User").
	Name string

	// Prefix is the first cache key segment and the owner-type tag suffix.
	Prefix string

	// TTL is the default time-to-live. Must be positive.
	TTL time.Duration

	// KeyMap maps semantic keys to key templates ("orders:$status").
	KeyMap map[string]string

	// TTLMap overrides TTL per semantic key.
	TTLMap map[string]time.Duration

	// Casts coerces results per semantic key.
	Casts map[string]CastKind

	// Computations is the dispatch table, keyed by camel-cased semantic key
	// ("simple-test" -> "simpleTest").
	Computations map[string]Computation

	// Shortcuts are named entry points resolved by Obtainer.Call.
	Shortcuts map[string]Shortcut
}
