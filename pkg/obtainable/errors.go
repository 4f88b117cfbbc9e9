package obtainable

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by obtainers and the registry.
var (
	// ErrMissingRequiredMappedArguments is returned when a key template requires
	// placeholders the argument map does not provide.
	ErrMissingRequiredMappedArguments = errors.New("key requires more arguments")

	// ErrObtainableClassNotFound is returned when an owner type has no registered obtainer.
	ErrObtainableClassNotFound = errors.New("obtainable class does not exist")

	// ErrUnknownObtainableMethod is returned when a semantic key or shortcut has no binding.
	ErrUnknownObtainableMethod = errors.New("unknown obtainable method")

	// ErrInvalidBinding is returned when a registered binding is not callable.
	ErrInvalidBinding = errors.New("obtainable method should return a computation")

	// ErrInvalidDefinition is returned when registration data is malformed.
	ErrInvalidDefinition = errors.New("invalid obtainable definition")

	// ErrUnresolvableKey is returned when a cache key cannot be mapped back to a semantic key.
	ErrUnresolvableKey = errors.New("cache key cannot be resolved")

	// ErrTypeMismatch is returned by ObtainAs when the value has another type.
	ErrTypeMismatch = errors.New("obtained value has unexpected type")

	// ErrUnsupported is returned when the store lacks an optional capability.
	ErrUnsupported = errors.New("operation not supported by store")
)

// MissingArgumentsError lists every placeholder a template needed but did not get.
type MissingArgumentsError struct {
	Key     string
	Missing []string
}

// Error implements the error interface.
func (e *MissingArgumentsError) Error() string {
	return fmt.Sprintf("%s: key %q missing: %s",
		ErrMissingRequiredMappedArguments, e.Key, strings.Join(e.Missing, ", "))
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MissingArgumentsError) Unwrap() error {
	return ErrMissingRequiredMappedArguments
}
