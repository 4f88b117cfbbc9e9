package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is a stored value with its bookkeeping.
type Entry struct {
	// Value is the raw, uncast value
	Value any `json:"value"`

	// StoredAt is when the value was written
	StoredAt time.Time `json:"stored_at"`

	// ExpiresAt is when the entry becomes stale
	ExpiresAt time.Time `json:"expires_at"`
}

func newEntry(value any, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}

func encodeEntry(e *Entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return data, nil
}

// decodeEntry restores an entry. Integral JSON numbers come back as int64,
// other numbers as float64.
func decodeEntry(data []byte) (*Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var e Entry
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	e.Value = normalizeNumbers(e.Value)
	return &e, nil
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}
