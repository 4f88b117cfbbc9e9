package obtainable

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Cast coerces raw according to the cast registered for key. Casting is best
// effort: without a rule, or when coercion fails, raw is returned unchanged.
func (o *Obtainer) Cast(key string, raw any) any {
	kind, ok := o.casts[key]
	if !ok {
		return raw
	}

	out, err := castValue(kind, raw)
	if err != nil {
		castFallbacks.WithLabelValues(string(kind)).Inc()
		o.logger.Debug().
			Err(err).
			Str("key", key).
			Str("cast", string(kind)).
			Msg("Cast failed, returning raw value")
		return raw
	}
	return out
}

func castValue(kind CastKind, raw any) (any, error) {
	switch kind {
	case CastInteger, CastInt:
		return toInt(raw)
	case CastString:
		return cast.ToStringE(raw)
	case CastBoolean, CastBool:
		return cast.ToBoolE(raw)
	case CastArray:
		return toArray(raw)
	case CastObject:
		return cast.ToStringMapE(raw)
	case CastNull:
		return nil, nil
	case CastDatetime:
		return toTime(raw)
	default:
		return nil, fmt.Errorf("unknown cast %q", kind)
	}
}

// toInt reads strings as base 10 only; "010" is ten, "0x1A" fails.
func toInt(raw any) (int, error) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	default:
		return cast.ToIntE(raw)
	}

	s = strings.TrimSpace(s)
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}
	n, err := strconv.ParseInt(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("not a decimal integer: %q", s)
	}
	return int(n), nil
}

// toArray wraps scalars in a single element slice; nil becomes an empty slice.
func toArray(raw any) ([]any, error) {
	if raw == nil {
		return []any{}, nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if s, err := cast.ToSliceE(raw); err == nil {
			return s, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	case reflect.Map:
		m, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)

		out := make([]any, 0, len(m))
		for _, name := range names {
			out = append(out, m[name])
		}
		return out, nil
	}
	return []any{raw}, nil
}

// toTime interprets numeric values as Unix epoch seconds.
func toTime(raw any) (time.Time, error) {
	var seconds float64
	switch v := raw.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return time.Unix(cast.ToInt64(v), 0).UTC(), nil
	case float32, float64:
		seconds = cast.ToFloat64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, err
		}
		seconds = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("not numeric: %q", v)
		}
		seconds = f
	default:
		return time.Time{}, fmt.Errorf("not numeric: %T", raw)
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC(), nil
}
