package obtainable

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reversed is the result of mapping a cache key back to its request.
type Reversed struct {
	Key      string
	Args     Args
	Template string
	CacheKey string
}

// ReverseKeyMap maps a cache key built by BuildKey back to its semantic key
// and arguments. It is a diagnostic helper, not an exact inverse: rendered
// values containing the separator, or two templates rendering to the same
// shape, cannot be told apart. Templates are tried in sorted key order.
// Unmapped keys are only recognised when they have a computation binding.
func (o *Obtainer) ReverseKeyMap(cacheKey string) (Reversed, error) {
	segments := strings.Split(cacheKey, Separator)
	if len(segments) < 2 || segments[0] != o.prefix {
		return Reversed{}, fmt.Errorf("%w: %q", ErrUnresolvableKey, cacheKey)
	}
	rest := segments[1:]

	if len(rest) == 1 {
		if key, ok := o.matchSingle(rest[0]); ok {
			return Reversed{Key: key, Args: Args{}, Template: o.Template(key), CacheKey: cacheKey}, nil
		}
		return Reversed{}, fmt.Errorf("%w: %q", ErrUnresolvableKey, cacheKey)
	}

	// id first, then the template
	if r, ok := o.matchSegments(rest[1:]); ok {
		r.Args[IDArg] = parseSegmentValue(rest[0])
		r.CacheKey = cacheKey
		return r, nil
	}

	if r, ok := o.matchSegments(rest); ok {
		r.CacheKey = cacheKey
		return r, nil
	}

	return Reversed{}, fmt.Errorf("%w: %q", ErrUnresolvableKey, cacheKey)
}

func (o *Obtainer) matchSingle(segment string) (string, bool) {
	for _, key := range o.mappedKeys {
		if o.keyMap[key] == segment {
			return key, true
		}
	}
	if o.isUnmappedKnown(segment) {
		return segment, true
	}
	for _, key := range o.mappedKeys {
		tpl := o.keyMap[key]
		idx := strings.IndexByte(tpl, placeholderMark)
		if idx <= 0 {
			continue
		}
		if strings.TrimSuffix(tpl[:idx], Separator) == segment {
			return key, true
		}
	}
	return "", false
}

func (o *Obtainer) matchSegments(segments []string) (Reversed, bool) {
	if len(segments) == 0 {
		return Reversed{}, false
	}

	for _, key := range o.mappedKeys {
		tpl := o.keyMap[key]
		if args, ok := matchTemplate(tpl, segments); ok {
			return Reversed{Key: key, Args: args, Template: tpl}, true
		}
	}

	head := segments[0]
	if o.isUnmappedKnown(head) {
		if args, ok := parsePairs(segments[1:]); ok {
			return Reversed{Key: head, Args: args, Template: head}, true
		}
	}
	return Reversed{}, false
}

func (o *Obtainer) isUnmappedKnown(segment string) bool {
	if segment == "" || strings.Contains(segment, "=") || o.IsMapped(segment) {
		return false
	}
	_, ok := o.computations[camelCase(segment)]
	return ok
}

// matchTemplate matches the leading segments against tpl and parses the
// remainder as name=value pairs.
func matchTemplate(tpl string, segments []string) (Args, bool) {
	tplSegments := strings.Split(tpl, Separator)
	if len(segments) < len(tplSegments) {
		return nil, false
	}

	args, ok := parsePairs(segments[len(tplSegments):])
	if !ok {
		return nil, false
	}

	for i, ts := range tplSegments {
		if strings.IndexByte(ts, placeholderMark) < 0 {
			if ts != segments[i] {
				return nil, false
			}
			continue
		}
		values, ok := matchSegment(ts, segments[i])
		if !ok {
			return nil, false
		}
		for name, v := range values {
			args[name] = v
		}
	}
	return args, true
}

// matchSegment captures the placeholders of a single template segment.
func matchSegment(tplSegment, segment string) (Args, bool) {
	names := make([]string, 0, 1)
	var pattern strings.Builder
	pattern.WriteByte('^')
	for i := 0; i < len(tplSegment); {
		if tplSegment[i] != placeholderMark {
			j := strings.IndexByte(tplSegment[i:], placeholderMark)
			if j < 0 {
				j = len(tplSegment) - i
			}
			pattern.WriteString(regexp.QuoteMeta(tplSegment[i : i+j]))
			i += j
			continue
		}
		// a token inside a segment ends at the segment end
		name := tplSegment[i+1:]
		if name == "" {
			pattern.WriteString(regexp.QuoteMeta("$"))
			break
		}
		names = append(names, name)
		pattern.WriteString("(.*?)")
		break
	}
	pattern.WriteByte('$')

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, false
	}
	match := re.FindStringSubmatch(segment)
	if match == nil {
		return nil, false
	}

	args := make(Args, len(names))
	for i, name := range names {
		args[name] = parseSegmentValue(match[i+1])
	}
	return args, true
}

func parsePairs(segments []string) (Args, bool) {
	args := make(Args, len(segments))
	for _, s := range segments {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, false
		}
		args[name] = parseSegmentValue(value)
	}
	return args, true
}

// parseSegmentValue recovers integers; everything else stays a string.
func parseSegmentValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
