package obtainable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// placeholderMark opens a placeholder token. A token runs to the next
// Separator or the end of the template.
const placeholderMark = '$'

// Template returns the key template registered for key, or key itself.
func (o *Obtainer) Template(key string) string {
	if tpl, ok := o.keyMap[key]; ok {
		return tpl
	}
	return key
}

// IsMapped reports whether key has a registered template.
func (o *Obtainer) IsMapped(key string) bool {
	_, ok := o.keyMap[key]
	return ok
}

// BuildKey generates the deterministic cache key for key and args.
// Format: prefix[:id]:body[:name=value...]
//
// Example:
//
//	test:26:key-testing-args:12:desc:active=1:limit=10
//
// args is never modified.
func (o *Obtainer) BuildKey(key string, args Args) (string, error) {
	working := args.clone()
	parts := []string{o.prefix}

	// id is positional, never a placeholder or trailing pair
	if id, ok := working[IDArg]; ok {
		parts = append(parts, FormatValue(id))
		delete(working, IDArg)
	}

	body := o.Template(key)
	if required := Placeholders(body); len(required) > 0 {
		var missing []string
		for _, name := range required {
			if _, ok := working[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return "", &MissingArgumentsError{Key: key, Missing: missing}
		}

		consumed := make(Args, len(required))
		for _, name := range required {
			consumed[name] = working[name]
			delete(working, name)
		}
		body = FilterObtainableKey(body, consumed)
	}
	parts = append(parts, body)

	// Remaining args (sorted for determinism)
	if len(working) > 0 {
		names := make([]string, 0, len(working))
		for name := range working {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, FormatValue(working[name])))
		}
	}

	return strings.Join(parts, Separator), nil
}

// Placeholders returns the placeholder names of template in order of first
// appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]struct{})

	for i := 0; i < len(template); i++ {
		if template[i] != placeholderMark {
			continue
		}
		end := tokenEnd(template, i)
		name := template[i+1 : end]
		if name != "" {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
		i = end - 1
	}
	return names
}

// FilterObtainableKey replaces every $name token whose name is present in args.
// Tokens without a matching argument are left as they are.
func FilterObtainableKey(template string, args Args) string {
	if strings.IndexByte(template, placeholderMark) < 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		if template[i] != placeholderMark {
			b.WriteByte(template[i])
			i++
			continue
		}
		end := tokenEnd(template, i)
		name := template[i+1 : end]
		if v, ok := args[name]; ok && name != "" {
			b.WriteString(FormatValue(v))
		} else {
			b.WriteString(template[i:end])
		}
		i = end
	}
	return b.String()
}

// FormatValue renders an argument value as a key segment.
// Booleans render as 1/0 and nil as the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func tokenEnd(template string, start int) int {
	if idx := strings.Index(template[start+1:], Separator); idx >= 0 {
		return start + 1 + idx
	}
	return len(template)
}
