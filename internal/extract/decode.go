package extract

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// fields is one decoded JSON object. Lookups take alias lists and return the
// first alias that carries a usable value, so providers may name a field
// text, body, content or description and still be understood.
type fields map[string]any

func asFields(v any) (fields, bool) {
	m, ok := v.(map[string]any)
	return fields(m), ok
}

func (f fields) lookup(aliases ...string) (any, bool) {
	for _, a := range aliases {
		if v, ok := f[a]; ok && v != nil {
			return v, true
		}
	}
	// providers drift between camelCase and snake_case; when several keys
	// fold to one alias the lexically first key wins
	var keys []string
	for k, v := range f {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, a := range aliases {
		want := foldKey(a)
		for _, k := range keys {
			if foldKey(k) == want {
				return f[k], true
			}
		}
	}
	return nil, false
}

func foldKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

// str returns the first non-empty string alias, with numbers accepted as text
func (f fields) str(aliases ...string) string {
	for _, a := range aliases {
		v, ok := f.lookup(a)
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

// strs returns a string list; a single string becomes a one-element list
func (f fields) strs(aliases ...string) []string {
	v, ok := f.lookup(aliases...)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				out = append(out, s)
				continue
			}
			// lists of {text: ...} objects
			if obj, ok := asFields(item); ok {
				if s := obj.str("text", "label", "name", "title", "value"); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		if s := scalarString(t); s != "" {
			return []string{s}
		}
	}
	return nil
}

// num returns a number alias; numeric strings ("0,7", "70%") are accepted
func (f fields) num(aliases ...string) (float64, bool) {
	v, ok := f.lookup(aliases...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case json.Number:
		n, err := t.Float64()
		return n, err == nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		pct := strings.HasSuffix(s, "%")
		n, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		if pct {
			n /= 100
		}
		return n, true
	}
	return 0, false
}

// list returns an array alias; a lone object becomes a one-element list
func (f fields) list(aliases ...string) []any {
	v, ok := f.lookup(aliases...)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		return []any{t}
	}
	return nil
}

// obj returns a nested object alias
func (f fields) obj(aliases ...string) (fields, bool) {
	v, ok := f.lookup(aliases...)
	if !ok {
		return nil, false
	}
	return asFields(v)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func capList[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
