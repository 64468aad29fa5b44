// Package receipt builds content-addressed run receipts
package receipt

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// CircularMarker replaces a value that contains itself
const CircularMarker = "[Circular]"

// Canonicalize encodes v as canonical JSON: object keys sorted, RFC 3339
// timestamps normalized to UTC, keys named in omit dropped at every depth and
// self-containing maps or slices replaced by CircularMarker. Equal content
// always yields equal bytes.
func Canonicalize(v any, omit ...string) ([]byte, error) {
	skip := make(map[string]bool, len(omit))
	for _, k := range omit {
		skip[k] = true
	}

	generic, err := normalize(v, skip, map[uintptr]bool{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("failed to encode canonical json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Hash returns the hex SHA-256 of the canonical encoding of v
func Hash(v any, omit ...string) (string, error) {
	data, err := Canonicalize(v, omit...)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func normalize(v any, skip map[string]bool, stack map[uintptr]bool) (any, error) {
	switch t := v.(type) {
	case nil, bool, json.Number, float64, int, int64:
		return t, nil
	case string:
		return normalizeTime(t), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case map[string]any:
		ptr := reflect.ValueOf(t).Pointer()
		if stack[ptr] {
			return CircularMarker, nil
		}
		stack[ptr] = true
		defer delete(stack, ptr)

		keys := make([]string, 0, len(t))
		for k := range t {
			if !skip[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		out := make(map[string]any, len(keys))
		for _, k := range keys {
			val, err := normalize(t[k], skip, stack)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case []any:
		if len(t) > 0 {
			ptr := reflect.ValueOf(t).Pointer()
			if stack[ptr] {
				return CircularMarker, nil
			}
			stack[ptr] = true
			defer delete(stack, ptr)
		}

		out := make([]any, len(t))
		for i, item := range t {
			val, err := normalize(item, skip, stack)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}

	// Typed values go through JSON once to become generic maps and slices.
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return normalize(generic, skip, stack)
}

// normalizeTime rewrites RFC 3339 timestamps to UTC and leaves other strings alone
func normalizeTime(s string) string {
	if len(s) < len("2006-01-02T15:04:05Z") || s[4] != '-' || s[10] != 'T' {
		return s
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339Nano)
}
