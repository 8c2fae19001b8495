package extractor

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// lookup walks nested JSON objects along path.
// It returns false when any segment is missing or not an object, or when
// the final value is JSON null.
func lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// lookupMap is lookup followed by an object assertion.
func lookupMap(v any, path ...string) (map[string]any, bool) {
	found, ok := lookup(v, path...)
	if !ok {
		return nil, false
	}
	m, ok := found.(map[string]any)
	return m, ok
}

// lookupSlice is lookup followed by an array assertion.
func lookupSlice(v any, path ...string) ([]any, bool) {
	found, ok := lookup(v, path...)
	if !ok {
		return nil, false
	}
	s, ok := found.([]any)
	return s, ok
}

// asString converts scalar JSON values to a trimmed string.
// Numbers are rendered without loss since the decoder uses json.Number.
func asString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

// firstString returns the first non-empty string among keys of m.
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := asString(m[key]); ok {
			return s
		}
	}
	return ""
}

// asInt64 converts numbers and numeric strings to int64.
// Fractional values are truncated.
func asInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
		f, err := val.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(val), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		if s == "" {
			return 0, false
		}
		return asInt64(json.Number(s))
	default:
		return 0, false
	}
}

// firstInt64 returns the first key of m holding a number.
func firstInt64(m map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		if i, ok := asInt64(m[key]); ok {
			return i, true
		}
	}
	return 0, false
}

// firstSlice returns the first key of m holding an array.
func firstSlice(m map[string]any, keys ...string) ([]any, bool) {
	for _, key := range keys {
		if s, ok := m[key].([]any); ok {
			return s, true
		}
	}
	return nil, false
}
