package extractor

import (
	"strings"
	"time"
)

// secondsCutoff separates Unix seconds from Unix milliseconds.
// It is 2100-01-01T00:00:00Z in seconds: numeric timestamps below it are
// seconds, anything at or above it is milliseconds.
//
// This heuristic dates every stored pin. Changing the value or the
// comparison silently re-dates history, so it is pinned by tests.
const secondsCutoff int64 = 4102444800

// timeLayouts are tried in order for string timestamps.
var timeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// unixTime converts a numeric timestamp of either scale to UTC.
func unixTime(n int64) time.Time {
	if n < secondsCutoff {
		return time.Unix(n, 0).UTC()
	}
	return time.UnixMilli(n).UTC()
}

// parseTimestamp accepts JSON numbers, numeric strings and the string
// layouts above. Non-positive numbers are treated as absent.
func parseTimestamp(v any) (time.Time, bool) {
	if n, ok := asInt64(v); ok {
		if n <= 0 {
			return time.Time{}, false
		}
		return unixTime(n), true
	}

	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// firstTimestamp returns the first parsable timestamp among keys of m.
func firstTimestamp(m map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		if t, ok := parseTimestamp(m[key]); ok {
			return &t
		}
	}
	return nil
}
