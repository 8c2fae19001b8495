package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces every value the handler considers secret.
const MaskValue = "***REDACTED***"

// Format selects the encoding of log lines.
type Format string

const (
	// FormatText writes logfmt style key=value lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat for an unsupported name.
var ErrUnknownFormat = errors.New("unknown log format")

// ParseFormat converts a flag value into a Format. The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (want text or json)", ErrUnknownFormat, s)
	}
}

// exactKeys are attribute keys masked on an exact, case-insensitive match.
// Most are header or cookie names sent to the upstream site.
var exactKeys = map[string]struct{}{
	"authorization": {}, "proxy-authorization": {}, "x-api-key": {},
	"set-cookie": {}, "x-csrftoken": {},
	"_pinterest_sess": {}, "_auth": {}, "_routing_id": {},
	"api_key": {}, "apikey": {}, "sid": {}, "session": {}, "session_id": {}, "sessionid": {},
}

// keyFragments mask any key that contains one of them. A bare "key" is not
// listed: it would hit names like "primary_key" or "interest_key".
var keyFragments = []string{
	"auth", "cookie", "credential", "csrf", "passw", "private", "secret", "token",
}

// valueRules match secrets by their shape, whatever the key is called.
var valueRules = []struct {
	name string
	re   *regexp.Regexp
}{
	{"jwt", regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)},
	{"bearer", regexp.MustCompile(`(?i)^bearer\s+\S`)},
	{"basic", regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`)},
	{"opaque", regexp.MustCompile(`^[A-Za-z0-9]{32,}$`)},
	{"cookie-header", regexp.MustCompile(`(?i)(^|;\s*)(_pinterest_sess|_auth|csrftoken|sessionid)=`)},
	{"userinfo-url", regexp.MustCompile(`^[a-z][a-z0-9+.-]*://[^/@\s:]+:[^/@\s]+@`)},
}

// isSensitiveKey reports whether values logged under key must be masked.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := exactKeys[key]; ok {
		return true
	}
	for _, fragment := range keyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether s looks like a credential.
func isSensitiveValue(s string) bool {
	for _, rule := range valueRules {
		if rule.re.MatchString(s) {
			return true
		}
	}
	return false
}

// redact returns a with its value masked when the key or the value is
// sensitive. Group members are checked one by one.
func redact(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redactAll(v.Group())...)}
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if v.Kind() == slog.KindString && isSensitiveValue(v.String()) {
		return slog.String(a.Key, MaskValue)
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func redactAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = redact(a)
	}
	return out
}

// SecureHandler is an slog.Handler that masks cookies, tokens and proxy
// credentials before the wrapped handler sees them.
//
// Design decision: masking lives in a handler rather than at call sites.
// Components keep taking a plain *slog.Logger and a forgotten call site
// cannot leak the session cookie configured for the fetcher.
type SecureHandler struct {
	next slog.Handler
}

// NewSecureHandler wraps next. A nil next wraps the default logger's handler.
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redact(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler. The attributes are masked once here.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{next: h.next.WithAttrs(redactAll(attrs))}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}

// New returns a logger writing to w in the given format through a
// SecureHandler. Verbose lowers the level from Warn to Debug.
func New(w io.Writer, format Format, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var base slog.Handler
	if format == FormatJSON {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewSecureHandler(base))
}
