// Package log builds the slog loggers used by the ideagraph commands.
//
// Every logger returned by New writes through a SecureHandler, which masks
// the session cookie, csrf token and proxy credentials the fetcher is
// configured with. Keys are matched by name (cookie, x-csrftoken,
// _pinterest_sess, anything containing "token" or "secret") and string
// values by shape (bearer and basic credentials, JWTs, cookie headers,
// URLs with a user:password part).
//
//	logger := log.New(os.Stderr, log.FormatJSON, verbose)
//	logger.Warn("page blocked", "url", u, "cookie", c) // cookie=***REDACTED***
package log
