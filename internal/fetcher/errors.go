package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

// FetchError describes a failed fetch.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects, when a response was received.
	FinalURL string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	// Kind is the model sentinel classifying the failure.
	Kind error

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch %s: %v", e.URL, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.FinalURL != "" && e.FinalURL != e.URL {
		fmt.Fprintf(&b, " (final url %s)", e.FinalURL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes Kind and the cause to errors.Is and errors.As.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
