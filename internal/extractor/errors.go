package extractor

import (
	"fmt"
	"strings"
)

// Error is a tagged extraction failure.
//
// Kind is one of the model sentinels. Marker names the embedding marker in
// use when the failure happened, and Keys lists the resource keys that were
// present when no interest resource could be resolved. Both exist to make
// schema drift diagnosable from logs.
type Error struct {
	Kind   error
	Marker string
	Keys   []string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Marker != "" {
		fmt.Fprintf(&b, " (marker %s)", e.Marker)
	}
	if e.Keys != nil {
		fmt.Fprintf(&b, " (present resources: %s)", strings.Join(e.Keys, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, marker string) *Error {
	return &Error{Kind: kind, Marker: marker}
}
