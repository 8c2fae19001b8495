package crawler

import "errors"

// Crawler usage errors. Fetch and extraction failures are never returned
// from Expand; they become error nodes.
var (
	// ErrNodeNotFound is returned when an id is not in the session.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNotRetryable is returned by Retry for nodes that are not error
	// nodes with a parent.
	ErrNotRetryable = errors.New("node is not retryable")

	// ErrNodeFailed is returned by Expand on an error node. Use Retry.
	ErrNodeFailed = errors.New("node is in error state")

	// ErrAlreadySeeded is returned by a second Seed on the same session.
	ErrAlreadySeeded = errors.New("session already seeded")

	// ErrNoID is returned by Seed when no interest id can be derived.
	ErrNoID = errors.New("cannot derive interest id")

	// ErrAborted is returned by an expansion stopped by Abort.
	ErrAborted = errors.New("crawl aborted")
)
