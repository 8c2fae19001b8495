package model

import "errors"

// Extraction and fetch failure taxonomy.
// Every failure is terminal for a single page fetch; retry policy lives in
// the crawler. Callers classify failures with errors.Is.
var (
	// ErrNoEmbeddedState is returned when none of the known embedding
	// markers is present on the page.
	ErrNoEmbeddedState = errors.New("no embedded state found")

	// ErrBlocked is returned for login walls, access denials and rate
	// limiting. It means "try again later or rotate identity".
	ErrBlocked = errors.New("blocked by upstream")

	// ErrChallengeRequired is returned when the upstream demands a
	// captcha or similar challenge.
	ErrChallengeRequired = errors.New("challenge required")

	// ErrMalformedState is returned when the embedded blob is not valid JSON.
	ErrMalformedState = errors.New("malformed embedded state")

	// ErrResourceNotFound is returned when no known resource path resolves
	// to an interest resource.
	ErrResourceNotFound = errors.New("interest resource not found")

	// ErrNoName is returned when the interest resource has no name.
	ErrNoName = errors.New("interest has no name")

	// ErrFetchFailed wraps transport errors and unexpected HTTP statuses.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrTimeout is returned when a single fetch exceeds its deadline.
	ErrTimeout = errors.New("fetch timed out")
)

// ErrDepthLimitReached is the crawler's depth budget stop. It is reported on
// the node as an error state but represents policy, not a fault.
var ErrDepthLimitReached = errors.New("depth limit reached")

// IsOperational reports whether err means the upstream refused service
// (blocked or challenged) rather than a schema change.
func IsOperational(err error) bool {
	return errors.Is(err, ErrBlocked) || errors.Is(err, ErrChallengeRequired)
}
