package model

import (
	"net/url"
	"slices"
	"strings"
)

// Path segments that identify a redirect to a login or challenge page.
var (
	loginPathSegments     = []string{"login", "signup"}
	challengePathSegments = []string{"challenge", "captcha", "checkpoint"}
)

// RedirectFailure classifies the final URL of a fetch.
// It returns ErrChallengeRequired or ErrBlocked when a path segment of the
// final URL names a challenge or login page, and nil otherwise (including
// for an empty URL). Query and fragment are ignored.
func RedirectFailure(finalURL string) error {
	if finalURL == "" {
		return nil
	}

	path := finalURL
	if u, err := url.Parse(finalURL); err == nil {
		path = u.Path
	}
	segments := strings.Split(strings.ToLower(path), "/")

	for _, seg := range challengePathSegments {
		if slices.Contains(segments, seg) {
			return ErrChallengeRequired
		}
	}
	for _, seg := range loginPathSegments {
		if slices.Contains(segments, seg) {
			return ErrBlocked
		}
	}
	return nil
}
