package extractor

import (
	"net/url"
	"strings"
	"unicode"
)

// interestPathSegment is the path segment every interest page link carries.
const interestPathSegment = "/ideas/"

// baseURL parses the caller-supplied target domain. A bare host gets https.
func baseURL(targetDomain string) *url.URL {
	targetDomain = strings.TrimSpace(targetDomain)
	if targetDomain == "" {
		return nil
	}
	if !strings.Contains(targetDomain, "://") {
		targetDomain = "https://" + targetDomain
	}
	u, err := url.Parse(targetDomain)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

// resolveLink makes href absolute against base and drops the fragment.
// Relative links are always resolved against the target domain, never the
// fetched domain. It returns false for unusable links.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if base == nil {
			return "", false
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

// NormalizeURL returns the deduplication key of a link: lower-case scheme
// and host, no query, no fragment, no trailing slash.
func NormalizeURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return strings.TrimRight(strings.ToLower(link), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// IDFromURL derives an interest id from a link of the shape
// /ideas/<slug>/<numeric id>/. It returns false when the link has no such id.
func IDFromURL(link string) (string, bool) {
	path := link
	if u, err := url.Parse(link); err == nil {
		path = u.Path
	}
	if !strings.Contains(path, interestPathSegment) {
		return "", false
	}
	last := lastSegment(path)
	if !isDigits(last) {
		return "", false
	}
	return last, true
}

// IsInterestLink reports whether link looks like a genuine interest page
// link: it contains the ideas segment, ends in a numeric id and carries no
// parenthesis characters.
func IsInterestLink(link string) bool {
	if strings.ContainsAny(link, "()") {
		return false
	}
	if !strings.Contains(link, interestPathSegment) {
		return false
	}
	trimmed := strings.TrimRight(link, "/")
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		return false
	}
	return isDigits(lastSegment(trimmed))
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
