package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/ideagraph/internal/model"
)

// Marker identifies one embedding convention for the page state blob.
type Marker struct {
	// Name is a short label used in diagnostics.
	Name string

	// Selector is the goquery selector of the script element.
	Selector string
}

// DefaultMarkers lists the known embedding conventions in the order they
// are tried. The first one present on the page wins.
var DefaultMarkers = []Marker{
	{Name: "A", Selector: "script#__PWS_INITIAL_PROPS__"},
	{Name: "B", Selector: "script#__PWS_DATA__"},
	{Name: "C", Selector: "script#initial-state"},
}

// Failure signatures sniffed from pages that carry no embedded state.
// Matching is case-insensitive against the raw page text.
var (
	challengeSignatures = []string{
		"captcha",
		"challenge-platform",
		"cf-chl",
		"verify you are human",
	}
	blockedSignatures = []string{
		"access denied",
		"too many requests",
		"rate limit exceeded",
		"/login/?next=",
		"log in to see more",
		"unusual activity",
	}
)

// locateState returns the marker name and blob text of the first marker
// present with non-blank content.
func locateState(doc *goquery.Document, markers []Marker) (string, string, bool) {
	for _, m := range markers {
		sel := doc.Find(m.Selector).First()
		if sel.Length() == 0 {
			continue
		}
		blob := strings.TrimSpace(sel.Text())
		if blob == "" {
			continue
		}
		return m.Name, blob, true
	}
	return "", "", false
}

// sniffFailure checks a page without embedded state for known block and
// challenge signatures. It returns nil when none match.
func sniffFailure(raw []byte) error {
	lower := bytes.ToLower(raw)
	for _, sig := range challengeSignatures {
		if bytes.Contains(lower, []byte(sig)) {
			return model.ErrChallengeRequired
		}
	}
	for _, sig := range blockedSignatures {
		if bytes.Contains(lower, []byte(sig)) {
			return model.ErrBlocked
		}
	}
	return nil
}
