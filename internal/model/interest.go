package model

import "time"

// MaxTopAnnotations is the maximum number of ranked annotations kept on a record.
const MaxTopAnnotations = 20

// InterestRecord represents one scraped interest page.
type InterestRecord struct {
	// ID is the numeric-looking external identifier. It is the graph key.
	ID string `json:"id"`

	// Name is the display name of the interest. Always non-empty.
	Name string `json:"name"`

	// URL is the canonical source URL. It may differ from the URL that
	// was fetched, e.g. after locale normalization.
	URL string `json:"url"`

	// SearchVolume is the reported search volume, 0 when absent.
	SearchVolume int64 `json:"search_volume"`

	// Breadcrumbs is the ordered category path.
	Breadcrumbs []string `json:"breadcrumbs"`

	// RelatedEdges are outward edges from the related-interests section.
	RelatedEdges []Edge `json:"related_edges"`

	// PivotEdges are outward edges from the pivot section of the page.
	// The crawler expands along these.
	PivotEdges []Edge `json:"pivot_edges"`

	// TopAnnotations is the ranked list of pin annotations.
	// At most MaxTopAnnotations entries, count descending.
	TopAnnotations []Annotation `json:"top_annotations"`

	// LanguageHint is the caller-supplied locale code, stored verbatim.
	LanguageHint string `json:"language_hint,omitempty"`

	// LastUpdate is taken from source metadata when present.
	LastUpdate *time.Time `json:"last_update,omitempty"`

	// LastScrape is the extraction time.
	LastScrape time.Time `json:"last_scrape"`
}

// Edge is a named link to another interest page.
type Edge struct {
	Name string `json:"name"`
	URL  string `json:"url"`

	// ID is the target interest id when known, either from the page
	// or derived from the URL shape. May be empty.
	ID string `json:"id,omitempty"`
}

// Annotation is one entry of the ranked annotation list.
type Annotation struct {
	// Tag is the annotation label.
	Tag string `json:"tag"`

	// Count is the number of pins carrying the tag.
	Count int `json:"count"`

	// URL is the first link seen for the tag.
	URL string `json:"url"`
}
