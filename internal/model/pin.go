package model

import "time"

// Pin extraction limits.
const (
	// MaxPinsPerInterest is the number of pins kept per interest page.
	MaxPinsPerInterest = 20

	// MaxTagsPerPin is the number of tags kept on a single pin.
	MaxTagsPerPin = 10
)

// PinRecord represents one content item referenced from an interest page.
type PinRecord struct {
	// ID is the pin identifier. Pins without an id are dropped.
	ID string `json:"id"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// ImageURL is the largest available image variant.
	ImageURL string `json:"image_url,omitempty"`

	// ThumbnailURL is the thumbnail-sized image variant.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	Engagement Engagement `json:"engagement"`

	// CreatedAt is nil when the source carries no creation time.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// Tags holds at most MaxTagsPerPin bare tag names.
	Tags []string `json:"tags"`

	SourceDomain string `json:"source_domain,omitempty"`
	BoardName    string `json:"board_name,omitempty"`
}

// Engagement holds pin interaction counters. Missing counters are 0.
type Engagement struct {
	RepinCount   int64 `json:"repin_count"`
	SaveCount    int64 `json:"save_count"`
	CommentCount int64 `json:"comment_count"`
}
