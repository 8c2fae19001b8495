package model

import "time"

// ScrapeJob carries one page through the scrape pipeline.
// Each step fills in its part; later steps read what earlier steps produced.
type ScrapeJob struct {
	// URL is the page to fetch.
	URL string `json:"url"`

	// FinalURL is the URL after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status of the fetch.
	StatusCode int `json:"status_code,omitempty"`

	// Body is the raw page. Not serialized.
	Body []byte `json:"-"`

	// Record and Pins are set by the extraction step.
	Record *InterestRecord `json:"record,omitempty"`
	Pins   []PinRecord     `json:"pins,omitempty"`

	// Marker and Strategy name the embedding convention and resource
	// path that matched, for diagnostics.
	Marker   string `json:"marker,omitempty"`
	Strategy string `json:"strategy,omitempty"`

	// IsNew is set by the persist step when the record was inserted.
	IsNew bool `json:"is_new"`

	// Persisted is true once the persist step stored the record.
	Persisted bool `json:"persisted"`

	// Steps lists the names of the steps that ran.
	Steps []string `json:"steps,omitempty"`

	// Err is the first failure. ErrorMessage mirrors it for JSON output.
	Err          error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// NewScrapeJob creates a job for the given URL.
func NewScrapeJob(pageURL string) *ScrapeJob {
	return &ScrapeJob{
		URL:       pageURL,
		StartedAt: time.Now(),
	}
}

// Failed reports whether any step recorded an error.
func (j *ScrapeJob) Failed() bool {
	return j.Err != nil
}
