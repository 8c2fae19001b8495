// Package model defines the core data structures shared by ideagraph packages.
//
// This package contains the following main types:
//   - InterestRecord: One scraped interest (ideas) page in canonical form
//   - PinRecord: One content pin referenced from an interest page
//   - Edge: A named link from one interest to another
//   - TreeNode: A vertex of the crawler's working graph
//   - ScrapeJob: The unit of work passed through the scrape pipeline
//
// The extractor, crawler, pipeline, database and report packages all depend
// on these types, so they live in their own package to avoid import cycles.
//
// The error taxonomy shared by the fetcher, extractor and crawler is also
// defined here as sentinel errors usable with errors.Is.
package model
