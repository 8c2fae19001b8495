// Package main provides the entry point for the ideagraph CLI.
//
// ideagraph scrapes public interest ("ideas") pages, extracts their
// embedded state into interest and pin records, and crawls the keyword
// graph formed by their pivot links.
//
// Usage:
//
//	ideagraph scrape <url>...
//	ideagraph crawl <url> --levels 2
//	ideagraph show [id]
//
// See --help for all available options.
package main

// main is the entry point for ideagraph.
func main() {
	Execute()
}
