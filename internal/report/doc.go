// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown for sharing
//
// Three kinds of documents are written: the results of a scrape (one entry
// per page), stored interests, and crawl trees. Crawl trees are rendered
// with the same walk the crawler uses, so cross references and cycles are
// shown as leaves.
//
// Design decision: We separate report writing from data structures (which
// are in the model package) to follow the single responsibility principle.
// This allows adding new output formats without modifying the core data
// structures.
package report
