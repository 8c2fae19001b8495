// Package database provides SQLite-based storage for scraped interests.
//
// The Store keeps:
//   - One row per interest id, updated in place on every scrape
//   - The pins of each interest in presentation order
//   - Snapshots of crawl sessions as JSON
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode provides good concurrent read performance
//
// Both upserts are idempotent. Pin replacement runs in one transaction, so
// an interest never ends up with half of an old and half of a new pin set.
package database
