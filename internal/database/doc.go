// Package database provides SQLite-based storage for crawl results.
//
// CrawlDB keeps one row per emitted result in the crawl_results table,
// including revisit and error results, and computes summary statistics
// over everything stored.
//
// We use SQLite via modernc.org/sqlite so the binary stays CGO-free and the
// whole store is a single file under the XDG data directory.
package database
