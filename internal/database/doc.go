// Package database provides the SQLite crawl database for irsyad.
//
// The CrawlDB stores:
//   - one row per crawl run with its counters and stop reason
//   - one row per fetch, tagged with the run that made it
//   - a tabular projection of the dataset for ad-hoc SQL queries
//
// The JSON dataset file stays the source of truth; the database is a log
// and a query surface. SQLite is used through modernc.org/sqlite, which
// needs no cgo, and WAL mode is enabled by default.
package database
