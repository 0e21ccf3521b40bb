// Package model defines the data structures shared across irsyad.
//
// This package contains the following main types:
//   - ArticleRecord: One extracted question/answer record, keyed by URL
//   - Checkpoint: Persisted crawl progress used to resume a run
//   - CrawlStats: Per-run counters consumed by reports and the crawl DB
//
// Models live in their own package because the crawler, extract, dataset,
// checkpoint, report and database packages all exchange them.
//
// The models are designed to be serializable to JSON. The JSON field names
// of ArticleRecord and Checkpoint are part of the external file formats and
// must not change.
package model
