// Package pipeline runs the per-document work of a crawl.
//
// Each document link becomes a Job that flows through an ordered list of
// steps: fetching the page, then extracting the record. A BatchProcessor runs
// the jobs of one listing page with bounded concurrency using errgroup and
// hands every finished job to a callback, which is where the caller commits
// results.
//
// Steps depend on small interfaces rather than concrete fetcher and extractor
// types so the crawler can drive the pipeline without an import cycle.
package pipeline
