// Package crawler fetches listing and document pages and drives the crawl.
//
// # Components
//
//   - Fetcher: HTTP GET with a response cache, retries with linear backoff
//     and a shared rate limiter
//   - Cache: write-once body store keyed by a BLAKE2b hash of the URL, with
//     an in-memory LRU tier
//   - LinkExtractor: finds document links on a listing page
//   - Spider: walks listing pages, runs document batches through package
//     pipeline, and keeps the output snapshot and checkpoint current
//
// # Politeness
//
// All requests made through one Fetcher share a rate limiter that enforces
// the minimum delay between requests, and every network call is followed by
// a random delay between the configured minimum and maximum. Retry waits,
// limiter waits and delays all end early when the context is cancelled.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(crawler.WithCache(cache))
//	spider := crawler.NewSpider(fetcher, extract.New(), session, writer, store)
//	stats, err := spider.Run(ctx, startPage)
package crawler
