// Package log provides the application's slog setup with a handler that
// sanitizes attribute values before they reach the output.
//
// The SanitizingHandler:
//   - masks values under sensitive keys (Authorization, Cookie, tokens)
//   - masks values that look like credentials (bearer tokens, JWTs)
//   - strips control characters so scraped text cannot split log lines
//
// Site headers from the configuration file may carry credentials, and the
// fetcher logs request metadata, so masking applies at every level.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("page crawled", "page", 3, "links", 25)
//
// Use NewJSONLogger for machine-readable output.
package log
