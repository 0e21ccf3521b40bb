package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrInvalidStartPage is returned when the start page is below -1.
	ErrInvalidStartPage = errors.New("invalid start page: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative (0 means no limit)")

	// ErrInvalidDelay is returned when a request delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidDelayRange is returned when --delay-max is below --delay-min.
	ErrInvalidDelayRange = errors.New("invalid delay range: --delay-max must not be less than --delay-min")

	// ErrInvalidMaxRetries is returned when fewer than one attempt is allowed.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be at least 1")

	// ErrInvalidRetryDelay is returned when the retry base delay is negative.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidSnapshotEvery is returned when the snapshot interval is negative.
	ErrInvalidSnapshotEvery = errors.New("invalid snapshot interval: must be non-negative")

	// ErrNoOutputPath is returned when the output path is empty.
	ErrNoOutputPath = errors.New("no output path specified")

	// ErrNoCheckpointPath is returned when the checkpoint path is empty.
	ErrNoCheckpointPath = errors.New("no checkpoint path specified")

	// ErrNoCacheDir is returned when caching is enabled without a directory.
	ErrNoCacheDir = errors.New("no cache directory specified: set --cache-dir or use --no-cache")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidBaseURL is returned when the site base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid site base_url: absolute http or https URL required")

	// ErrInvalidPageSize is returned when the listing page size is not positive.
	ErrInvalidPageSize = errors.New("invalid site page_size: must be positive")
)
