package crawler

import (
	"errors"
	"fmt"
)

// Sentinel errors for fetch failures.
var (
	// ErrInvalidURL is returned when a URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL: absolute http or https URL required")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// PermanentFetchError is returned when a URL could not be fetched, either
// because the error was not retryable or because all attempts failed.
// Callers inspect it with errors.As.
type PermanentFetchError struct {
	// URL is the URL that failed.
	URL string

	// Attempts is the number of network attempts made.
	// Zero means the request was never sent.
	Attempts int

	// Err is the last error observed.
	Err error
}

// Error implements the error interface.
func (e *PermanentFetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *PermanentFetchError) Unwrap() error {
	return e.Err
}

// statusError builds the error for a non-2xx response.
func statusError(code int) error {
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
}
