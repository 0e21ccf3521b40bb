package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nao1215/irsyad/internal/model"
	"golang.org/x/time/rate"
)

// Fetcher defaults.
const (
	DefaultMaxRetries  = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultDelayMin    = 1 * time.Second
	DefaultDelayMax    = 3 * time.Second
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = int64(model.MaxPageSize)
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// defaultHeaders mirror a desktop browser.
var defaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

// FetchEvent describes the outcome of one Fetch call.
type FetchEvent struct {
	URL        string
	Attempts   int
	StatusCode int
	Bytes      int
	Hash       string
	FromCache  bool
	Err        error
	Duration   time.Duration
}

// FetchObserver is called once per Fetch call, after it completes.
// It may be called from several goroutines at once.
type FetchObserver func(FetchEvent)

// Fetcher retrieves page bodies with caching, retries and rate limiting.
// It is safe for concurrent use; the rate limiter is shared by all callers.
type Fetcher struct {
	client      *http.Client
	cache       *Cache
	limiter     *rate.Limiter
	delayMin    time.Duration
	delayMax    time.Duration
	maxRetries  int
	baseDelay   time.Duration
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	observer    FetchObserver
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client. Its Timeout bounds each attempt.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithCache enables the response cache.
func WithCache(cache *Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

// WithDelayRange sets the random delay applied after every network call.
// The minimum is also the global minimum interval between requests.
func WithDelayRange(minDelay, maxDelay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if minDelay < 0 {
			minDelay = 0
		}
		if maxDelay < minDelay {
			maxDelay = minDelay
		}
		f.delayMin = minDelay
		f.delayMax = maxDelay
	}
}

// WithMaxRetries sets the maximum number of attempts per URL.
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxRetries = n
		}
	}
}

// WithBaseDelay sets the retry base delay. Attempt n waits n*d before retrying.
func WithBaseDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d >= 0 {
			f.baseDelay = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds request headers. They override the defaults.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithMaxBodySize limits how many body bytes are read per response.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithObserver sets the fetch observer.
func WithObserver(observer FetchObserver) FetcherOption {
	return func(f *Fetcher) {
		f.observer = observer
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher. Without WithCache nothing is cached.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		delayMin:    DefaultDelayMin,
		delayMax:    DefaultDelayMax,
		maxRetries:  DefaultMaxRetries,
		baseDelay:   DefaultBaseDelay,
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string, len(defaultHeaders)),
		maxBodySize: DefaultMaxBodySize,
	}
	for k, v := range defaultHeaders {
		f.headers[k] = v
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	limit := rate.Inf
	if f.delayMin > 0 {
		limit = rate.Every(f.delayMin)
	}
	f.limiter = rate.NewLimiter(limit, 1)

	return f
}

// Fetch returns the body of rawURL. See FetchPage.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, useCache bool) (string, error) {
	page, err := f.FetchPage(ctx, rawURL, useCache)
	if err != nil {
		return "", err
	}
	return page.Body(), nil
}

// FetchPage returns the page at rawURL.
//
// With useCache set and a cache configured, a cached body is returned without
// touching the network, and a freshly fetched body is stored. Network errors,
// timeouts and non-2xx responses are retried up to the configured number of
// attempts, waiting attempt*baseDelay between them. When every attempt fails,
// or the URL is not an absolute http(s) URL, the error is a
// *PermanentFetchError. If ctx is cancelled the context error is returned.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string, useCache bool) (*model.Page, error) {
	start := time.Now()
	page, attempts, status, err := f.fetch(ctx, rawURL, useCache)

	if f.observer != nil {
		ev := FetchEvent{
			URL:        rawURL,
			Attempts:   attempts,
			StatusCode: status,
			Err:        err,
			Duration:   time.Since(start),
		}
		if page != nil {
			ev.Bytes = len(page.Raw)
			ev.Hash = page.Hash
			ev.FromCache = page.FromCache
		}
		f.observer(ev)
	}

	return page, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, useCache bool) (*model.Page, int, int, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, 0, 0, &PermanentFetchError{URL: rawURL, Err: err}
	}

	if useCache && f.cache != nil {
		if body, ok := f.cache.Get(rawURL); ok {
			f.logger.Debug("loaded from cache", "url", rawURL)
			page := &model.Page{
				URL:       rawURL,
				Raw:       []byte(body),
				FromCache: true,
				FetchedAt: time.Now(),
			}
			page.ComputeHash()
			return page, 0, 0, nil
		}
	}

	var (
		page     *model.Page
		attempts int
		status   int
	)

	operation := func() error {
		attempts++
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		f.logger.Info("fetching", "url", rawURL, "attempt", attempts, "max_attempts", f.maxRetries)
		p, code, err := f.attempt(ctx, rawURL)
		status = code
		f.politeDelay(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		p.Attempts = attempts
		page = p
		return nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warn("fetch failed, retrying",
			"url", rawURL,
			"attempt", attempts,
			"wait", wait,
			"error", err,
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: f.baseDelay}, uint64(f.maxRetries-1)), //nolint:gosec // maxRetries >= 1
		ctx,
	)
	err := backoff.RetryNotify(operation, policy, notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, attempts, status, fmt.Errorf("fetch %s: %w", rawURL, ctxErr)
		}
		f.logger.Error("failed to fetch", "url", rawURL, "attempts", attempts, "error", err)
		return nil, attempts, status, &PermanentFetchError{URL: rawURL, Attempts: attempts, Err: err}
	}

	// A truncated body would stay in the write-once cache for good.
	if useCache && f.cache != nil && !page.Truncated {
		if err := f.cache.Put(rawURL, page.Body()); err != nil {
			f.logger.Warn("failed to write cache entry", "url", rawURL, "error", err)
		}
	}

	return page, attempts, status, nil
}

// attempt performs a single GET request.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (*model.Page, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // drain for connection reuse
		return nil, resp.StatusCode, statusError(resp.StatusCode)
	}

	// One byte past the limit tells a body that fills it from one that exceeds it.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}

	page := &model.Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Raw:         body,
		FetchedAt:   time.Now(),
	}
	if page.Truncate(f.maxBodySize) {
		f.logger.Warn("response body exceeds size limit, truncated",
			"url", rawURL,
			"limit", f.maxBodySize,
		)
	}
	page.ComputeHash()

	return page, resp.StatusCode, nil
}

// politeDelay sleeps a random duration in [delayMin, delayMax].
// It returns early when ctx is cancelled.
func (f *Fetcher) politeDelay(ctx context.Context) {
	d := f.delayMin
	if span := f.delayMax - f.delayMin; span > 0 {
		d += rand.N(span + 1) //nolint:gosec // jitter, not security sensitive
	}
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// validateURL checks that rawURL is an absolute http(s) URL.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// linearBackOff waits attempt*base before each retry.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

// NextBackOff implements backoff.BackOff.
func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.base
}

// Reset implements backoff.BackOff.
func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// IsPermanent reports whether err is a permanent fetch failure.
func IsPermanent(err error) bool {
	var pe *PermanentFetchError
	return errors.As(err, &pe)
}
