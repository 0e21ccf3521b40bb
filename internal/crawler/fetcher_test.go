package crawler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(opts ...FetcherOption) *Fetcher {
	base := []FetcherOption{
		WithDelayRange(0, 0),
		WithBaseDelay(0),
		WithFetcherLogger(discardLogger()),
	}
	return NewFetcher(append(base, opts...)...)
}

// TestFetcherFetch tests basic fetching.
func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotCustom string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCustom = r.Header.Get("X-Test")
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html>ok</html>")
		}))
		defer srv.Close()

		f := newTestFetcher(WithUserAgent("irsyad-test"), WithHeaders(map[string]string{"X-Test": "1"}))
		body, err := f.Fetch(context.Background(), srv.URL, false)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if body != "<html>ok</html>" {
			t.Errorf("body = %q", body)
		}
		if gotUA != "irsyad-test" || gotCustom != "1" {
			t.Errorf("headers not sent: UA=%q X-Test=%q", gotUA, gotCustom)
		}
	})

	t.Run("invalid URL is rejected without a request", func(t *testing.T) {
		t.Parallel()

		f := newTestFetcher()
		for _, u := range []string{"", "not a url", "/relative/path", "ftp://example.com/x", "http://"} {
			_, err := f.Fetch(context.Background(), u, false)

			var pe *PermanentFetchError
			if !errors.As(err, &pe) {
				t.Errorf("%q: expected PermanentFetchError, got %v", u, err)
				continue
			}
			if pe.Attempts != 0 || !errors.Is(err, ErrInvalidURL) {
				t.Errorf("%q: unexpected error %v (attempts %d)", u, err, pe.Attempts)
			}
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, strings.Repeat("x", 100))
		}))
		defer srv.Close()

		f := newTestFetcher(WithMaxBodySize(10))
		page, err := f.FetchPage(context.Background(), srv.URL, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Raw) != 10 || !page.Truncated {
			t.Errorf("expected 10 truncated bytes, got %d (truncated %v)", len(page.Raw), page.Truncated)
		}
	})

	t.Run("body at the limit is not truncated", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, strings.Repeat("x", 10))
		}))
		defer srv.Close()

		f := newTestFetcher(WithMaxBodySize(10))
		page, err := f.FetchPage(context.Background(), srv.URL, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Raw) != 10 || page.Truncated {
			t.Errorf("expected 10 complete bytes, got %d (truncated %v)", len(page.Raw), page.Truncated)
		}
	})
}

// TestFetcherRetry tests retry behavior.
func TestFetcherRetry(t *testing.T) {
	t.Parallel()

	t.Run("transient failures are retried", func(t *testing.T) {
		t.Parallel()

		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, "finally")
		}))
		defer srv.Close()

		var events []FetchEvent
		f := newTestFetcher(WithMaxRetries(3), WithObserver(func(ev FetchEvent) {
			events = append(events, ev)
		}))

		body, err := f.Fetch(context.Background(), srv.URL, false)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if body != "finally" {
			t.Errorf("body = %q", body)
		}
		if len(events) != 1 || events[0].Attempts != 3 || events[0].StatusCode != http.StatusOK {
			t.Errorf("unexpected events: %+v", events)
		}
	})

	t.Run("exhausted retries return permanent error", func(t *testing.T) {
		t.Parallel()

		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		f := newTestFetcher(WithMaxRetries(3))
		_, err := f.Fetch(context.Background(), srv.URL, false)

		var pe *PermanentFetchError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermanentFetchError, got %v", err)
		}
		if pe.Attempts != 3 || atomic.LoadInt32(&calls) != 3 {
			t.Errorf("attempts = %d, calls = %d, expected 3", pe.Attempts, calls)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
		if !IsPermanent(err) {
			t.Error("IsPermanent should be true")
		}
	})

	t.Run("cancellation is not retried", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := newTestFetcher(WithMaxRetries(5))
		_, err := f.Fetch(ctx, srv.URL, false)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if IsPermanent(err) {
			t.Error("cancellation should not be a permanent fetch error")
		}
	})
}

// TestLinearBackOff tests the retry wait schedule.
func TestLinearBackOff(t *testing.T) {
	t.Parallel()

	b := &linearBackOff{base: 2 * time.Second}
	for i, want := range []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second} {
		if got := b.NextBackOff(); got != want {
			t.Errorf("wait %d = %v, expected %v", i+1, got, want)
		}
	}

	b.Reset()
	if got := b.NextBackOff(); got != 2*time.Second {
		t.Errorf("after Reset got %v", got)
	}
}

// TestFetcherCache tests cache interaction.
func TestFetcherCache(t *testing.T) {
	t.Parallel()

	t.Run("cache hit skips the network", func(t *testing.T) {
		t.Parallel()

		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			_, _ = io.WriteString(w, "cached body")
		}))
		defer srv.Close()

		cache, err := NewCache(t.TempDir(), WithCacheLogger(discardLogger()))
		if err != nil {
			t.Fatal(err)
		}
		f := newTestFetcher(WithCache(cache))

		if _, err := f.Fetch(context.Background(), srv.URL, true); err != nil {
			t.Fatal(err)
		}
		page, err := f.FetchPage(context.Background(), srv.URL, true)
		if err != nil {
			t.Fatal(err)
		}

		if atomic.LoadInt32(&calls) != 1 {
			t.Errorf("expected 1 request, got %d", calls)
		}
		if !page.FromCache || page.Body() != "cached body" || page.Attempts != 0 {
			t.Errorf("unexpected cached page: %+v", page)
		}
	})

	t.Run("useCache false neither reads nor writes", func(t *testing.T) {
		t.Parallel()

		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			_, _ = io.WriteString(w, "fresh")
		}))
		defer srv.Close()

		cache, err := NewCache(t.TempDir(), WithCacheLogger(discardLogger()))
		if err != nil {
			t.Fatal(err)
		}
		f := newTestFetcher(WithCache(cache))

		for range 2 {
			if _, err := f.Fetch(context.Background(), srv.URL, false); err != nil {
				t.Fatal(err)
			}
		}
		if atomic.LoadInt32(&calls) != 2 {
			t.Errorf("expected 2 requests, got %d", calls)
		}
		if _, ok := cache.Get(srv.URL); ok {
			t.Error("expected no cache entry")
		}
	})

	t.Run("failed fetch is not cached", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		cache, err := NewCache(t.TempDir(), WithCacheLogger(discardLogger()))
		if err != nil {
			t.Fatal(err)
		}
		f := newTestFetcher(WithCache(cache), WithMaxRetries(1))

		if _, err := f.Fetch(context.Background(), srv.URL, true); err == nil {
			t.Fatal("expected error")
		}
		if _, ok := cache.Get(srv.URL); ok {
			t.Error("failed fetch must not create a cache entry")
		}
	})

	t.Run("truncated body is logged and not cached", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, strings.Repeat("x", 100))
		}))
		defer srv.Close()

		cache, err := NewCache(t.TempDir(), WithCacheLogger(discardLogger()))
		if err != nil {
			t.Fatal(err)
		}
		var logs bytes.Buffer
		f := newTestFetcher(
			WithCache(cache),
			WithMaxBodySize(10),
			WithFetcherLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		)

		if _, err := f.Fetch(context.Background(), srv.URL, true); err != nil {
			t.Fatal(err)
		}
		if _, ok := cache.Get(srv.URL); ok {
			t.Error("truncated body must not create a cache entry")
		}
		if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "truncated") {
			t.Errorf("expected truncation warning, got %q", logs.String())
		}
	})
}

// TestFetcherRateLimit tests the shared minimum interval between requests.
func TestFetcherRateLimit(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		times []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	f := NewFetcher(
		WithDelayRange(50*time.Millisecond, 50*time.Millisecond),
		WithBaseDelay(0),
		WithFetcherLogger(discardLogger()),
	)

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.Fetch(context.Background(), srv.URL, false) //nolint:errcheck // timing test
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(times))
	}
	first, last := times[0], times[0]
	for _, ts := range times {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	if last.Sub(first) < 90*time.Millisecond {
		t.Errorf("requests not spaced: spread %v", last.Sub(first))
	}
}
