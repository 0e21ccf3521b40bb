package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Page is a fetched response body together with the metadata the crawl log
// records about it. The fetcher produces one Page per successful Fetch call,
// whether it came from the network or from the cache.
type Page struct {
	// URL is the absolute URL that was requested.
	URL string `json:"url"`

	// StatusCode is the HTTP status of the final attempt.
	// Zero for pages served from the cache.
	StatusCode int `json:"status_code"`

	// ContentType is the Content-Type header of the response.
	ContentType string `json:"content_type,omitempty"`

	// Raw is the response body, capped at the fetcher's body size limit.
	Raw []byte `json:"-"`

	// Truncated is true when the body exceeded the limit and Raw holds only
	// its first bytes.
	Truncated bool `json:"truncated,omitempty"`

	// Hash is the SHA-256 of Raw, used by the crawl log to spot changed documents.
	Hash string `json:"hash"`

	// FromCache is true when the body came from the response cache.
	FromCache bool `json:"from_cache"`

	// Attempts is the number of network attempts made. Zero on a cache hit.
	Attempts int `json:"attempts"`

	// FetchedAt is when the body was obtained.
	FetchedAt time.Time `json:"fetched_at"`
}

// MaxPageSize is the default maximum number of body bytes kept per page.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// Body returns the raw content as a string.
func (p *Page) Body() string {
	return string(p.Raw)
}

// IsHTML reports whether the content type indicates HTML.
// An empty content type is treated as HTML because cached pages carry none.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	ct := strings.ToLower(p.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// Truncate cuts Raw to limit bytes and marks the page truncated.
// It reports whether anything was cut.
func (p *Page) Truncate(limit int64) bool {
	if limit < 0 || int64(len(p.Raw)) <= limit {
		return false
	}
	p.Raw = p.Raw[:limit]
	p.Truncated = true
	return true
}
