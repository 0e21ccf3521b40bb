package crawler

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nao1215/irsyad/internal/fileutil"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// DefaultMemoryEntries is the size of the in-memory cache tier.
const DefaultMemoryEntries = 256

// Cache stores fetched bodies keyed by URL.
//
// Entries live on disk as <key>.html, where key is the BLAKE2b-256 hex digest
// of the normalized URL, with a small LRU tier in memory in front of the
// disk. Entries are write-once: storing a key that already exists is a no-op.
type Cache struct {
	dir    string
	mem    *lru.Cache[string, string]
	logger *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	memEntries int
	logger     *slog.Logger
}

// WithCacheLogger sets the logger used for cache read/write problems.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(o *cacheOptions) {
		o.logger = logger
	}
}

// NewCache opens (and creates if needed) a cache rooted at dir.
func NewCache(dir string, opts ...CacheOption) (*Cache, error) {
	o := &cacheOptions{memEntries: DefaultMemoryEntries}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	mem, err := lru.New[string, string](o.memEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &Cache{dir: dir, mem: mem, logger: o.logger}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// CacheKey returns the cache key of a URL.
func CacheKey(rawURL string) string {
	sum := blake2b.Sum256([]byte(normalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// Path returns the file that holds the body of rawURL.
func (c *Cache) Path(rawURL string) string {
	return c.keyPath(CacheKey(rawURL))
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, key+".html")
}

// Get returns the cached body of rawURL.
// A read error is logged and reported as a miss.
func (c *Cache) Get(rawURL string) (string, bool) {
	key := CacheKey(rawURL)
	if body, ok := c.mem.Get(key); ok {
		return body, true
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path) //nolint:gosec // path is a hex digest inside the cache dir
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to read cache entry", "url", rawURL, "path", path, "error", err)
		}
		return "", false
	}

	body := string(data)
	c.mem.Add(key, body)
	return body, true
}

// Put stores body for rawURL unless an entry already exists.
func (c *Cache) Put(rawURL, body string) error {
	key := CacheKey(rawURL)
	path := c.keyPath(key)

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := fileutil.WriteFileAtomic(path, []byte(body), 0o600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	c.mem.Add(key, body)
	c.logger.Debug("cached response", "url", rawURL, "path", path)
	return nil
}

// normalizeURL normalizes a URL so equivalent spellings share a cache key.
// The fragment is dropped, scheme and host are lowercased, an empty path
// becomes "/" and the result is put in Unicode NFC form.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return norm.NFC.String(rawURL)
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return norm.NFC.String(u.String())
}
