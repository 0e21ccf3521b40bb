package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults should be intentional, so each one is pinned here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default StartPage resumes from checkpoint", func(t *testing.T) {
		t.Parallel()
		if cfg.StartPage != StartFromCheckpoint {
			t.Errorf("expected StartPage to be %d, got %d", StartFromCheckpoint, cfg.StartPage)
		}
	})

	t.Run("default delay range is 1s to 3s", func(t *testing.T) {
		t.Parallel()
		if cfg.DelayMin != time.Second || cfg.DelayMax != 3*time.Second {
			t.Errorf("expected delay range 1s-3s, got %v-%v", cfg.DelayMin, cfg.DelayMax)
		}
	})

	t.Run("default retry policy is 3 attempts with 2s base", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxRetries != 3 {
			t.Errorf("expected MaxRetries to be 3, got %d", cfg.MaxRetries)
		}
		if cfg.RetryBaseDelay != 2*time.Second {
			t.Errorf("expected RetryBaseDelay to be 2s, got %v", cfg.RetryBaseDelay)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Workers is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 1 {
			t.Errorf("expected Workers to be 1, got %d", cfg.Workers)
		}
	})

	t.Run("default output files are in the working directory", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputPath != "mufti_wp_articles.json" {
			t.Errorf("unexpected OutputPath %q", cfg.OutputPath)
		}
		if cfg.CheckpointPath != "checkpoint.json" {
			t.Errorf("unexpected CheckpointPath %q", cfg.CheckpointPath)
		}
	})

	t.Run("cache is on for documents only", func(t *testing.T) {
		t.Parallel()
		if !cfg.UseCache {
			t.Error("expected UseCache to be true")
		}
		if cfg.CacheListings {
			t.Error("expected CacheListings to be false")
		}
		if cfg.CacheDir != XDGCacheDir() {
			t.Errorf("expected CacheDir %q, got %q", XDGCacheDir(), cfg.CacheDir)
		}
	})

	t.Run("default site is the built-in one", func(t *testing.T) {
		t.Parallel()
		if cfg.Site.BaseURL != DefaultBaseURL {
			t.Errorf("unexpected BaseURL %q", cfg.Site.BaseURL)
		}
		if cfg.Site.PageSize != 25 {
			t.Errorf("expected PageSize 25, got %d", cfg.Site.PageSize)
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"start page below -1", func(c *Config) { c.StartPage = -2 }, ErrInvalidStartPage},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }, ErrInvalidMaxPages},
		{"negative delay min", func(c *Config) { c.DelayMin = -time.Second }, ErrInvalidDelay},
		{"delay max below min", func(c *Config) { c.DelayMin, c.DelayMax = 3*time.Second, time.Second }, ErrInvalidDelayRange},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidMaxRetries},
		{"negative retry delay", func(c *Config) { c.RetryBaseDelay = -1 }, ErrInvalidRetryDelay},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"negative snapshot interval", func(c *Config) { c.SnapshotEvery = -1 }, ErrInvalidSnapshotEvery},
		{"empty output path", func(c *Config) { c.OutputPath = "" }, ErrNoOutputPath},
		{"empty checkpoint path", func(c *Config) { c.CheckpointPath = "" }, ErrNoCheckpointPath},
		{"cache without dir", func(c *Config) { c.CacheDir = "" }, ErrNoCacheDir},
		{"both report formats", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"relative base url", func(c *Config) { c.Site.BaseURL = "/ms/artikel" }, ErrInvalidBaseURL},
		{"ftp base url", func(c *Config) { c.Site.BaseURL = "ftp://example.com/" }, ErrInvalidBaseURL},
		{"zero page size", func(c *Config) { c.Site.PageSize = 0 }, ErrInvalidPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("explicit start page and no cache are valid", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.StartPage = 0
		cfg.UseCache = false
		cfg.CacheDir = ""
		cfg.DelayMin, cfg.DelayMax = 0, 0

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestSiteConfigMerge(t *testing.T) {
	t.Parallel()

	t.Run("empty override keeps base", func(t *testing.T) {
		t.Parallel()

		base := DefaultSiteConfig()
		got := base.Merge(SiteConfig{})

		if got.BaseURL != base.BaseURL || got.PageSize != base.PageSize || got.Selectors != base.Selectors {
			t.Errorf("expected base unchanged, got %+v", got)
		}
	})

	t.Run("override replaces set fields", func(t *testing.T) {
		t.Parallel()

		got := DefaultSiteConfig().Merge(SiteConfig{
			BaseURL:  "https://example.com/list",
			PageSize: 10,
			Selectors: Selectors{
				Title: "h1",
			},
		})

		if got.BaseURL != "https://example.com/list" {
			t.Errorf("unexpected BaseURL %q", got.BaseURL)
		}
		if got.PageSize != 10 {
			t.Errorf("expected PageSize 10, got %d", got.PageSize)
		}
		if got.Selectors.Title != "h1" {
			t.Errorf("expected title selector h1, got %q", got.Selectors.Title)
		}
		if got.Selectors.Body != `div[itemprop="articleBody"]` {
			t.Errorf("expected default body selector, got %q", got.Selectors.Body)
		}
		if got.UserAgent != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", got.UserAgent)
		}
	})

	t.Run("headers merge by key without touching base", func(t *testing.T) {
		t.Parallel()

		base := SiteConfig{Headers: map[string]string{"Accept": "text/html", "X-A": "1"}}
		got := base.Merge(SiteConfig{Headers: map[string]string{"X-A": "2", "X-B": "3"}})

		if got.Headers["Accept"] != "text/html" || got.Headers["X-A"] != "2" || got.Headers["X-B"] != "3" {
			t.Errorf("unexpected headers %v", got.Headers)
		}
		if base.Headers["X-A"] != "1" {
			t.Error("base headers were modified")
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.irsyad")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".irsyad")
		content := `site:
  base_url: https://example.com/fatwa
  page_size: 20
  headers:
    Authorization: "Bearer token"
  selectors:
    listing_link: "a.entry"
    paragraph: "div.para"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Site.BaseURL != "https://example.com/fatwa" {
			t.Errorf("unexpected base url %q", cfg.Site.BaseURL)
		}
		if cfg.Site.PageSize != 20 {
			t.Errorf("expected page size 20, got %d", cfg.Site.PageSize)
		}
		if cfg.Site.Headers["Authorization"] != "Bearer token" {
			t.Error("expected Authorization header")
		}
		if cfg.Site.Selectors.ListingLink != "a.entry" || cfg.Site.Selectors.Paragraph != "div.para" {
			t.Errorf("unexpected selectors %+v", cfg.Site.Selectors)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".irsyad")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if err == nil {
			t.Fatal("expected error for invalid YAML")
		}
		if !strings.Contains(err.Error(), configPath) {
			t.Errorf("expected error to name the file, got %v", err)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("site: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

func TestApplyConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("merges explicit file into site", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "site.yaml")
		if err := os.WriteFile(configPath, []byte("site:\n  page_size: 50\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := NewConfig()
		cfg.ConfigFilePath = configPath

		path, err := cfg.ApplyConfigFile()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != configPath {
			t.Errorf("expected path %q, got %q", configPath, path)
		}
		if cfg.Site.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", cfg.Site.PageSize)
		}
		if cfg.Site.BaseURL != DefaultBaseURL {
			t.Errorf("expected default base url kept, got %q", cfg.Site.BaseURL)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ConfigFilePath = filepath.Join(t.TempDir(), "missing.yaml")

		if _, err := cfg.ApplyConfigFile(); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if filepath.Base(dir) != AppName {
				t.Errorf("expected %s dir to end in %q, got %q", name, AppName, dir)
			}
		})
	}
}
