package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "irsyad"

	// DefaultDelayMin and DefaultDelayMax bound the random delay after each
	// request. DefaultDelayMin is also the minimum interval between requests.
	DefaultDelayMin = 1 * time.Second
	DefaultDelayMax = 3 * time.Second

	// DefaultMaxRetries is the number of attempts per URL.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is multiplied by the attempt number to get the
	// wait before the next attempt.
	DefaultRetryBaseDelay = 2 * time.Second

	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultWorkers processes documents sequentially.
	DefaultWorkers = 1

	// DefaultSnapshotEvery is the number of new records between snapshots.
	DefaultSnapshotEvery = 10

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultOutputPath is the dataset file, relative to the working directory.
	DefaultOutputPath = "mufti_wp_articles.json"

	// DefaultCheckpointPath is the checkpoint file, relative to the working directory.
	DefaultCheckpointPath = "checkpoint.json"

	// StartFromCheckpoint means the start page comes from the checkpoint.
	StartFromCheckpoint = -1
)

// Config holds all options of a crawl.
// It is populated from CLI flags and the site file and passed through the
// application rather than kept in global state.
type Config struct {
	// StartPage is the first listing page to crawl.
	// StartFromCheckpoint resumes at the checkpointed page (0 without one).
	StartPage int

	// MaxPages stops the crawl before this page index. Zero means no limit.
	MaxPages int

	// Resume loads the previous output and checkpoint before crawling.
	Resume bool

	// DelayMin and DelayMax bound the random delay after each request.
	DelayMin time.Duration
	DelayMax time.Duration

	// MaxRetries is the number of attempts per URL.
	MaxRetries int

	// RetryBaseDelay is the linear backoff unit between attempts.
	RetryBaseDelay time.Duration

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// Workers is the number of documents processed concurrently per page.
	Workers int

	// SnapshotEvery writes the output and checkpoint after this many new
	// records. Zero only snapshots after each page.
	SnapshotEvery int

	// OutputPath is the JSON dataset file.
	OutputPath string

	// CheckpointPath is the checkpoint file.
	CheckpointPath string

	// CacheDir holds cached page bodies.
	CacheDir string

	// UseCache enables the response cache for documents.
	UseCache bool

	// CacheListings also caches listing pages. Off by default because
	// listings change as new documents are published.
	CacheListings bool

	// CSVPath, when set, receives a CSV copy of the dataset after the crawl.
	CSVPath string

	// JSONReport selects the JSON run report. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects the Markdown run report.
	MarkdownReport bool

	// ReportFile writes the run report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the crawl database.
	// Defaults to the XDG data directory (~/.local/share/irsyad on Linux).
	DBDir string

	// SaveToDB records runs and fetches in the crawl database.
	SaveToDB bool

	// ConfigFilePath is the site file path. If empty, .irsyad is searched in
	// the current directory and then the home directory.
	ConfigFilePath string

	// Site describes the listing site. NewConfig sets the built-in site.
	Site SiteConfig

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches logs to JSON.
	LogJSON bool

	// MaxBodySize limits the response body size in bytes.
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		StartPage:      StartFromCheckpoint,
		Resume:         true,
		DelayMin:       DefaultDelayMin,
		DelayMax:       DefaultDelayMax,
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		Timeout:        DefaultTimeout,
		Workers:        DefaultWorkers,
		SnapshotEvery:  DefaultSnapshotEvery,
		OutputPath:     DefaultOutputPath,
		CheckpointPath: DefaultCheckpointPath,
		CacheDir:       XDGCacheDir(),
		UseCache:       true,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
		Site:           DefaultSiteConfig(),
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for irsyad.
// On Linux: ~/.local/share/irsyad
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for irsyad.
// On Linux: ~/.config/irsyad
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for irsyad.
// On Linux: ~/.cache/irsyad
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if c.StartPage < StartFromCheckpoint {
		return ErrInvalidStartPage
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.DelayMin < 0 || c.DelayMax < 0 {
		return ErrInvalidDelay
	}
	if c.DelayMax < c.DelayMin {
		return ErrInvalidDelayRange
	}
	if c.MaxRetries < 1 {
		return ErrInvalidMaxRetries
	}
	if c.RetryBaseDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.SnapshotEvery < 0 {
		return ErrInvalidSnapshotEvery
	}
	if c.OutputPath == "" {
		return ErrNoOutputPath
	}
	if c.CheckpointPath == "" {
		return ErrNoCheckpointPath
	}
	if c.UseCache && c.CacheDir == "" {
		return ErrNoCacheDir
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return c.Site.Validate()
}

// Validate checks the site description.
func (s SiteConfig) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if s.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	return nil
}
