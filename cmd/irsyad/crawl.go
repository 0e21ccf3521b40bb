package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/irsyad/internal/checkpoint"
	"github.com/nao1215/irsyad/internal/config"
	"github.com/nao1215/irsyad/internal/crawler"
	"github.com/nao1215/irsyad/internal/database"
	"github.com/nao1215/irsyad/internal/dataset"
	"github.com/nao1215/irsyad/internal/extract"
	"github.com/nao1215/irsyad/internal/fileutil"
	"github.com/nao1215/irsyad/internal/model"
	"github.com/nao1215/irsyad/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the listing and extract question and answer records",
		Long: `Crawl walks the listing pages in order, fetches every article not yet in the
dataset, extracts its title, question and answer, and appends the record to
the dataset file.

By default the previous dataset and checkpoint are loaded and the crawl
continues at the checkpointed page. Ctrl-C stops the crawl after saving
progress; run the command again to continue.

Examples:
  # Crawl or continue crawling
  irsyad crawl

  # Start over from page 0, ignoring previous output
  irsyad crawl --no-resume

  # Crawl the first 3 listing pages with 4 concurrent documents
  irsyad crawl --max-pages 3 --workers 4

  # Also write a CSV copy and a Markdown report
  irsyad crawl --csv articles.csv --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Crawl range
	cmd.Flags().IntP("start-page", "s", config.StartFromCheckpoint,
		"Listing page to start at (default: checkpointed page, or 0)")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Stop before this listing page index (0 means no limit)")
	cmd.Flags().Bool("no-resume", false,
		"Ignore the previous dataset and checkpoint and start at page 0")

	// Politeness and retries
	cmd.Flags().Duration("delay-min", config.DefaultDelayMin,
		"Minimum delay after each request (also the minimum request interval)")
	cmd.Flags().Duration("delay-max", config.DefaultDelayMax,
		"Maximum delay after each request")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Attempts per URL")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryBaseDelay,
		"Base delay between attempts; attempt n waits n times this")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP attempt")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Documents processed concurrently per listing page")
	cmd.Flags().Int("snapshot-every", config.DefaultSnapshotEvery,
		"Save dataset and checkpoint after this many new records (0: once per page)")

	// Files
	cmd.Flags().String("out", config.DefaultOutputPath, "Dataset JSON file")
	cmd.Flags().String("checkpoint", config.DefaultCheckpointPath, "Checkpoint file")
	cmd.Flags().String("cache-dir", config.XDGCacheDir(), "Response cache directory")
	cmd.Flags().Bool("no-cache", false, "Disable the response cache")
	cmd.Flags().Bool("cache-listings", false, "Also cache listing pages")
	cmd.Flags().String("csv", "", "Write a CSV copy of the dataset after the crawl")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Crawl database directory")
	cmd.Flags().Bool("no-db", false, "Do not record the run in the crawl database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .irsyad in current or home directory, then the XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if _, err := cfg.ApplyConfigFile(); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
	return err
}

// buildCrawlConfig creates a Config from cobra command flags.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.StartPage, err = flags.GetInt("start-page"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	noResume, err := flags.GetBool("no-resume")
	if err != nil {
		return nil, err
	}
	cfg.Resume = !noResume

	if cfg.DelayMin, err = flags.GetDuration("delay-min"); err != nil {
		return nil, err
	}
	if cfg.DelayMax, err = flags.GetDuration("delay-max"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.RetryBaseDelay, err = flags.GetDuration("retry-delay"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.SnapshotEvery, err = flags.GetInt("snapshot-every"); err != nil {
		return nil, err
	}

	if cfg.OutputPath, err = flags.GetString("out"); err != nil {
		return nil, err
	}
	if cfg.CheckpointPath, err = flags.GetString("checkpoint"); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
		return nil, err
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	cfg.UseCache = !noCache
	if cfg.CacheListings, err = flags.GetBool("cache-listings"); err != nil {
		return nil, err
	}
	if cfg.CSVPath, err = flags.GetString("csv"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogJSON = getLogJSONFlag(cmd)

	return cfg, nil
}

// runCrawl seeds the session, runs the spider and writes the outputs.
// The crawl error is returned after the run has been recorded and reported.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*model.CrawlStats, error) {
	session := dataset.NewSession()
	writer := dataset.NewWriter(cfg.OutputPath, dataset.WithLogger(logger))
	store := checkpoint.NewStore(cfg.CheckpointPath, checkpoint.WithLogger(logger))

	startPage := 0
	if cfg.Resume {
		page, err := seedSession(session, writer.Path(), store, logger)
		if err != nil {
			return nil, err
		}
		startPage = page
	}
	if cfg.StartPage != config.StartFromCheckpoint {
		startPage = cfg.StartPage
	}

	runID := uuid.New()
	fetcherOpts := []crawler.FetcherOption{
		crawler.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		crawler.WithDelayRange(cfg.DelayMin, cfg.DelayMax),
		crawler.WithMaxRetries(cfg.MaxRetries),
		crawler.WithBaseDelay(cfg.RetryBaseDelay),
		crawler.WithUserAgent(cfg.Site.UserAgent),
		crawler.WithHeaders(cfg.Site.Headers),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFetcherLogger(logger),
	}

	if cfg.UseCache {
		cache, err := crawler.NewCache(cfg.CacheDir, crawler.WithCacheLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		logger.Debug("response cache opened", "dir", cache.Dir())
		fetcherOpts = append(fetcherOpts, crawler.WithCache(cache))
	}

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())

		fetchLog := database.NewFetchLog(ctx, db, runID, logger)
		fetcherOpts = append(fetcherOpts, crawler.WithObserver(fetchLog.Observe))
	}

	sel := cfg.Site.Selectors
	extractor := extract.New(
		extract.WithTitleSelector(sel.Title),
		extract.WithBodySelector(sel.Body),
		extract.WithParagraphSelector(sel.Paragraph),
		extract.WithLogger(logger),
	)

	spider := crawler.NewSpider(
		crawler.NewFetcher(fetcherOpts...),
		extractor,
		session,
		writer,
		store,
		crawler.WithBaseURL(cfg.Site.BaseURL),
		crawler.WithPageSize(cfg.Site.PageSize),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithSnapshotEvery(cfg.SnapshotEvery),
		crawler.WithCacheListings(cfg.UseCache && cfg.CacheListings),
		crawler.WithCacheDocuments(cfg.UseCache),
		crawler.WithLinkExtractor(crawler.NewLinkExtractor(
			crawler.WithListingSelectors(sel.ListingContainer, sel.ListingRow, sel.ListingLink),
		)),
		crawler.WithRunID(runID),
		crawler.WithLogger(logger),
	)

	stats, runErr := spider.Run(ctx, startPage)

	// Outputs below must be written even when the crawl was interrupted.
	finishCtx := context.WithoutCancel(ctx)

	if db != nil {
		if err := db.SaveRun(finishCtx, stats); err != nil {
			logger.Error("failed to record run", "run_id", stats.RunID, "error", err)
		}
	}

	if cfg.CSVPath != "" {
		if err := writeCSVFile(cfg.CSVPath, session.Records()); err != nil {
			logger.Error("failed to write CSV", "path", cfg.CSVPath, "error", err)
		} else {
			logger.Info("CSV written", "path", cfg.CSVPath, "records", session.Len())
		}
	}

	if err := outputReport(cfg, stats, out); err != nil {
		logger.Error("report failed", "error", err)
	}

	switch {
	case stats.Completed():
		logger.Info("listing exhausted; checkpoint cleared", "records", stats.TotalRecords)
	case stats.Interrupted():
		logger.Info("crawl interrupted; run again to continue", "resume_page", stats.ResumePage)
	}

	return stats, runErr
}

// seedSession loads the previous dataset and checkpoint into session and
// returns the checkpointed page.
// A dataset that cannot be decoded is an error: overwriting it would lose
// the previous records.
func seedSession(session *dataset.Session, outputPath string, store *checkpoint.Store, logger *slog.Logger) (int, error) {
	records, err := dataset.Load(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load previous dataset (use --no-resume to start over): %w", err)
	}

	page, processed := store.Load()
	missing := session.Seed(records, processed)

	logger.Info("resuming",
		"records", session.Len(),
		"checkpoint_page", page,
		"checkpoint_urls", len(processed),
	)
	if len(missing) > 0 {
		logger.Warn("checkpointed documents missing from dataset will be fetched again",
			"count", len(missing))
	}

	return page, nil
}

// writeCSVFile writes records as CSV to path atomically.
func writeCSVFile(path string, records []model.ArticleRecord) error {
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, records); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// outputReport outputs the run report in the requested format.
// When a report file is set, a text summary is also written to stdout.
func outputReport(cfg *config.Config, stats *model.CrawlStats, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := reportWriter(cfg, stdout).Write(stats)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := report.NewMultiWriter(
		reportWriter(cfg, f),
		newSimpleReport(cfg, stdout),
	)
	_, err = w.Write(stats)
	return err
}

// reportWriter returns the writer for the configured report format.
func reportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return newSimpleReport(cfg, out)
	}
}

// newSimpleReport returns the text report writer. Verbose runs also show
// sections that are empty.
func newSimpleReport(cfg *config.Config, out io.Writer) report.Writer {
	return report.NewSimpleWriter(out,
		report.WithVerbose(cfg.Verbose),
		report.WithShowEmpty(cfg.Verbose),
	)
}
