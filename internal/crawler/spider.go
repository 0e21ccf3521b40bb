package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/irsyad/internal/dataset"
	"github.com/nao1215/irsyad/internal/model"
	"github.com/nao1215/irsyad/internal/pipeline"
)

// Spider defaults.
const (
	DefaultBaseURL       = "https://www.muftiwp.gov.my/ms/artikel/irsyad-hukum/umum"
	DefaultWorkers       = 1
	DefaultSnapshotEvery = 10
)

// Snapshotter persists the full record list.
type Snapshotter interface {
	Snapshot(records []model.ArticleRecord) error
}

// CheckpointSaver persists crawl progress.
type CheckpointSaver interface {
	Save(pageNum int, processedURLs []string) error
	Clear() error
}

// PageFetcher fetches listing pages as text and documents as pages.
// *Fetcher implements it.
type PageFetcher interface {
	pipeline.PageFetcher
	Fetch(ctx context.Context, url string, useCache bool) (string, error)
}

// Spider drives a crawl: it walks listing pages in order, fetches and
// extracts every unprocessed document on each page, and keeps the output
// snapshot and the checkpoint up to date so the crawl can resume after an
// interruption.
//
// A snapshot containing a document's record is always written before any
// checkpoint that names the document.
type Spider struct {
	fetcher     PageFetcher
	extractor   pipeline.RecordExtractor
	session     *dataset.Session
	writer      Snapshotter
	checkpoints CheckpointSaver
	links       *LinkExtractor

	baseURL        string
	pageSize       int
	maxPages       int
	workers        int
	snapshotEvery  int
	cacheListings  bool
	cacheDocuments bool
	runID          uuid.UUID

	logger *slog.Logger

	// commitMu serializes appends, snapshots and checkpoints.
	commitMu sync.Mutex
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithBaseURL sets the URL of listing page 0.
func WithBaseURL(u string) SpiderOption {
	return func(s *Spider) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithPageSize sets the number of entries per listing page.
func WithPageSize(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithMaxPages stops the crawl before listing page n. Zero means no limit.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		if n >= 0 {
			s.maxPages = n
		}
	}
}

// WithWorkers sets how many documents of a page are processed at once.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSnapshotEvery writes a snapshot and checkpoint after every n new
// records. Zero disables intermediate snapshots.
func WithSnapshotEvery(n int) SpiderOption {
	return func(s *Spider) {
		if n >= 0 {
			s.snapshotEvery = n
		}
	}
}

// WithCacheListings makes listing page fetches use the response cache.
func WithCacheListings(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.cacheListings = enabled
	}
}

// WithCacheDocuments makes document fetches use the response cache.
func WithCacheDocuments(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.cacheDocuments = enabled
	}
}

// WithLinkExtractor sets the listing link extractor.
func WithLinkExtractor(e *LinkExtractor) SpiderOption {
	return func(s *Spider) {
		if e != nil {
			s.links = e
		}
	}
}

// WithRunID sets the ID reported in the run's stats.
// Callers that tag fetches with the run ID set it before Run.
func WithRunID(id uuid.UUID) SpiderOption {
	return func(s *Spider) {
		s.runID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider. The session should already be seeded with the
// records of a previous run when resuming.
func NewSpider(
	fetcher PageFetcher,
	extractor pipeline.RecordExtractor,
	session *dataset.Session,
	writer Snapshotter,
	checkpoints CheckpointSaver,
	opts ...SpiderOption,
) *Spider {
	s := &Spider{
		fetcher:        fetcher,
		extractor:      extractor,
		session:        session,
		writer:         writer,
		checkpoints:    checkpoints,
		links:          NewLinkExtractor(),
		baseURL:        DefaultBaseURL,
		pageSize:       DefaultPageSize,
		workers:        DefaultWorkers,
		snapshotEvery:  DefaultSnapshotEvery,
		cacheDocuments: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// runState is the mutable state of one Run.
type runState struct {
	stats *model.CrawlStats

	// resume is the page the next checkpoint records.
	resume int

	// firstIncomplete is the first page of this run with failed documents, or -1.
	firstIncomplete int

	// sinceSnapshot counts records appended since the last snapshot.
	sinceSnapshot int
}

// resumeFrom returns the resume page given that every page before page
// has been handled.
func (st *runState) resumeFrom(page int) int {
	if st.firstIncomplete >= 0 && st.firstIncomplete < page {
		return st.firstIncomplete
	}
	return page
}

// Run crawls listing pages starting at startPage until a page yields no
// links, the page limit is reached, ctx is cancelled or an error occurs.
//
// On every exit the records are snapshotted. When the listing is exhausted
// the checkpoint is cleared; otherwise it is saved so a later run resumes at
// the first page that is not fully processed. Cancellation is not an error:
// the returned stats report it and the error is nil. Any other failure,
// including a failed listing fetch or a panic, is returned after progress
// has been persisted.
func (s *Spider) Run(ctx context.Context, startPage int) (stats *model.CrawlStats, err error) {
	if startPage < 0 {
		startPage = 0
	}

	st := &runState{
		stats:           model.NewCrawlStats(startPage),
		resume:          startPage,
		firstIncomplete: -1,
	}
	stats = st.stats
	if s.runID != uuid.Nil {
		stats.RunID = s.runID
	}

	s.logger.Info("starting crawl",
		"run_id", stats.RunID,
		"start_page", startPage,
		"max_pages", s.maxPages,
		"workers", s.workers,
		"records", s.session.Len(),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl panicked: %v", r)
			stats.Stop = model.StopError
		}
		err = s.finish(st, err)
	}()

	for page := startPage; ; page++ {
		if s.maxPages > 0 && page >= s.maxPages {
			s.logger.Info("reached maximum number of pages", "max_pages", s.maxPages)
			st.resume = st.resumeFrom(page)
			stats.Stop = model.StopPageCap
			return stats, nil
		}

		if ctx.Err() != nil {
			stats.Stop = model.StopInterrupted
			return stats, nil
		}

		exhausted, err := s.crawlPage(ctx, st, page)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("crawl interrupted, saving progress", "page", page)
				stats.Stop = model.StopInterrupted
				return stats, nil
			}
			stats.Stop = model.StopError
			return stats, err
		}
		if exhausted {
			s.logger.Info("no more articles found, ending crawl", "page", page)
			stats.Stop = model.StopExhausted
			return stats, nil
		}
	}
}

// crawlPage processes one listing page. It reports whether the page had no
// links, which ends the crawl.
func (s *Spider) crawlPage(ctx context.Context, st *runState, page int) (bool, error) {
	st.resume = st.resumeFrom(page)

	listingURL, err := PageURL(s.baseURL, page, s.pageSize)
	if err != nil {
		return false, err
	}

	s.logger.Info("scraping page", "page", page, "url", listingURL)
	listing, err := s.fetcher.Fetch(ctx, listingURL, s.cacheListings)
	if err != nil {
		return false, fmt.Errorf("failed to fetch listing page %d: %w", page, err)
	}

	links, err := s.links.ExtractLinks(listing, listingURL)
	if err != nil {
		return false, err
	}
	st.stats.PagesVisited++
	if len(links) == 0 {
		return true, nil
	}

	newLinks := s.session.FilterNew(links)
	st.stats.LinksFound += len(links)
	st.stats.LinksSkipped += len(links) - len(newLinks)
	s.logger.Info("found articles", "page", page, "links", len(links), "new", len(newLinks))

	failures, err := s.processDocuments(ctx, st, page, newLinks)
	if err != nil {
		return false, err
	}

	if failures > 0 {
		s.logger.Warn("page incomplete", "page", page, "failures", failures)
		if st.firstIncomplete < 0 {
			st.firstIncomplete = page
		}
	}
	st.resume = st.resumeFrom(page + 1)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.session.Dirty() {
		if err := s.snapshotLocked(st); err != nil {
			return false, err
		}
	}
	return false, s.checkpointLocked(st.resume)
}

// processDocuments fetches and extracts the given documents and commits
// the results in link order. It returns the number of failed documents.
func (s *Spider) processDocuments(ctx context.Context, st *runState, page int, links []string) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DocumentPipeline(s.fetcher, s.extractor, s.cacheDocuments, pipeline.WithLogger(s.logger))
		},
		pipeline.WithConcurrency(s.workers),
		pipeline.WithBatchLogger(s.logger),
	)

	var (
		failures int
		next     int
		pending  = make(map[int]*pipeline.Job)
	)

	// Jobs finish in any order when workers > 1; results are held until all
	// earlier links are committed so the output order follows the listing.
	err := bp.ProcessBatchWithCallback(ctx, links, func(job *pipeline.Job) error {
		s.commitMu.Lock()
		defer s.commitMu.Unlock()

		pending[job.Index] = job
		for {
			j, ok := pending[next]
			if !ok {
				return nil
			}
			delete(pending, next)
			next++
			if err := s.commitLocked(st, page, j, &failures); err != nil {
				return err
			}
		}
	})

	// Commit finished jobs stranded behind a cancelled one.
	if err != nil && ctx.Err() != nil && !errors.Is(err, pipeline.ErrPanic) {
		s.commitMu.Lock()
		indexes := make([]int, 0, len(pending))
		for i := range pending {
			indexes = append(indexes, i)
		}
		slices.Sort(indexes)
		for _, i := range indexes {
			if cerr := s.commitLocked(st, page, pending[i], &failures); cerr != nil {
				s.logger.Error("failed to commit document", "url", pending[i].URL, "error", cerr)
			}
		}
		s.commitMu.Unlock()
	}

	return failures, err
}

// commitLocked records the outcome of one document job.
// The caller must hold commitMu.
func (s *Spider) commitLocked(st *runState, page int, job *pipeline.Job, failures *int) error {
	if job.Failed() || job.Record == nil {
		*failures++
		st.stats.RecordFailure(job.URL)
		s.logger.Error("failed to process document",
			"url", job.URL,
			"permanent", IsPermanent(job.Err),
			"error", job.Err,
		)
		return nil
	}

	if !s.session.Append(*job.Record) {
		s.logger.Debug("duplicate document skipped", "url", job.URL)
		return nil
	}
	st.stats.RecordAppended(*job.Record)
	st.sinceSnapshot++

	if s.snapshotEvery > 0 && st.sinceSnapshot >= s.snapshotEvery {
		if err := s.snapshotLocked(st); err != nil {
			return err
		}
		if err := s.checkpointLocked(st.resumeFrom(page)); err != nil {
			return err
		}
	}
	return nil
}

// snapshotLocked writes every record. The caller must hold commitMu.
func (s *Spider) snapshotLocked(st *runState) error {
	if err := s.writer.Snapshot(s.session.Records()); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	s.session.MarkClean()
	st.sinceSnapshot = 0
	return nil
}

// checkpointLocked saves progress. The caller must hold commitMu.
func (s *Spider) checkpointLocked(page int) error {
	if err := s.checkpoints.Save(page, s.session.ProcessedURLs()); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// finish persists the final state of a run and fills in the remaining stats.
func (s *Spider) finish(st *runState, runErr error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	stats := st.stats
	stats.FinishedAt = time.Now()
	stats.ResumePage = st.resume
	stats.TotalRecords = s.session.Len()

	errs := []error{runErr}
	if err := s.snapshotLocked(st); err != nil {
		// The checkpoint must not name records missing from the output.
		errs = append(errs, err)
	} else if stats.Stop == model.StopExhausted {
		if err := s.checkpoints.Clear(); err != nil {
			errs = append(errs, err)
		}
	} else if err := s.checkpointLocked(st.resume); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		if stats.Stop != model.StopInterrupted {
			stats.Stop = model.StopError
		}
		stats.Error = err.Error()
	}

	s.logger.Info("crawl finished",
		"run_id", stats.RunID,
		"stop", stats.Stop,
		"pages", stats.PagesVisited,
		"appended", stats.RecordsAppended,
		"failures", stats.DocumentFailures,
		"total", stats.TotalRecords,
		"resume_page", stats.ResumePage,
		"elapsed", stats.Duration(),
	)

	return err
}
