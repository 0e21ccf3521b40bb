package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/irsyad/internal/crawler"
)

// FetchRecord is one row of the fetch log.
type FetchRecord struct {
	ID         int64
	RunID      uuid.UUID
	URL        string
	FetchedAt  time.Time
	StatusCode int
	Attempts   int
	Bytes      int
	RawHash    string
	FromCache  bool
	Duration   time.Duration
	Error      string
}

// InsertFetch appends a row to the fetch log.
func (cdb *CrawlDB) InsertFetch(ctx context.Context, rec *FetchRecord) error {
	query := `
	INSERT INTO fetches (run_id, url, fetched_at, status_code, attempts, bytes, raw_hash, from_cache, duration_ms, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	fromCache := 0
	if rec.FromCache {
		fromCache = 1
	}

	_, err := cdb.db.ExecContext(ctx, query,
		rec.RunID.String(),
		rec.URL,
		formatTime(rec.FetchedAt),
		rec.StatusCode,
		rec.Attempts,
		rec.Bytes,
		rec.RawHash,
		fromCache,
		rec.Duration.Milliseconds(),
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fetch: %w", err)
	}

	return nil
}

// FetchesForRun returns the fetch log of a run in insertion order.
func (cdb *CrawlDB) FetchesForRun(ctx context.Context, runID uuid.UUID) ([]FetchRecord, error) {
	query := `
	SELECT id, url, fetched_at, status_code, attempts, bytes, raw_hash, from_cache, duration_ms, COALESCE(error, '')
	FROM fetches
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var results []FetchRecord
	for rows.Next() {
		var (
			rec        FetchRecord
			fetchedAt  string
			fromCache  int
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &fetchedAt, &rec.StatusCode, &rec.Attempts,
			&rec.Bytes, &rec.RawHash, &fromCache, &durationMS, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		rec.RunID = runID
		rec.FetchedAt = parseTimestamp(fetchedAt)
		rec.FromCache = fromCache != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, rec)
	}

	return results, rows.Err()
}

// FetchSummary aggregates the fetch log of a run.
type FetchSummary struct {
	Total     int
	FromCache int
	Failed    int
	Bytes     int64
}

// SummarizeFetches aggregates the fetch log of a run.
func (cdb *CrawlDB) SummarizeFetches(ctx context.Context, runID uuid.UUID) (FetchSummary, error) {
	query := `
	SELECT COUNT(*),
		COALESCE(SUM(from_cache), 0),
		COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(bytes), 0)
	FROM fetches
	WHERE run_id = ?
	`

	var s FetchSummary
	if err := cdb.db.QueryRowContext(ctx, query, runID.String()).Scan(&s.Total, &s.FromCache, &s.Failed, &s.Bytes); err != nil {
		return FetchSummary{}, fmt.Errorf("failed to summarize fetches: %w", err)
	}
	return s, nil
}

// FetchLog writes fetcher events to the fetch log of one run.
type FetchLog struct {
	db     *CrawlDB
	runID  uuid.UUID
	ctx    context.Context //nolint:containedctx // observer callbacks carry no context
	logger *slog.Logger
	now    func() time.Time
}

// NewFetchLog creates a FetchLog for runID.
// Inserts outlive cancellation of ctx so an interrupted run still logs its
// last fetches.
func NewFetchLog(ctx context.Context, db *CrawlDB, runID uuid.UUID, logger *slog.Logger) *FetchLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchLog{
		db:     db,
		runID:  runID,
		ctx:    context.WithoutCancel(ctx),
		logger: logger,
		now:    time.Now,
	}
}

// Observe records ev. It has the crawler.FetchObserver signature.
// Insert failures are logged and never reach the crawl.
func (l *FetchLog) Observe(ev crawler.FetchEvent) {
	rec := &FetchRecord{
		RunID:      l.runID,
		URL:        ev.URL,
		FetchedAt:  l.now(),
		StatusCode: ev.StatusCode,
		Attempts:   ev.Attempts,
		Bytes:      ev.Bytes,
		RawHash:    ev.Hash,
		FromCache:  ev.FromCache,
		Duration:   ev.Duration,
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}

	if err := l.db.InsertFetch(l.ctx, rec); err != nil {
		l.logger.Warn("failed to record fetch", "url", ev.URL, "error", err)
	}
}
