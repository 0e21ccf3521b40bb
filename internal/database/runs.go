package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/irsyad/internal/model"
)

// SaveRun inserts or replaces the row for stats.RunID.
// The full stats are stored as JSON next to the queryable columns.
func (cdb *CrawlDB) SaveRun(ctx context.Context, stats *model.CrawlStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to serialize run stats: %w", err)
	}

	query := `
	INSERT INTO runs (id, started_at, finished_at, start_page, resume_page, pages_visited,
		records_appended, document_failures, total_records, stop_reason, error, stats_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		resume_page = excluded.resume_page,
		pages_visited = excluded.pages_visited,
		records_appended = excluded.records_appended,
		document_failures = excluded.document_failures,
		total_records = excluded.total_records,
		stop_reason = excluded.stop_reason,
		error = excluded.error,
		stats_json = excluded.stats_json
	`

	_, err = cdb.db.ExecContext(ctx, query,
		stats.RunID.String(),
		formatTime(stats.StartedAt),
		formatTime(stats.FinishedAt),
		stats.StartPage,
		stats.ResumePage,
		stats.PagesVisited,
		stats.RecordsAppended,
		stats.DocumentFailures,
		stats.TotalRecords,
		string(stats.Stop),
		stats.Error,
		string(statsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID. It returns nil, nil when the run is unknown.
func (cdb *CrawlDB) GetRun(ctx context.Context, id uuid.UUID) (*model.CrawlStats, error) {
	var statsJSON string
	err := cdb.db.QueryRowContext(ctx, `SELECT stats_json FROM runs WHERE id = ?`, id.String()).Scan(&statsJSON)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var stats model.CrawlStats
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return nil, fmt.Errorf("failed to parse run stats: %w", err)
	}

	return &stats, nil
}

// RunSummary is the row shown in run listings.
type RunSummary struct {
	ID               uuid.UUID
	StartedAt        time.Time
	FinishedAt       time.Time
	StartPage        int
	ResumePage       int
	PagesVisited     int
	RecordsAppended  int
	DocumentFailures int
	TotalRecords     int
	Stop             model.StopReason
	Error            string
}

// RecentRuns returns up to limit runs, newest first.
func (cdb *CrawlDB) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
	SELECT id, started_at, COALESCE(finished_at, ''), start_page, resume_page, pages_visited,
		records_appended, document_failures, total_records, COALESCE(stop_reason, ''), COALESCE(error, '')
	FROM runs
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                 RunSummary
			id, stop          string
			started, finished string
		)
		if err := rows.Scan(&id, &started, &finished, &r.StartPage, &r.ResumePage,
			&r.PagesVisited, &r.RecordsAppended, &r.DocumentFailures, &r.TotalRecords, &stop, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue // Skip rows with a malformed ID
		}
		r.ID = parsed
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		r.Stop = model.StopReason(stop)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
