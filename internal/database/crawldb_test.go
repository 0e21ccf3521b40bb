package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/irsyad/internal/crawler"
	"github.com/nao1215/irsyad/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

func testStats(t *testing.T, started time.Time) *model.CrawlStats {
	t.Helper()

	stats := model.NewCrawlStats(2)
	stats.StartedAt = started
	stats.FinishedAt = started.Add(time.Minute)
	stats.PagesVisited = 3
	stats.RecordsAppended = 50
	stats.RecordFailure("https://example.com/a")
	stats.TotalRecords = 120
	stats.ResumePage = 4
	stats.Stop = model.StopInterrupted
	return stats
}

func TestRuns(t *testing.T) {
	t.Parallel()

	t.Run("save and get round trip", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		stats := testStats(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

		if err := db.SaveRun(ctx, stats); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		got, err := db.GetRun(ctx, stats.RunID)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected run")
		}
		if got.RunID != stats.RunID || got.RecordsAppended != 50 || got.Stop != model.StopInterrupted {
			t.Errorf("unexpected run: %+v", got)
		}
		if len(got.FailedURLs) != 1 {
			t.Errorf("expected failed URL, got %v", got.FailedURLs)
		}
	})

	t.Run("unknown run returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.GetRun(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("saving again updates the row", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		stats := testStats(t, time.Now())

		if err := db.SaveRun(ctx, stats); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		stats.Stop = model.StopExhausted
		stats.RecordsAppended = 60
		if err := db.SaveRun(ctx, stats); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		runs, err := db.RecentRuns(ctx, 10)
		if err != nil {
			t.Fatalf("RecentRuns failed: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].Stop != model.StopExhausted || runs[0].RecordsAppended != 60 {
			t.Errorf("unexpected run: %+v", runs[0])
		}
	})

	t.Run("recent runs are newest first and limited", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

		var ids []uuid.UUID
		for i := range 3 {
			stats := testStats(t, base.Add(time.Duration(i)*time.Hour))
			ids = append(ids, stats.RunID)
			if err := db.SaveRun(ctx, stats); err != nil {
				t.Fatalf("SaveRun failed: %v", err)
			}
		}

		runs, err := db.RecentRuns(ctx, 2)
		if err != nil {
			t.Fatalf("RecentRuns failed: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
			t.Errorf("unexpected order: %v, %v", runs[0].ID, runs[1].ID)
		}
		if !runs[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("unexpected start time %v", runs[0].StartedAt)
		}
	})
}

func TestFetches(t *testing.T) {
	t.Parallel()

	t.Run("insert, list and summarize", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		runID := uuid.New()

		records := []*FetchRecord{
			{RunID: runID, URL: "https://example.com/1", FetchedAt: time.Now(), StatusCode: 200, Attempts: 1, Bytes: 100, RawHash: "h1"},
			{RunID: runID, URL: "https://example.com/2", FetchedAt: time.Now(), Bytes: 50, FromCache: true},
			{RunID: runID, URL: "https://example.com/3", FetchedAt: time.Now(), StatusCode: 500, Attempts: 3, Error: "gave up"},
			{RunID: uuid.New(), URL: "https://example.com/4", FetchedAt: time.Now()},
		}
		for _, rec := range records {
			if err := db.InsertFetch(ctx, rec); err != nil {
				t.Fatalf("InsertFetch failed: %v", err)
			}
		}

		got, err := db.FetchesForRun(ctx, runID)
		if err != nil {
			t.Fatalf("FetchesForRun failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 fetches, got %d", len(got))
		}
		if got[0].URL != "https://example.com/1" || got[0].RawHash != "h1" || got[0].StatusCode != 200 {
			t.Errorf("unexpected first fetch: %+v", got[0])
		}
		if !got[1].FromCache {
			t.Error("expected second fetch from cache")
		}
		if got[2].Error != "gave up" || got[2].Attempts != 3 {
			t.Errorf("unexpected failed fetch: %+v", got[2])
		}

		sum, err := db.SummarizeFetches(ctx, runID)
		if err != nil {
			t.Fatalf("SummarizeFetches failed: %v", err)
		}
		want := FetchSummary{Total: 3, FromCache: 1, Failed: 1, Bytes: 150}
		if sum != want {
			t.Errorf("summary = %+v, want %+v", sum, want)
		}
	})
}

func TestFetchLog(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	runID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	log := NewFetchLog(ctx, db, runID, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cancel()

	log.Observe(crawler.FetchEvent{URL: "https://example.com/a", Attempts: 1, StatusCode: 200, Bytes: 10, Hash: "abc"})
	log.Observe(crawler.FetchEvent{URL: "https://example.com/b", Attempts: 3, Err: errors.New("timeout")})

	got, err := db.FetchesForRun(context.Background(), runID)
	if err != nil {
		t.Fatalf("FetchesForRun failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fetches after cancellation, got %d", len(got))
	}
	if got[0].RawHash != "abc" || got[1].Error != "timeout" {
		t.Errorf("unexpected fetches: %+v", got)
	}
}

func TestArticles(t *testing.T) {
	t.Parallel()

	scraped := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	records := []model.ArticleRecord{
		{Title: "B", Question: "Qb", Answer: "Ab", URL: "https://example.com/b", ScrapedAt: scraped},
		{Title: "A", Question: "Qa", Answer: "Aa", URL: "https://example.com/a", ScrapedAt: scraped},
	}

	t.Run("replace keeps dataset order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.ReplaceArticles(ctx, records); err != nil {
			t.Fatalf("ReplaceArticles failed: %v", err)
		}

		got := projectedArticles(t, db)
		if len(got) != 2 || got[0].URL != "https://example.com/b" || got[1].URL != "https://example.com/a" {
			t.Errorf("unexpected articles: %+v", got)
		}
		if got[0].Question != "Qb" || got[0].ScrapedAt != formatTime(scraped) {
			t.Errorf("unexpected first article: %+v", got[0])
		}
	})

	t.Run("replace drops rows missing from the new set", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.ReplaceArticles(ctx, records); err != nil {
			t.Fatalf("ReplaceArticles failed: %v", err)
		}
		if err := db.ReplaceArticles(ctx, records[:1]); err != nil {
			t.Fatalf("ReplaceArticles failed: %v", err)
		}

		n, err := db.CountArticles(ctx)
		if err != nil {
			t.Fatalf("CountArticles failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 article, got %d", n)
		}

		got := projectedArticles(t, db)
		if len(got) != 1 || got[0].URL != "https://example.com/b" {
			t.Errorf("unexpected articles: %+v", got)
		}
	})
}

type projectedArticle struct {
	URL       string
	Question  string
	ScrapedAt string
}

// projectedArticles reads the articles table in position order.
func projectedArticles(t *testing.T, db *CrawlDB) []projectedArticle {
	t.Helper()

	rows, err := db.db.QueryContext(context.Background(),
		`SELECT url, question, scraped_at FROM articles ORDER BY position`)
	if err != nil {
		t.Fatalf("query articles: %v", err)
	}
	defer rows.Close()

	var out []projectedArticle
	for rows.Next() {
		var a projectedArticle
		if err := rows.Scan(&a.URL, &a.Question, &a.ScrapedAt); err != nil {
			t.Fatalf("scan article: %v", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, s := range []string{
		formatTime(want),
		"2026-01-02T03:04:05Z",
		"2026-01-02 03:04:05",
	} {
		if got := parseTimestamp(s); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", s, got, want)
		}
	}
	if got := parseTimestamp("not a time"); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
