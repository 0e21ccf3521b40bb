package model

import (
	"time"

	"github.com/google/uuid"
)

// StopReason describes why a crawl run ended.
type StopReason string

const (
	// StopExhausted means a listing page yielded no links.
	StopExhausted StopReason = "exhausted"

	// StopPageCap means the configured maximum page index was reached.
	StopPageCap StopReason = "page_cap"

	// StopInterrupted means the run was cancelled by the user or a signal.
	StopInterrupted StopReason = "interrupted"

	// StopError means the run was aborted by an error.
	StopError StopReason = "error"
)

// CrawlStats collects counters for a single crawl run.
// It is filled in by the crawler and consumed by reports and the crawl DB.
type CrawlStats struct {
	// RunID identifies the run in the crawl DB.
	RunID uuid.UUID `json:"run_id"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// StartPage is the first listing page index visited.
	StartPage int `json:"start_page"`

	// ResumePage is the page index recorded in the last checkpoint.
	ResumePage int `json:"resume_page"`

	// PagesVisited counts listing pages fetched successfully.
	PagesVisited int `json:"pages_visited"`

	// LinksFound counts document links across all listing pages.
	LinksFound int `json:"links_found"`

	// LinksSkipped counts links dropped because they were already processed.
	LinksSkipped int `json:"links_skipped"`

	// RecordsAppended counts records added in this run.
	RecordsAppended int `json:"records_appended"`

	// DocumentFailures counts documents that could not be fetched.
	DocumentFailures int `json:"document_failures"`

	// FailedURLs lists the documents behind DocumentFailures.
	FailedURLs []string `json:"failed_urls,omitempty"`

	// TotalRecords is the dataset size at the end of the run.
	TotalRecords int `json:"total_records"`

	// Sentinel counters for records appended in this run.
	MissingTitles    int `json:"missing_titles"`
	MissingQuestions int `json:"missing_questions"`
	MissingAnswers   int `json:"missing_answers"`

	// Stop is why the run ended.
	Stop StopReason `json:"stop"`

	// Error is the message of the error that aborted the run, if any.
	Error string `json:"error,omitempty"`
}

// NewCrawlStats creates stats for a run starting now at the given page.
func NewCrawlStats(startPage int) *CrawlStats {
	return &CrawlStats{
		RunID:      uuid.New(),
		StartedAt:  time.Now(),
		StartPage:  startPage,
		ResumePage: startPage,
	}
}

// RecordAppended updates counters for a record added in this run.
func (s *CrawlStats) RecordAppended(rec ArticleRecord) {
	s.RecordsAppended++
	if !rec.HasTitle() {
		s.MissingTitles++
	}
	if !rec.HasQuestion() {
		s.MissingQuestions++
	}
	if !rec.HasAnswer() {
		s.MissingAnswers++
	}
}

// RecordFailure updates counters for a document that could not be fetched.
func (s *CrawlStats) RecordFailure(url string) {
	s.DocumentFailures++
	s.FailedURLs = append(s.FailedURLs, url)
}

// Duration returns how long the run took.
// For an unfinished run it returns the time elapsed so far.
func (s *CrawlStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Interrupted reports whether the run was cancelled.
func (s *CrawlStats) Interrupted() bool {
	return s.Stop == StopInterrupted
}

// Completed reports whether the run reached the end of the listing.
func (s *CrawlStats) Completed() bool {
	return s.Stop == StopExhausted
}
