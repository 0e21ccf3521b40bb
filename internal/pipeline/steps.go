package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/irsyad/internal/model"
)

var (
	// ErrNoPage is returned by ExtractStep when the job has not been fetched.
	ErrNoPage = errors.New("job has no fetched page")

	// ErrNotHTML is returned by ExtractStep for responses that are not markup.
	ErrNotHTML = errors.New("document is not HTML")
)

// PageFetcher fetches document pages.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string, useCache bool) (*model.Page, error)
}

// RecordExtractor builds a record from document markup.
type RecordExtractor interface {
	Extract(html, url string) model.ArticleRecord
}

// FetchStep downloads the job's document.
type FetchStep struct {
	fetcher  PageFetcher
	useCache bool
	logger   *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchCache makes the step read and write the response cache.
func WithFetchCache(useCache bool) FetchStepOption {
	return func(s *FetchStep) {
		s.useCache = useCache
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher PageFetcher, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{fetcher: fetcher}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name implements Step.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do implements Step.
func (s *FetchStep) Do(ctx context.Context, job *Job) error {
	page, err := s.fetcher.FetchPage(ctx, job.URL, s.useCache)
	if err != nil {
		return err
	}
	job.Page = page
	return nil
}

// ExtractStep turns the fetched page into a record.
type ExtractStep struct {
	extractor RecordExtractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor RecordExtractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name implements Step.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do implements Step.
func (s *ExtractStep) Do(_ context.Context, job *Job) error {
	if job.Page == nil {
		return ErrNoPage
	}
	if !job.Page.IsHTML() {
		return fmt.Errorf("%w: %s", ErrNotHTML, job.Page.ContentType)
	}
	rec := s.extractor.Extract(job.Page.Body(), job.URL)
	job.Record = &rec
	return nil
}

// DocumentPipeline returns the fetch-then-extract pipeline for documents.
func DocumentPipeline(fetcher PageFetcher, extractor RecordExtractor, useCache bool, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewFetchStep(fetcher, WithFetchCache(useCache), WithFetchLogger(p.logger)),
		NewExtractStep(extractor),
	)
	return p
}
