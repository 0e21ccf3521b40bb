package extract

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/irsyad/internal/model"
)

// Default selectors for document pages.
const (
	DefaultTitleSelector     = "h2.article-details-title"
	DefaultBodySelector      = `div[itemprop="articleBody"]`
	DefaultParagraphSelector = "p"
)

// Extractor builds an ArticleRecord from document markup.
// It is safe for concurrent use.
type Extractor struct {
	titleSelector     string
	bodySelector      string
	paragraphSelector string
	chain             Chain
	now               func() time.Time
	logger            *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTitleSelector sets the CSS selector of the title heading.
func WithTitleSelector(sel string) Option {
	return func(e *Extractor) {
		if sel != "" {
			e.titleSelector = sel
		}
	}
}

// WithBodySelector sets the CSS selector of the article body container.
func WithBodySelector(sel string) Option {
	return func(e *Extractor) {
		if sel != "" {
			e.bodySelector = sel
		}
	}
}

// WithParagraphSelector sets the CSS selector of paragraphs within the body.
func WithParagraphSelector(sel string) Option {
	return func(e *Extractor) {
		if sel != "" {
			e.paragraphSelector = sel
		}
	}
}

// WithChain replaces the resolution chain.
func WithChain(chain Chain) Option {
	return func(e *Extractor) {
		e.chain = chain
	}
}

// WithClock sets the function used for ScrapedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor with the default selectors and chain.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		titleSelector:     DefaultTitleSelector,
		bodySelector:      DefaultBodySelector,
		paragraphSelector: DefaultParagraphSelector,
		chain:             DefaultChain(),
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Extract builds the record for the document at url.
//
// Unparseable markup or a missing body never causes an error; the affected
// fields get sentinel values instead.
func (e *Extractor) Extract(html, url string) model.ArticleRecord {
	rec := model.ArticleRecord{
		Title:     model.NoTitle,
		Question:  model.NoQuestion,
		Answer:    model.NoAnswer,
		URL:       url,
		ScrapedAt: e.now(),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn("failed to parse document", "url", url, "error", err)
		return rec
	}

	if title := strings.TrimSpace(doc.Find(e.titleSelector).First().Text()); title != "" {
		rec.Title = title
	}

	body := doc.Find(e.bodySelector).First()
	if body.Length() == 0 {
		e.logger.Warn("no article body found", "url", url)
		rec.Title = model.Sanitize(rec.Title)
		return rec
	}

	d := &Draft{
		URL:   url,
		Title: rec.Title,
		Text:  strings.TrimSpace(body.Text()),
	}
	body.Find(e.paragraphSelector).Each(func(_ int, p *goquery.Selection) {
		d.Paragraphs = append(d.Paragraphs, strings.TrimSpace(p.Text()))
	})

	applied := e.chain.Run(d)
	e.logger.Debug("extracted document", "url", url, "stages", applied)

	if d.Question != "" {
		rec.Question = d.Question
	}
	if d.Answer != "" {
		rec.Answer = d.Answer
	}

	rec.Title = model.Sanitize(rec.Title)
	rec.Question = model.Sanitize(rec.Question)
	rec.Answer = model.Sanitize(rec.Answer)

	return rec
}
