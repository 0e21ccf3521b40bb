package dataset

import (
	"slices"
	"sync"

	"github.com/nao1215/irsyad/internal/model"
)

// Session is the in-memory state of a crawl: the ordered records and the
// URLs already processed. A URL is processed exactly when the session holds
// its record. Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	records   []model.ArticleRecord
	index     map[string]int
	processed map[string]struct{}
	dirty     bool
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		index:     make(map[string]int),
		processed: make(map[string]struct{}),
	}
}

// Seed loads records from a previous run. Records with a URL already seen
// are dropped. The processed set becomes the URLs of the seeded records.
//
// It returns the checkpoint URLs that have no seeded record; those documents
// are not considered processed and will be fetched again.
func (s *Session) Seed(records []model.ArticleRecord, checkpointURLs map[string]struct{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if _, ok := s.index[rec.URL]; ok {
			continue
		}
		s.index[rec.URL] = len(s.records)
		s.records = append(s.records, rec)
		s.processed[rec.URL] = struct{}{}
	}

	var missing []string
	for u := range checkpointURLs {
		if _, ok := s.processed[u]; !ok {
			missing = append(missing, u)
		}
	}
	slices.Sort(missing)

	return missing
}

// Append adds rec and marks its URL processed.
// It returns false, leaving the session unchanged, if the URL is already present.
func (s *Session) Append(rec model.ArticleRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[rec.URL]; ok {
		return false
	}
	s.index[rec.URL] = len(s.records)
	s.records = append(s.records, rec)
	s.processed[rec.URL] = struct{}{}
	s.dirty = true

	return true
}

// FilterNew returns the links that are not yet processed, in order, with
// duplicates removed.
func (s *Session) FilterNew(links []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if _, ok := s.processed[link]; ok {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

// Records returns a copy of the records in insertion order.
func (s *Session) Records() []model.ArticleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.records)
}

// ProcessedURLs returns the processed URLs, sorted.
func (s *Session) ProcessedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]string, 0, len(s.processed))
	for u := range s.processed {
		urls = append(urls, u)
	}
	slices.Sort(urls)
	return urls
}

// Len returns the number of records.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Dirty reports whether records were appended since the last MarkClean.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// MarkClean records that the current records have been persisted.
func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = false
}
