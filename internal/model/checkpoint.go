package model

import "time"

// Checkpoint is the persisted crawl progress marker.
//
// PageNum is the listing page the next run resumes from. ProcessedURLs holds
// every document URL whose record is contained in the output snapshot that
// was written before this checkpoint.
type Checkpoint struct {
	// PageNum is the zero-based listing page index to resume from.
	PageNum int `json:"page_num"`

	// ProcessedURLs lists document URLs already extracted, sorted.
	ProcessedURLs []string `json:"processed_urls"`

	// Timestamp is when the checkpoint was written.
	Timestamp time.Time `json:"timestamp"`
}

// ProcessedSet returns ProcessedURLs as a set.
func (c *Checkpoint) ProcessedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ProcessedURLs))
	for _, u := range c.ProcessedURLs {
		set[u] = struct{}{}
	}
	return set
}
