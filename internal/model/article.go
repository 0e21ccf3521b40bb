package model

import "time"

// Sentinel values written when a field cannot be located in a document.
// They are placeholders, not errors: a record carrying them is still valid.
const (
	// NoTitle is used when the document has no heading matching the title selector.
	NoTitle = "No title found"

	// NoQuestion is used when no question could be located or synthesized.
	NoQuestion = "No question found"

	// NoAnswer is used when no answer could be located.
	NoAnswer = "No answer found"
)

// ArticleRecord is a single question/answer record extracted from a document page.
// URL is the unique key across the whole dataset.
//
// Records are created once by the extractor and never mutated afterwards.
// The JSON layout is consumed by downstream tooling (search indexing), so
// field names are fixed.
type ArticleRecord struct {
	// Title is the document heading, or NoTitle.
	Title string `json:"title"`

	// Question is the extracted or synthesized question, or NoQuestion.
	Question string `json:"question"`

	// Answer is the extracted answer text, or NoAnswer.
	Answer string `json:"answer"`

	// URL is the absolute document URL.
	URL string `json:"url"`

	// ScrapedAt is when the record was extracted.
	ScrapedAt time.Time `json:"scraped_at"`
}

// HasTitle reports whether a real title was found.
func (r ArticleRecord) HasTitle() bool {
	return r.Title != NoTitle
}

// HasQuestion reports whether a real question was found or synthesized.
func (r ArticleRecord) HasQuestion() bool {
	return r.Question != NoQuestion
}

// HasAnswer reports whether a real answer was found.
func (r ArticleRecord) HasAnswer() bool {
	return r.Answer != NoAnswer
}
