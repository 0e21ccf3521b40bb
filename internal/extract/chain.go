package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Draft is the working state of one extraction.
// Question and Answer are empty while unresolved.
type Draft struct {
	// URL is the document URL.
	URL string

	// Title is the document title, or model.NoTitle.
	Title string

	// Text is the flattened, trimmed text of the article body.
	Text string

	// Paragraphs holds the trimmed text of each paragraph in the body.
	Paragraphs []string

	// Sections is filled by the section stage.
	Sections Sections

	Question string
	Answer   string
}

// Stage is one step of the resolution chain.
// Apply fills unresolved fields of the draft and reports whether it
// resolved anything. A stage must leave resolved fields untouched.
type Stage interface {
	Apply(d *Draft) bool
	Name() string
}

// Chain is an ordered list of stages.
type Chain []Stage

// Run applies each stage in order and returns the names of the stages
// that resolved something.
func (c Chain) Run(d *Draft) []string {
	var applied []string
	for _, stage := range c {
		if stage.Apply(d) {
			applied = append(applied, stage.Name())
		}
	}
	return applied
}

// DefaultChain returns the stage order used for document pages.
func DefaultChain() Chain {
	return Chain{
		SectionStage{},
		PreambleStage{},
		ParagraphStage{},
		TitleQuestionStage{},
		BodyAnswerStage{},
	}
}

// SectionStage resolves fields from labeled sections of the body text.
// The summary and detail answers take precedence over a plain "Jawapan".
type SectionStage struct{}

// Name implements Stage.
func (SectionStage) Name() string { return "sections" }

// Apply implements Stage.
func (SectionStage) Apply(d *Draft) bool {
	d.Sections = FindSections(d.Text)

	// An empty capture counts as unresolved so later stages can fill the field.
	resolved := false
	if d.Question == "" && d.Sections.Question != "" {
		d.Question = d.Sections.Question
		resolved = true
	}
	if d.Answer == "" {
		if combined := d.Sections.CombinedAnswer(); combined != "" {
			d.Answer = combined
			resolved = true
		} else if d.Sections.Answer != "" {
			d.Answer = d.Sections.Answer
			resolved = true
		}
	}
	return resolved
}

// PreambleStage uses the Mukadimah section as the question.
type PreambleStage struct{}

// Name implements Stage.
func (PreambleStage) Name() string { return "preamble" }

// Apply implements Stage.
func (PreambleStage) Apply(d *Draft) bool {
	if d.Question != "" || d.Sections.Preamble == "" {
		return false
	}
	d.Question = LabelPreamble + ": " + d.Sections.Preamble
	return true
}

// ParagraphStage treats the first paragraph as the question and the rest as
// the answer. It only runs when both fields are unresolved and the body has
// at least two paragraphs.
type ParagraphStage struct{}

// Name implements Stage.
func (ParagraphStage) Name() string { return "paragraphs" }

// Apply implements Stage.
func (ParagraphStage) Apply(d *Draft) bool {
	if d.Question != "" || d.Answer != "" || len(d.Paragraphs) < 2 {
		return false
	}
	d.Question = d.Paragraphs[0]
	d.Answer = strings.Join(d.Paragraphs[1:], "\n\n")
	return d.Question != "" || d.Answer != ""
}

// TitleQuestionStage synthesizes "Apa hukum <topic>?" from the title.
// The topic is the part after the first colon, or the whole title.
type TitleQuestionStage struct{}

// Name implements Stage.
func (TitleQuestionStage) Name() string { return "title-question" }

// Apply implements Stage.
func (TitleQuestionStage) Apply(d *Draft) bool {
	if d.Question != "" {
		return false
	}
	topic := d.Title
	if _, after, found := strings.Cut(d.Title, ":"); found {
		topic = after
	}
	// Casers carry state and are not shared between goroutines.
	lower := cases.Lower(language.Malay)
	d.Question = "Apa hukum " + lower.String(strings.TrimSpace(topic)) + "?"
	return true
}

// BodyAnswerStage uses the whole body text as the answer.
type BodyAnswerStage struct{}

// Name implements Stage.
func (BodyAnswerStage) Name() string { return "body-answer" }

// Apply implements Stage.
func (BodyAnswerStage) Apply(d *Draft) bool {
	if d.Answer != "" || d.Text == "" {
		return false
	}
	d.Answer = d.Text
	return true
}
