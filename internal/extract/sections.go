package extract

import (
	"regexp"
	"strings"
)

// ws matches one Unicode whitespace character, including NBSP and the
// separators U+2028/U+2029 that RE2's \s does not cover.
const ws = `[\t\n\v\f\r \x{1c}-\x{1f}\x{85}\p{Z}]`

// Label names recognized in document bodies.
const (
	LabelQuestion = "Soalan"
	LabelSummary  = "Ringkasan Jawapan"
	LabelDetail   = "Huraian Jawapan"
	LabelAnswer   = "Jawapan"
	LabelPreamble = "Mukadimah"
)

// labelPattern compiles a case-insensitive label matcher that also consumes
// an optional colon and the surrounding whitespace.
func labelPattern(label string) *regexp.Regexp {
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(words, ws+`+`) + ws + `*:?` + ws + `*`)
}

// terminatorPattern compiles a matcher for any of the given labels.
// Only the start offset of a match is used.
func terminatorPattern(labels ...string) *regexp.Regexp {
	alts := make([]string, len(labels))
	for i, label := range labels {
		words := strings.Fields(label)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		alts[i] = strings.Join(words, ws+`+`)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(alts, "|"))
}

// span describes how one label's text is located.
type span struct {
	label *regexp.Regexp
	// until bounds the captured text. Nil means the text runs to the end.
	until *regexp.Regexp
}

// find returns the trimmed text following the leftmost label match, cut at
// the earliest terminator. It returns "" when the label is absent.
func (s span) find(text string) string {
	loc := s.label.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if s.until != nil {
		if end := s.until.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
	}
	return strings.TrimSpace(rest)
}

var (
	questionSpan = span{
		label: labelPattern(LabelQuestion),
		until: terminatorPattern(LabelSummary, LabelDetail, LabelAnswer),
	}
	summarySpan = span{
		label: labelPattern(LabelSummary),
		until: terminatorPattern(LabelDetail),
	}
	detailSpan = span{
		label: labelPattern(LabelDetail),
	}
	answerSpan = span{
		label: labelPattern(LabelAnswer),
	}
	preambleSpan = span{
		label: labelPattern(LabelPreamble),
		until: terminatorPattern(LabelSummary, LabelDetail, LabelAnswer),
	}
)

// Sections holds the text captured for each recognized label.
// An empty field means the label was absent or captured nothing.
type Sections struct {
	Question string
	Summary  string
	Detail   string
	Answer   string
	Preamble string
}

// FindSections segments flattened document text by its labels.
//
// Labels match case-insensitively with an optional colon. The question and
// preamble stop at the next answer label, the summary stops at the detail
// label, and the detail and plain answer run to the end of the text. Each
// label uses its leftmost occurrence. Labels are matched as substrings, so
// "Persoalan" also yields a question.
func FindSections(text string) Sections {
	return Sections{
		Question: questionSpan.find(text),
		Summary:  summarySpan.find(text),
		Detail:   detailSpan.find(text),
		Answer:   answerSpan.find(text),
		Preamble: preambleSpan.find(text),
	}
}

// CombinedAnswer joins the summary and detail answers, labeled, separated by
// a blank line. It returns "" when neither is present.
func (s Sections) CombinedAnswer() string {
	parts := make([]string, 0, 2)
	if s.Summary != "" {
		parts = append(parts, LabelSummary+": "+s.Summary)
	}
	if s.Detail != "" {
		parts = append(parts, LabelDetail+": "+s.Detail)
	}
	return strings.Join(parts, "\n\n")
}
