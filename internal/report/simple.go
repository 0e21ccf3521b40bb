package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/irsyad/internal/model"
)

// defaultFailedListLimit caps the failed URLs printed without verbose.
const defaultFailedListLimit = 10

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to report are shown.
	showEmpty bool

	// verbose lists every failed URL.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(stats *model.CrawlStats) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, stats)
	w.writeCounters(&sb, stats)
	w.writeQuality(&sb, stats)
	w.writeFailures(&sb, stats)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, stats *model.CrawlStats) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        IRSYAD CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:       %s\n", stats.RunID)
	fmt.Fprintf(sb, "Started:      %s\n", formatTime(stats, false))
	fmt.Fprintf(sb, "Duration:     %s\n", stats.Duration().Round(time.Second))
	fmt.Fprintf(sb, "Pages:        %d -> %d\n", stats.StartPage, stats.ResumePage)
	fmt.Fprintf(sb, "Status:       %s\n", Status(stats))
	sb.WriteString("\n")
}

// writeCounters writes the crawl counters.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, stats *model.CrawlStats) {
	section(sb, "COUNTERS")

	fmt.Fprintf(sb, "  Listing pages:    %d\n", stats.PagesVisited)
	fmt.Fprintf(sb, "  Links found:      %d\n", stats.LinksFound)
	fmt.Fprintf(sb, "  Already done:     %d\n", stats.LinksSkipped)
	fmt.Fprintf(sb, "  New records:      %d\n", stats.RecordsAppended)
	fmt.Fprintf(sb, "  Failed documents: %d\n", stats.DocumentFailures)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:            %d records in dataset\n", stats.TotalRecords)
	sb.WriteString("\n")
}

// writeQuality writes how many new records fell back to placeholders.
func (w *SimpleWriter) writeQuality(sb *strings.Builder, stats *model.CrawlStats) {
	missing := stats.MissingTitles + stats.MissingQuestions + stats.MissingAnswers
	if missing == 0 && !w.showEmpty {
		return
	}

	section(sb, "EXTRACTION GAPS")

	fmt.Fprintf(sb, "  No title:    %d\n", stats.MissingTitles)
	fmt.Fprintf(sb, "  No question: %d\n", stats.MissingQuestions)
	fmt.Fprintf(sb, "  No answer:   %d\n", stats.MissingAnswers)
	sb.WriteString("\n")
}

// writeFailures lists documents that could not be fetched.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, stats *model.CrawlStats) {
	if len(stats.FailedURLs) == 0 && !w.showEmpty {
		return
	}

	section(sb, "FAILED DOCUMENTS")

	if len(stats.FailedURLs) == 0 {
		sb.WriteString("  None\n\n")
		return
	}

	urls := stats.FailedURLs
	if !w.verbose && len(urls) > defaultFailedListLimit {
		urls = urls[:defaultFailedListLimit]
	}
	for _, u := range urls {
		fmt.Fprintf(sb, "  [!] %s\n", u)
	}
	if rest := len(stats.FailedURLs) - len(urls); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more (use --verbose to list all)\n", rest)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by irsyad\n")
	sb.WriteString("https://github.com/nao1215/irsyad\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
