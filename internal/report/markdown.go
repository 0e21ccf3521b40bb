package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/irsyad/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format, built with
// github.com/nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(stats *model.CrawlStats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, stats)
	w.writeCounters(md, stats)
	w.writeQuality(md, stats)
	w.writeFailures(md, stats)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, stats *model.CrawlStats) {
	md.H1("Irsyad Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + stats.RunID.String() + "`"},
			{"Started", formatTime(stats, false)},
			{"Finished", formatTime(stats, true)},
			{"Duration", stats.Duration().Round(time.Second).String()},
			{"Pages", strconv.Itoa(stats.StartPage) + " → " + strconv.Itoa(stats.ResumePage)},
			{"Status", w.getStatusText(stats)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, stats)
}

// getStatusText returns the status text with an indicator.
func (w *MarkdownWriter) getStatusText(stats *model.CrawlStats) string {
	switch stats.Stop {
	case model.StopExhausted:
		return "✅ " + Status(stats)
	case model.StopError:
		return "❌ " + Status(stats)
	default:
		return "⚠️ " + Status(stats)
	}
}

// writeAlert writes an alert describing what to do next.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, stats *model.CrawlStats) {
	switch {
	case stats.Stop == model.StopError:
		md.Cautionf("The run was aborted: %s. Progress up to page %d was saved.", stats.Error, stats.ResumePage)
	case stats.DocumentFailures > 0:
		md.Warningf(
			"%d document(s) could not be fetched. The next run resumes at page %d and retries them.",
			stats.DocumentFailures, stats.ResumePage,
		)
	case stats.Interrupted() || stats.Stop == model.StopPageCap:
		md.Importantf("The listing is not finished. Run again to continue from page %d.", stats.ResumePage)
	default:
		md.Tip("The listing was crawled to the end.")
	}
	md.PlainText("")
}

// writeCounters writes the counters table and link outcome chart.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, stats *model.CrawlStats) {
	md.H2("Counters")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Listing pages", strconv.Itoa(stats.PagesVisited)},
			{"Links found", strconv.Itoa(stats.LinksFound)},
			{"Already done", strconv.Itoa(stats.LinksSkipped)},
			{"New records", strconv.Itoa(stats.RecordsAppended)},
			{"Failed documents", strconv.Itoa(stats.DocumentFailures)},
			{"**Dataset size**", "**" + strconv.Itoa(stats.TotalRecords) + "**"},
		},
	})
	md.PlainText("")

	if stats.LinksFound > 0 {
		w.writePieChart(md, stats)
	}
}

// writePieChart writes a mermaid pie chart of link outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *model.CrawlStats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Outcomes"),
		piechart.WithShowData(true),
	)

	if stats.RecordsAppended > 0 {
		chart.LabelAndIntValue("New", uint64(stats.RecordsAppended))
	}
	if stats.LinksSkipped > 0 {
		chart.LabelAndIntValue("Already done", uint64(stats.LinksSkipped))
	}
	if stats.DocumentFailures > 0 {
		chart.LabelAndIntValue("Failed", uint64(stats.DocumentFailures))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeQuality writes placeholder counts for new records.
func (w *MarkdownWriter) writeQuality(md *markdown.Markdown, stats *model.CrawlStats) {
	md.H2("Extraction Gaps")
	md.PlainText("")

	if stats.MissingTitles+stats.MissingQuestions+stats.MissingAnswers == 0 {
		md.PlainText("Every new record has a title, a question and an answer.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Field", "Placeholder", "Records"},
		Rows: [][]string{
			{"title", "`" + model.NoTitle + "`", strconv.Itoa(stats.MissingTitles)},
			{"question", "`" + model.NoQuestion + "`", strconv.Itoa(stats.MissingQuestions)},
			{"answer", "`" + model.NoAnswer + "`", strconv.Itoa(stats.MissingAnswers)},
		},
	})
	md.PlainText("")
}

// writeFailures lists documents that could not be fetched.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, stats *model.CrawlStats) {
	if len(stats.FailedURLs) == 0 {
		return
	}

	md.H2("Failed Documents")
	md.PlainText("")
	md.BulletList(stats.FailedURLs...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [irsyad](https://github.com/nao1215/irsyad)*")
}
