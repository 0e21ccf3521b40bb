package report

import (
	"fmt"
	"io"

	"github.com/nao1215/irsyad/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the run summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(stats *model.CrawlStats) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(stats *model.CrawlStats) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(stats)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Status returns a short description of how the run ended.
func Status(stats *model.CrawlStats) string {
	switch stats.Stop {
	case model.StopExhausted:
		return "Complete"
	case model.StopPageCap:
		return fmt.Sprintf("Stopped at page limit (resume at page %d)", stats.ResumePage)
	case model.StopInterrupted:
		return fmt.Sprintf("Interrupted (resume at page %d)", stats.ResumePage)
	case model.StopError:
		if stats.Error != "" {
			return "Error - " + stats.Error
		}
		return "Error"
	default:
		return "Unknown"
	}
}

// formatTime renders t for reports, or "-" when unset.
func formatTime(stats *model.CrawlStats, finished bool) string {
	t := stats.StartedAt
	if finished {
		t = stats.FinishedAt
	}
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}
