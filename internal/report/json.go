package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/irsyad/internal/model"
)

// JSONWriter outputs run summaries in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is written next to the stats.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the version recorded in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps the run stats with output-only fields.
type JSONReport struct {
	// Version is the irsyad version that produced the run.
	Version string `json:"version,omitempty"`

	// Status is the human-readable outcome.
	Status string `json:"status"`

	// DurationSeconds is the run duration.
	DurationSeconds float64 `json:"duration_seconds"`

	// Stats are the raw run counters.
	Stats *model.CrawlStats `json:"stats"`
}

// NewJSONReport creates a JSONReport for stats.
func NewJSONReport(stats *model.CrawlStats, version string) *JSONReport {
	return &JSONReport{
		Version:         version,
		Status:          Status(stats),
		DurationSeconds: stats.Duration().Seconds(),
		Stats:           stats,
	}
}

// Write outputs the run summary in JSON format.
func (w *JSONWriter) Write(stats *model.CrawlStats) (int, error) {
	return w.writeJSON(NewJSONReport(stats, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}
