package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/nao1215/irsyad/internal/fileutil"
	"github.com/nao1215/irsyad/internal/model"
)

// DefaultFileName is the default output file name.
const DefaultFileName = "mufti_wp_articles.json"

// Writer persists snapshots of the record list to a JSON file.
type Writer struct {
	path   string
	logger *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer for the output file at path.
func NewWriter(path string, opts ...WriterOption) *Writer {
	w := &Writer{path: path}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Snapshot atomically replaces the output file with records.
// An empty record list is not written and the existing file is kept.
func (w *Writer) Snapshot(records []model.ArticleRecord) error {
	if len(records) == 0 {
		w.logger.Warn("no records to save")
		return nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return err
	}

	if err := fileutil.WriteFileAtomic(w.path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // output is meant to be shared
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	w.logger.Info("data saved", "path", w.path, "records", len(records))
	return nil
}

// Encode writes records as an indented JSON array without HTML escaping.
func Encode(out io.Writer, records []model.ArticleRecord) error {
	if records == nil {
		records = []model.ArticleRecord{}
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// Load reads records from a previous output file.
// A missing file yields no records and no error.
func Load(path string) ([]model.ArticleRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []model.ArticleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}
