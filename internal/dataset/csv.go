package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/irsyad/internal/model"
)

// csvHeader is the column order of the CSV projection.
var csvHeader = []string{"title", "question", "answer", "url", "scraped_at"}

// WriteCSV writes records as CSV with a header row.
func WriteCSV(out io.Writer, records []model.ArticleRecord) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Title,
			rec.Question,
			rec.Answer,
			rec.URL,
			rec.ScrapedAt.Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
