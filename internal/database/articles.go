package database

import (
	"context"
	"fmt"

	"github.com/nao1215/irsyad/internal/model"
)

// ReplaceArticles replaces the articles table with records in one
// transaction. position keeps the dataset order.
func (cdb *CrawlDB) ReplaceArticles(ctx context.Context, records []model.ArticleRecord) (err error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO articles (url, position, title, question, answer, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err = stmt.ExecContext(ctx, rec.URL, i, rec.Title, rec.Question, rec.Answer, formatTime(rec.ScrapedAt)); err != nil {
			return fmt.Errorf("failed to insert article %s: %w", rec.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit articles: %w", err)
	}
	return nil
}

// CountArticles returns the number of projected articles.
func (cdb *CrawlDB) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}
