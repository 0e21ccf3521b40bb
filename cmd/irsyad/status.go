package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/irsyad/internal/checkpoint"
	"github.com/nao1215/irsyad/internal/config"
	"github.com/nao1215/irsyad/internal/database"
	"github.com/nao1215/irsyad/internal/dataset"
	"github.com/nao1215/irsyad/internal/model"
)

// defaultRunLimit is the number of runs listed by status.
const defaultRunLimit = 5

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show crawl progress and recent runs",
		Long: `Status shows where the next crawl will resume, how many records the dataset
holds, and the most recent runs recorded in the crawl database.

Examples:
  # Overview
  irsyad status

  # Details and fetch summary of one run
  irsyad status --run 6f1c2c52-9c1e-4d53-a0b5-8d6b4a1f3c11`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().String("out", config.DefaultOutputPath, "Dataset JSON file")
	cmd.Flags().String("checkpoint", config.DefaultCheckpointPath, "Checkpoint file")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Crawl database directory")
	cmd.Flags().IntP("runs", "n", defaultRunLimit, "Number of recent runs to list")
	cmd.Flags().String("run", "", "Show a single run by ID")

	return cmd
}

// statusOptions holds the status command flags.
type statusOptions struct {
	out        string
	checkpoint string
	dbDir      string
	runs       int
	run        string
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	var (
		opts statusOptions
		err  error
	)
	if opts.out, err = cmd.Flags().GetString("out"); err != nil {
		return err
	}
	if opts.checkpoint, err = cmd.Flags().GetString("checkpoint"); err != nil {
		return err
	}
	if opts.dbDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	if opts.runs, err = cmd.Flags().GetInt("runs"); err != nil {
		return err
	}
	if opts.run, err = cmd.Flags().GetString("run"); err != nil {
		return err
	}

	return runStatus(cmd.Context(), cmd.OutOrStdout(), opts)
}

// runStatus prints the status overview, or one run when opts.run is set.
func runStatus(ctx context.Context, out io.Writer, opts statusOptions) error {
	if opts.run != "" {
		id, err := uuid.Parse(opts.run)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", opts.run, err)
		}
		db, err := openExistingDB(opts.dbDir)
		if err != nil {
			return err
		}
		if db == nil {
			return fmt.Errorf("no crawl database in %s", opts.dbDir)
		}
		defer db.Close()
		return printRun(ctx, out, db, id)
	}

	if err := printCheckpoint(out, opts.checkpoint); err != nil {
		return err
	}
	if err := printDataset(out, opts.out); err != nil {
		return err
	}

	db, err := openExistingDB(opts.dbDir)
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Fprintf(out, "\nNo crawl database in %s\n", opts.dbDir)
		return nil
	}
	defer db.Close()

	n, err := db.CountArticles(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Articles:    %d rows in %s\n", n, db.Path())

	return printRecentRuns(ctx, out, db, opts.runs)
}

// openExistingDB opens the crawl database without creating it.
// It returns nil, nil when there is no database yet.
func openExistingDB(dir string) (*database.CrawlDB, error) {
	if _, err := os.Stat(filepath.Join(dir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func printCheckpoint(out io.Writer, path string) error {
	cp, err := checkpoint.NewStore(path).Read()
	switch {
	case errors.Is(err, checkpoint.ErrNoCheckpoint):
		fmt.Fprintf(out, "Checkpoint:  none (%s); next crawl starts at page 0\n", path)
		return nil
	case errors.Is(err, checkpoint.ErrCorrupt):
		fmt.Fprintf(out, "Checkpoint:  corrupt (%s); next crawl starts at page 0\n", path)
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(out, "Checkpoint:  page %d, %d processed URLs, saved %s\n",
		cp.PageNum, len(cp.ProcessedURLs), formatCheckpointTime(cp.Timestamp))
	return nil
}

func formatCheckpointTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func printDataset(out io.Writer, path string) error {
	records, err := dataset.Load(path)
	if err != nil {
		return err
	}
	if records == nil {
		fmt.Fprintf(out, "Dataset:     none (%s)\n", path)
		return nil
	}

	var noTitle, noQuestion, noAnswer int
	for _, rec := range records {
		if !rec.HasTitle() {
			noTitle++
		}
		if !rec.HasQuestion() {
			noQuestion++
		}
		if !rec.HasAnswer() {
			noAnswer++
		}
	}

	fmt.Fprintf(out, "Dataset:     %d records (%s)\n", len(records), path)
	fmt.Fprintf(out, "             %d without title, %d without question, %d without answer\n",
		noTitle, noQuestion, noAnswer)
	return nil
}

func printRecentRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int) error {
	runs, err := db.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "\nNo runs recorded")
		return nil
	}

	fmt.Fprintf(out, "\nRecent runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-11s  %5s  %5s  %6s  %s\n",
		"ID", "Started", "Stop", "Pages", "New", "Failed", "Resume")
	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-11s  %5d  %5d  %6d  %d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			stopLabel(r.Stop),
			r.PagesVisited,
			r.RecordsAppended,
			r.DocumentFailures,
			r.ResumePage,
		)
	}
	return nil
}

func stopLabel(stop model.StopReason) string {
	if stop == "" {
		return "running"
	}
	return string(stop)
}

func printRun(ctx context.Context, out io.Writer, db *database.CrawlDB, id uuid.UUID) error {
	stats, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if stats == nil {
		return fmt.Errorf("run %s not found", id)
	}

	sum, err := db.SummarizeFetches(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s\n\n", stats.RunID)
	fmt.Fprintf(out, "  Started:   %s\n", stats.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Duration:  %s\n", stats.Duration().Round(time.Second))
	fmt.Fprintf(out, "  Stop:      %s\n", stopLabel(stats.Stop))
	if stats.Error != "" {
		fmt.Fprintf(out, "  Error:     %s\n", stats.Error)
	}
	fmt.Fprintf(out, "  Pages:     %d -> %d (%d visited)\n", stats.StartPage, stats.ResumePage, stats.PagesVisited)
	fmt.Fprintf(out, "  Records:   %d new, %d total\n", stats.RecordsAppended, stats.TotalRecords)
	fmt.Fprintf(out, "  Fetches:   %d (%d cached, %d failed, %d bytes)\n", sum.Total, sum.FromCache, sum.Failed, sum.Bytes)

	for _, u := range stats.FailedURLs {
		fmt.Fprintf(out, "  [!] %s\n", u)
	}

	if sum.Failed == 0 {
		return nil
	}
	fetches, err := db.FetchesForRun(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nFetch errors (%d):\n", sum.Failed)
	for _, f := range fetches {
		if f.Error == "" {
			continue
		}
		fmt.Fprintf(out, "  %s (%d attempts): %s\n", f.URL, f.Attempts, f.Error)
	}
	return nil
}
