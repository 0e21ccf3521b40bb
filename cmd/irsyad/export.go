package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/irsyad/internal/config"
	"github.com/nao1215/irsyad/internal/database"
	"github.com/nao1215/irsyad/internal/dataset"
)

// ErrNothingToExport is returned when export is run without a target.
var ErrNothingToExport = errors.New("nothing to export: specify --csv and/or --sqlite")

// ErrNoDataset is returned when the dataset file does not exist or is empty.
var ErrNoDataset = errors.New("no records to export")

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Project the dataset to CSV or SQLite",
		Long: `Export reads the dataset JSON file and writes it in tabular form.

--csv writes one row per record with the header
title,question,answer,url,scraped_at. Use "-" for stdout.

--sqlite replaces the articles table of the crawl database with the dataset,
keeping dataset order in the position column.

Examples:
  # CSV next to the dataset
  irsyad export --csv articles.csv

  # CSV to stdout
  irsyad export --csv -

  # Articles table in the crawl database
  irsyad export --sqlite`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().String("in", config.DefaultOutputPath, "Dataset JSON file")
	cmd.Flags().String("csv", "", `CSV output path ("-" for stdout)`)
	cmd.Flags().Bool("sqlite", false, "Write the articles table of the crawl database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Crawl database directory")

	return cmd
}

// exportOptions holds the export command flags.
type exportOptions struct {
	in     string
	csv    string
	sqlite bool
	dbDir  string
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	var (
		opts exportOptions
		err  error
	)
	if opts.in, err = cmd.Flags().GetString("in"); err != nil {
		return err
	}
	if opts.csv, err = cmd.Flags().GetString("csv"); err != nil {
		return err
	}
	if opts.sqlite, err = cmd.Flags().GetBool("sqlite"); err != nil {
		return err
	}
	if opts.dbDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}

	return runExport(cmd.Context(), cmd, opts)
}

// runExport writes the requested projections.
func runExport(ctx context.Context, cmd *cobra.Command, opts exportOptions) error {
	if opts.csv == "" && !opts.sqlite {
		return ErrNothingToExport
	}

	records, err := dataset.Load(opts.in)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: %s", ErrNoDataset, opts.in)
	}

	// Status lines go to stderr so CSV on stdout stays clean.
	status := cmd.ErrOrStderr()

	switch opts.csv {
	case "":
	case "-":
		if err := dataset.WriteCSV(cmd.OutOrStdout(), records); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	default:
		if err := writeCSVFile(opts.csv, records); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		fmt.Fprintf(status, "Wrote %d records to %s\n", len(records), opts.csv)
	}

	if opts.sqlite {
		db, err := database.Open(opts.dbDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.ReplaceArticles(ctx, records); err != nil {
			return err
		}
		fmt.Fprintf(status, "Wrote %d records to the articles table of %s\n", len(records), db.Path())
	}

	return nil
}
