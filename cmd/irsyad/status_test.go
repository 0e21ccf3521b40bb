package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestRunStatusCmd tests the status command execution.
func TestRunStatusCmd(t *testing.T) {
	t.Parallel()

	t.Run("empty workspace", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		stdout, _, err := executeCmd(t, "status",
			"--out", dir+"/a.json",
			"--checkpoint", dir+"/cp.json",
			"--db-dir", dir+"/db",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{"Checkpoint:  none", "Dataset:     none", "No crawl database"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("after a crawl stopped at the page limit", func(t *testing.T) {
		t.Parallel()

		_, srv := newFakeSite(t, 2, 2)
		p := newCrawlPaths(t, srv.URL, 2)
		if _, _, err := executeCmd(t, p.args("--max-pages", "1")...); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stdout, _, err := executeCmd(t, "status",
			"--out", p.out,
			"--checkpoint", p.checkpoint,
			"--db-dir", p.db,
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{
			"Checkpoint:  page 1, 2 processed URLs",
			"Dataset:     2 records",
			"Articles:    0 rows",
			"Recent runs (1):",
			"page_cap",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("run details list fetch errors", func(t *testing.T) {
		t.Parallel()

		_, srv := newFakeSite(t, 2, 1, "2")
		p := newCrawlPaths(t, srv.URL, 2)
		reportPath := filepath.Join(p.dir, "run.json")
		if _, _, err := executeCmd(t, p.args("--json", "-o", reportPath)...); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatal(err)
		}
		var rep struct {
			Stats struct {
				RunID string `json:"run_id"`
			} `json:"stats"`
		}
		if err := json.Unmarshal(data, &rep); err != nil {
			t.Fatal(err)
		}

		stdout, _, err := executeCmd(t, "status", "--db-dir", p.db, "--run", rep.Stats.RunID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Run " + rep.Stats.RunID,
			"Fetch errors (1):",
			srv.URL + "/doc/2 (1 attempts)",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("invalid run ID", func(t *testing.T) {
		t.Parallel()

		if _, _, err := executeCmd(t, "status", "--run", "not-a-uuid"); err == nil {
			t.Error("expected error for invalid run ID")
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		_, srv := newFakeSite(t, 2, 1)
		p := newCrawlPaths(t, srv.URL, 2)
		if _, _, err := executeCmd(t, p.args()...); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, _, err := executeCmd(t, "status", "--db-dir", p.db, "--run", uuid.NewString())
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}
