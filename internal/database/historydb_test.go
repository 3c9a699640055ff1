package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/seosmoke/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestReport builds a report checked at the given time.
func newTestReport(url string, at time.Time, title string, status model.Status) *model.Report {
	report := model.NewReport(url)
	report.DateChecked = at
	report.StatusCode = 200
	report.Fingerprint = "fp-" + title

	res := model.NewCheckResult(model.CheckTitle, "Title is present", status)
	res.Key = model.KeyTitle
	res.Value = title
	report.AddResult(res)
	report.Extracted.Set(model.KeyTitle, title)
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("got path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveAndGetReport tests storing and loading reports.
func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first := newTestReport("https://example.com/", base, "Old title", model.StatusPass)
	second := newTestReport("https://example.com/", base.Add(time.Hour), "New title", model.StatusPass)

	id1, err := db.SaveReport(ctx, first)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	id2, err := db.SaveReport(ctx, second)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("expected increasing IDs, got %d then %d", id1, id2)
	}

	t.Run("latest report", func(t *testing.T) {
		latest, err := db.GetLatestReport(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("GetLatestReport failed: %v", err)
		}
		if latest == nil {
			t.Fatal("expected a report")
		}
		if v, _ := latest.Extracted.Get(model.KeyTitle); v != "New title" {
			t.Errorf("got title %q", v)
		}
		if len(latest.Results) != 1 || latest.Results[0].Status != model.StatusPass {
			t.Errorf("results not restored: %+v", latest.Results)
		}
	})

	t.Run("unknown url", func(t *testing.T) {
		report, err := db.GetLatestReport(ctx, "https://unknown.example/")
		if err != nil || report != nil {
			t.Errorf("expected (nil, nil), got (%v, %v)", report, err)
		}
	})

	t.Run("by id", func(t *testing.T) {
		report, err := db.GetReportByID(ctx, id1)
		if err != nil {
			t.Fatalf("GetReportByID failed: %v", err)
		}
		if report == nil || report.Fingerprint != "fp-Old title" {
			t.Errorf("unexpected report %+v", report)
		}

		missing, err := db.GetReportByID(ctx, 9999)
		if err != nil || missing != nil {
			t.Errorf("expected (nil, nil), got (%v, %v)", missing, err)
		}
	})

	t.Run("history newest first", func(t *testing.T) {
		history, err := db.GetHistory(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("GetHistory failed: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("got %d reports", len(history))
		}
		if !history[0].DateChecked.After(history[1].DateChecked) {
			t.Error("expected newest report first")
		}
	})
}

// TestHistoryMetadata tests metadata queries.
func TestHistoryMetadata(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC)

	for i, status := range []model.Status{model.StatusPass, model.StatusFail, model.StatusSkip} {
		r := newTestReport("https://example.com/", base.AddDate(0, 0, i), "t", status)
		if _, err := db.SaveReport(ctx, r); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}
	if _, err := db.SaveReport(ctx, newTestReport("https://other.example/", base, "x", model.StatusPass)); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	t.Run("metadata", func(t *testing.T) {
		t.Parallel()

		meta, err := db.GetHistoryWithMetadata(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("GetHistoryWithMetadata failed: %v", err)
		}
		if len(meta) != 3 {
			t.Fatalf("got %d rows", len(meta))
		}
		if meta[0].Summary.Skipped != 1 || meta[1].Summary.Failed != 1 || meta[2].Summary.Passed != 1 {
			t.Errorf("unexpected summaries %+v", meta)
		}
		if !meta[2].Timestamp.Equal(base) {
			t.Errorf("got timestamp %v, expected %v", meta[2].Timestamp, base)
		}
		if meta[0].Fingerprint != "fp-t" {
			t.Errorf("got fingerprint %q", meta[0].Fingerprint)
		}
	})

	t.Run("since", func(t *testing.T) {
		t.Parallel()

		meta, err := db.GetHistorySince(ctx, "https://example.com/", base.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("GetHistorySince failed: %v", err)
		}
		if len(meta) != 2 {
			t.Errorf("got %d rows, expected 2", len(meta))
		}
	})

	t.Run("list urls", func(t *testing.T) {
		t.Parallel()

		urls, err := db.ListCheckedURLs(ctx)
		if err != nil {
			t.Fatalf("ListCheckedURLs failed: %v", err)
		}
		if len(urls) != 2 || urls[0] != "https://example.com/" || urls[1] != "https://other.example/" {
			t.Errorf("unexpected urls %v", urls)
		}
	})
}

// TestParseTimestamp tests timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected time.Time
	}{
		{"2025-01-02 03:04:05.123456", time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)},
		{"2025-01-02 03:04:05", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2025-01-02T03:04:05Z", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"not a time", time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tc.input); !got.Equal(tc.expected) {
				t.Errorf("parseTimestamp(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestFormatTimestampSortsLexically(t *testing.T) {
	t.Parallel()

	a := formatTimestamp(time.Date(2025, 1, 1, 0, 0, 5, 0, time.UTC))
	b := formatTimestamp(time.Date(2025, 1, 1, 0, 0, 5, 500000000, time.UTC))
	if a >= b {
		t.Errorf("expected %q < %q", a, b)
	}
}
