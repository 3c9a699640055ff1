package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/seosmoke/internal/database"
	"github.com/nao1215/seosmoke/internal/model"
)

const compareURL = "https://example.com/"

func openTestDB(t *testing.T) *database.HistoryDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newRunReport builds a report with a passing fetch, the given title and
// canonical results.
func newRunReport(url string, checked time.Time, title string, canonicalStatus model.Status) *model.Report {
	r := model.NewReport(url)
	r.DateChecked = checked
	r.StatusCode = 200
	r.Fingerprint = "fp-" + title

	r.AddResult(model.NewCheckResult(model.CheckFetch, "Page is reachable", model.StatusPass))

	titleStatus := model.StatusPass
	if title == "" {
		titleStatus = model.StatusFail
	}
	r.AddResult(model.NewCheckResult(model.CheckTitle, "Page has a title", titleStatus))
	r.Extracted.Set(model.KeyTitle, title)

	r.AddResult(model.NewCheckResult(model.CheckCanonical, "Canonical URL matches", canonicalStatus))
	r.Extracted.Set(model.KeyCanonical, url)
	return r
}

func saveRun(t *testing.T, db *database.HistoryDB, r *model.Report) int64 {
	t.Helper()

	id, err := db.SaveReport(context.Background(), r)
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	return id
}

func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	if cmd.Use != "compare [url]" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("expected descriptions")
	}

	flagsWithShort := map[string]string{
		"list":        "l",
		"list-urls":   "L",
		"with-run-id": "i",
		"since":       "s",
		"json":        "j",
		"markdown":    "m",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}
}

func TestRunCompareCmdArguments(t *testing.T) {
	t.Parallel()

	t.Run("requires url", func(t *testing.T) {
		t.Parallel()

		cmd := NewCompareCmd()
		cmd.SetArgs([]string{})
		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "URL is required") {
			t.Errorf("expected URL required error, got %v", err)
		}
	})

	t.Run("rejects invalid url", func(t *testing.T) {
		t.Parallel()

		cmd := NewCompareCmd()
		cmd.SetArgs([]string{"not a url"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid URL")
		}
	})
}

func TestCompareReports(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("detects status and value changes", func(t *testing.T) {
		t.Parallel()

		previous := newRunReport(compareURL, base, "Old title", model.StatusPass)
		current := newRunReport(compareURL, base.Add(time.Hour), "", model.StatusFail)

		result := compareReports(previous, current)

		if result.URL != compareURL {
			t.Errorf("URL = %q", result.URL)
		}
		if len(result.StatusChanges) != 2 {
			t.Fatalf("expected 2 status changes, got %+v", result.StatusChanges)
		}
		if c := result.StatusChanges[0]; c.Check != model.CheckTitle || c.Previous != "PASS" || c.Current != "FAIL" {
			t.Errorf("unexpected title change %+v", c)
		}
		if c := result.StatusChanges[0]; c.Severity != model.GetSeverity(model.CheckTitle).String() {
			t.Errorf("unexpected severity %q", c.Severity)
		}
		if result.UnchangedCount != 1 {
			t.Errorf("expected fetch unchanged, got %d", result.UnchangedCount)
		}
		if len(result.ValueChanges) != 1 || result.ValueChanges[0].Key != model.KeyTitle {
			t.Fatalf("expected title value change, got %+v", result.ValueChanges)
		}
		if result.ValueChanges[0].Previous != "Old title" || result.ValueChanges[0].Current != "" {
			t.Errorf("unexpected value change %+v", result.ValueChanges[0])
		}
		if !result.ContentChanged {
			t.Error("expected content change")
		}
		if result.Direction != directionWorsened {
			t.Errorf("direction = %q", result.Direction)
		}
	})

	t.Run("identical runs are unchanged", func(t *testing.T) {
		t.Parallel()

		previous := newRunReport(compareURL, base, "Same", model.StatusPass)
		current := newRunReport(compareURL, base.Add(time.Hour), "Same", model.StatusPass)

		result := compareReports(previous, current)
		if len(result.StatusChanges) != 0 || len(result.ValueChanges) != 0 {
			t.Errorf("expected no changes, got %+v", result)
		}
		if result.ContentChanged {
			t.Error("expected same content")
		}
		if result.Direction != directionUnchanged {
			t.Errorf("direction = %q", result.Direction)
		}
		if result.UnchangedCount != 3 {
			t.Errorf("expected 3 unchanged, got %d", result.UnchangedCount)
		}
	})

	t.Run("checks present in only one run", func(t *testing.T) {
		t.Parallel()

		previous := newRunReport(compareURL, base, "Same", model.StatusPass)
		previous.AddResult(model.NewCheckResult(model.CheckRobotsTxt, "robots.txt allows crawling", model.StatusPass))
		previous.Extracted.Set(model.KeyRobotsTxt, "Allowed")

		current := newRunReport(compareURL, base.Add(time.Hour), "Same", model.StatusPass)
		current.AddResult(model.NewCheckResult(model.CheckH1, "Page has an h1", model.StatusPass))

		result := compareReports(previous, current)
		if len(result.StatusChanges) != 2 {
			t.Fatalf("expected 2 changes, got %+v", result.StatusChanges)
		}
		if c := result.StatusChanges[0]; c.Check != model.CheckH1 || c.Previous != noResult {
			t.Errorf("unexpected added check %+v", c)
		}
		if c := result.StatusChanges[1]; c.Check != model.CheckRobotsTxt || c.Current != noResult {
			t.Errorf("unexpected removed check %+v", c)
		}
		if len(result.ValueChanges) != 1 || result.ValueChanges[0].Key != model.KeyRobotsTxt {
			t.Errorf("expected robotsTxt value change, got %+v", result.ValueChanges)
		}
	})

	t.Run("fixing a failure improves", func(t *testing.T) {
		t.Parallel()

		previous := newRunReport(compareURL, base, "Title", model.StatusFail)
		current := newRunReport(compareURL, base.Add(time.Hour), "Title", model.StatusPass)

		if got := compareReports(previous, current).Direction; got != directionImproved {
			t.Errorf("direction = %q", got)
		}
	})
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	deltas := map[int]string{3: "+3", 0: "0", -2: "-2"}
	for in, want := range deltas {
		if got := formatDelta(in); got != want {
			t.Errorf("formatDelta(%d) = %q, want %q", in, got, want)
		}
	}

	directions := map[string]string{
		directionImproved:  "IMPROVED",
		directionWorsened:  "WORSENED",
		directionUnchanged: "UNCHANGED",
		"bogus":            "UNCHANGED",
	}
	for in, want := range directions {
		if got := formatDirection(in); !strings.HasPrefix(got, want) {
			t.Errorf("formatDirection(%q) = %q, want prefix %q", in, got, want)
		}
	}

	if got := formatRunSummary(model.Summary{}); got != "N/A" {
		t.Errorf("empty summary = %q", got)
	}
	if got := formatRunSummary(model.Summary{Passed: 4, Failed: 1, Skipped: 2}); got != "P:4 F:1 S:2" {
		t.Errorf("summary = %q", got)
	}

	if got := shortFingerprint(""); got != "-" {
		t.Errorf("empty fingerprint = %q", got)
	}
	if got := shortFingerprint("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("fingerprint = %q", got)
	}
}

func TestListCheckedURLs(t *testing.T) {
	t.Parallel()

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := listCheckedURLs(context.Background(), openTestDB(t), &buf); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No checked URLs") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("lists urls", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		now := time.Now()
		saveRun(t, db, newRunReport("https://a.example/", now, "A", model.StatusPass))
		saveRun(t, db, newRunReport("https://b.example/", now, "B", model.StatusPass))

		var buf bytes.Buffer
		if err := listCheckedURLs(context.Background(), db, &buf); err != nil {
			t.Fatal(err)
		}
		output := buf.String()
		if !strings.Contains(output, "Checked URLs (2)") ||
			!strings.Contains(output, "https://a.example/") ||
			!strings.Contains(output, "https://b.example/") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})
}

func TestListRunHistory(t *testing.T) {
	t.Parallel()

	t.Run("no history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := listRunHistory(context.Background(), openTestDB(t), compareURL, &buf); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No run history found") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("lists runs", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		base := time.Now().Add(-time.Hour)
		saveRun(t, db, newRunReport(compareURL, base, "One", model.StatusPass))
		saveRun(t, db, newRunReport(compareURL, base.Add(time.Minute), "", model.StatusFail))

		var buf bytes.Buffer
		if err := listRunHistory(context.Background(), db, compareURL, &buf); err != nil {
			t.Fatal(err)
		}
		output := buf.String()
		if !strings.Contains(output, "(2 runs)") {
			t.Errorf("expected run count, got:\n%s", output)
		}
		if !strings.Contains(output, "P:1 F:2 S:0") || !strings.Contains(output, "P:3 F:0 S:0") {
			t.Errorf("expected summaries, got:\n%s", output)
		}
	})
}

func TestRunComparison(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*database.HistoryDB, []int64) {
		t.Helper()
		db := openTestDB(t)
		ids := []int64{
			saveRun(t, db, newRunReport(compareURL, base, "First", model.StatusPass)),
			saveRun(t, db, newRunReport(compareURL, base.AddDate(0, 0, 10), "Second", model.StatusPass)),
			saveRun(t, db, newRunReport(compareURL, base.AddDate(0, 0, 20), "", model.StatusFail)),
		}
		return db, ids
	}

	t.Run("text output compares latest two", func(t *testing.T) {
		t.Parallel()

		db, ids := setup(t)
		var buf bytes.Buffer
		if err := runComparison(context.Background(), db, compareURL, compareOptions{}, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{
			"Run Comparison: " + compareURL,
			"WORSENED",
			"Page content changed.",
			"Page has a title: PASS -> FAIL",
			"- Second",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
		if !strings.Contains(output, "#"+strconv.FormatInt(ids[1], 10)) || !strings.Contains(output, "#"+strconv.FormatInt(ids[2], 10)) {
			t.Errorf("expected run IDs %d and %d in output:\n%s", ids[1], ids[2], output)
		}
	})

	t.Run("json output with run id", func(t *testing.T) {
		t.Parallel()

		db, ids := setup(t)
		var buf bytes.Buffer
		opts := compareOptions{withRunID: ids[0], json: true}
		if err := runComparison(context.Background(), db, compareURL, opts, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result ComparisonResult
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if result.PreviousRun.ID != ids[0] || result.CurrentRun.ID != ids[2] {
			t.Errorf("unexpected run IDs %d and %d", result.PreviousRun.ID, result.CurrentRun.ID)
		}
		if len(result.ValueChanges) != 1 || result.ValueChanges[0].Previous != "First" {
			t.Errorf("unexpected value changes %+v", result.ValueChanges)
		}
	})

	t.Run("markdown output since date", func(t *testing.T) {
		t.Parallel()

		db, _ := setup(t)
		var buf bytes.Buffer
		opts := compareOptions{since: base.AddDate(0, 0, 5).Format("2006-01-02"), markdown: true}
		if err := runComparison(context.Background(), db, compareURL, opts, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "# Run Comparison") {
			t.Errorf("expected markdown heading:\n%s", output)
		}
		if !strings.Contains(output, "Second") {
			t.Errorf("expected the run since the date to be compared:\n%s", output)
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		db, ids := setup(t)
		single := openTestDB(t)
		saveRun(t, single, newRunReport(compareURL, base, "Only", model.StatusPass))
		otherID := saveRun(t, db, newRunReport("https://other.example/", base, "Other", model.StatusPass))

		tests := []struct {
			name    string
			db      *database.HistoryDB
			url     string
			opts    compareOptions
			wantErr string
		}{
			{name: "no history", db: db, url: "https://none.example/", wantErr: "no run history"},
			{name: "single run", db: single, url: compareURL, wantErr: "at least 2 runs"},
			{name: "bad date", db: db, url: compareURL, opts: compareOptions{since: "01/02/2025"}, wantErr: "invalid date format"},
			{name: "no runs since", db: db, url: compareURL, opts: compareOptions{since: "2099-01-01"}, wantErr: "no runs found since"},
			{name: "only latest since", db: db, url: compareURL, opts: compareOptions{since: base.AddDate(0, 0, 15).Format("2006-01-02")}, wantErr: "only one run"},
			{name: "unknown id", db: db, url: compareURL, opts: compareOptions{withRunID: 999}, wantErr: "not found"},
			{name: "id of other url", db: db, url: compareURL, opts: compareOptions{withRunID: otherID}, wantErr: "belongs to"},
			{name: "latest id", db: db, url: compareURL, opts: compareOptions{withRunID: ids[2]}, wantErr: "latest run"},
		}

		for _, tt := range tests {
			err := runComparison(context.Background(), tt.db, tt.url, tt.opts, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.wantErr, err)
			}
		}
	})
}
