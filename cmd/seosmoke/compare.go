package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/seosmoke/internal/config"
	"github.com/nao1215/seosmoke/internal/database"
	"github.com/nao1215/seosmoke/internal/model"
	"github.com/nao1215/seosmoke/internal/report"
)

// Constants for the overall direction of a comparison.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"

	// noResult marks a check that did not run in one of the two runs.
	noResult = "NONE"
)

// NewCompareCmd creates the compare command.
// This command compares stored check runs for a URL.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare check results with previous runs",
		Long: `Compare displays differences between two stored check runs of a URL.

It shows:
- Checks whether status changed (for example PASS to FAIL)
- Extracted values that changed (title, h1, description, canonical, robots)
- Whether the page content changed at all

The comparison requires at least two runs in the database for the URL.
Use 'seosmoke check --save' to run checks and store results.

Examples:
  # Compare the latest two runs for a page
  seosmoke compare https://example.com/

  # List all runs for a page
  seosmoke compare --list https://example.com/

  # Compare with a specific run by ID
  seosmoke compare --with-run-id 5 https://example.com/

  # Compare with the first run since a date
  seosmoke compare --since "2025-01-01" https://example.com/

  # Output comparison in JSON format
  seosmoke compare --json https://example.com/

  # List all checked URLs in the database
  seosmoke compare --list-urls`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified URL")
	cmd.Flags().BoolP("list-urls", "L", false,
		"List all checked URLs in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// compareOptions selects the runs to compare and the output format.
type compareOptions struct {
	withRunID int64
	since     string
	json      bool
	markdown  bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listURLs, err := cmd.Flags().GetBool("list-urls")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var target string
	if !listURLs {
		if len(args) == 0 {
			return errors.New("URL is required (use --list-urls to see checked URLs)")
		}
		target = args[0]
		if err := config.ValidateTarget(target); err != nil {
			return err
		}
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if listURLs {
		return listCheckedURLs(ctx, db, out)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, target, out)
	}

	var opts compareOptions
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.withRunID, err = cmd.Flags().GetInt64("with-run-id"); err != nil {
		return err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}

	return runComparison(ctx, db, target, opts, out)
}

// listCheckedURLs lists all URLs that have runs in the database.
func listCheckedURLs(ctx context.Context, db *database.HistoryDB, w io.Writer) error {
	urls, err := db.ListCheckedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list URLs: %w", err)
	}

	if len(urls) == 0 {
		fmt.Fprintln(w, "No checked URLs found in the database.")
		fmt.Fprintln(w, "\nUse 'seosmoke check <url>' to check a page.")
		return nil
	}

	fmt.Fprintf(w, "Checked URLs (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(w, "  • %s\n", u)
	}
	fmt.Fprintln(w, "\nUse 'seosmoke compare --list <url>' to see the run history for a URL.")

	return nil
}

// listRunHistory lists all runs for a URL, newest first.
func listRunHistory(ctx context.Context, db *database.HistoryDB, target string, w io.Writer) error {
	runs, err := db.GetHistoryWithMetadata(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(w, "No run history found for %s\n", target)
		fmt.Fprintln(w, "\nUse 'seosmoke check' to check this URL.")
		return nil
	}

	fmt.Fprintf(w, "Run history for %s (%d runs):\n\n", target, len(runs))
	fmt.Fprintf(w, "  %-6s  %-20s  %-16s  %s\n", "ID", "Date", "Results", "Fingerprint")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 64))

	for _, run := range runs {
		fmt.Fprintf(w, "  %-6d  %-20s  %-16s  %s\n",
			run.ID,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			formatRunSummary(run.Summary),
			shortFingerprint(run.Fingerprint),
		)
	}

	fmt.Fprintln(w, "\nUse 'seosmoke compare <url>' to compare the latest two runs.")
	fmt.Fprintln(w, "Use 'seosmoke compare --with-run-id <id> <url>' to compare with a specific run.")

	return nil
}

// formatRunSummary formats result counts as "P:n F:n S:n".
func formatRunSummary(s model.Summary) string {
	if s.Total() == 0 {
		return "N/A"
	}
	return fmt.Sprintf("P:%d F:%d S:%d", s.Passed, s.Failed, s.Skipped)
}

func shortFingerprint(fp string) string {
	if fp == "" {
		return "-"
	}
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// runComparison compares the latest run for target with an earlier one.
//
// The earlier run is, in order of precedence, the run given by ID, the
// oldest run at or after the --since date, or the run before the latest.
func runComparison(ctx context.Context, db *database.HistoryDB, target string, opts compareOptions, w io.Writer) error {
	runs, err := db.GetHistoryWithMetadata(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no run history found for %s", target)
	}

	if len(runs) < 2 && opts.withRunID == 0 && opts.since == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	latest := runs[0]
	var previousID int64

	switch {
	case opts.withRunID > 0:
		previousID = opts.withRunID
	case opts.since != "":
		sinceDate, err := time.ParseInLocation("2006-01-02", opts.since, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		matching, err := db.GetHistorySince(ctx, target, sinceDate)
		if err != nil {
			return fmt.Errorf("failed to get run history: %w", err)
		}
		if len(matching) == 0 {
			return fmt.Errorf("no runs found since %s", opts.since)
		}
		// Newest first, so the oldest match is last.
		oldest := matching[len(matching)-1]
		if oldest.ID == latest.ID {
			return fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", opts.since)
		}
		previousID = oldest.ID
	default:
		previousID = runs[1].ID
	}

	if previousID == latest.ID {
		return fmt.Errorf("run %d is the latest run; choose an earlier run", previousID)
	}

	previous, err := db.GetReportByID(ctx, previousID)
	if err != nil {
		return fmt.Errorf("failed to get run with ID %d: %w", previousID, err)
	}
	if previous == nil {
		return fmt.Errorf("run with ID %d not found", previousID)
	}
	if previous.URL != target {
		return fmt.Errorf("run ID %d belongs to %s, not %s", previousID, previous.URL, target)
	}

	current, err := db.GetReportByID(ctx, latest.ID)
	if err != nil {
		return fmt.Errorf("failed to get run with ID %d: %w", latest.ID, err)
	}
	if current == nil {
		return fmt.Errorf("run with ID %d not found", latest.ID)
	}

	comparison := compareReports(previous, current)
	comparison.PreviousRun.ID = previousID
	comparison.CurrentRun.ID = latest.ID

	switch {
	case opts.json:
		return outputComparisonJSON(comparison, w)
	case opts.markdown:
		return outputComparisonMarkdown(comparison, w)
	default:
		return outputComparisonText(comparison, w)
	}
}

// ComparisonResult holds the result of comparing two check runs.
type ComparisonResult struct {
	// URL is the checked page.
	URL string `json:"url"`

	// PreviousRun describes the earlier run.
	PreviousRun RunSnapshot `json:"previous_run"`

	// CurrentRun describes the later run.
	CurrentRun RunSnapshot `json:"current_run"`

	// StatusChanges lists checks whose status differs between the runs.
	StatusChanges []StatusChange `json:"status_changes,omitempty"`

	// ValueChanges lists extracted values that differ between the runs.
	ValueChanges []ValueChange `json:"value_changes,omitempty"`

	// UnchangedCount is the number of checks with the same status in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// ContentChanged reports whether the page fingerprint changed.
	ContentChanged bool `json:"content_changed"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`
}

// RunSnapshot contains metadata about a run for comparison display.
type RunSnapshot struct {
	ID          int64         `json:"id,omitempty"`
	DateChecked time.Time     `json:"date_checked"`
	StatusCode  int           `json:"status_code,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Summary     model.Summary `json:"summary"`
}

// StatusChange is a check whose status differs between two runs.
type StatusChange struct {
	Check    string `json:"check"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// ValueChange is an extracted value that differs between two runs.
type ValueChange struct {
	Key      string `json:"key"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

func snapshot(r *model.Report) RunSnapshot {
	return RunSnapshot{
		DateChecked: r.DateChecked,
		StatusCode:  r.StatusCode,
		Fingerprint: r.Fingerprint,
		Summary:     r.Summary(),
	}
}

// compareReports compares two reports of the same URL.
func compareReports(previous, current *model.Report) *ComparisonResult {
	result := &ComparisonResult{
		URL:         current.URL,
		PreviousRun: snapshot(previous),
		CurrentRun:  snapshot(current),
	}

	seen := make(map[string]bool, len(current.Results))
	for _, cur := range current.Results {
		seen[cur.Name] = true
		prev, ok := previous.Result(cur.Name)
		switch {
		case !ok:
			result.StatusChanges = append(result.StatusChanges, StatusChange{
				Check:    cur.Name,
				Title:    cur.Title,
				Severity: model.GetSeverity(cur.Name).String(),
				Previous: noResult,
				Current:  cur.Status.String(),
			})
		case prev.Status != cur.Status:
			result.StatusChanges = append(result.StatusChanges, StatusChange{
				Check:    cur.Name,
				Title:    cur.Title,
				Severity: model.GetSeverity(cur.Name).String(),
				Previous: prev.Status.String(),
				Current:  cur.Status.String(),
			})
		default:
			result.UnchangedCount++
		}
	}
	for _, prev := range previous.Results {
		if seen[prev.Name] {
			continue
		}
		result.StatusChanges = append(result.StatusChanges, StatusChange{
			Check:    prev.Name,
			Title:    prev.Title,
			Severity: model.GetSeverity(prev.Name).String(),
			Previous: prev.Status.String(),
			Current:  noResult,
		})
	}

	result.ValueChanges = compareValues(previous.Extracted, current.Extracted)
	result.ContentChanged = previous.Fingerprint != current.Fingerprint
	result.Direction = calculateDirection(previous, current)

	return result
}

// compareValues lists keys whose value differs, in current order followed
// by keys only present in previous.
func compareValues(previous, current *model.ExtractedData) []ValueChange {
	var changes []ValueChange
	seen := make(map[string]bool)
	for _, f := range current.Fields() {
		seen[f.Key] = true
		if prev, _ := previous.Get(f.Key); prev != f.Value {
			changes = append(changes, ValueChange{Key: f.Key, Previous: prev, Current: f.Value})
		}
	}
	for _, f := range previous.Fields() {
		if !seen[f.Key] {
			changes = append(changes, ValueChange{Key: f.Key, Previous: f.Value})
		}
	}
	return changes
}

// failureScore weights failed checks by severity.
func failureScore(r *model.Report) int {
	score := 0
	for _, res := range r.Results {
		if !res.Failed() {
			continue
		}
		switch res.Severity {
		case model.SeverityCritical:
			score += 100
		case model.SeverityHigh:
			score += 50
		case model.SeverityMedium:
			score += 10
		case model.SeverityLow:
			score += 5
		default:
			score++
		}
	}
	return score
}

// calculateDirection tells whether current is better or worse than previous.
func calculateDirection(previous, current *model.Report) string {
	prevScore := failureScore(previous)
	curScore := failureScore(current)

	switch {
	case curScore < prevScore:
		return directionImproved
	case curScore > prevScore:
		return directionWorsened
	default:
		return directionUnchanged
	}
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult, w io.Writer) error {
	md := markdown.NewMarkdown(w)

	md.H1("Run Comparison: " + result.URL)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainText("**Status:** " + formatDirection(result.Direction))
	md.PlainText("")

	prev, cur := result.PreviousRun, result.CurrentRun
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Run ID", strconv.FormatInt(prev.ID, 10), strconv.FormatInt(cur.ID, 10), "-"},
			{"Date", prev.DateChecked.Local().Format("2006-01-02 15:04"), cur.DateChecked.Local().Format("2006-01-02 15:04"), "-"},
			{"HTTP Status", strconv.Itoa(prev.StatusCode), strconv.Itoa(cur.StatusCode), "-"},
			{"Passed", strconv.Itoa(prev.Summary.Passed), strconv.Itoa(cur.Summary.Passed), formatDelta(cur.Summary.Passed - prev.Summary.Passed)},
			{"Failed", strconv.Itoa(prev.Summary.Failed), strconv.Itoa(cur.Summary.Failed), formatDelta(cur.Summary.Failed - prev.Summary.Failed)},
			{"Skipped", strconv.Itoa(prev.Summary.Skipped), strconv.Itoa(cur.Summary.Skipped), formatDelta(cur.Summary.Skipped - prev.Summary.Skipped)},
		},
	})
	md.PlainText("")

	if result.ContentChanged {
		md.Note("The page content changed between the two runs.")
		md.PlainText("")
	}

	if len(result.StatusChanges) > 0 {
		md.H2(fmt.Sprintf("Status Changes (%d)", len(result.StatusChanges)))
		md.PlainText("")
		rows := make([][]string, 0, len(result.StatusChanges))
		for _, c := range result.StatusChanges {
			rows = append(rows, []string{c.Title, c.Severity, c.Previous, c.Current})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Check", "Severity", "Previous", "Current"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(result.ValueChanges) > 0 {
		md.H2(fmt.Sprintf("Value Changes (%d)", len(result.ValueChanges)))
		md.PlainText("")
		rows := make([][]string, 0, len(result.ValueChanges))
		for _, c := range result.ValueChanges {
			rows = append(rows, []string{
				"`" + c.Key + "`",
				markdownCell(report.Truncate(c.Previous, report.MaxValueLength)),
				markdownCell(report.Truncate(c.Current, report.MaxValueLength)),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Key", "Previous", "Current"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainText(fmt.Sprintf("*%d checks unchanged*", result.UnchangedCount))
	}

	return md.Build()
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult, w io.Writer) error {
	fmt.Fprintf(w, "Run Comparison: %s\n", result.URL)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nStatus: %s\n", formatDirection(result.Direction))

	prev, cur := result.PreviousRun, result.CurrentRun
	fmt.Fprintf(w, "\nPrevious run: #%d %s\n", prev.ID, prev.DateChecked.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Current run:  #%d %s\n", cur.ID, cur.DateChecked.Local().Format("2006-01-02 15:04:05"))
	if result.ContentChanged {
		fmt.Fprintln(w, "Page content changed.")
	}

	fmt.Fprintln(w, "\nResults Summary:")
	fmt.Fprintf(w, "  %-10s  %-10s  %-10s  %-10s\n", "Status", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", "Passed",
		prev.Summary.Passed, cur.Summary.Passed, formatDelta(cur.Summary.Passed-prev.Summary.Passed))
	fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", "Failed",
		prev.Summary.Failed, cur.Summary.Failed, formatDelta(cur.Summary.Failed-prev.Summary.Failed))
	fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", "Skipped",
		prev.Summary.Skipped, cur.Summary.Skipped, formatDelta(cur.Summary.Skipped-prev.Summary.Skipped))

	if len(result.StatusChanges) > 0 {
		fmt.Fprintf(w, "\nStatus Changes (%d):\n", len(result.StatusChanges))
		for _, c := range result.StatusChanges {
			fmt.Fprintf(w, "  [%s] %s: %s -> %s\n", c.Severity, c.Title, c.Previous, c.Current)
		}
	}

	if len(result.ValueChanges) > 0 {
		fmt.Fprintf(w, "\nValue Changes (%d):\n", len(result.ValueChanges))
		for _, c := range result.ValueChanges {
			fmt.Fprintf(w, "  %s\n", c.Key)
			fmt.Fprintf(w, "    - %s\n", report.Truncate(c.Previous, report.MaxValueLength))
			fmt.Fprintf(w, "    + %s\n", report.Truncate(c.Current, report.MaxValueLength))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d checks\n", result.UnchangedCount)
	}

	return nil
}

// formatDirection formats the comparison direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (fewer or less severe failures)"
	case directionWorsened:
		return "WORSENED (more or more severe failures)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
