package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/seosmoke/internal/model"
)

// createTestReport creates a report where every default check passed.
func createTestReport() *model.Report {
	report := model.NewReport("https://example.com/")
	report.StatusCode = 200
	report.Elapsed = 120 * time.Millisecond

	fetch := model.NewCheckResult(model.CheckFetch, "Page is reachable", model.StatusPass)
	fetch.Value = "200"
	report.AddResult(fetch)

	values := []struct {
		name, key, title, value string
	}{
		{model.CheckTitle, model.KeyTitle, "Title is present", "Home"},
		{model.CheckH1, model.KeyH1, "H1 heading is present", "Welcome"},
		{model.CheckMetaDescription, model.KeyMetaDescription, "Meta description is present", "A site."},
		{model.CheckCanonical, model.KeyCanonical, "Canonical URL matches the page URL", "https://example.com/"},
		{model.CheckNoIndex, model.KeyNoIndex, "Page is not marked noindex", model.NotFound},
	}
	for _, v := range values {
		res := model.NewCheckResult(v.name, v.title, model.StatusPass)
		res.Key = v.key
		res.Value = v.value
		report.AddResult(res)
		report.Extracted.Set(v.key, v.value)
	}
	return report
}

// createFailedFetchReport creates a report for a page that returned 404.
func createFailedFetchReport() *model.Report {
	report := model.NewReport("https://example.com/missing")
	report.StatusCode = 404
	report.FetchError = "Failed to fetch the URL. HTTP status code 404"

	fetch := model.NewCheckResult(model.CheckFetch, "Page is reachable", model.StatusFail)
	fetch.Message = report.FetchError
	report.AddResult(fetch)
	for _, name := range []string{model.CheckTitle, model.CheckH1} {
		res := model.NewCheckResult(name, name, model.StatusSkip)
		res.Message = "Page could not be fetched"
		report.AddResult(res)
	}
	return report
}

// tableRows counts the rendered key/value rows by looking for known keys.
func tableRows(output string) int {
	n := 0
	for _, key := range []string{"meta.Description", "canonical", "noIndex"} {
		if strings.Contains(output, key) {
			n++
		}
	}
	return n
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header, results and table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()

		for _, want := range []string{
			"SEO smoke check: https://example.com/",
			"HTTP status:     200",
			"[PASS] Title is present",
			"[PASS] Canonical URL matches the page URL",
			"Home",
			"Welcome",
			"A site.",
			"6 passed, 0 failed, 0 skipped",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if tableRows(output) != 3 {
			t.Errorf("expected key/value table rows in output\n%s", output)
		}
		if strings.Contains(output, "...") {
			t.Error("no value should be truncated")
		}
	})

	t.Run("truncates long values in the table", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		long := strings.Repeat("d", 120)
		report.Extracted.Set(model.KeyMetaDescription, long)

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, strings.Repeat("d", 80)+"...") {
			t.Errorf("expected truncated value\n%s", output)
		}
		if strings.Contains(output, strings.Repeat("d", 81)) {
			t.Error("value longer than 80 characters printed")
		}
		if v, _ := report.Extracted.Get(model.KeyMetaDescription); v != long {
			t.Error("writer must not modify the stored value")
		}
	})

	t.Run("table keeps surrounding whitespace", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Extracted.Set(model.KeyTitle, " Home  page ")

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "  Home  page ") {
			t.Errorf("expected untrimmed title in table\n%s", buf.String())
		}
	})

	t.Run("no table without a title", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createFailedFetchReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[FAIL] Page is reachable") {
			t.Error("expected failed fetch line")
		}
		if !strings.Contains(output, "Failed to fetch the URL. HTTP status code 404") {
			t.Error("expected fetch error message")
		}
		if !strings.Contains(output, "[SKIP]") {
			t.Error("expected skipped checks")
		}
		if strings.Contains(output, "VALUE") || strings.Contains(output, "Value") {
			t.Errorf("table must not be printed\n%s", output)
		}
		if !strings.Contains(output, "0 passed, 1 failed, 2 skipped") {
			t.Errorf("unexpected summary\n%s", output)
		}
	})

	t.Run("verbose adds recommendations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createFailedFetchReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Recommendation:") {
			t.Error("expected recommendation in verbose output")
		}
	})

	t.Run("custom truncation limit", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Extracted.Set(model.KeyTitle, "A fairly long page title")

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithMaxValueLength(6)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "A fair...") {
			t.Errorf("expected custom truncation\n%s", buf.String())
		}
	})
}

// TestJSONWriter tests JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid json with untruncated values", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		long := strings.Repeat("x", 100)
		report.Extracted.Set(model.KeyH1, long)

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Version string        `json:"version"`
			Passed  bool          `json:"passed"`
			Summary model.Summary `json:"summary"`
			Report  struct {
				URL       string        `json:"url"`
				Extracted []model.Field `json:"extracted"`
			} `json:"report"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if decoded.Version != "v1.2.3" || !decoded.Passed {
			t.Errorf("unexpected wrapper %+v", decoded)
		}
		if decoded.Summary.Passed != 6 {
			t.Errorf("got summary %+v", decoded.Summary)
		}
		if len(decoded.Report.Extracted) != 5 || decoded.Report.Extracted[1].Value != long {
			t.Errorf("unexpected extracted values %+v", decoded.Report.Extracted)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"passed\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t\"passed\"") {
			t.Errorf("expected custom indent, got %s", buf.String())
		}
	})
}

// TestMarkdownWriter tests Markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("passing report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{
			"# SEO Smoke Check",
			"## Checks",
			"## Extracted Values",
			"`meta.Description`",
			"All checks passed.",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "## Recommendations") {
			t.Error("no recommendations expected for a passing report")
		}
	})

	t.Run("failed fetch", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createFailedFetchReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "## Extracted Values") {
			t.Error("extracted values must not be printed without a title")
		}
		if !strings.Contains(output, "## Recommendations") {
			t.Error("expected recommendations section")
		}
		if !strings.Contains(output, "(Critical)") {
			t.Errorf("expected title-cased severity\n%s", output)
		}
	})

	t.Run("escapes pipes", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Extracted.Set(model.KeyTitle, "Home | Example")

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `Home \| Example`) {
			t.Error("expected escaped pipe")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.Report) (int, error) {
	return 0, errors.New("write failed")
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("got %d bytes, expected %d", n, a.Len()+b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		if _, err := mw.Write(createTestReport()); err == nil {
			t.Error("expected error")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not run")
		}
	})
}

// TestTruncate tests value truncation.
func TestTruncate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		value    string
		limit    int
		expected string
	}{
		{"short", "Home", 80, "Home"},
		{"exactly limit", strings.Repeat("a", 80), 80, strings.Repeat("a", 80)},
		{"one over", strings.Repeat("a", 81), 80, strings.Repeat("a", 80) + "..."},
		{"multibyte", strings.Repeat("日", 82), 80, strings.Repeat("日", 80) + "..."},
		{"combining mark counts once", strings.Repeat("e\u0301", 3), 2, "\u00e9\u00e9..."},
		{"short value is not normalized", "Cafe\u0301", 80, "Cafe\u0301"},
		{"fits only after normalizing", strings.Repeat("e\u0301", 2), 3, strings.Repeat("e\u0301", 2)},
		{"surrounding whitespace kept", " Home  page ", 80, " Home  page "},
		{"non-positive limit", "abc", 0, "abc"},
		{"empty", "", 80, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tc.value, tc.limit); got != tc.expected {
				t.Errorf("Truncate(%q, %d) = %q, expected %q", tc.value, tc.limit, got, tc.expected)
			}
		})
	}
}
