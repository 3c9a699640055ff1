package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/seosmoke/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
	titleCase cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titleCase:  cases.Title(language.English),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeResults(md, report)
	if report.HasTitle() {
		w.writeExtracted(md, report)
	}
	w.writeRecommendations(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("SEO Smoke Check")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + report.URL + "`"},
		{"Checked", report.DateChecked.Format("2006-01-02 15:04:05 MST")},
	}
	if report.StatusCode != 0 {
		rows = append(rows, []string{"HTTP Status", strconv.Itoa(report.StatusCode)})
	}
	if report.FetchError != "" {
		rows = append(rows, []string{"Fetch Error", escapeCell(report.FetchError)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	s := report.Summary()
	switch {
	case report.FetchError != "":
		md.Cautionf("The page could not be fetched. %d check(s) were skipped.", s.Skipped)
	case s.Failed > 0:
		md.Warningf("%d of %d check(s) failed.", s.Failed, s.Total())
	case s.Skipped > 0:
		md.Note(strconv.Itoa(s.Skipped) + " check(s) were skipped.")
	default:
		md.Tip("All checks passed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.Report) {
	md.H2("Checks")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{
			statusIcon(res.Status) + " " + res.StatusText,
			res.Title,
			escapeCell(res.Message),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Check", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeExtracted(md *markdown.Markdown, report *model.Report) {
	md.H2("Extracted Values")
	md.PlainText("")

	fields := report.Extracted.Fields()
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{"`" + f.Key + "`", escapeCell(Truncate(f.Value, MaxValueLength))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Key", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, report *model.Report) {
	var failed []model.CheckResult
	for _, res := range report.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	if len(failed) == 0 {
		return
	}

	md.H2("Recommendations")
	md.PlainText("")
	for _, res := range failed {
		md.H3(res.Title + " (" + w.titleCase.String(strings.ToLower(res.SeverityText)) + ")")
		md.PlainText("")
		md.PlainText(res.Impact)
		md.PlainText("")
		md.BulletList(res.Recommendation)
		md.PlainText("")
	}
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusPass:
		return "✅"
	case model.StatusFail:
		return "❌"
	default:
		return "⏭️"
	}
}

// escapeCell keeps pipes and newlines from breaking a Markdown table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
