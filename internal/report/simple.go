package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/nao1215/seosmoke/internal/model"
)

// SimpleWriter outputs human-readable text reports.
//
// The output lists every check with its status, then the extracted
// key/value table and a summary line. The table is only printed when a
// title was captured. Table values keep their whitespace and are cut to
// maxValueLength characters.
type SimpleWriter struct {
	baseWriter

	// verbose adds impact and recommendation text to failures.
	verbose bool

	// maxValueLength is the truncation limit for table values.
	maxValueLength int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithMaxValueLength overrides the truncation limit for table values.
func WithMaxValueLength(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if n > 0 {
			w.maxValueLength = n
		}
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:     newBaseWriter(output),
		maxValueLength: MaxValueLength,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeResults(&sb, report)
	if report.HasTitle() {
		if err := w.writeTable(&sb, report); err != nil {
			return 0, fmt.Errorf("failed to render table: %w", err)
		}
	}
	w.writeSummary(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "SEO smoke check: %s\n", report.URL)
	fmt.Fprintf(sb, "Checked:         %s\n", report.DateChecked.Format("2006-01-02 15:04:05 MST"))
	if report.StatusCode != 0 {
		fmt.Fprintf(sb, "HTTP status:     %d\n", report.StatusCode)
	}
	if report.FinalURL != "" && report.FinalURL != report.URL {
		fmt.Fprintf(sb, "Final URL:       %s\n", report.FinalURL)
	}
	if report.TimedOut {
		sb.WriteString("Status:          TIMED OUT (partial results)\n")
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.Report) {
	for _, res := range report.Results {
		fmt.Fprintf(sb, "  [%s] %s\n", res.StatusText, res.Title)
		if res.Message != "" {
			fmt.Fprintf(sb, "         %s\n", res.Message)
		}
		if w.verbose && res.Failed() {
			fmt.Fprintf(sb, "         Severity: %s\n", res.SeverityText)
			fmt.Fprintf(sb, "         Impact: %s\n", res.Impact)
			fmt.Fprintf(sb, "         Recommendation: %s\n", res.Recommendation)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTable(sb *strings.Builder, report *model.Report) error {
	// Values are shown as extracted, surrounding whitespace included.
	table := tablewriter.NewTable(sb, tablewriter.WithTrimSpace(tw.Off))
	table.Header("Key", "Value")
	for _, f := range report.Extracted.Fields() {
		if err := table.Append([]string{f.Key, Truncate(f.Value, w.maxValueLength)}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	sb.WriteString("\n")
	return nil
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	s := report.Summary()
	fmt.Fprintf(sb, "%d passed, %d failed, %d skipped (%s)\n",
		s.Passed, s.Failed, s.Skipped, report.Elapsed.Round(time.Millisecond))
}
