package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nao1215/seosmoke/internal/check"
	"github.com/nao1215/seosmoke/internal/fetch"
	"github.com/nao1215/seosmoke/internal/model"
	"github.com/nao1215/seosmoke/internal/parser"
)

// Fetcher retrieves a page. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*model.Page, error)
}

// fetchFailedMessage prefixes every fetch failure.
const fetchFailedMessage = "Failed to fetch the URL."

// FetchStep downloads and parses the target page.
//
// A failed fetch is recorded as a FAIL result for the fetch itself and
// makes every later check step record SKIP. A response declaring a non-HTML
// Content-Type counts as a failed fetch.
type FetchStep struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a new fetch step.
func NewFetchStep(fetcher Fetcher, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return model.CheckFetch
}

// Do fetches run.Target and parses the body into run.Doc.
func (s *FetchStep) Do(ctx context.Context, run *Run) error {
	page, err := s.fetcher.Fetch(ctx, run.Target)
	if page != nil {
		run.Report.StatusCode = page.StatusCode
		run.Report.FinalURL = page.FinalURL
		run.Report.Fingerprint = page.Fingerprint
	}
	if err != nil {
		s.logger.Warn("fetch failed", "url", run.Target, "error", err)
		s.recordFailure(run, FetchErrorMessage(err))
		return nil
	}
	if !page.IsHTML() {
		s.logger.Warn("response is not HTML", "url", run.Target, "content_type", page.ContentType)
		s.recordFailure(run, fmt.Sprintf("%s Response is not HTML (Content-Type: %s)", fetchFailedMessage, page.ContentType))
		return nil
	}

	doc, err := parser.Parse(bytes.NewReader(page.Body))
	if err != nil {
		s.recordFailure(run, fmt.Sprintf("%s %v", fetchFailedMessage, err))
		return nil
	}

	run.Page = page
	run.Doc = doc

	res := model.NewCheckResult(model.CheckFetch, "Page is reachable", model.StatusPass)
	res.Value = strconv.Itoa(page.StatusCode)
	run.Report.AddResult(res)
	return nil
}

func (s *FetchStep) recordFailure(run *Run, message string) {
	res := model.NewCheckResult(model.CheckFetch, "Page is reachable", model.StatusFail)
	res.Message = message
	if run.Report.StatusCode != 0 {
		res.Value = strconv.Itoa(run.Report.StatusCode)
	}
	run.Report.AddResult(res)
	run.Report.FetchError = message
	run.Skip("Page could not be fetched")
}

// FetchErrorMessage renders a fetch error for the report. A known HTTP
// status is reported by code; anything else is appended as the cause.
func FetchErrorMessage(err error) string {
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("%s HTTP status code %d", fetchFailedMessage, statusErr.StatusCode)
	}
	return fmt.Sprintf("%s %v", fetchFailedMessage, err)
}

// CheckStep runs a single check and stores its observed value.
type CheckStep struct {
	check check.Check
}

// NewCheckStep wraps c as a pipeline step.
func NewCheckStep(c check.Check) *CheckStep {
	return &CheckStep{check: c}
}

// Name returns the name of the wrapped check.
func (s *CheckStep) Name() string {
	return s.check.Name()
}

// Do runs the check, or records SKIP when the page is unavailable.
func (s *CheckStep) Do(ctx context.Context, run *Run) error {
	if run.SkipReason != "" || run.Doc == nil {
		reason := run.SkipReason
		if reason == "" {
			reason = "Page was not parsed"
		}
		run.Report.AddResult(check.Skipped(s.check, reason))
		return nil
	}

	res := s.check.Run(ctx, &check.Input{
		TargetURL: run.Target,
		Page:      run.Page,
		Doc:       run.Doc,
	})
	if res.Status != model.StatusSkip {
		run.Report.Extracted.Set(s.check.Key(), res.Value)
	}
	run.Report.AddResult(res)
	return nil
}
