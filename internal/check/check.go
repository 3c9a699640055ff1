package check

import (
	"context"
	"strings"

	"github.com/nao1215/seosmoke/internal/model"
	"github.com/nao1215/seosmoke/internal/parser"
)

// Check is a single assertion against a page.
type Check interface {
	// Name identifies the check in results (see model.Check* constants).
	Name() string

	// Key is the extracted data key the observed value is stored under.
	Key() string

	// Title is a short description of what is asserted.
	Title() string

	// Run performs the check. The returned result carries the observed value.
	Run(ctx context.Context, in *Input) model.CheckResult
}

// Input is everything a check may look at.
type Input struct {
	// TargetURL is the URL given by the user, unmodified.
	TargetURL string

	// Page is the fetched response.
	Page *model.Page

	// Doc is the parsed body of Page.
	Doc *parser.Document
}

// Defaults returns the five page checks in reporting order.
func Defaults() []Check {
	return []Check{
		NewTitleCheck(),
		NewH1Check(),
		NewMetaDescriptionCheck(),
		NewCanonicalCheck(),
		NewNoIndexCheck(),
	}
}

// Extended returns the opt-in checks. fetcher is used to download robots.txt.
func Extended(fetcher TextFetcher) []Check {
	return []Check{
		NewXRobotsTagCheck().WithUserAgent(fetcher.UserAgent()),
		NewRobotsTxtCheck(fetcher),
	}
}

// Skipped returns a SKIP result for c with the given reason.
func Skipped(c Check, reason string) model.CheckResult {
	r := model.NewCheckResult(c.Name(), c.Title(), model.StatusSkip)
	r.Key = c.Key()
	r.Message = reason
	return r
}

func pass(c Check, value string) model.CheckResult {
	r := model.NewCheckResult(c.Name(), c.Title(), model.StatusPass)
	r.Key = c.Key()
	r.Value = value
	return r
}

func fail(c Check, value, message string) model.CheckResult {
	r := model.NewCheckResult(c.Name(), c.Title(), model.StatusFail)
	r.Key = c.Key()
	r.Value = value
	r.Message = message
	return r
}

// isBlank reports whether s has no visible characters.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// orNotFound substitutes model.NotFound for empty attribute values.
func orNotFound(value string, found bool) string {
	if !found || value == "" {
		return model.NotFound
	}
	return value
}
