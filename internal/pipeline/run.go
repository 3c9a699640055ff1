package pipeline

import (
	"github.com/nao1215/seosmoke/internal/model"
	"github.com/nao1215/seosmoke/internal/parser"
)

// Run is the state shared by the steps of one pipeline execution.
type Run struct {
	// Target is the URL being checked, exactly as given.
	Target string

	// Report collects results and extracted values.
	Report *model.Report

	// Page is the fetched response, nil until the fetch step succeeded.
	Page *model.Page

	// Doc is the parsed page, nil until the fetch step succeeded.
	Doc *parser.Document

	// SkipReason is set when checks cannot run.
	SkipReason string
}

// NewRun creates the state for checking target.
func NewRun(target string) *Run {
	return &Run{
		Target: target,
		Report: model.NewReport(target),
	}
}

// Skip marks all later checks as skipped for reason.
func (r *Run) Skip(reason string) {
	if r.SkipReason == "" {
		r.SkipReason = reason
	}
}
