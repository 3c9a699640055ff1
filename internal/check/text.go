package check

import (
	"context"
	"fmt"

	"github.com/nao1215/seosmoke/internal/model"
)

// TitleCheck asserts that the document has a non-empty <title>.
type TitleCheck struct{}

// NewTitleCheck creates a new TitleCheck.
func NewTitleCheck() *TitleCheck {
	return &TitleCheck{}
}

// Name returns the check name.
func (c *TitleCheck) Name() string { return model.CheckTitle }

// Key returns the extracted data key.
func (c *TitleCheck) Key() string { return model.KeyTitle }

// Title returns the check description.
func (c *TitleCheck) Title() string { return "Title is present" }

// Run stores the raw title text and fails when it is blank.
func (c *TitleCheck) Run(_ context.Context, in *Input) model.CheckResult {
	title := in.Doc.Title()
	if isBlank(title) {
		return fail(c, title, "Page title is missing or empty")
	}
	return pass(c, title)
}

// H1Check asserts that the first <h1> has text.
// Only the first heading is inspected.
type H1Check struct{}

// NewH1Check creates a new H1Check.
func NewH1Check() *H1Check {
	return &H1Check{}
}

// Name returns the check name.
func (c *H1Check) Name() string { return model.CheckH1 }

// Key returns the extracted data key.
func (c *H1Check) Key() string { return model.KeyH1 }

// Title returns the check description.
func (c *H1Check) Title() string { return "H1 heading is present" }

// Run stores the text of the first h1 and fails when it is blank.
// Extra h1 elements are noted in the message but do not affect the status.
func (c *H1Check) Run(_ context.Context, in *Input) model.CheckResult {
	h1 := in.Doc.FirstText("h1")
	if isBlank(h1) {
		return fail(c, h1, "H1 heading is missing or empty")
	}
	res := pass(c, h1)
	if n := in.Doc.Count("h1"); n > 1 {
		res.Message = fmt.Sprintf("Page has %d h1 headings; only the first is checked", n)
	}
	return res
}
