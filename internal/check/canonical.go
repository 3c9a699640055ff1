package check

import (
	"context"
	"fmt"

	"github.com/nao1215/seosmoke/internal/model"
)

const selectorCanonical = `link[rel="canonical"]`

// CanonicalCheck asserts that the canonical link points at the target URL.
//
// The comparison is an exact string match: a trailing slash, a different
// scheme or letter case all count as a mismatch.
type CanonicalCheck struct{}

// NewCanonicalCheck creates a new CanonicalCheck.
func NewCanonicalCheck() *CanonicalCheck {
	return &CanonicalCheck{}
}

// Name returns the check name.
func (c *CanonicalCheck) Name() string { return model.CheckCanonical }

// Key returns the extracted data key.
func (c *CanonicalCheck) Key() string { return model.KeyCanonical }

// Title returns the check description.
func (c *CanonicalCheck) Title() string { return "Canonical URL matches the page URL" }

// Run stores the canonical href, or model.NotFound when there is none.
func (c *CanonicalCheck) Run(_ context.Context, in *Input) model.CheckResult {
	href, found := in.Doc.Attr(selectorCanonical, "href")
	value := orNotFound(href, found)
	if value == model.NotFound {
		return fail(c, value, "No canonical URL found")
	}
	if value != in.TargetURL {
		return fail(c, value, fmt.Sprintf("Canonical URL %q does not match %q", value, in.TargetURL))
	}
	return pass(c, value)
}
