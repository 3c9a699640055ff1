package check

import (
	"context"

	"github.com/nao1215/seosmoke/internal/model"
)

const (
	selectorMetaDescription = `meta[name="description"]`
	selectorMetaRobots      = `meta[name="robots"]`
)

// MetaDescriptionCheck asserts that a non-empty meta description exists.
type MetaDescriptionCheck struct{}

// NewMetaDescriptionCheck creates a new MetaDescriptionCheck.
func NewMetaDescriptionCheck() *MetaDescriptionCheck {
	return &MetaDescriptionCheck{}
}

// Name returns the check name.
func (c *MetaDescriptionCheck) Name() string { return model.CheckMetaDescription }

// Key returns the extracted data key.
func (c *MetaDescriptionCheck) Key() string { return model.KeyMetaDescription }

// Title returns the check description.
func (c *MetaDescriptionCheck) Title() string { return "Meta description is present" }

// Run stores the description content, or model.NotFound when it is absent or empty.
func (c *MetaDescriptionCheck) Run(_ context.Context, in *Input) model.CheckResult {
	content, found := in.Doc.Attr(selectorMetaDescription, "content")
	value := orNotFound(content, found)
	if value == model.NotFound {
		return fail(c, value, "Meta description is missing or empty")
	}
	return pass(c, value)
}

// NoIndexCheck asserts that the robots meta tag does not say "noindex".
//
// Only the exact content "noindex" fails. Combined directives such as
// "noindex, nofollow" are reported as observed but pass.
type NoIndexCheck struct{}

// NewNoIndexCheck creates a new NoIndexCheck.
func NewNoIndexCheck() *NoIndexCheck {
	return &NoIndexCheck{}
}

// Name returns the check name.
func (c *NoIndexCheck) Name() string { return model.CheckNoIndex }

// Key returns the extracted data key.
func (c *NoIndexCheck) Key() string { return model.KeyNoIndex }

// Title returns the check description.
func (c *NoIndexCheck) Title() string { return "Page is not marked noindex" }

// Run stores the robots content, or model.NotFound when there is no tag.
func (c *NoIndexCheck) Run(_ context.Context, in *Input) model.CheckResult {
	content, found := in.Doc.Attr(selectorMetaRobots, "content")
	value := orNotFound(content, found)
	if value == "noindex" {
		return fail(c, value, `Robots meta tag is set to "noindex"`)
	}
	return pass(c, value)
}
