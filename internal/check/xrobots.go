package check

import (
	"context"
	"strings"

	"github.com/nao1215/seosmoke/internal/model"
)

// XRobotsTagCheck asserts that no X-Robots-Tag header blocks indexing.
//
// Directives may be scoped to a crawler ("googlebot: noindex"); scoped
// directives count only when the crawler name appears in the User-Agent
// the page was fetched with.
type XRobotsTagCheck struct {
	userAgent string
}

// NewXRobotsTagCheck creates a new XRobotsTagCheck for the Googlebot
// User-Agent. Use WithUserAgent to evaluate scoped directives for another.
func NewXRobotsTagCheck() *XRobotsTagCheck {
	return &XRobotsTagCheck{userAgent: "googlebot"}
}

// WithUserAgent sets the User-Agent used to match scoped directives.
func (c *XRobotsTagCheck) WithUserAgent(userAgent string) *XRobotsTagCheck {
	c.userAgent = strings.ToLower(userAgent)
	return c
}

// Name returns the check name.
func (c *XRobotsTagCheck) Name() string { return model.CheckXRobotsTag }

// Key returns the extracted data key.
func (c *XRobotsTagCheck) Key() string { return model.KeyXRobotsTag }

// Title returns the check description.
func (c *XRobotsTagCheck) Title() string { return "X-Robots-Tag allows indexing" }

// Run stores the joined header values, or model.NotFound without the header.
func (c *XRobotsTagCheck) Run(_ context.Context, in *Input) model.CheckResult {
	if in.Page == nil {
		return Skipped(c, "No response available")
	}
	values := in.Page.GetHeaderValues("X-Robots-Tag")
	if len(values) == 0 {
		return pass(c, model.NotFound)
	}

	joined := strings.Join(values, ", ")
	for _, v := range values {
		if c.blocksIndexing(v) {
			return fail(c, joined, "X-Robots-Tag header contains a noindex directive")
		}
	}
	return pass(c, joined)
}

// blocksIndexing reports whether a single header value carries noindex or none
// for the configured crawler.
func (c *XRobotsTagCheck) blocksIndexing(header string) bool {
	scope := ""
	directives := header
	if agent, rest, ok := strings.Cut(header, ":"); ok && !strings.Contains(agent, ",") && !isDirective(agent) {
		scope = strings.ToLower(strings.TrimSpace(agent))
		directives = rest
	}
	if scope != "" && !strings.Contains(c.userAgent, scope) {
		return false
	}

	for _, d := range strings.Split(directives, ",") {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "noindex", "none":
			return true
		}
	}
	return false
}

// isDirective reports whether s is a directive that itself takes a value
// after a colon, such as "unavailable_after: 2030-01-01".
func isDirective(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unavailable_after", "max-snippet", "max-image-preview", "max-video-preview":
		return true
	default:
		return false
	}
}
