package check

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/nao1215/seosmoke/internal/model"
)

// TextFetcher downloads auxiliary text resources. *fetch.Client implements it.
type TextFetcher interface {
	FetchText(ctx context.Context, target string) (int, []byte, error)
	UserAgent() string
}

// RobotsTxtCheck asserts that robots.txt allows the crawler to fetch the
// target path. A robots.txt answered with 4xx allows everything; 5xx
// disallows everything.
type RobotsTxtCheck struct {
	fetcher TextFetcher
}

// NewRobotsTxtCheck creates a new RobotsTxtCheck.
func NewRobotsTxtCheck(fetcher TextFetcher) *RobotsTxtCheck {
	return &RobotsTxtCheck{fetcher: fetcher}
}

// Name returns the check name.
func (c *RobotsTxtCheck) Name() string { return model.CheckRobotsTxt }

// Key returns the extracted data key.
func (c *RobotsTxtCheck) Key() string { return model.KeyRobotsTxt }

// Title returns the check description.
func (c *RobotsTxtCheck) Title() string { return "robots.txt allows crawling" }

// Run fetches robots.txt for the target host and tests the target path.
// The stored value is "Allowed" or "Disallowed".
func (c *RobotsTxtCheck) Run(ctx context.Context, in *Input) model.CheckResult {
	target, err := url.Parse(in.TargetURL)
	if err != nil {
		return Skipped(c, fmt.Sprintf("Invalid target URL: %v", err))
	}

	robotsURL := url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}
	status, body, err := c.fetcher.FetchText(ctx, robotsURL.String())
	if err != nil {
		return Skipped(c, fmt.Sprintf("Failed to fetch robots.txt: %v", err))
	}

	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		return Skipped(c, fmt.Sprintf("Failed to parse robots.txt: %v", err))
	}

	agent := robotsAgent(c.fetcher.UserAgent())
	if !data.TestAgent(target.RequestURI(), agent) {
		return fail(c, "Disallowed", fmt.Sprintf("robots.txt disallows %s for %s", target.RequestURI(), agent))
	}
	return pass(c, "Allowed")
}

// robotsAgent extracts the product token robots.txt groups are matched
// against, e.g. "Googlebot" from the Googlebot User-Agent string.
func robotsAgent(userAgent string) string {
	lower := strings.ToLower(userAgent)
	if i := strings.Index(lower, "compatible;"); i >= 0 {
		if name := productName(strings.TrimSpace(userAgent[i+len("compatible;"):])); name != "" {
			return name
		}
	}
	return productName(strings.TrimSpace(userAgent))
}

func productName(s string) string {
	if end := strings.IndexAny(s, "/ ;)"); end >= 0 {
		return s[:end]
	}
	return s
}
