package model

// Severity represents how much a failed check hurts the page in search.
type Severity int

const (
	// SeverityInfo is used for results with no direct indexing impact.
	SeverityInfo Severity = iota

	// SeverityLow indicates a minor issue.
	SeverityLow

	// SeverityMedium indicates an issue that degrades how the page is shown
	// in results, such as a missing description.
	SeverityMedium

	// SeverityHigh indicates an issue that changes which URL gets indexed
	// or how the page is ranked.
	SeverityHigh

	// SeverityCritical indicates the page will not be indexed at all.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Check names. These identify results in reports and in the history database.
const (
	CheckFetch           = "fetch"
	CheckTitle           = "title"
	CheckH1              = "h1"
	CheckMetaDescription = "meta_description"
	CheckCanonical       = "canonical"
	CheckNoIndex         = "noindex"
	CheckXRobotsTag      = "x_robots_tag"
	CheckRobotsTxt       = "robots_txt"
)

// CheckInfo describes what a failure of a check means and how to fix it.
type CheckInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// checkInfoMapping is the single source of severity and remediation text.
var checkInfoMapping = map[string]CheckInfo{
	CheckFetch: {
		Severity:       SeverityCritical,
		Impact:         "The page could not be retrieved with a crawler user agent, so search engines cannot index it either.",
		Recommendation: "Make sure the URL returns a 2xx response to Googlebot and is not blocked by a firewall or bot filter.",
	},
	CheckNoIndex: {
		Severity:       SeverityCritical,
		Impact:         "The robots meta tag tells search engines to drop the page from their index.",
		Recommendation: "Remove the noindex directive unless the page is meant to stay out of search results.",
	},
	CheckXRobotsTag: {
		Severity:       SeverityCritical,
		Impact:         "The X-Robots-Tag response header tells search engines not to index the page.",
		Recommendation: "Remove noindex from the X-Robots-Tag header in the server or CDN configuration.",
	},
	CheckRobotsTxt: {
		Severity:       SeverityCritical,
		Impact:         "robots.txt disallows the crawler from fetching this URL.",
		Recommendation: "Adjust the Disallow rules in robots.txt so the page path is crawlable.",
	},
	CheckCanonical: {
		Severity:       SeverityHigh,
		Impact:         "Without a self-referencing canonical link, search engines may index a duplicate URL instead of this one.",
		Recommendation: `Add <link rel="canonical" href="..."> pointing at the exact URL of the page.`,
	},
	CheckTitle: {
		Severity:       SeverityHigh,
		Impact:         "The title is the headline shown in search results and a strong ranking signal.",
		Recommendation: "Add a descriptive, unique <title> element to the document head.",
	},
	CheckH1: {
		Severity:       SeverityMedium,
		Impact:         "A missing main heading weakens the topical signal of the page.",
		Recommendation: "Add one <h1> element that summarizes the page content.",
	},
	CheckMetaDescription: {
		Severity:       SeverityMedium,
		Impact:         "Search engines generate their own snippet when no description is provided.",
		Recommendation: `Add <meta name="description" content="..."> with a concise summary of the page.`,
	},
}

// GetSeverity returns the severity of a failed check.
// Unknown checks are reported as SeverityInfo.
func GetSeverity(checkName string) Severity {
	if info, ok := checkInfoMapping[checkName]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetCheckInfo returns the severity, impact and recommendation for a check.
func GetCheckInfo(checkName string) CheckInfo {
	if info, ok := checkInfoMapping[checkName]; ok {
		return info
	}
	return CheckInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown check. Review manually.",
		Recommendation: "Investigate the result and assess its impact.",
	}
}
