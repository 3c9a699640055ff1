// Package check implements the SEO assertions run against a fetched page.
//
// Each Check extracts one value from the page, decides PASS or FAIL and
// returns the observed value so it can be stored under the check's key in
// the report's extracted data. Checks are independent of each other; a
// failure in one never prevents the next from running.
//
// The default set covers the title, the first h1, the meta description,
// the canonical link and the robots meta tag. Extended checks look at the
// X-Robots-Tag response header and the site's robots.txt.
package check
