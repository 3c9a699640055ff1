// Package main provides the entry point for the seosmoke CLI.
//
// seosmoke fetches a live web page the way a search engine crawler does and
// runs smoke checks against the SEO-relevant parts of its HTML: the title,
// the first h1, the meta description, the canonical link and the robots
// meta tag.
//
// Usage:
//
//	seosmoke check --url=https://example.com/
//	seosmoke check https://example.com/ https://example.com/about
//	seosmoke check --save https://example.com/ && seosmoke compare https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
