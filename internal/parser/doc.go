// Package parser turns an HTML byte stream into a queryable document.
//
// Parsing is done by golang.org/x/net/html, which recovers from malformed
// markup the same way browsers do. Queries use CSS selectors through goquery.
package parser
