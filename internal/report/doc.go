// Package report renders check reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text with a key/value table
//   - MarkdownWriter: Markdown for sharing in issues and pull requests
//   - JSONWriter: structured JSON for tool integration
//
// Human-readable writers truncate extracted values with Truncate; the JSON
// writer keeps them intact.
package report
