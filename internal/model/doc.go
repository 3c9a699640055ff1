// Package model defines the data structures shared by the fetcher, the
// checks, the report writers and the history database.
//
// The main types are:
//   - Page: a fetched HTTP response
//   - CheckResult: the outcome of one check
//   - ExtractedData: the ordered key/value pairs observed on the page
//   - Report: everything collected for one target URL
//
// All types serialize to JSON; the history database stores reports in that form.
package model
