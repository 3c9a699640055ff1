// Package pipeline runs the fetch and check steps for a target URL.
//
// A Pipeline executes its steps in order against a Run, which carries the
// target URL, the fetched page and the report being built. The first step
// fetches and parses the page; each following step runs one check. When the
// fetch fails, the check steps record SKIP results instead of running, so a
// report is always produced.
//
// BatchProcessor checks several URLs concurrently, giving each URL its own
// pipeline instance.
package pipeline
