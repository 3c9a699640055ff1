package config

import "errors"

// Configuration validation errors.
var (
	// ErrNoTarget is returned when no URL was given to check.
	ErrNoTarget = errors.New("no URL provided: pass --url=<value> or a URL argument")

	// ErrInvalidTarget is returned when a target is not an absolute http(s) URL.
	ErrInvalidTarget = errors.New("invalid URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the body size limit is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLogFormat is returned when --log-format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")
)
