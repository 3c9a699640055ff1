package model

// Status is the outcome of a single check.
type Status int

const (
	// StatusPass means the assertion held.
	StatusPass Status = iota

	// StatusFail means the assertion did not hold.
	StatusFail

	// StatusSkip means the check could not run, typically because the page
	// was never fetched.
	StatusSkip
)

// String returns the label used in reports.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	case StatusSkip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// CheckResult is the outcome of one check against one page.
type CheckResult struct {
	// Name identifies the check (see the Check* constants).
	Name string `json:"name"`

	// Key is the ExtractedData key the check wrote to. Empty for the fetch step.
	Key string `json:"key,omitempty"`

	// Title is a short human-readable description of what was asserted.
	Title string `json:"title"`

	// Status is PASS, FAIL or SKIP.
	Status Status `json:"status"`

	// StatusText is the human-readable status.
	StatusText string `json:"status_text"`

	// Severity is set for failed checks only.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity of a failure.
	SeverityText string `json:"severity_text,omitempty"`

	// Message explains a failure or a skip.
	Message string `json:"message,omitempty"`

	// Value is the observed value, untruncated.
	Value string `json:"value,omitempty"`

	// Impact and Recommendation are filled for failures from the check table.
	Impact         string `json:"impact,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// NewCheckResult builds a result for check name. Failures are annotated with
// the severity, impact and recommendation registered for the check.
func NewCheckResult(name, title string, status Status) CheckResult {
	r := CheckResult{
		Name:       name,
		Title:      title,
		Status:     status,
		StatusText: status.String(),
	}
	if status == StatusFail {
		info := GetCheckInfo(name)
		r.Severity = info.Severity
		r.SeverityText = info.Severity.String()
		r.Impact = info.Impact
		r.Recommendation = info.Recommendation
	}
	return r
}

// Passed reports whether the check passed.
func (r CheckResult) Passed() bool {
	return r.Status == StatusPass
}

// Failed reports whether the check failed.
func (r CheckResult) Failed() bool {
	return r.Status == StatusFail
}
