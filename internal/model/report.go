package model

import "time"

// Report is everything collected while checking one URL.
type Report struct {
	// URL is the target URL exactly as given by the user.
	URL string `json:"url"`

	// DateChecked is when the run started.
	DateChecked time.Time `json:"date_checked"`

	// StatusCode is the HTTP status of the page, 0 when no response arrived.
	StatusCode int `json:"status_code,omitempty"`

	// FinalURL is the URL after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// Fingerprint is the page content fingerprint.
	Fingerprint string `json:"fingerprint,omitempty"`

	// FetchError holds the fetch failure message, if any.
	FetchError string `json:"fetch_error,omitempty"`

	// Elapsed is the wall time of the whole run.
	Elapsed time.Duration `json:"elapsed"`

	// TimedOut is set when the run was cancelled before all steps finished.
	TimedOut bool `json:"timed_out,omitempty"`

	// Results holds one entry per executed step, in execution order.
	Results []CheckResult `json:"results"`

	// Extracted holds the values observed by the checks.
	Extracted *ExtractedData `json:"extracted"`
}

// Summary counts results by status.
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Total returns the number of counted results.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Skipped
}

// NewReport creates an empty report for url.
func NewReport(url string) *Report {
	return &Report{
		URL:         url,
		DateChecked: time.Now(),
		Results:     make([]CheckResult, 0),
		Extracted:   NewExtractedData(),
	}
}

// AddResult appends a check result.
func (r *Report) AddResult(result CheckResult) {
	r.Results = append(r.Results, result)
}

// Result returns the result of the named check.
func (r *Report) Result(name string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return CheckResult{}, false
}

// Summary counts the results by status.
func (r *Report) Summary() Summary {
	var s Summary
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusSkip:
			s.Skipped++
		}
	}
	return s
}

// Passed reports whether every result passed. A report without results
// has not passed.
func (r *Report) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	s := r.Summary()
	return s.Failed == 0 && s.Skipped == 0
}

// HasTitle reports whether a non-empty title was captured. The key/value
// table is only printed for reports with a title.
func (r *Report) HasTitle() bool {
	title, ok := r.Extracted.Get(KeyTitle)
	return ok && title != ""
}
