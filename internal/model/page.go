package model

import (
	"encoding/hex"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Page is a fetched HTTP response.
type Page struct {
	// URL is the requested URL.
	URL string `json:"url"`

	// FinalURL is the URL of the response after the client followed redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the Content-Type response header.
	ContentType string `json:"content_type,omitempty"`

	// Headers contains all response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the decoded response body, limited to the configured size.
	Body []byte `json:"-"`

	// Fingerprint is the hex BLAKE2b-256 digest of Body. The history
	// database uses it to tell whether page content changed between runs.
	Fingerprint string `json:"fingerprint,omitempty"`

	// FetchDuration is how long the request took until the body was read.
	FetchDuration time.Duration `json:"fetch_duration"`
}

// ComputeFingerprint sets Fingerprint from Body. An empty body has no fingerprint.
func (p *Page) ComputeFingerprint() {
	if len(p.Body) == 0 {
		p.Fingerprint = ""
		return
	}
	sum := blake2b.Sum256(p.Body)
	p.Fingerprint = hex.EncodeToString(sum[:])
}

// GetHeader returns the first value of the named header, case-insensitively.
func (p *Page) GetHeader(name string) string {
	return http.Header(p.Headers).Get(name)
}

// GetHeaderValues returns all values of the named header.
func (p *Page) GetHeaderValues(name string) []string {
	return http.Header(p.Headers).Values(name)
}

// IsHTML reports whether the response declares an HTML media type.
// A missing Content-Type is treated as HTML because many servers omit it.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		return strings.Contains(strings.ToLower(p.ContentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
