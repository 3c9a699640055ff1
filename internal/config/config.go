package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultUserAgent identifies requests as Googlebot so the server returns
	// the same HTML a search engine would index.
	DefaultUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of URLs checked concurrently.
	DefaultBatchSize = 4

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "seosmoke"
)

// Log formats accepted by --log-format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds all configuration options for a check run.
type Config struct {
	// Targets are the page URLs to check. Each is compared verbatim
	// against the page's canonical link, so no normalisation is applied.
	Targets []string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// MaxBodySize is the maximum number of body bytes read per response.
	MaxBodySize int64

	// BatchSize is the number of URLs checked concurrently.
	BatchSize int

	// Extended enables the header and robots.txt checks on top of the
	// five page checks.
	Extended bool

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// ConfigFilePath is the path given with --config.
	ConfigFilePath string

	// SiteConfigs holds defaults and per-site overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// SaveToDB stores every report in the history database. Off unless
	// --save or the config file's history setting turns it on.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig returns a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		BatchSize:   DefaultBatchSize,
		LogFormat:   LogFormatText,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the directory used for persistent data such as the
// run history database.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the directory searched for a user-level config file.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, target := range c.Targets {
		if err := ValidateTarget(target); err != nil {
			return err
		}
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	return nil
}

// ValidateTarget reports whether target is an absolute http or https URL.
func ValidateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidTarget, target, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	return nil
}
