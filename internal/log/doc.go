// Package log provides slog-based logging that masks sensitive values.
//
// Site configurations may carry cookies and authorization headers so that
// pages behind a consent wall or a staging login can be checked. Those values
// end up in debug logs when requests are traced, so every record passes
// through SecureHandler, which replaces them with MaskValue.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("request prepared",
//	    "url", "https://example.com/",
//	    "cookie", "session=abc123", // logged as ***REDACTED***
//	)
package log
