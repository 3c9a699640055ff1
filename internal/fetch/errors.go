package fetch

import (
	"errors"
	"fmt"
)

// ErrInvalidProxyAddress is returned when the proxy address is not in
// "host:port" format.
var ErrInvalidProxyAddress = errors.New("invalid proxy address format, expected host:port")

// StatusError is returned by Fetch when the server answered with a
// non-2xx status code. The page is still returned alongside it.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d for %s", e.StatusCode, e.URL)
}
