package fetch

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// decodeBody wraps body with a decompressor for the given Content-Encoding.
// Unknown or empty encodings are passed through.
func decodeBody(encoding string, body io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return r, nil
	case "deflate":
		return newDeflateReader(body)
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	default:
		return io.NopCloser(body), nil
	}
}

// newDeflateReader decodes "deflate" bodies, which are zlib streams.
// Some servers send raw DEFLATE under the same name, so a body without a
// zlib header is read as raw DEFLATE.
func newDeflateReader(body io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(body)
	header, err := br.Peek(2)
	if err != nil && len(header) == 0 {
		if errors.Is(err, io.EOF) {
			return io.NopCloser(br), nil
		}
		return nil, fmt.Errorf("failed to read deflate header: %w", err)
	}
	if !hasZlibHeader(header) {
		return flate.NewReader(br), nil
	}
	r, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	return r, nil
}

// hasZlibHeader reports whether b starts with a zlib CMF/FLG pair
// (RFC 1950): compression method 8 and a header checksum divisible by 31.
func hasZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}
