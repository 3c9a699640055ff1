package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/seosmoke/internal/model"
)

const (
	// defaultUserAgent is the Googlebot desktop User-Agent.
	defaultUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

	// acceptHTML is sent when fetching the target page.
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// acceptText is sent for auxiliary resources such as robots.txt.
	acceptText = "text/plain,*/*;q=0.8"

	// acceptEncoding lists the encodings decodeBody understands.
	acceptEncoding = "gzip, deflate, br"

	// defaultMaxBodySize bounds the decoded body when no limit is configured.
	defaultMaxBodySize = 5 * 1024 * 1024

	// robotsMaxBodySize bounds robots.txt bodies.
	robotsMaxBodySize = 1 << 20
)

// Client fetches pages with a fixed User-Agent and optional SOCKS5 proxy.
type Client struct {
	httpClient   *http.Client
	proxyAddress string
	userAgent    string
	cookie       string
	headers      map[string]string
	maxBodySize  int64
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithCookie sets a raw Cookie header (e.g. "session=abc") on every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithMaxBodySize limits how many decoded body bytes are kept.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client. The timeout and proxy
// passed to NewClient are ignored when this option is used.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. An empty proxyAddress means direct connections;
// otherwise it must be a SOCKS5 proxy in "host:port" format.
// The proxy is not contacted until the first request.
func NewClient(timeout time.Duration, proxyAddress string, opts ...Option) (*Client, error) {
	c := &Client{
		proxyAddress: proxyAddress,
		userAgent:    defaultUserAgent,
		headers:      make(map[string]string),
		maxBodySize:  defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		transport, err := newTransport(proxyAddress)
		if err != nil {
			return nil, err
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   timeout,
		}
	}

	return c, nil
}

// newTransport builds a transport that dials directly or through SOCKS5.
func newTransport(proxyAddress string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	// Accept-Encoding is negotiated by hand so brotli can be decoded as well.
	transport.DisableCompression = true

	if proxyAddress == "" {
		return transport, nil
	}
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}

// isValidProxyAddress checks that address is "host:port" with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// ProxyAddress returns the configured proxy address, empty for direct connections.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Fetch performs one GET request for target and returns the decoded page.
//
// A response with a non-2xx status is returned together with a *StatusError,
// so callers can still inspect headers and body. Transport failures return a
// nil page.
func (c *Client) Fetch(ctx context.Context, target string) (*model.Page, error) {
	start := time.Now()

	resp, err := c.get(ctx, target, acceptHTML)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp, c.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	page := &model.Page{
		URL:           target,
		FinalURL:      resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		Headers:       resp.Header,
		Body:          body,
		FetchDuration: time.Since(start),
	}
	page.ComputeFingerprint()

	c.logger.Debug("page fetched",
		"url", target,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", page.FetchDuration,
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return page, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
	return page, nil
}

// FetchText performs a GET for an auxiliary text resource and returns its
// status code and decoded body. Non-2xx statuses are not errors here.
func (c *Client) FetchText(ctx context.Context, target string) (int, []byte, error) {
	resp, err := c.get(ctx, target, acceptText)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp, robotsMaxBodySize)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) get(ctx context.Context, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	c.logger.Debug("sending request", "url", target, "user_agent", c.userAgent, "cookie", c.cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// readBody decodes the body according to Content-Encoding and keeps at most
// limit bytes of the decoded content.
func readBody(resp *http.Response, limit int64) ([]byte, error) {
	reader, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, limit))
}
