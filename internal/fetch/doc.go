// Package fetch retrieves pages over HTTP the way a search engine crawler does.
//
// The Client sends the Googlebot User-Agent by default, negotiates gzip,
// deflate and brotli content encodings and decodes the body itself. It can
// route requests through a SOCKS5 proxy when one is configured.
//
// Redirects and retries are left to net/http defaults; nothing is retried.
package fetch
