package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/holly-cummins/extensions.io/pkg/httputil"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a resource doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrRateLimited is returned for plain REST endpoints that answer 429.
	ErrRateLimited = errors.New("rate limited")
)

// NewHTTPClient creates an HTTP client with a standard timeout and the shared
// DNS-caching transport.
func NewHTTPClient() *http.Client {
	return httputil.NewHTTPClient(httpTimeout)
}

// NewCache creates a file-based cache with the given TTL in the default cache directory.
// See [httputil.NewCache] for details on cache location and behavior.
func NewCache(ttl time.Duration) (*httputil.Cache, error) {
	return httputil.NewCache("", ttl)
}

// NewCacheWithNamespace is [NewCache] with every key prefixed by ns.
func NewCacheWithNamespace(ns string, ttl time.Duration) (*httputil.Cache, error) {
	c, err := NewCache(ttl)
	if err != nil {
		return nil, err
	}
	return c.Namespace(ns), nil
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }
