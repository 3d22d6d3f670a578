// Package integrations provides HTTP clients for the upstream APIs used by
// enrichment.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [github]: GitHub GraphQL API, raw repository files
//   - [maven]: Maven Central search for coordinates and release timestamps
//
// # Shared Infrastructure
//
// The [Client] type provides the HTTP plumbing used by both: default headers,
// a DNS-caching transport, retries of transient failures through
// [httputil.RetryWithBackoff], file-backed response caching via
// [httputil.Cache], and request/response events for the registered
// [observability.HTTPHooks].
//
//	cache, err := integrations.NewCacheWithNamespace("maven:", 24*time.Hour)
//	client := integrations.NewClient(cache, nil)
//
//	var resp searchResponse
//	err = client.Cached(ctx, key, false, &resp, func() error {
//	    return client.Get(ctx, url, &resp)
//	})
//
// Transient failures (connection errors, 5xx) are returned as
// [httputil.RetryableError] wrapping [ErrNetwork]; a 404 is [ErrNotFound].
//
// [github]: github.com/holly-cummins/extensions.io/pkg/integrations/github
// [maven]: github.com/holly-cummins/extensions.io/pkg/integrations/maven
// [httputil.RetryWithBackoff]: github.com/holly-cummins/extensions.io/pkg/httputil.RetryWithBackoff
// [httputil.Cache]: github.com/holly-cummins/extensions.io/pkg/httputil.Cache
// [httputil.RetryableError]: github.com/holly-cummins/extensions.io/pkg/httputil.RetryableError
// [observability.HTTPHooks]: github.com/holly-cummins/extensions.io/pkg/observability.HTTPHooks
package integrations
