// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about enrichment runs, cache operations, and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [Stats] is a ready-made implementation of all three interfaces that keeps
// counters in memory; the CLI uses it for the end-of-run summary.
//
// # Usage
//
// Register hooks at application startup:
//
//	stats := observability.NewStats()
//	observability.SetEnrichHooks(stats)
//	observability.SetCacheHooks(stats)
//	observability.SetHTTPHooks(stats)
//
// Libraries call hooks to emit events:
//
//	observability.Enrich().OnEntryStart(ctx, key)
//	// ... resolve issues, images, metadata ...
//	observability.Enrich().OnEntryComplete(ctx, key, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Enrich Hooks
// =============================================================================

// EnrichHooks receives events from the enrichment orchestrator.
type EnrichHooks interface {
	// OnEntryStart is called before an entry's source-control lookups begin.
	OnEntryStart(ctx context.Context, key string)

	// OnEntryComplete is called once per entry. err is non-nil only for
	// failures that abort the run; downgraded sub-resolution errors are
	// reported through OnFieldMissing.
	OnEntryComplete(ctx context.Context, key string, duration time.Duration, err error)

	// OnFieldMissing records a sub-resolution that ended without a value.
	OnFieldMissing(ctx context.Context, key, field string, err error)

	// OnRunComplete is called once when a run finishes.
	OnRunComplete(ctx context.Context, records int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, cache string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, cache string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, cache string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEnrichHooks is a no-op implementation of EnrichHooks.
type NoopEnrichHooks struct{}

func (NoopEnrichHooks) OnEntryStart(context.Context, string)                          {}
func (NoopEnrichHooks) OnEntryComplete(context.Context, string, time.Duration, error) {}
func (NoopEnrichHooks) OnFieldMissing(context.Context, string, string, error)         {}
func (NoopEnrichHooks) OnRunComplete(context.Context, int, time.Duration, error)      {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	enrichHooks EnrichHooks = NoopEnrichHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetEnrichHooks registers custom enrichment hooks.
// This should be called once at application startup before any run.
func SetEnrichHooks(h EnrichHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		enrichHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Enrich returns the registered enrichment hooks.
func Enrich() EnrichHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return enrichHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	enrichHooks = NoopEnrichHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
