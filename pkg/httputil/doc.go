// Package httputil provides HTTP plumbing shared by the upstream clients.
//
// # Overview
//
//   - [Retry]: retry with exponential backoff for errors wrapped in [RetryableError]
//   - [Breakers]: per-host circuit breakers that open after consecutive
//     transport failures
//   - [NewTransport] / [NewHTTPClient]: an http.Transport dialing through a
//     shared DNS cache
//   - [Cache]: file-based response cache with TTL and namespaces
//
// # Retry
//
// Only errors explicitly marked retryable are retried. Clients mark transport
// failures and 5xx responses; 4xx responses and rate-limit signals are
// returned immediately, since repeating them within a run cannot help.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// # Circuit breaking
//
// A [Breakers] set wraps calls per host. Once a host fails
// [BreakerThreshold] times in a row, calls fail fast with [ErrUpstreamDown]
// until the backoff interval passes. Callers decide which failures count.
//
// # Defaults
//
//   - Retry: 3 attempts, 1 second initial delay
//   - Breaker: 5 consecutive failures, 30 second initial open interval
//   - HTTP timeout: 30 seconds
package httputil
