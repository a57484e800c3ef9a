// Package httputil provides retry utilities for registry HTTP clients.
//
// Transient failures (network errors, 5xx responses, rate limiting) are
// marked by wrapping them in [RetryableError]; [Retry] re-attempts only
// those, with exponential backoff:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchFromRegistry()
//	})
//
// Anything not wrapped as retryable fails fast. Response caching is a
// separate concern, handled by the cache package's backends.
package httputil
