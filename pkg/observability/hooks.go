// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about manifest edits, cache operations, and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetManifestHooks(&myManifestHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Manifest().OnParseStart(ctx, path)
//	// ... do parsing ...
//	observability.Manifest().OnParseComplete(ctx, path, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Manifest Hooks
// =============================================================================

// ManifestHooks receives events from manifest parsing and editing.
type ManifestHooks interface {
	// Parse events
	OnParseStart(ctx context.Context, path string)
	OnParseComplete(ctx context.Context, path string, duration time.Duration, err error)

	// Write events
	OnWriteStart(ctx context.Context, path string)
	OnWriteComplete(ctx context.Context, path string, bytes int, duration time.Duration, err error)

	// OnDependencyChange records an add or remove of a dependency in a
	// manifest section ("add" or "remove").
	OnDependencyChange(ctx context.Context, op, crate, section string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
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

// NoopManifestHooks is a no-op implementation of ManifestHooks.
type NoopManifestHooks struct{}

func (NoopManifestHooks) OnParseStart(context.Context, string)                             {}
func (NoopManifestHooks) OnParseComplete(context.Context, string, time.Duration, error)    {}
func (NoopManifestHooks) OnWriteStart(context.Context, string)                             {}
func (NoopManifestHooks) OnWriteComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopManifestHooks) OnDependencyChange(context.Context, string, string, string) {}

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
	manifestHooks ManifestHooks = NoopManifestHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetManifestHooks registers custom manifest hooks.
// This should be called once at application startup before any manifest operations.
func SetManifestHooks(h ManifestHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		manifestHooks = h
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

// Manifest returns the registered manifest hooks.
func Manifest() ManifestHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return manifestHooks
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
	manifestHooks = NoopManifestHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
