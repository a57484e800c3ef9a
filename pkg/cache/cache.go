// Package cache provides pluggable caching backends and key generation
// for registry and git lookups.
//
// Backends implement the [Cache] interface: a file-based cache for CLI
// usage, a Redis cache for shared deployments, and a null cache for
// tests or offline-only runs. [Keyer] centralizes key construction so
// every consumer derives keys the same way.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with TTL support.
type Cache interface {
	// Get retrieves a value. The second return reports a hit; a miss is
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A zero ttl means no
	// expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// CrateKeyOpts narrows a crate lookup key to a specific query.
type CrateKeyOpts struct {
	// VersionReq is the version requirement the lookup resolved against.
	VersionReq string
	// Registry is the alternate registry name, empty for the default.
	Registry string
}

// Keyer generates cache keys for the lookups cratemod performs.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response.
	HTTPKey(namespace, key string) string

	// CrateKey generates a key for a resolved crate lookup.
	CrateKey(name string, opts CrateKeyOpts) string

	// ManifestKey generates a key for a remote manifest fetched from a
	// git URL at a specific reference.
	ManifestKey(url, ref string) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
// Format: http:namespace:key
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// CrateKey generates a key for a resolved crate lookup. The options are
// hashed in so lookups with different requirements never collide.
func (k *DefaultKeyer) CrateKey(name string, opts CrateKeyOpts) string {
	return hashKey("crate", name, opts)
}

// ManifestKey generates a key for a remote manifest fetch.
func (k *DefaultKeyer) ManifestKey(url, ref string) string {
	return hashKey("manifest", url, ref)
}
