// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// This package contains the low-level client infrastructure used to talk
// to crate registries. The registry-specific client lives in its own
// subpackage:
//
//   - [crates]: the crates.io API client used for version resolution
//     and feature discovery
//
// # Client Pattern
//
// Registry clients follow a consistent pattern:
//
//	backend, err := cache.NewFileCache(dir)
//	client := crates.NewClient(backend, 24*time.Hour)  // cache TTL
//	crate, err := client.FetchCrate(ctx, "serde", false)  // false = use cache
//
// Clients handle:
//   - HTTP requests with retry (via httputil)
//   - Response caching through a cache.Cache backend, namespaced per registry
//   - API-specific parsing and normalization
//
// # Shared Infrastructure
//
// The [Client] type provides the shared HTTP functionality: default
// headers, JSON decoding, and the Cached fetch-or-reuse helper.
//
// [crates]: github.com/matzehuels/cratemod/pkg/integrations/crates
package integrations
