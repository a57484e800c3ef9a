// Package crates provides an HTTP client for the crates.io API.
//
// # Overview
//
// This package fetches crate metadata from crates.io (https://crates.io),
// the Rust community's package registry, and resolves version requirements
// against the published version list.
//
// # Usage
//
//	backend, err := cache.NewFileCache(dir)
//	client := crates.NewClient(backend, 24*time.Hour)
//
//	v, err := client.Resolve(ctx, "serde", "^1.0", false)  // false = use cache
//	fmt.Println(v.Num, v.Features)
//
// # Version Resolution
//
// [Client.Resolve] picks the newest non-yanked version satisfying a cargo
// version requirement (caret, tilde, exact, wildcards, comparators, and
// comma-separated combinations). With an empty requirement, stable
// versions are preferred over pre-releases.
//
// # Caching
//
// Responses are cached to reduce load on crates.io. The cache TTL is set
// when creating the client. Pass refresh=true to bypass the cache.
//
// # User-Agent
//
// The client includes a User-Agent header as requested by crates.io policy.
package crates
